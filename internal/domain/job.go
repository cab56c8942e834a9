package domain

import (
	"fmt"
	"strconv"
)

// JobKind identifies which accounting document a job produces.
type JobKind string

const (
	JobKindCustomer     JobKind = "customer"
	JobKindEmployee     JobKind = "employee"
	JobKindInvoice      JobKind = "invoice"
	JobKindJournalEntry JobKind = "journal_entry"
)

// Valid reports whether k is one of the known kinds.
func (k JobKind) Valid() bool {
	switch k {
	case JobKindCustomer, JobKindEmployee, JobKindInvoice, JobKindJournalEntry:
		return true
	default:
		return false
	}
}

// IsMasterData reports whether records of this kind can be referenced by
// transactional records and therefore must be created first.
func (k JobKind) IsMasterData() bool {
	return k == JobKindCustomer || k == JobKindEmployee
}

// Payload is the kind-specific data carried by a Job. The set of
// implementations is closed: Customer, Employee, Invoice, JournalEntry.
type Payload interface {
	Kind() JobKind
	// Key is the caller-assigned business identifier, unique within a kind.
	Key() string
	isPayload()
}

// Job is one queued unit of work to replay against the accounting application.
type Job struct {
	Kind       JobKind
	ID         string
	Payload    Payload
	RetryCount int
}

// NewJob wraps a payload in a fresh job with RetryCount 0.
func NewJob(p Payload) Job {
	return Job{Kind: p.Kind(), ID: p.Key(), Payload: p}
}

// RequestID returns the identifier for the current attempt of this job. It
// embeds the retry count so successive attempts carry distinct identifiers.
func (j Job) RequestID() string {
	return string(j.Kind) + "_" + j.ID + "_r" + strconv.Itoa(j.RetryCount)
}

// String formats the job for log messages.
func (j Job) String() string {
	return fmt.Sprintf("%s/%s (retry %d)", j.Kind, j.ID, j.RetryCount)
}

// Batches holds the records to sync for one connector run, grouped by kind.
type Batches struct {
	Customers      []Customer
	Employees      []Employee
	Invoices       []Invoice
	JournalEntries []JournalEntry
}

// Len returns the total number of records across all batches.
func (b Batches) Len() int {
	return len(b.Customers) + len(b.Employees) + len(b.Invoices) + len(b.JournalEntries)
}

// Jobs flattens the batches into queue order. All master data (customers,
// then employees) precedes all transactions (invoices, then journal
// entries), because a transaction that references a not-yet-created master
// record is rejected by QuickBooks.
func (b Batches) Jobs() []Job {
	jobs := make([]Job, 0, b.Len())
	for i := range b.Customers {
		jobs = append(jobs, NewJob(b.Customers[i]))
	}
	for i := range b.Employees {
		jobs = append(jobs, NewJob(b.Employees[i]))
	}
	for i := range b.Invoices {
		jobs = append(jobs, NewJob(b.Invoices[i]))
	}
	for i := range b.JournalEntries {
		jobs = append(jobs, NewJob(b.JournalEntries[i]))
	}
	return jobs
}
