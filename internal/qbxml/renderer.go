// Package qbxml renders sync jobs as qbXML request documents and interprets
// the response documents QuickBooks sends back.
package qbxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gosuda/qbsync/internal/domain"
)

// Version is the qbXML version every request declares.
const Version = "13.0"

const (
	onErrorStop = "stopOnError"
	dateLayout  = "2006-01-02"
)

// ErrUnsupportedPayload is returned when a job carries a payload the renderer
// has no template for.
var ErrUnsupportedPayload = errors.New("qbxml: unsupported payload") //nolint:gochecknoglobals // sentinel error

// Renderer builds qbXML add requests. The zero value is not usable; call
// NewRenderer.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a renderer that dates undated transactions with the
// current local day.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// WithClock replaces the clock used for the TxnDate default.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render returns the qbXML request document for one attempt of job.
// requestID is echoed back by QuickBooks in the matching response.
func (r *Renderer) Render(job domain.Job, requestID string) (string, error) {
	var msgs msgsRq
	switch p := job.Payload.(type) {
	case domain.Customer:
		msgs.CustomerAdd = customerRq(p, requestID)
	case domain.Employee:
		msgs.EmployeeAdd = employeeRq(p, requestID)
	case domain.Invoice:
		msgs.InvoiceAdd = r.invoiceRq(p, requestID)
	case domain.JournalEntry:
		msgs.JournalEntryAdd = r.journalEntryRq(p, requestID)
	default:
		return "", fmt.Errorf("qbxml.Renderer.Render: %w: %T", ErrUnsupportedPayload, job.Payload)
	}
	msgs.OnError = onErrorStop

	doc, err := encode(document{Msgs: msgs})
	if err != nil {
		return "", fmt.Errorf("qbxml.Renderer.Render: %s: %w", requestID, err)
	}
	return doc, nil
}

// Interpret reports whether a response document confirms the request.
func (r *Renderer) Interpret(doc string) domain.Verdict {
	return Interpret(doc)
}

func encode(doc document) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	buf.WriteString(`<?qbxml version="` + Version + `"?>` + "\n")

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func customerRq(c domain.Customer, requestID string) *customerAddRq {
	return &customerAddRq{
		RequestID: requestID,
		Add: customerAdd{
			Name:        c.Name,
			CompanyName: c.Company,
			Email:       c.Email,
			Phone:       c.Phone,
		},
	}
}

func employeeRq(e domain.Employee, requestID string) *employeeAddRq {
	return &employeeAddRq{
		RequestID: requestID,
		Add: employeeAdd{
			FirstName: e.FirstName,
			LastName:  e.LastName,
			JobTitle:  e.JobTitle,
		},
	}
}

func (r *Renderer) invoiceRq(inv domain.Invoice, requestID string) *invoiceAddRq {
	lines := make([]invoiceLineAdd, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, invoiceLineAdd{
			ItemRef:  ref{FullName: l.ItemName},
			Desc:     l.Desc,
			Quantity: formatQuantity(l.Quantity),
			Rate:     formatAmount(l.Rate),
		})
	}
	return &invoiceAddRq{
		RequestID: requestID,
		Add: invoiceAdd{
			CustomerRef: ref{FullName: inv.CustomerName},
			TxnDate:     r.txnDate(inv.TxnDate),
			Lines:       lines,
		},
	}
}

func (r *Renderer) journalEntryRq(je domain.JournalEntry, requestID string) *journalEntryAddRq {
	return &journalEntryAddRq{
		RequestID: requestID,
		Add: journalEntryAdd{
			TxnDate:     r.txnDate(je.TxnDate),
			Memo:        je.Memo,
			DebitLines:  journalLines(je.DebitLines),
			CreditLines: journalLines(je.CreditLines),
		},
	}
}

func journalLines(in []domain.JournalLine) []journalLine {
	out := make([]journalLine, 0, len(in))
	for _, l := range in {
		out = append(out, journalLine{
			AccountRef: ref{FullName: l.AccountName},
			Amount:     formatAmount(l.Amount),
			Memo:       l.Memo,
		})
	}
	return out
}

func (r *Renderer) txnDate(date string) string {
	if date != "" {
		return date
	}
	return r.now().Format(dateLayout)
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// formatAmount renders money with exactly two decimals, the AMTTYPE format.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
