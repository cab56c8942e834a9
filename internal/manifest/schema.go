package manifest

import (
	"fmt"

	"github.com/gosuda/qbsync/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version        int                  `toml:"version"`
	Customers      []customerSchema     `toml:"customers"`
	Employees      []employeeSchema     `toml:"employees"`
	Invoices       []invoiceSchema      `toml:"invoices"`
	JournalEntries []journalEntrySchema `toml:"journal_entries"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported manifest schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type customerSchema struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Company string `toml:"company,omitempty"`
	Email   string `toml:"email,omitempty"`
	Phone   string `toml:"phone,omitempty"`
}

type employeeSchema struct {
	ID        string `toml:"id"`
	FirstName string `toml:"first_name"`
	LastName  string `toml:"last_name"`
	JobTitle  string `toml:"job_title,omitempty"`
}

type invoiceSchema struct {
	ID           string              `toml:"id"`
	CustomerName string              `toml:"customer_name"`
	TxnDate      string              `toml:"txn_date,omitempty"`
	Lines        []invoiceLineSchema `toml:"lines"`
}

type invoiceLineSchema struct {
	ItemName string  `toml:"item_name"`
	Desc     string  `toml:"desc,omitempty"`
	Quantity float64 `toml:"quantity"`
	Rate     float64 `toml:"rate"`
}

type journalEntrySchema struct {
	ID          string              `toml:"id"`
	TxnDate     string              `toml:"txn_date,omitempty"`
	Memo        string              `toml:"memo,omitempty"`
	DebitLines  []journalLineSchema `toml:"debit_lines"`
	CreditLines []journalLineSchema `toml:"credit_lines"`
}

type journalLineSchema struct {
	AccountName string  `toml:"account_name"`
	Amount      float64 `toml:"amount"`
	Memo        string  `toml:"memo,omitempty"`
}

func (s fileSchema) toBatches() domain.Batches {
	var b domain.Batches
	for _, c := range s.Customers {
		b.Customers = append(b.Customers, domain.Customer(c))
	}
	for _, e := range s.Employees {
		b.Employees = append(b.Employees, domain.Employee(e))
	}
	for _, inv := range s.Invoices {
		lines := make([]domain.InvoiceLine, 0, len(inv.Lines))
		for _, l := range inv.Lines {
			lines = append(lines, domain.InvoiceLine(l))
		}
		b.Invoices = append(b.Invoices, domain.Invoice{
			ID:           inv.ID,
			CustomerName: inv.CustomerName,
			TxnDate:      inv.TxnDate,
			Lines:        lines,
		})
	}
	for _, je := range s.JournalEntries {
		b.JournalEntries = append(b.JournalEntries, domain.JournalEntry{
			ID:          je.ID,
			TxnDate:     je.TxnDate,
			Memo:        je.Memo,
			DebitLines:  toJournalLines(je.DebitLines),
			CreditLines: toJournalLines(je.CreditLines),
		})
	}
	return b
}

func toJournalLines(in []journalLineSchema) []domain.JournalLine {
	out := make([]domain.JournalLine, 0, len(in))
	for _, l := range in {
		out = append(out, domain.JournalLine(l))
	}
	return out
}

func fromBatches(b domain.Batches) fileSchema {
	s := fileSchema{Version: currentSchemaVersion}
	for _, c := range b.Customers {
		s.Customers = append(s.Customers, customerSchema(c))
	}
	for _, e := range b.Employees {
		s.Employees = append(s.Employees, employeeSchema(e))
	}
	for _, inv := range b.Invoices {
		lines := make([]invoiceLineSchema, 0, len(inv.Lines))
		for _, l := range inv.Lines {
			lines = append(lines, invoiceLineSchema(l))
		}
		s.Invoices = append(s.Invoices, invoiceSchema{
			ID:           inv.ID,
			CustomerName: inv.CustomerName,
			TxnDate:      inv.TxnDate,
			Lines:        lines,
		})
	}
	for _, je := range b.JournalEntries {
		s.JournalEntries = append(s.JournalEntries, journalEntrySchema{
			ID:          je.ID,
			TxnDate:     je.TxnDate,
			Memo:        je.Memo,
			DebitLines:  fromJournalLines(je.DebitLines),
			CreditLines: fromJournalLines(je.CreditLines),
		})
	}
	return s
}

func fromJournalLines(in []domain.JournalLine) []journalLineSchema {
	out := make([]journalLineSchema, 0, len(in))
	for _, l := range in {
		out = append(out, journalLineSchema(l))
	}
	return out
}
