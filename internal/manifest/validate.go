package manifest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gosuda/qbsync/internal/domain"
)

// ErrInvalid wraps every validation failure reported by Validate.
var ErrInvalid = errors.New("manifest: invalid") //nolint:gochecknoglobals // sentinel error

// Validate checks the batches before they are queued. IDs must be non-empty
// and unique within a kind, invoices need a customer and at least one line,
// and journal entries must balance to the cent. All problems are reported
// together.
func Validate(b domain.Batches) error {
	var errs []error

	ids := newIDSet()
	for i, c := range b.Customers {
		errs = append(errs, ids.check(domain.JobKindCustomer, i, c.ID))
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("customer %q: name is required", c.ID))
		}
	}
	for i, e := range b.Employees {
		errs = append(errs, ids.check(domain.JobKindEmployee, i, e.ID))
		if e.FullName() == "" {
			errs = append(errs, fmt.Errorf("employee %q: first or last name is required", e.ID))
		}
	}
	for i, inv := range b.Invoices {
		errs = append(errs, ids.check(domain.JobKindInvoice, i, inv.ID))
		if strings.TrimSpace(inv.CustomerName) == "" {
			errs = append(errs, fmt.Errorf("invoice %q: customer_name is required", inv.ID))
		}
		if len(inv.Lines) == 0 {
			errs = append(errs, fmt.Errorf("invoice %q: at least one line is required", inv.ID))
		}
	}
	for i, je := range b.JournalEntries {
		errs = append(errs, ids.check(domain.JobKindJournalEntry, i, je.ID))
		if len(je.DebitLines) == 0 || len(je.CreditLines) == 0 {
			errs = append(errs, fmt.Errorf("journal entry %q: needs debit and credit lines", je.ID))
			continue
		}
		debits, credits := je.Totals()
		if cents(debits) != cents(credits) {
			errs = append(errs, fmt.Errorf("journal entry %q: debits %.2f do not equal credits %.2f", je.ID, debits, credits))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type idSet map[domain.JobKind]map[string]struct{}

func newIDSet() idSet {
	return idSet{}
}

func (s idSet) check(kind domain.JobKind, index int, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s #%d: id is required", kind, index+1)
	}
	seen, ok := s[kind]
	if !ok {
		seen = map[string]struct{}{}
		s[kind] = seen
	}
	if _, dup := seen[id]; dup {
		return fmt.Errorf("%s %q: duplicate id", kind, id)
	}
	seen[id] = struct{}{}
	return nil
}
