package domain

// Customer is a CustomerAdd record.
type Customer struct {
	ID      string
	Name    string
	Company string
	Email   string
	Phone   string
}

// Employee is an EmployeeAdd record.
type Employee struct {
	ID        string
	FirstName string
	LastName  string
	JobTitle  string
}

// InvoiceLine is one line of an invoice. ItemName must already exist in the
// QuickBooks item list.
type InvoiceLine struct {
	ItemName string
	Desc     string
	Quantity float64
	Rate     float64
}

// Invoice is an InvoiceAdd record. CustomerName references a Customer by name.
type Invoice struct {
	ID           string
	CustomerName string
	TxnDate      string // YYYY-MM-DD; empty means the day the request is rendered
	Lines        []InvoiceLine
}

// JournalLine is a debit or credit line of a journal entry. AccountName must
// already exist in the chart of accounts.
type JournalLine struct {
	AccountName string
	Amount      float64
	Memo        string
}

// JournalEntry is a JournalEntryAdd record (a general ledger entry).
type JournalEntry struct {
	ID          string
	TxnDate     string
	Memo        string
	DebitLines  []JournalLine
	CreditLines []JournalLine
}

func (Customer) Kind() JobKind     { return JobKindCustomer }
func (Employee) Kind() JobKind     { return JobKindEmployee }
func (Invoice) Kind() JobKind      { return JobKindInvoice }
func (JournalEntry) Kind() JobKind { return JobKindJournalEntry }

func (c Customer) Key() string     { return c.ID }
func (e Employee) Key() string     { return e.ID }
func (i Invoice) Key() string      { return i.ID }
func (j JournalEntry) Key() string { return j.ID }

func (Customer) isPayload()     {}
func (Employee) isPayload()     {}
func (Invoice) isPayload()      {}
func (JournalEntry) isPayload() {}

// FullName is the employee's display name.
func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	default:
		return e.FirstName + " " + e.LastName
	}
}

// Totals returns the sum of debit and credit amounts.
func (j JournalEntry) Totals() (debits, credits float64) {
	for _, l := range j.DebitLines {
		debits += l.Amount
	}
	for _, l := range j.CreditLines {
		credits += l.Amount
	}
	return debits, credits
}
