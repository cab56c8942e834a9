package qbxml

import "encoding/xml"

// Request-side element tree. Only the fields this server sends are modelled.

type document struct {
	XMLName xml.Name `xml:"QBXML"`
	Msgs    msgsRq   `xml:"QBXMLMsgsRq"`
}

type msgsRq struct {
	OnError         string             `xml:"onError,attr"`
	CustomerAdd     *customerAddRq     `xml:"CustomerAddRq,omitempty"`
	EmployeeAdd     *employeeAddRq     `xml:"EmployeeAddRq,omitempty"`
	InvoiceAdd      *invoiceAddRq      `xml:"InvoiceAddRq,omitempty"`
	JournalEntryAdd *journalEntryAddRq `xml:"JournalEntryAddRq,omitempty"`
}

type ref struct {
	FullName string `xml:"FullName"`
}

type customerAddRq struct {
	RequestID string      `xml:"requestID,attr"`
	Add       customerAdd `xml:"CustomerAdd"`
}

type customerAdd struct {
	Name        string `xml:"Name"`
	CompanyName string `xml:"CompanyName,omitempty"`
	Email       string `xml:"Email,omitempty"`
	Phone       string `xml:"Phone,omitempty"`
}

type employeeAddRq struct {
	RequestID string      `xml:"requestID,attr"`
	Add       employeeAdd `xml:"EmployeeAdd"`
}

type employeeAdd struct {
	FirstName string `xml:"FirstName,omitempty"`
	LastName  string `xml:"LastName,omitempty"`
	JobTitle  string `xml:"JobTitle,omitempty"`
}

type invoiceAddRq struct {
	RequestID string     `xml:"requestID,attr"`
	Add       invoiceAdd `xml:"InvoiceAdd"`
}

type invoiceAdd struct {
	CustomerRef ref              `xml:"CustomerRef"`
	TxnDate     string           `xml:"TxnDate"`
	Lines       []invoiceLineAdd `xml:"InvoiceLineAdd"`
}

type invoiceLineAdd struct {
	ItemRef  ref    `xml:"ItemRef"`
	Desc     string `xml:"Desc,omitempty"`
	Quantity string `xml:"Quantity"`
	Rate     string `xml:"Rate"`
}

type journalEntryAddRq struct {
	RequestID string          `xml:"requestID,attr"`
	Add       journalEntryAdd `xml:"JournalEntryAdd"`
}

// Debit lines are emitted before credit lines; the element order is part of
// the JournalEntryAdd schema.
type journalEntryAdd struct {
	TxnDate     string        `xml:"TxnDate"`
	Memo        string        `xml:"Memo,omitempty"`
	DebitLines  []journalLine `xml:"JournalDebitLine"`
	CreditLines []journalLine `xml:"JournalCreditLine"`
}

type journalLine struct {
	AccountRef ref    `xml:"AccountRef"`
	Amount     string `xml:"Amount"`
	Memo       string `xml:"Memo,omitempty"`
}
