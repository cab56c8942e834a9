package manifest

import "github.com/gosuda/qbsync/internal/domain"

// Sample is the demo data set served when no manifest is configured. Every
// invoice customer is created earlier in the same run. The item "Services"
// and the accounts "Office Expenses" and "Checking" must already exist in
// the company file.
func Sample() domain.Batches {
	return domain.Batches{
		Customers: []domain.Customer{
			{ID: "C1001", Name: "John Doe", Email: "john.doe@example.com", Phone: "555-1234"},
			{ID: "C1002", Name: "Jane Smith", Email: "jane.smith@example.com", Company: "Smith Co."},
		},
		Employees: []domain.Employee{
			{ID: "E101", FirstName: "Sarah", LastName: "Jenkins", JobTitle: "Developer"},
			{ID: "E102", FirstName: "Mike", LastName: "Brown", JobTitle: "Sales Rep"},
		},
		Invoices: []domain.Invoice{
			{
				ID:           "INV-001",
				CustomerName: "John Doe",
				TxnDate:      "2024-10-25",
				Lines: []domain.InvoiceLine{
					{ItemName: "Services", Desc: "Web Development", Quantity: 10, Rate: 150.00},
					{ItemName: "Services", Desc: "Consulting", Quantity: 2, Rate: 200.00},
				},
			},
		},
		JournalEntries: []domain.JournalEntry{
			{
				ID:      "GL-001",
				TxnDate: "2024-10-25",
				Memo:    "Monthly office supplies",
				DebitLines: []domain.JournalLine{
					{AccountName: "Office Expenses", Amount: 250.00, Memo: "Pens and paper"},
				},
				CreditLines: []domain.JournalLine{
					{AccountName: "Checking", Amount: 250.00, Memo: "Paid from main account"},
				},
			},
		},
	}
}
