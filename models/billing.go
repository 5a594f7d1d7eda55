package models

import (
	"time"

	"github.com/pkg/errors"
)

const (
	InvoicePaid    = "Paid"
	InvoicePending = "Pending"
	InvoiceOverdue = "Overdue"
	InvoicePartial = "Partial"
)

const DefaultInvoiceDueDays = 7

var ErrOverpayment = errors.New("payment exceeds invoice balance")

// Billing aggregates every invoice of one company.
type Billing struct {
	Code      string    `json:"code" bson:"code"`
	TenantId  string    `json:"tenantId" bson:"tenantId"`
	Invoices  []Invoice `json:"invoices" bson:"invoices"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Invoice struct {
	Code        string    `json:"code" bson:"code"`
	Description string    `json:"description" bson:"description"`
	TotalAmount float64   `json:"totalAmount" bson:"totalAmount"`
	PaidAmount  float64   `json:"paidAmount" bson:"paidAmount"`
	Balance     float64   `json:"balance" bson:"balance"`
	Status      string    `json:"status" bson:"status"`
	IssueDate   time.Time `json:"issueDate" bson:"issueDate"`
	DueDate     time.Time `json:"dueDate" bson:"dueDate"`
}

/*
* Balance is always total minus paid
* Fully paid non-zero invoices are Paid
* Anything paid in part is Partial
* Unpaid invoices past their due date are Overdue
 */
func (i *Invoice) Recalculate(now time.Time) {
	i.Balance = i.TotalAmount - i.PaidAmount
	switch {
	case i.TotalAmount > 0 && i.Balance <= 0:
		i.Status = InvoicePaid
	case i.PaidAmount > 0:
		i.Status = InvoicePartial
	case i.Balance > 0 && now.After(i.DueDate):
		i.Status = InvoiceOverdue
	default:
		i.Status = InvoicePending
	}
}

// ApplyPayment adds amount to the paid total.
func (i *Invoice) ApplyPayment(amount float64, now time.Time) error {
	if amount <= 0 {
		return errors.New("payment amount must be positive")
	}
	if amount > i.TotalAmount-i.PaidAmount {
		return ErrOverpayment
	}
	i.PaidAmount += amount
	i.Recalculate(now)
	return nil
}
