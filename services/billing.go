package services

import (
	"context"
	"strings"
	"time"

	"TenantHub/models"
	"TenantHub/store"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type InvoiceInput struct {
	Description string    `json:"description"`
	TotalAmount float64   `json:"totalAmount"`
	DueDate     time.Time `json:"dueDate"`
}

type BillingService struct {
	Deps
}

func NewBillingService(d Deps) *BillingService {
	return &BillingService{Deps: d.withDefaults()}
}

// FetchBilling returns the billing record of a company with every invoice
// status brought up to date.
func (b *BillingService) FetchBilling(ctx context.Context, tenantID string) (*models.Billing, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, validationError("FetchBilling", "tenant id required")
	}
	var billing models.Billing
	if err := b.Records.FindOne(ctx, store.BillingCollection, store.ByTenant(tenantID), &billing); err != nil {
		b.Log.Error("Error from findOne while fetching billing", zap.String("tenantId", tenantID), zap.Error(err))
		return nil, classify("FetchBilling", err)
	}
	now := b.Now()
	for i := range billing.Invoices {
		billing.Invoices[i].Recalculate(now)
	}
	return &billing, nil
}

/*
* Amount must not be negative
* Due date defaults to the standard payment window
* Status is derived, never taken from the caller
 */
func (b *BillingService) AddInvoice(ctx context.Context, tenantID string, in InvoiceInput) (*models.Invoice, error) {
	if in.TotalAmount < 0 {
		return nil, validationError("AddInvoice", "total amount must not be negative")
	}
	billing, err := b.FetchBilling(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := b.Now()
	inv := models.Invoice{
		Code:        store.DocumentCode(),
		Description: strings.TrimSpace(in.Description),
		TotalAmount: in.TotalAmount,
		IssueDate:   now,
		DueDate:     in.DueDate,
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = now.AddDate(0, 0, models.DefaultInvoiceDueDays)
	}
	inv.Recalculate(now)

	invoices := append(billing.Invoices, inv)
	if err := b.Records.Update(ctx, store.BillingCollection, billing.Code, bson.M{"invoices": invoices, "updatedAt": now}); err != nil {
		b.Log.Error("Error from updateOne while adding invoice", zap.String("tenantId", tenantID), zap.Error(err))
		return nil, classify("AddInvoice", err)
	}
	return &inv, nil
}

// RecordPayment applies amount to one invoice; paying more than the balance is rejected.
func (b *BillingService) RecordPayment(ctx context.Context, tenantID, invoiceCode string, amount float64) (*models.Invoice, error) {
	billing, err := b.FetchBilling(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, inv := range billing.Invoices {
		if inv.Code == invoiceCode {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, notFoundError("RecordPayment", "invoice %q not found", invoiceCode)
	}
	now := b.Now()
	if err := billing.Invoices[idx].ApplyPayment(amount, now); err != nil {
		if errors.Is(err, models.ErrOverpayment) {
			return nil, &Error{Kind: KindValidation, Op: "RecordPayment", Err: err}
		}
		return nil, validationError("RecordPayment", "%v", err)
	}
	if err := b.Records.Update(ctx, store.BillingCollection, billing.Code, bson.M{"invoices": billing.Invoices, "updatedAt": now}); err != nil {
		b.Log.Error("Error from updateOne while recording payment", zap.String("tenantId", tenantID), zap.Error(err))
		return nil, classify("RecordPayment", err)
	}
	return &billing.Invoices[idx], nil
}
