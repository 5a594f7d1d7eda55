package services

import (
	"context"
	"testing"
	"time"

	"TenantHub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bundle, err := NewProvisioner(f.deps, nil).Provision(ctx, acme())
	require.NoError(t, err)
	b := NewBillingService(f.deps)
	tenantID := bundle.Company.Code

	inv, err := b.AddInvoice(ctx, tenantID, InvoiceInput{Description: "Seats", TotalAmount: 100})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePending, inv.Status)
	assert.Equal(t, 100.0, inv.Balance)
	assert.Equal(t, f.now.AddDate(0, 0, models.DefaultInvoiceDueDays), inv.DueDate)

	paid, err := b.RecordPayment(ctx, tenantID, inv.Code, 40)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePartial, paid.Status)
	assert.Equal(t, 60.0, paid.Balance)

	_, err = b.RecordPayment(ctx, tenantID, inv.Code, 61)
	assert.True(t, IsKind(err, KindValidation))

	paid, err = b.RecordPayment(ctx, tenantID, inv.Code, 60)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)

	billing, err := b.FetchBilling(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, billing.Invoices, 2)
	assert.Equal(t, models.InvoicePaid, billing.Invoices[1].Status)
}

func TestFetchBillingMarksOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bundle, err := NewProvisioner(f.deps, nil).Provision(ctx, acme())
	require.NoError(t, err)
	b := NewBillingService(f.deps)

	_, err = b.AddInvoice(ctx, bundle.Company.Code, InvoiceInput{TotalAmount: 10, DueDate: f.now.Add(time.Hour)})
	require.NoError(t, err)
	f.now = f.now.Add(48 * time.Hour)

	billing, err := b.FetchBilling(ctx, bundle.Company.Code)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, billing.Invoices[1].Status)
}

func TestBillingErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := NewBillingService(f.deps)

	_, err := b.AddInvoice(ctx, "C1", InvoiceInput{TotalAmount: -1})
	assert.True(t, IsKind(err, KindValidation))
	_, err = b.FetchBilling(ctx, "C404")
	assert.True(t, IsKind(err, KindNotFound))

	bundle, err := NewProvisioner(f.deps, nil).Provision(ctx, acme())
	require.NoError(t, err)
	_, err = b.RecordPayment(ctx, bundle.Company.Code, "D404", 1)
	assert.True(t, IsKind(err, KindNotFound))
}
