package services

import (
	"context"
	"testing"

	"TenantHub/events"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/role"
	"TenantHub/store"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

func acme() ProfileFields {
	return ProfileFields{
		Name:     "Acme Inc",
		Email:    "Owner@Acme.test",
		Password: "s3cret-pass",
		Industry: "Manufacturing",
	}
}

func allCollections() []string {
	return append([]string{store.CompanyCollection}, store.DependentCollections...)
}

func countFor(f *fixture, tenantID string) map[string]int {
	out := map[string]int{}
	out[store.CompanyCollection] = f.mem.Count(store.CompanyCollection, store.ByCode(tenantID))
	for _, coll := range store.DependentCollections {
		out[coll] = f.mem.Count(coll, store.ByTenant(tenantID))
	}
	return out
}

func TestProvisionCommitsFullBundle(t *testing.T) {
	f := newFixture(t)
	p := NewProvisioner(f.deps, nil)

	bundle, err := p.Provision(context.Background(), acme())
	require.NoError(t, err)

	tenantID := bundle.Company.Code
	for coll, n := range countFor(f, tenantID) {
		assert.Equal(t, 1, n, coll)
	}
	assert.Equal(t, "owner@acme.test", bundle.Company.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(bundle.Company.Password), []byte("s3cret-pass")))

	for _, dependent := range []string{
		bundle.Credentials.TenantId, bundle.Employee.TenantId, bundle.Billing.TenantId,
		bundle.Project.TenantId, bundle.AIChat.TenantId,
	} {
		assert.Equal(t, tenantID, dependent)
	}

	require.Len(t, bundle.Credentials.Users, 1)
	assert.Equal(t, role.Admin, bundle.Credentials.Users[0].Role)
	assert.Equal(t, models.DefaultEmployeeName, bundle.Employee.Name)
	assert.Equal(t, "owner@acme.test", bundle.Employee.Email)
	assert.Empty(t, bundle.Employee.Documents)

	require.Len(t, bundle.Billing.Invoices, 1)
	inv := bundle.Billing.Invoices[0]
	assert.Zero(t, inv.TotalAmount)
	assert.Equal(t, models.InvoicePending, inv.Status)
	assert.Equal(t, f.now.AddDate(0, 0, 7), inv.DueDate)

	assert.Equal(t, bundle.Project.StartDate, bundle.Project.EndDate)
	assert.Equal(t, startOfDay(f.now), bundle.Project.StartDate)

	require.Len(t, bundle.AIChat.Sessions, 1)
	require.Len(t, bundle.AIChat.Sessions[0].Messages, 1)
	assert.Equal(t, models.SenderAI, bundle.AIChat.Sessions[0].Messages[0].Sender)

	assert.True(t, f.exists(t, paths.Derive(tenantID, "Acme Inc", paths.KindEmployee, bundle.Employee.Code, bundle.Employee.Name)))
	assert.True(t, f.exists(t, paths.Derive(tenantID, "Acme Inc", paths.KindProject, bundle.Project.Code, bundle.Project.Name)))
	assert.Equal(t, []string{events.TenantProvisioned}, f.events.Types())
}

func TestProvisionFailureAtBillingLeavesNothing(t *testing.T) {
	f := newFixture(t)
	f.faulty.failCreate[store.BillingCollection] = errInjected
	p := NewProvisioner(f.deps, nil)

	bundle, err := p.Provision(context.Background(), acme())
	require.Error(t, err)
	assert.Nil(t, bundle)
	assert.True(t, errors.Is(err, errInjected))
	assert.Equal(t, KindStoreUnavailable, KindOf(err))

	var perr *ProvisionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, StateBillingBundleCreated, perr.Step)
	assert.True(t, perr.RolledBack)
	assert.Empty(t, perr.Warnings)

	for coll, n := range countFor(f, perr.TenantID) {
		assert.Zero(t, n, coll)
	}
	for _, coll := range allCollections() {
		assert.Zero(t, f.mem.Count(coll, bson.M{}), coll)
	}
	assert.False(t, f.exists(t, paths.TenantDir(perr.TenantID, "Acme Inc")))
	assert.Empty(t, f.events.Types())
}

func TestProvisionFailureAtEveryStep(t *testing.T) {
	steps := map[string]State{
		store.CompanyCollection:   StateTenantCreated,
		store.LoginDataCollection: StateCredentialsCreated,
		store.EmployeeCollection:  StateEmployeeBundleCreated,
		store.ProjectCollection:   StateProjectBundleCreated,
		store.AIChatCollection:    StateChatBundleCreated,
	}
	for coll, state := range steps {
		t.Run(state.String(), func(t *testing.T) {
			f := newFixture(t)
			f.faulty.failCreate[coll] = errInjected

			_, err := NewProvisioner(f.deps, nil).Provision(context.Background(), acme())
			var perr *ProvisionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, state, perr.Step)
			for _, c := range allCollections() {
				assert.Zero(t, f.mem.Count(c, bson.M{}), c)
			}
			entries, err := f.fs.List(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestProvisionCompensationFailureKeepsOriginalError(t *testing.T) {
	f := newFixture(t)
	compErr := errors.New("delete refused")
	f.faulty.failCreate[store.AIChatCollection] = errInjected
	f.faulty.failDelete[store.EmployeeCollection] = compErr

	_, err := NewProvisioner(f.deps, nil).Provision(context.Background(), acme())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInjected))
	assert.False(t, errors.Is(err, compErr))

	var perr *ProvisionError
	require.True(t, errors.As(err, &perr))
	require.Len(t, perr.Warnings, 1)
	assert.Contains(t, perr.Warnings[0], store.EmployeeCollection)

	// the tenant record is still removed after the failed dependent delete
	assert.Zero(t, f.mem.Count(store.CompanyCollection, bson.M{}))
	assert.Equal(t, 1, f.mem.Count(store.EmployeeCollection, bson.M{}))
}

func TestProvisionValidation(t *testing.T) {
	cases := map[string]func(*ProfileFields){
		"missing name":   func(p *ProfileFields) { p.Name = "  " },
		"bad email":      func(p *ProfileFields) { p.Email = "not-an-email" },
		"short password": func(p *ProfileFields) { p.Password = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			fields := acme()
			mutate(&fields)

			_, err := NewProvisioner(f.deps, nil).Provision(context.Background(), fields)
			assert.True(t, IsKind(err, KindValidation))
			for _, c := range allCollections() {
				assert.Zero(t, f.mem.Count(c, bson.M{}), c)
			}
		})
	}
}

func TestProvisionRejectsRegisteredEmail(t *testing.T) {
	f := newFixture(t)
	p := NewProvisioner(f.deps, nil)
	_, err := p.Provision(context.Background(), acme())
	require.NoError(t, err)

	_, err = p.Provision(context.Background(), acme())
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, 1, f.mem.Count(store.CompanyCollection, bson.M{}))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Start", StateStart.String())
	assert.Equal(t, "ChatBundleCreated", StateChatBundleCreated.String())
	assert.Equal(t, "RolledBack", StateRolledBack.String())
	assert.Equal(t, "State(42)", State(42).String())
}
