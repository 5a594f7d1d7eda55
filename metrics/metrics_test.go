package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordProvisioning("Committed", "")
	m.RecordProvisioning("RolledBack", "BillingBundleCreated")
	m.RecordCompensationFailures(2)
	m.RecordTeardown(true, 1)
	m.RecordDocumentOperation("employees", "upload", nil)
	m.RecordDocumentOperation("employees", "upload", errors.New("boom"))
	m.RecordOrphans("file", 3)
	m.TrackStep("TenantCreated")(time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisioningTotal.WithLabelValues("Committed", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CompensationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TeardownWarnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentOperations.WithLabelValues("employees", "upload", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OrphansRemoved.WithLabelValues("file")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordProvisioning("Committed", "")
		m.RecordCompensationFailures(1)
		m.RecordTeardown(false, 0)
		m.RecordDocumentOperation("projects", "delete", nil)
		m.RecordOrphans("record", 1)
		m.TrackStep("x")(time.Now())
	})
}
