package paths

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Acme Inc":       "Acme_Inc",
		"  Acme   Inc  ": "Acme_Inc",
		"Acme\tInc\nLtd": "Acme_Inc_Ltd",
		"a/b\\c":         "a_b_c",
		"..":             "_",
		"":               "unnamed",
		"   ":            "unnamed",
		"Rahul":          "Rahul",
		"../etc":         "__etc",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	a := Derive("C1", "Acme Inc", KindEmployee, "E1", "Rahul")
	b := Derive("C1", "Acme Inc", KindEmployee, "E1", "Rahul")
	assert.Equal(t, a, b)
	assert.Equal(t, "Acme_Inc_C1/employees/Rahul_E1", a)
}

func TestDeriveChangesWithName(t *testing.T) {
	before := Derive("C1", "Acme Inc", KindEmployee, "E1", "Rahul")
	after := Derive("C1", "Acme Inc", KindEmployee, "E1", "Raj")
	assert.NotEqual(t, before, after)
	assert.True(t, strings.HasSuffix(after, "Raj_E1"))
}

func TestLegacyDir(t *testing.T) {
	assert.Equal(t, "Acme_Inc/projects/Apollo_Launch", LegacyDir("Acme Inc", KindProject, "Apollo Launch"))
}

func TestStagingPath(t *testing.T) {
	p := StagingPath("_staging", "my report.pdf")
	assert.True(t, strings.HasPrefix(p, "_staging/"))
	assert.True(t, strings.HasSuffix(p, "_my_report.pdf"))
	assert.NotEqual(t, p, StagingPath("_staging", "my report.pdf"))
}

func TestRebase(t *testing.T) {
	got, ok := Rebase("T_1/employees/A_E1/x.pdf", "T_1/employees/A_E1", "T_1/employees/B_E1")
	assert.True(t, ok)
	assert.Equal(t, "T_1/employees/B_E1/x.pdf", got)

	got, ok = Rebase("T_1/employees/A_E10/x.pdf", "T_1/employees/A_E1", "T_1/employees/B_E1")
	assert.False(t, ok)
	assert.Equal(t, "T_1/employees/A_E10/x.pdf", got)
}

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindEmployee))
	assert.True(t, ValidKind(KindProject))
	assert.False(t, ValidKind("invoices"))
}
