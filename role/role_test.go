package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r, err := Parse(" admin ")
	require.NoError(t, err)
	assert.Equal(t, Admin, r)

	_, err = Parse("owner")
	assert.Error(t, err)
	assert.False(t, Role("owner").Valid())
	assert.True(t, Manager.Valid())
}

func TestPrivileges(t *testing.T) {
	admin := Admin.Privileges()
	require.Len(t, admin, len(modules))
	for _, p := range admin {
		assert.Len(t, p.Actions, 4)
	}

	for _, p := range Employee.Privileges() {
		assert.Contains(t, p.Actions, "view")
		assert.NotContains(t, p.Actions, "delete")
	}

	assert.Empty(t, Role("owner").Privileges())
}
