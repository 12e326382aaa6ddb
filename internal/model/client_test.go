package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openclaw/designdesk/internal/errors"
)

func TestConfigRootValidate(t *testing.T) {
	tests := []struct {
		name      string
		root      *ConfigRoot
		wantField string
	}{
		{
			name: "valid records",
			root: &ConfigRoot{Clients: map[string]*ClientRecord{
				"1": {Name: "Acme", MonthlyQuota: 5, Used: 4},
				"2": {Name: "MCBets", MonthlyQuota: -1, Used: 0},
			}},
		},
		{
			name:      "missing mapping",
			root:      &ConfigRoot{},
			wantField: "-",
		},
		{
			name:      "empty name",
			root:      &ConfigRoot{Clients: map[string]*ClientRecord{"1": {MonthlyQuota: 5}}},
			wantField: "name",
		},
		{
			name:      "negative quota other than sentinel",
			root:      &ConfigRoot{Clients: map[string]*ClientRecord{"1": {Name: "Acme", MonthlyQuota: -2}}},
			wantField: "monthlyQuota",
		},
		{
			name:      "negative used",
			root:      &ConfigRoot{Clients: map[string]*ClientRecord{"1": {Name: "Acme", MonthlyQuota: 5, Used: -1}}},
			wantField: "used",
		},
		{
			name:      "null record",
			root:      &ConfigRoot{Clients: map[string]*ClientRecord{"1": nil}},
			wantField: "record",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.root.Validate(-1)
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeConfigIntegrity, apperrors.GetCode(err))
			if tc.wantField != "-" {
				appErr, _ := apperrors.AsAppError(err)
				assert.Equal(t, tc.wantField, appErr.Details.(map[string]string)["field"])
			}
		})
	}
}

func TestSortRoleIDs(t *testing.T) {
	ids := []string{"1200000000000000000", "999999999999999999", "1100000000000000000", "7"}
	SortRoleIDs(ids)
	assert.Equal(t, []string{"7", "999999999999999999", "1100000000000000000", "1200000000000000000"}, ids)
}

func TestResolveClient(t *testing.T) {
	root := &ConfigRoot{Clients: map[string]*ClientRecord{
		"1100000000000000000": {Name: "Beta", MonthlyQuota: 3},
		"999999999999999999":  {Name: "Alpha", MonthlyQuota: 5},
	}}

	t.Run("single match", func(t *testing.T) {
		roleID, rec, matches := root.ResolveClient([]string{"5", "1100000000000000000"})
		assert.Equal(t, "1100000000000000000", roleID)
		assert.Equal(t, "Beta", rec.Name)
		assert.Equal(t, 1, matches)
	})

	t.Run("lowest role wins regardless of member order", func(t *testing.T) {
		roleID, rec, matches := root.ResolveClient([]string{"1100000000000000000", "999999999999999999"})
		assert.Equal(t, "999999999999999999", roleID)
		assert.Equal(t, "Alpha", rec.Name)
		assert.Equal(t, 2, matches)
	})

	t.Run("duplicate roles count once", func(t *testing.T) {
		_, _, matches := root.ResolveClient([]string{"999999999999999999", "999999999999999999"})
		assert.Equal(t, 1, matches)
	})

	t.Run("no match", func(t *testing.T) {
		roleID, rec, matches := root.ResolveClient([]string{"5"})
		assert.Empty(t, roleID)
		assert.Nil(t, rec)
		assert.Zero(t, matches)
	})
}

func TestClone(t *testing.T) {
	root := &ConfigRoot{Period: "2026-10", Clients: map[string]*ClientRecord{"1": {Name: "Acme", MonthlyQuota: 5, Used: 1}}}
	cp := root.Clone()
	assert.Equal(t, root, cp)

	cp.Clients["1"].Used = 4
	assert.Equal(t, 1, root.Clients["1"].Used)
}

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, "2026-02", PeriodOf(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}
