package model

import (
	"sort"
	"time"

	apperrors "github.com/openclaw/designdesk/internal/errors"
)

// ClientRecord is one client plan, keyed by the chat-platform role that grants it.
type ClientRecord struct {
	Name         string `db:"name" json:"name"`
	MonthlyQuota int    `db:"monthly_quota" json:"monthlyQuota"`
	Used         int    `db:"used" json:"used"`
}

// ClientRow is a ClientRecord together with its role ID, as stored in postgres.
type ClientRow struct {
	RoleID string `db:"role_id"`
	ClientRecord
	UpdatedAt time.Time `db:"updated_at"`
}

// ConfigRoot is the whole persisted aggregate: role ID -> client.
// Period is the "YYYY-MM" the used counters belong to; empty until the
// period reset job first runs.
type ConfigRoot struct {
	Clients map[string]*ClientRecord `json:"clients"`
	Period  string                   `json:"period,omitempty"`
}

const PeriodLayout = "2006-01"

func PeriodOf(t time.Time) string {
	return t.Format(PeriodLayout)
}

func NewConfigRoot() *ConfigRoot {
	return &ConfigRoot{Clients: make(map[string]*ClientRecord)}
}

// Validate checks every record. unlimitedSentinel is the only negative quota allowed.
func (c *ConfigRoot) Validate(unlimitedSentinel int) error {
	if c.Clients == nil {
		return apperrors.ConfigIntegrity("clients mapping is missing", nil)
	}
	for _, roleID := range c.RoleIDs() {
		rec := c.Clients[roleID]
		if roleID == "" {
			return apperrors.InvalidClientField(roleID, "roleId", "must not be empty")
		}
		if rec == nil {
			return apperrors.InvalidClientField(roleID, "record", "must be an object")
		}
		if err := rec.Validate(roleID, unlimitedSentinel); err != nil {
			return err
		}
	}
	return nil
}

func (r *ClientRecord) Validate(roleID string, unlimitedSentinel int) error {
	if r.Name == "" {
		return apperrors.InvalidClientField(roleID, "name", "must not be empty")
	}
	if r.MonthlyQuota < 0 && r.MonthlyQuota != unlimitedSentinel {
		return apperrors.InvalidClientField(roleID, "monthlyQuota", "must be non-negative or the unlimited sentinel")
	}
	if r.Used < 0 {
		return apperrors.InvalidClientField(roleID, "used", "must be non-negative")
	}
	return nil
}

// RoleIDs returns the configured role IDs in ascending snowflake order.
func (c *ConfigRoot) RoleIDs() []string {
	ids := make([]string, 0, len(c.Clients))
	for id := range c.Clients {
		ids = append(ids, id)
	}
	SortRoleIDs(ids)
	return ids
}

// SortRoleIDs orders numeric snowflakes by value without parsing them:
// shorter strings are smaller, equal lengths compare lexically.
func SortRoleIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}

// ResolveClient finds the client granted by any of roleIDs. When several
// mapped roles match, the lowest role ID wins; matches reports how many did.
func (c *ConfigRoot) ResolveClient(roleIDs []string) (roleID string, rec *ClientRecord, matches int) {
	candidates := make([]string, 0, len(roleIDs))
	seen := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := c.Clients[id]; ok {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", nil, 0
	}
	SortRoleIDs(candidates)
	return candidates[0], c.Clients[candidates[0]], len(candidates)
}

// Clone returns a deep copy.
func (c *ConfigRoot) Clone() *ConfigRoot {
	out := &ConfigRoot{Period: c.Period, Clients: make(map[string]*ClientRecord, len(c.Clients))}
	for id, rec := range c.Clients {
		if rec == nil {
			out.Clients[id] = nil
			continue
		}
		cp := *rec
		out.Clients[id] = &cp
	}
	return out
}
