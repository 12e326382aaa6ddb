// Package quota decides how many design requests a client has left and
// whether the current request consumes one.
package quota

import (
	"strconv"
	"time"

	"github.com/openclaw/designdesk/internal/model"
)

const (
	DefaultDisplayCeiling    = 999
	DefaultUnlimitedSentinel = -1
)

// Policy is the single rule applied to every client.
type Policy struct {
	// UnlimitedCutoff ends the promotional window shared by every client
	// whose quota is the sentinel.
	UnlimitedCutoff   time.Time
	DisplayCeiling    int
	UnlimitedSentinel int
}

func DefaultPolicy(cutoff time.Time) Policy {
	return Policy{
		UnlimitedCutoff:   cutoff,
		DisplayCeiling:    DefaultDisplayCeiling,
		UnlimitedSentinel: DefaultUnlimitedSentinel,
	}
}

type Decision struct {
	// Remaining is the display string: an exact integer or the capped form.
	Remaining        string
	RemainingNum     int
	Unlimited        bool
	Capped           bool
	Consume          bool
	// PromotionExpired marks a sentinel quota still in use after the cutoff.
	PromotionExpired bool
}

// CappedDisplay renders the display string used above the ceiling, e.g. "999+".
func (p Policy) CappedDisplay() string {
	return strconv.Itoa(p.DisplayCeiling) + "+"
}

func (p Policy) IsUnlimited(rec model.ClientRecord) bool {
	return rec.MonthlyQuota == p.UnlimitedSentinel
}

// InUnlimitedWindow reports whether now falls before the promotional cutoff.
func (p Policy) InUnlimitedWindow(now time.Time) bool {
	return now.Before(p.UnlimitedCutoff)
}

// Decide does not mutate rec. Sentinel quotas are never counted, before or
// after the cutoff. A remaining count above the ceiling is shown capped and
// not counted either. Every other request consumes one unit, including when
// the quota is already exhausted or exceeded: the number shown is the raw
// quota - used, never clamped at zero.
func (p Policy) Decide(rec model.ClientRecord, now time.Time) Decision {
	if p.IsUnlimited(rec) {
		return Decision{
			Remaining:        p.CappedDisplay(),
			Unlimited:        true,
			Capped:           true,
			PromotionExpired: !p.InUnlimitedWindow(now),
		}
	}

	remaining := rec.MonthlyQuota - rec.Used
	if remaining > p.DisplayCeiling {
		return Decision{
			Remaining:    p.CappedDisplay(),
			RemainingNum: remaining,
			Capped:       true,
		}
	}

	return Decision{
		Remaining:    strconv.Itoa(remaining),
		RemainingNum: remaining,
		Consume:      true,
	}
}

// Apply decides and, when the decision consumes a unit, increments rec.Used.
func (p Policy) Apply(rec *model.ClientRecord, now time.Time) Decision {
	d := p.Decide(*rec, now)
	if d.Consume {
		rec.Used++
	}
	return d
}
