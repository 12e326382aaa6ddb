package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openclaw/designdesk/internal/model"
)

var (
	cutoff       = time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	beforeCutoff = cutoff.Add(-24 * time.Hour)
	afterCutoff  = cutoff.Add(24 * time.Hour)
)

func TestDecide(t *testing.T) {
	policy := DefaultPolicy(cutoff)

	tests := []struct {
		name     string
		rec      model.ClientRecord
		now      time.Time
		expected Decision
	}{
		{
			name:     "unlimited before cutoff is capped and not counted",
			rec:      model.ClientRecord{Name: "MCBets", MonthlyQuota: -1, Used: 12},
			now:      beforeCutoff,
			expected: Decision{Remaining: "999+", Unlimited: true, Capped: true},
		},
		{
			name:     "unlimited after cutoff stays capped and flags the expired promotion",
			rec:      model.ClientRecord{Name: "MCBets", MonthlyQuota: -1, Used: 12},
			now:      afterCutoff,
			expected: Decision{Remaining: "999+", Unlimited: true, Capped: true, PromotionExpired: true},
		},
		{
			name:     "finite quota after cutoff",
			rec:      model.ClientRecord{Name: "Acme", MonthlyQuota: 5, Used: 4},
			now:      afterCutoff,
			expected: Decision{Remaining: "1", RemainingNum: 1, Consume: true},
		},
		{
			name:     "finite quota before cutoff is still counted",
			rec:      model.ClientRecord{Name: "Acme", MonthlyQuota: 10, Used: 2},
			now:      beforeCutoff,
			expected: Decision{Remaining: "8", RemainingNum: 8, Consume: true},
		},
		{
			name:     "exactly exhausted shows zero and is counted",
			rec:      model.ClientRecord{Name: "Acme", MonthlyQuota: 5, Used: 5},
			now:      afterCutoff,
			expected: Decision{Remaining: "0", RemainingNum: 0, Consume: true},
		},
		{
			name:     "over quota is not clamped",
			rec:      model.ClientRecord{Name: "Acme", MonthlyQuota: 5, Used: 7},
			now:      afterCutoff,
			expected: Decision{Remaining: "-2", RemainingNum: -2, Consume: true},
		},
		{
			name:     "exactly at ceiling is exact",
			rec:      model.ClientRecord{Name: "Big", MonthlyQuota: 1000, Used: 1},
			now:      afterCutoff,
			expected: Decision{Remaining: "999", RemainingNum: 999, Consume: true},
		},
		{
			name:     "above ceiling is capped and not counted",
			rec:      model.ClientRecord{Name: "Big", MonthlyQuota: 5000, Used: 1},
			now:      afterCutoff,
			expected: Decision{Remaining: "999+", RemainingNum: 4999, Capped: true},
		},
		{
			name:     "zero quota",
			rec:      model.ClientRecord{Name: "Trial", MonthlyQuota: 0, Used: 0},
			now:      afterCutoff,
			expected: Decision{Remaining: "0", RemainingNum: 0, Consume: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, policy.Decide(tc.rec, tc.now))
		})
	}
}

func TestApply(t *testing.T) {
	policy := DefaultPolicy(cutoff)

	t.Run("unlimited never changes used", func(t *testing.T) {
		rec := &model.ClientRecord{Name: "MCBets", MonthlyQuota: -1, Used: 3}
		for i := 0; i < 10; i++ {
			d := policy.Apply(rec, beforeCutoff)
			assert.Equal(t, "999+", d.Remaining)
		}
		assert.Equal(t, 3, rec.Used)
	})

	t.Run("finite quota counts down by one per invocation", func(t *testing.T) {
		rec := &model.ClientRecord{Name: "Acme", MonthlyQuota: 5, Used: 0}
		for want := 5; want >= -1; want-- {
			used := rec.Used
			d := policy.Apply(rec, afterCutoff)
			assert.Equal(t, want, d.RemainingNum)
			assert.Equal(t, used+1, rec.Used)
		}
	})

	t.Run("above ceiling does not increment", func(t *testing.T) {
		rec := &model.ClientRecord{Name: "Big", MonthlyQuota: 2000, Used: 10}
		d := policy.Apply(rec, afterCutoff)
		assert.Equal(t, "999+", d.Remaining)
		assert.Equal(t, 10, rec.Used)
	})

	t.Run("acme scenario", func(t *testing.T) {
		rec := &model.ClientRecord{Name: "Acme", MonthlyQuota: 5, Used: 4}
		d := policy.Apply(rec, afterCutoff)
		assert.Equal(t, "1", d.Remaining)
		assert.Equal(t, 5, rec.Used)
	})
}

func TestCustomPolicy(t *testing.T) {
	policy := Policy{UnlimitedCutoff: cutoff, DisplayCeiling: 50, UnlimitedSentinel: -99}

	assert.Equal(t, "50+", policy.CappedDisplay())

	d := policy.Decide(model.ClientRecord{Name: "X", MonthlyQuota: -99}, beforeCutoff)
	assert.True(t, d.Unlimited)
	assert.Equal(t, "50+", d.Remaining)

	d = policy.Decide(model.ClientRecord{Name: "X", MonthlyQuota: 51}, beforeCutoff)
	assert.True(t, d.Capped)
	assert.False(t, d.Consume)
}
