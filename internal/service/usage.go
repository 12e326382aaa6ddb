package service

import (
	"context"
	"time"

	"github.com/openclaw/designdesk/internal/model"
	"github.com/openclaw/designdesk/internal/quota"
	"github.com/openclaw/designdesk/internal/repository"
)

type ClientUsage struct {
	RoleID       string `json:"roleId"`
	Name         string `json:"name"`
	MonthlyQuota int    `json:"monthlyQuota"`
	Used         int    `json:"used"`
	Remaining    string `json:"remaining"`
	Unlimited    bool   `json:"unlimited"`
}

type UsageReport struct {
	Period  string        `json:"period,omitempty"`
	Clients []ClientUsage `json:"clients"`
}

// UsageService reports and resets quota usage without consuming any.
type UsageService struct {
	repo   repository.ClientRepository
	policy quota.Policy
	now    func() time.Time
}

func NewUsageService(repo repository.ClientRepository, policy quota.Policy) *UsageService {
	return &UsageService{repo: repo, policy: policy, now: time.Now}
}

func (s *UsageService) Report(ctx context.Context) (*UsageReport, error) {
	root, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &UsageReport{Period: root.Period, Clients: make([]ClientUsage, 0, len(root.Clients))}
	for _, roleID := range root.RoleIDs() {
		rec := root.Clients[roleID]
		d := s.policy.Decide(*rec, now)
		report.Clients = append(report.Clients, ClientUsage{
			RoleID:       roleID,
			Name:         rec.Name,
			MonthlyQuota: rec.MonthlyQuota,
			Used:         rec.Used,
			Remaining:    d.Remaining,
			Unlimited:    d.Unlimited,
		})
	}
	return report, nil
}

// RollPeriod zeroes every used counter when the calendar month of now differs
// from the stored period. The first run only records the period: counters
// written before period tracking existed are kept. Returns the number of
// clients reset.
func (s *UsageService) RollPeriod(ctx context.Context, now time.Time) (int, error) {
	period := model.PeriodOf(now)
	reset := 0

	err := s.repo.Update(ctx, func(root *model.ConfigRoot) error {
		if root.Period == period {
			return repository.ErrNoChange
		}
		if root.Period != "" {
			for _, rec := range root.Clients {
				if rec.Used != 0 {
					rec.Used = 0
					reset++
				}
			}
		}
		root.Period = period
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reset, nil
}
