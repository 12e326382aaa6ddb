package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/audit"
	"github.com/openclaw/designdesk/internal/model"
)

// PeriodRoller zeroes quota usage when the calendar month changes.
type PeriodRoller interface {
	RollPeriod(ctx context.Context, now time.Time) (int, error)
}

type PeriodResetJob struct {
	roller   PeriodRoller
	location *time.Location
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
	stopped  chan struct{}
}

func NewPeriodResetJob(roller PeriodRoller, location *time.Location, interval time.Duration) *PeriodResetJob {
	if location == nil {
		location = time.Local
	}
	return &PeriodResetJob{
		roller:   roller,
		location: location,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (j *PeriodResetJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("period reset job started")
}

// Stop waits for an in-flight check to finish.
func (j *PeriodResetJob) Stop() {
	close(j.done)
	<-j.stopped
	log.Info().Msg("period reset job stopped")
}

func (j *PeriodResetJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.check()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.check()
		}
	}
}

func (j *PeriodResetJob) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := j.now().In(j.location)
	count, err := j.roller.RollPeriod(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to roll quota period")
		return
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("reset monthly quota usage")
		audit.Log(ctx, audit.Event{
			Type:    audit.EventQuotaPeriodReset,
			Details: map[string]interface{}{"period": model.PeriodOf(now), "clients": count},
		})
	}
}
