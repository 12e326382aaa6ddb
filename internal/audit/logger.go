package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventRequestSubmitted   EventType = "request_submitted"
	EventRequestRejected    EventType = "request_rejected"
	EventRequestCompleted   EventType = "request_completed"
	EventThreadDeleteFailed EventType = "thread_delete_failed"
	EventQuotaPeriodReset   EventType = "quota_period_reset"
)

type Event struct {
	Type      EventType
	UserID    string
	RoleID    string
	ChannelID string
	Details   map[string]interface{}
}

// Log writes one request lifecycle record. The record carries the
// audit=request field so it can be filtered out of the general log stream.
func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "request").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.UserID != "" {
		logger = logger.With().Str("user_id", event.UserID).Logger()
	}
	if event.RoleID != "" {
		logger = logger.With().Str("role_id", event.RoleID).Logger()
	}
	if event.ChannelID != "" {
		logger = logger.With().Str("channel_id", event.ChannelID).Logger()
	}

	logEvent := logger.Info()
	if event.Type == EventThreadDeleteFailed {
		logEvent = logger.Warn()
	}
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("request audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	case error:
		return e.AnErr(key, v)
	default:
		return e.Interface(key, v)
	}
}
