package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/audit"
	"github.com/openclaw/designdesk/internal/model"
	"github.com/openclaw/designdesk/internal/platform"
)

const completionTimeLayout = "3:04 PM"

type CompletionHandlerConfig struct {
	ApprovalEmoji      string
	AdminUserID        string
	CompletedChannelID string
	Location           *time.Location
}

// CompletionHandler closes a request when the admin approves its summary.
type CompletionHandler struct {
	platform platform.Client
	cfg      CompletionHandlerConfig
	now      func() time.Time
}

func NewCompletionHandler(client platform.Client, cfg CompletionHandlerConfig) *CompletionHandler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &CompletionHandler{
		platform: client,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (h *CompletionHandler) HandleReaction(ctx context.Context, ev platform.ReactionEvent) {
	if ev.UserBot {
		return
	}
	if ev.Emoji != h.cfg.ApprovalEmoji {
		return
	}
	if ev.UserID != h.cfg.AdminUserID {
		return
	}

	msg, err := h.platform.FetchMessage(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		log.Debug().Err(err).Str("messageId", ev.MessageID).Msg("could not fetch reacted message")
		return
	}
	if msg.ThreadID == "" {
		return
	}

	completion := model.CompletionEvent{
		RequestText: model.UnknownRequest,
		ApproverID:  ev.UserID,
		ThreadID:    msg.ThreadID,
		CompletedAt: h.now().In(h.cfg.Location),
	}
	if text, ok := msg.EmbedField(FieldRequest); ok {
		completion.RequestText = text
	}

	if err := h.platform.SendText(ctx, h.cfg.CompletedChannelID, completionLine(completion)); err != nil {
		log.Error().Err(err).Str("channelId", h.cfg.CompletedChannelID).Msg("failed to log completed request")
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventRequestCompleted,
		UserID:    ev.UserID,
		ChannelID: ev.ChannelID,
		Details: map[string]interface{}{
			"request":  completion.RequestText,
			"threadId": completion.ThreadID,
		},
	})

	if err := h.platform.DeleteThread(ctx, completion.ThreadID); err != nil {
		log.Warn().Err(err).Str("threadId", completion.ThreadID).Msg("could not delete thread")
		audit.Log(ctx, audit.Event{
			Type:      audit.EventThreadDeleteFailed,
			UserID:    ev.UserID,
			ChannelID: ev.ChannelID,
			Details: map[string]interface{}{
				"threadId": completion.ThreadID,
				"error":    err,
			},
		})
	}
}

func completionLine(c model.CompletionEvent) string {
	return fmt.Sprintf("✅ **%s** marked complete by %s at **%s**.",
		c.RequestText, platform.Mention(c.ApproverID), c.CompletedAt.Format(completionTimeLayout))
}
