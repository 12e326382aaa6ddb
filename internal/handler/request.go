package handler

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/audit"
	"github.com/openclaw/designdesk/internal/config"
	apperrors "github.com/openclaw/designdesk/internal/errors"
	"github.com/openclaw/designdesk/internal/model"
	"github.com/openclaw/designdesk/internal/platform"
	"github.com/openclaw/designdesk/internal/service"
)

const (
	summaryTitle = "🎨 New Design Request"
	summaryColor = 0xa855f7

	FieldRequest     = "Request"
	FieldClient      = "Client"
	FieldRequestedBy = "Requested By"
	FieldRemaining   = "Remaining"
)

type RequestHandlerConfig struct {
	Prefix             string
	ApprovalEmoji      string
	AdminUserID        string
	AutoArchiveMinutes int
	AddRequester       bool
	MentionAdmin       bool
}

// RequestHandler turns a request command into a summary message, an
// approval reaction and a discussion thread.
type RequestHandler struct {
	requests *service.RequestService
	platform platform.Client
	cfg      RequestHandlerConfig
	now      func() time.Time
}

func NewRequestHandler(requests *service.RequestService, client platform.Client, cfg RequestHandlerConfig) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		platform: client,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (h *RequestHandler) HandleMessage(ctx context.Context, ev platform.MessageEvent) {
	if ev.AuthorBot {
		return
	}

	cmd := parseCommand(ev.Content, h.cfg.Prefix)
	if cmd == nil || cmd.Name != CommandRequest {
		return
	}

	req, err := h.requests.Submit(ctx, model.CreateRequestParams{
		RequesterID: ev.AuthorID,
		RoleIDs:     ev.RoleIDs,
		Text:        cmd.Argument,
	})
	if err != nil {
		h.reject(ctx, ev, err)
		return
	}

	log.Info().
		Str("requesterId", req.RequesterID).
		Str("client", req.Client.Name).
		Str("remaining", req.Remaining).
		Msg("design request accepted")
	audit.Log(ctx, audit.Event{
		Type:      audit.EventRequestSubmitted,
		UserID:    req.RequesterID,
		RoleID:    req.RoleID,
		ChannelID: ev.ChannelID,
		Details: map[string]interface{}{
			"client":    req.Client.Name,
			"remaining": req.Remaining,
			"consumed":  req.Consumed,
		},
	})

	// Quota is already committed: failures from here on are logged only.
	summary, err := h.platform.SendEmbed(ctx, ev.ChannelID, buildSummaryEmbed(req, h.now()))
	if err != nil {
		log.Error().Err(err).Str("channelId", ev.ChannelID).Msg("failed to post request summary")
		return
	}

	if err := h.platform.React(ctx, summary.ChannelID, summary.ID, h.cfg.ApprovalEmoji); err != nil {
		log.Warn().Err(err).Str("messageId", summary.ID).Msg("failed to add approval reaction")
	}

	threadID, err := h.platform.StartThread(ctx, summary.ChannelID, summary.ID, threadName(req), h.cfg.AutoArchiveMinutes)
	if err != nil {
		log.Error().Err(err).Str("messageId", summary.ID).Msg("failed to start request thread")
		return
	}

	if h.cfg.AddRequester {
		if err := h.platform.AddThreadMember(ctx, threadID, req.RequesterID); err != nil {
			log.Warn().Err(err).Str("threadId", threadID).Msg("failed to add requester to thread")
		}
	}

	if err := h.platform.SendText(ctx, threadID, h.welcomeMessage(req)); err != nil {
		log.Error().Err(err).Str("threadId", threadID).Msg("failed to post thread instructions")
	}
}

func (h *RequestHandler) reject(ctx context.Context, ev platform.MessageEvent, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || !appErr.UserFacing() {
		log.Error().Err(err).Str("requesterId", ev.AuthorID).Msg("failed to submit design request")
		return
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventRequestRejected,
		UserID:    ev.AuthorID,
		ChannelID: ev.ChannelID,
		Details:   map[string]interface{}{"code": string(appErr.Code)},
	})

	if err := h.platform.Reply(ctx, ev.ChannelID, ev.ID, appErr.Message); err != nil {
		log.Warn().Err(err).Str("channelId", ev.ChannelID).Msg("failed to reply to requester")
	}
}

func buildSummaryEmbed(req *model.Request, now time.Time) platform.Embed {
	return platform.Embed{
		Title: summaryTitle,
		Color: summaryColor,
		Fields: []platform.EmbedField{
			{Name: FieldRequest, Value: req.Text},
			{Name: FieldClient, Value: req.Client.Name, Inline: true},
			{Name: FieldRequestedBy, Value: platform.Mention(req.RequesterID), Inline: true},
			{Name: FieldRemaining, Value: req.Remaining, Inline: true},
		},
		Timestamp: now,
	}
}

func threadName(req *model.Request) string {
	return truncateRunes(fmt.Sprintf("%s – %s", req.Client.Name, req.Text), config.MaxThreadNameLength)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func (h *RequestHandler) welcomeMessage(req *model.Request) string {
	var msg string
	if h.cfg.MentionAdmin && h.cfg.AdminUserID != "" {
		msg = platform.Mention(h.cfg.AdminUserID) + " New request submitted.\n\n"
	}
	return msg +
		fmt.Sprintf("**Got it!** Your request has been logged under **%s**.\n", req.Client.Name) +
		fmt.Sprintf("You have **%s** designs remaining until your current period ends.\n\n", req.Remaining) +
		"**Instructions:**\n" +
		"• Post any specific details you'd like included in this design.\n" +
		"• Attach any pictures or assets you want used.\n\n" +
		"You'll be notified here when your design is complete."
}
