package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/openclaw/designdesk/internal/platform"
)

func newTestCompletionHandler(client platform.Client) *CompletionHandler {
	h := NewCompletionHandler(client, CompletionHandlerConfig{
		ApprovalEmoji:      "✅",
		AdminUserID:        testAdminID,
		CompletedChannelID: "done",
		Location:           time.UTC,
	})
	h.now = func() time.Time { return time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC) }
	return h
}

func approval() platform.ReactionEvent {
	return platform.ReactionEvent{
		ChannelID: testChannelID,
		MessageID: "s1",
		UserID:    testAdminID,
		Emoji:     "✅",
	}
}

func summaryMessage(threadID string, fields ...platform.EmbedField) *platform.Message {
	msg := &platform.Message{ID: "s1", ChannelID: testChannelID, ThreadID: threadID}
	if fields != nil {
		msg.Embeds = []platform.Embed{{Title: summaryTitle, Fields: fields}}
	}
	return msg
}

func TestCompletionHandler_LogsAndDeletesThread(t *testing.T) {
	ctx := context.Background()
	pc := new(mockPlatform)
	h := newTestCompletionHandler(pc)

	pc.On("FetchMessage", ctx, testChannelID, "s1").Return(summaryMessage("t1",
		platform.EmbedField{Name: "Request", Value: "Banner redesign"},
		platform.EmbedField{Name: "Client", Value: "Acme", Inline: true},
	), nil).Once()
	logged := pc.On("SendText", ctx, "done", "✅ **Banner redesign** marked complete by <@900> at **3:04 PM**.").Return(nil).Once()
	pc.On("DeleteThread", ctx, "t1").Return(nil).Once().NotBefore(logged)

	h.HandleReaction(ctx, approval())

	pc.AssertExpectations(t)
}

func TestCompletionHandler_UnknownRequest(t *testing.T) {
	ctx := context.Background()
	pc := new(mockPlatform)
	h := newTestCompletionHandler(pc)

	pc.On("FetchMessage", ctx, testChannelID, "s1").Return(summaryMessage("t1"), nil).Once()
	pc.On("SendText", ctx, "done", "✅ **Unknown Request** marked complete by <@900> at **3:04 PM**.").Return(nil).Once()
	pc.On("DeleteThread", ctx, "t1").Return(nil).Once()

	h.HandleReaction(ctx, approval())

	pc.AssertExpectations(t)
}

func TestCompletionHandler_UsesConfiguredZone(t *testing.T) {
	ctx := context.Background()
	pc := new(mockPlatform)
	h := newTestCompletionHandler(pc)
	h.cfg.Location = time.FixedZone("UTC-5", -5*60*60)

	pc.On("FetchMessage", ctx, testChannelID, "s1").Return(summaryMessage("t1",
		platform.EmbedField{Name: "Request", Value: "Logo"},
	), nil)
	pc.On("SendText", ctx, "done", "✅ **Logo** marked complete by <@900> at **10:04 AM**.").Return(nil).Once()
	pc.On("DeleteThread", ctx, "t1").Return(nil)

	h.HandleReaction(ctx, approval())

	pc.AssertExpectations(t)
}

func TestCompletionHandler_Ignored(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(ev *platform.ReactionEvent)
	}{
		{"bot user", func(ev *platform.ReactionEvent) { ev.UserBot = true }},
		{"other emoji", func(ev *platform.ReactionEvent) { ev.Emoji = "👍" }},
		{"not the admin", func(ev *platform.ReactionEvent) { ev.UserID = "u1" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pc := new(mockPlatform)
			h := newTestCompletionHandler(pc)

			ev := approval()
			tc.mutate(&ev)
			h.HandleReaction(ctx, ev)

			assert.Empty(t, pc.Calls)
		})
	}
}

func TestCompletionHandler_FetchFailureAbortsSilently(t *testing.T) {
	ctx := context.Background()
	pc := new(mockPlatform)
	h := newTestCompletionHandler(pc)

	pc.On("FetchMessage", ctx, testChannelID, "s1").Return(nil, errors.New("unknown message")).Once()

	h.HandleReaction(ctx, approval())

	pc.AssertExpectations(t)
	pc.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
	pc.AssertNotCalled(t, "DeleteThread", mock.Anything, mock.Anything)
}

func TestCompletionHandler_NoThread(t *testing.T) {
	ctx := context.Background()
	pc := new(mockPlatform)
	h := newTestCompletionHandler(pc)

	pc.On("FetchMessage", ctx, testChannelID, "s1").Return(summaryMessage("",
		platform.EmbedField{Name: "Request", Value: "Logo"},
	), nil).Once()

	h.HandleReaction(ctx, approval())

	pc.AssertExpectations(t)
	pc.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
	pc.AssertNotCalled(t, "DeleteThread", mock.Anything, mock.Anything)
}

func TestCompletionHandler_DeleteFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	pc := new(mockPlatform)
	h := newTestCompletionHandler(pc)

	pc.On("FetchMessage", ctx, testChannelID, "s1").Return(summaryMessage("t1",
		platform.EmbedField{Name: "Request", Value: "Logo"},
	), nil).Once()
	pc.On("SendText", ctx, "done", mock.Anything).Return(nil).Once()
	pc.On("DeleteThread", ctx, "t1").Return(errors.New("missing permissions")).Once()

	assert.NotPanics(t, func() { h.HandleReaction(ctx, approval()) })
	pc.AssertExpectations(t)
}

func TestCompletionHandler_LogFailureStillDeletesThread(t *testing.T) {
	ctx := context.Background()
	pc := new(mockPlatform)
	h := newTestCompletionHandler(pc)

	pc.On("FetchMessage", ctx, testChannelID, "s1").Return(summaryMessage("t1",
		platform.EmbedField{Name: "Request", Value: "Logo"},
	), nil).Once()
	pc.On("SendText", ctx, "done", mock.Anything).Return(errors.New("unknown channel")).Once()
	pc.On("DeleteThread", ctx, "t1").Return(nil).Once()

	h.HandleReaction(ctx, approval())

	pc.AssertExpectations(t)
}
