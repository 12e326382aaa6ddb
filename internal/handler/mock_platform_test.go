package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/openclaw/designdesk/internal/platform"
)

type mockPlatform struct {
	mock.Mock
}

func (m *mockPlatform) SendEmbed(ctx context.Context, channelID string, embed platform.Embed) (*platform.Message, error) {
	args := m.Called(ctx, channelID, embed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Message), args.Error(1)
}

func (m *mockPlatform) SendText(ctx context.Context, channelID, content string) error {
	args := m.Called(ctx, channelID, content)
	return args.Error(0)
}

func (m *mockPlatform) Reply(ctx context.Context, channelID, messageID, content string) error {
	args := m.Called(ctx, channelID, messageID, content)
	return args.Error(0)
}

func (m *mockPlatform) React(ctx context.Context, channelID, messageID, emoji string) error {
	args := m.Called(ctx, channelID, messageID, emoji)
	return args.Error(0)
}

func (m *mockPlatform) StartThread(ctx context.Context, channelID, messageID, name string, autoArchiveMinutes int) (string, error) {
	args := m.Called(ctx, channelID, messageID, name, autoArchiveMinutes)
	return args.String(0), args.Error(1)
}

func (m *mockPlatform) AddThreadMember(ctx context.Context, threadID, userID string) error {
	args := m.Called(ctx, threadID, userID)
	return args.Error(0)
}

func (m *mockPlatform) DeleteThread(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

func (m *mockPlatform) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	args := m.Called(ctx, channelID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Message), args.Error(1)
}
