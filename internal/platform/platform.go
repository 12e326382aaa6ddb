// Package platform is the narrow chat-platform contract the bot depends on.
package platform

import (
	"context"
	"time"
)

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title     string
	Color     int
	Fields    []EmbedField
	Timestamp time.Time
}

// Field returns the value of the first field named name.
func (e Embed) Field(name string) (string, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

type Message struct {
	ID        string
	ChannelID string
	// ThreadID is set when a thread was started from this message.
	ThreadID string
	Embeds   []Embed
}

// EmbedField looks name up in the first embed.
func (m *Message) EmbedField(name string) (string, bool) {
	if m == nil || len(m.Embeds) == 0 {
		return "", false
	}
	return m.Embeds[0].Field(name)
}

// MessageEvent is an inbound message creation.
type MessageEvent struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	AuthorBot bool
	// RoleIDs are the author's guild roles; empty outside a guild.
	RoleIDs []string
	Content string
}

// ReactionEvent is an inbound reaction addition.
type ReactionEvent struct {
	ChannelID string
	MessageID string
	UserID    string
	UserBot   bool
	Emoji     string
}

type Client interface {
	SendEmbed(ctx context.Context, channelID string, embed Embed) (*Message, error)
	SendText(ctx context.Context, channelID, content string) error
	Reply(ctx context.Context, channelID, messageID, content string) error
	React(ctx context.Context, channelID, messageID, emoji string) error
	// StartThread opens a thread from messageID and returns the thread ID.
	StartThread(ctx context.Context, channelID, messageID, name string, autoArchiveMinutes int) (string, error)
	AddThreadMember(ctx context.Context, threadID, userID string) error
	DeleteThread(ctx context.Context, threadID string) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
}

// Mention renders a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}
