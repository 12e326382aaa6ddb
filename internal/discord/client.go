package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	apperrors "github.com/openclaw/designdesk/internal/errors"
	"github.com/openclaw/designdesk/internal/platform"
)

// session is the subset of *discordgo.Session the client calls.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageThreadStartComplex(channelID, messageID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ThreadMemberAdd(threadID, memberID string, options ...discordgo.RequestOption) error
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ session = (*discordgo.Session)(nil)

// Client implements platform.Client over a discordgo session. Every call is
// bounded by timeout.
type Client struct {
	s       session
	timeout time.Duration
}

var _ platform.Client = (*Client)(nil)

func NewClient(s session, timeout time.Duration) *Client {
	return &Client{s: s, timeout: timeout}
}

func (c *Client) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) SendEmbed(ctx context.Context, channelID string, embed platform.Embed) (*platform.Message, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	msg, err := c.s.ChannelMessageSendEmbed(channelID, toDiscordEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return nil, apperrors.Platform("send embed", err)
	}
	return fromDiscordMessage(msg), nil
}

func (c *Client) SendText(ctx context.Context, channelID, content string) error {
	ctx, cancel := c.call(ctx)
	defer cancel()

	if _, err := c.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return apperrors.Platform("send message", err)
	}
	return nil
}

func (c *Client) Reply(ctx context.Context, channelID, messageID, content string) error {
	ctx, cancel := c.call(ctx)
	defer cancel()

	ref := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
	if _, err := c.s.ChannelMessageSendReply(channelID, content, ref, discordgo.WithContext(ctx)); err != nil {
		return apperrors.Platform("reply", err)
	}
	return nil
}

func (c *Client) React(ctx context.Context, channelID, messageID, emoji string) error {
	ctx, cancel := c.call(ctx)
	defer cancel()

	if err := c.s.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return apperrors.Platform("add reaction", err)
	}
	return nil
}

func (c *Client) StartThread(ctx context.Context, channelID, messageID, name string, autoArchiveMinutes int) (string, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	ch, err := c.s.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: autoArchiveMinutes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", apperrors.Platform("start thread", err)
	}
	return ch.ID, nil
}

func (c *Client) AddThreadMember(ctx context.Context, threadID, userID string) error {
	ctx, cancel := c.call(ctx)
	defer cancel()

	if err := c.s.ThreadMemberAdd(threadID, userID, discordgo.WithContext(ctx)); err != nil {
		return apperrors.Platform("add thread member", err)
	}
	return nil
}

func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	ctx, cancel := c.call(ctx)
	defer cancel()

	if _, err := c.s.ChannelDelete(threadID, discordgo.WithContext(ctx)); err != nil {
		return apperrors.Platform("delete thread", err)
	}
	return nil
}

func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	msg, err := c.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, apperrors.Platform("fetch message", err)
	}
	return fromDiscordMessage(msg), nil
}

func toDiscordEmbed(e platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title: e.Title,
		Color: e.Color,
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.Format(time.RFC3339)
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}

func fromDiscordMessage(m *discordgo.Message) *platform.Message {
	if m == nil {
		return nil
	}
	out := &platform.Message{ID: m.ID, ChannelID: m.ChannelID}
	if m.Thread != nil {
		out.ThreadID = m.Thread.ID
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		embed := platform.Embed{Title: e.Title, Color: e.Color}
		if e.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
				embed.Timestamp = ts
			}
		}
		for _, f := range e.Fields {
			if f == nil {
				continue
			}
			embed.Fields = append(embed.Fields, platform.EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		out.Embeds = append(out.Embeds, embed)
	}
	return out
}
