package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/platform"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessageReactions

type MessageHandler interface {
	HandleMessage(ctx context.Context, ev platform.MessageEvent)
}

type ReactionHandler interface {
	HandleReaction(ctx context.Context, ev platform.ReactionEvent)
}

// Bot owns the gateway session and turns discordgo events into platform
// events. discordgo runs each handler on its own goroutine.
type Bot struct {
	session *discordgo.Session
	client  *Client

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func New(token string, callTimeout time.Duration) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = intents

	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		session: s,
		client:  NewClient(s, callTimeout),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func (b *Bot) Client() *Client {
	return b.client
}

func (b *Bot) Register(messages MessageHandler, reactions ReactionHandler) {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.String()).Int("guilds", len(r.Guilds)).Msg("logged in")
	})

	b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.dispatch(func(ctx context.Context) {
			messages.HandleMessage(ctx, toMessageEvent(m))
		})
	})

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		selfID := ""
		if s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}
		b.dispatch(func(ctx context.Context) {
			reactions.HandleReaction(ctx, toReactionEvent(r, selfID))
		})
	})
}

// dispatch runs fn unless Close has started. Add happens under mu so it
// never races the Wait in Close.
func (b *Bot) dispatch(fn func(ctx context.Context)) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("event handler panicked")
		}
	}()
	fn(b.ctx)
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close cancels in-flight handlers, waits for them and closes the gateway.
func (b *Bot) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.session.Close()
}

func toMessageEvent(m *discordgo.MessageCreate) platform.MessageEvent {
	ev := platform.MessageEvent{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		ev.AuthorID = m.Author.ID
		ev.AuthorBot = m.Author.Bot
	}
	if m.Member != nil {
		ev.RoleIDs = append([]string(nil), m.Member.Roles...)
	}
	return ev
}

func toReactionEvent(r *discordgo.MessageReactionAdd, selfID string) platform.ReactionEvent {
	ev := platform.ReactionEvent{
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
	}
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		ev.UserBot = true
	}
	if selfID != "" && r.UserID == selfID {
		ev.UserBot = true
	}
	return ev
}
