package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/util"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// CutoffLayout is the format of UNLIMITED_CUTOFF. The value is interpreted in TIMEZONE.
const CutoffLayout = "2006-01-02T15:04:05"

type Config struct {
	DiscordToken       string `env:"DISCORD_TOKEN,required,notEmpty"`
	AdminUserID        string `env:"ADMIN_USER_ID,required,notEmpty"`
	CompletedChannelID string `env:"COMPLETED_CHANNEL_ID,required,notEmpty"`

	ClientBackend string `env:"CLIENT_BACKEND" envDefault:"file"`
	ClientsFile   string `env:"CLIENTS_FILE" envDefault:"clients.json"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`

	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`
	ApprovalEmoji string `env:"APPROVAL_EMOJI" envDefault:"✅"`

	UnlimitedCutoff   string `env:"UNLIMITED_CUTOFF" envDefault:"2026-01-31T23:59:59"`
	DisplayCeiling    int    `env:"DISPLAY_CEILING" envDefault:"999"`
	UnlimitedSentinel int    `env:"UNLIMITED_SENTINEL" envDefault:"-1"`
	Timezone          string `env:"TIMEZONE" envDefault:"Local"`

	ThreadAutoArchiveMinutes int  `env:"THREAD_AUTO_ARCHIVE_MINUTES" envDefault:"1440"`
	ThreadAddRequester       bool `env:"THREAD_ADD_REQUESTER" envDefault:"true"`
	MentionAdmin             bool `env:"MENTION_ADMIN" envDefault:"true"`

	RequestRateLimit         int `env:"REQUEST_RATE_LIMIT" envDefault:"5"`
	RequestRateWindowSeconds int `env:"REQUEST_RATE_WINDOW_SECONDS" envDefault:"60"`

	PeriodResetEnabled bool `env:"PERIOD_RESET_ENABLED" envDefault:"false"`

	PlatformCallTimeoutSeconds int `env:"PLATFORM_CALL_TIMEOUT_SECONDS" envDefault:"10"`

	Port           int    `env:"PORT" envDefault:"8080"`
	StatusAPIToken string `env:"STATUS_API_TOKEN"`
	EnableHSTS     bool   `env:"ENABLE_HSTS" envDefault:"false"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) RequestRateWindow() time.Duration {
	return time.Duration(c.RequestRateWindowSeconds) * time.Second
}

func (c *Config) PlatformCallTimeout() time.Duration {
	return time.Duration(c.PlatformCallTimeoutSeconds) * time.Second
}

// Location resolves TIMEZONE. "Local" and "" map to the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Cutoff returns the end of the promotional unlimited window.
func (c *Config) Cutoff() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(CutoffLayout, c.UnlimitedCutoff, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid UNLIMITED_CUTOFF %q: %w", c.UnlimitedCutoff, err)
	}
	return t, nil
}

func (c *Config) Validate() error {
	if !util.IsSnowflake(c.AdminUserID) {
		return fmt.Errorf("ADMIN_USER_ID %q is not a platform user ID", c.AdminUserID)
	}
	if !util.IsSnowflake(c.CompletedChannelID) {
		return fmt.Errorf("COMPLETED_CHANNEL_ID %q is not a platform channel ID", c.CompletedChannelID)
	}

	switch c.ClientBackend {
	case BackendFile:
		if c.ClientsFile == "" {
			return fmt.Errorf("CLIENTS_FILE must be set when CLIENT_BACKEND=file")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when CLIENT_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown CLIENT_BACKEND %q (expected %q or %q)", c.ClientBackend, BackendFile, BackendPostgres)
	}

	if strings.TrimSpace(c.CommandPrefix) == "" {
		return fmt.Errorf("COMMAND_PREFIX must not be blank")
	}
	if c.ApprovalEmoji == "" {
		return fmt.Errorf("APPROVAL_EMOJI must not be empty")
	}
	if c.DisplayCeiling <= 0 {
		return fmt.Errorf("DISPLAY_CEILING must be positive")
	}
	if c.UnlimitedSentinel >= 0 {
		return fmt.Errorf("UNLIMITED_SENTINEL must be negative so it cannot collide with a real quota")
	}
	if _, err := c.Cutoff(); err != nil {
		return err
	}
	if c.RequestRateLimit < 0 || c.RequestRateWindowSeconds <= 0 {
		return fmt.Errorf("REQUEST_RATE_LIMIT must be >= 0 and REQUEST_RATE_WINDOW_SECONDS > 0")
	}
	if c.PlatformCallTimeoutSeconds <= 0 {
		return fmt.Errorf("PLATFORM_CALL_TIMEOUT_SECONDS must be positive")
	}

	if c.StatusAPIToken == "" {
		log.Warn().Msg("STATUS_API_TOKEN is empty: /v1/clients is disabled")
	}
	if c.RedisURL == "" {
		log.Info().Msg("REDIS_URL is empty: request cooldown is tracked in memory")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
