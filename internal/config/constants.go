package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// Status HTTP server timeouts
const (
	ServerRequestTimeout  = 15 * time.Second
	ServerReadTimeout     = 10 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 10 * time.Second
)

// Database ping timeout at startup
const DBPingTimeout = 5 * time.Second

// Background job intervals
const PeriodResetInterval = time.Hour

// Discord limits thread names to 100 characters.
const MaxThreadNameLength = 100

// Discord limits an embed field value to 1024 characters.
const MaxRequestTextLength = 1024
