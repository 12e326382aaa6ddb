package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, "redis://localhost:9999/0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
