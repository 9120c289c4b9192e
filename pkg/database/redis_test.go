package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadTimeout)
}

func TestNewRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	cfg.DB = 2
	client := NewRedisClient(cfg)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 2, client.Options().DB)
	require.NoError(t, Ping(context.Background(), client))
}

func TestPing_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	client := NewRedisClient(cfg)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()

	err := Ping(context.Background(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}
