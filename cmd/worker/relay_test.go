package worker

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmehdipour/agent-bridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenDedup(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Config{
		Redis: config.RedisConfig{Addr: mr.Addr()},
		Dedup: config.DedupConfig{TTL: time.Hour},
	}

	store, closeStore := openDedup(cfg, zap.NewNop())
	require.NotNil(t, store)
	defer closeStore()
}

func TestOpenDedup_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	tests := []struct {
		name string
		addr string
		msg  string
	}{
		{"not configured", "", "redis.addr empty - relaying without revision dedup"},
		{"unreachable", addr, "redis unreachable - relaying without revision dedup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			cfg := config.Config{Redis: config.RedisConfig{Addr: tt.addr, DialTimeout: 200 * time.Millisecond}}

			store, _ := openDedup(cfg, zap.New(core))
			assert.Nil(t, store)
			assert.Equal(t, 1, logs.FilterMessage(tt.msg).Len())
		})
	}
}
