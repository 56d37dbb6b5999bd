package telemetry_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/etrivia/internal/telemetry"
)

func TestMonitorRedis(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	r := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{s.Addr()}})
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, telemetry.MonitorRedis(r))

	sets := testutil.ToFloat64(telemetry.RedisCommands.WithLabelValues("set", "ok"))
	misses := testutil.ToFloat64(telemetry.RedisCommands.WithLabelValues("get", "nil"))

	require.NoError(t, r.Set(ctx, "quizLeaderboard", "[]", 0).Err())
	require.ErrorIs(t, r.Get(ctx, "missing").Err(), redis.Nil)

	assert.Equal(t, sets+1, testutil.ToFloat64(telemetry.RedisCommands.WithLabelValues("set", "ok")))
	assert.Equal(t, misses+1, testutil.ToFloat64(telemetry.RedisCommands.WithLabelValues("get", "nil")))
}
