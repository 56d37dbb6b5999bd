package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

var RedisCommands = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "redis_commands_total",
	Help:      "Number of commands sent to Redis for the leaderboard and notifications.",
}, []string{"command", "status"})

// MonitorRedis traces the client, counts its commands and logs them at debug
// level.
func MonitorRedis(r redis.UniversalClient) error {
	if err := redisotel.InstrumentTracing(r); err != nil {
		return err
	}
	if err := redisotel.InstrumentMetrics(r); err != nil {
		return err
	}

	r.AddHook(redisHook{})
	return nil
}

type redisHook struct{}

func (redisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			slog.WarnContext(ctx, "redis: dial failed", "addr", addr, "error", err)
			return nil, err
		}

		slog.DebugContext(ctx, "redis: connected", "addr", addr)
		return conn, nil
	}
}

func (redisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		observeRedis(ctx, cmd, err, time.Since(start))
		return err
	}
}

func (redisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		for _, cmd := range cmds {
			observeRedis(ctx, cmd, cmd.Err(), time.Since(start))
		}
		return err
	}
}

func observeRedis(ctx context.Context, cmd redis.Cmder, err error, d time.Duration) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		status = "nil"
	default:
		status = "error"
	}

	RedisCommands.WithLabelValues(cmd.Name(), status).Inc()
	slog.DebugContext(ctx, "redis: command processed",
		"command", cmd.Name(),
		"status", status,
		"duration", d,
	)
}
