package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/etrivia/internal/api"
	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/event"
	"github.com/victornm/etrivia/internal/game"
	"github.com/victornm/etrivia/internal/history"
	"github.com/victornm/etrivia/internal/kv"
	"github.com/victornm/etrivia/internal/leaderboard"
	"github.com/victornm/etrivia/internal/telemetry"
	"github.com/victornm/etrivia/internal/trivia"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Trivia struct {
		BaseURL     string
		Timeout     time.Duration
		CategoryTTL time.Duration
	}

	Quiz struct {
		Amount          int
		Difficulty      string
		Category        string
		TimePerQuestion int
	}

	Games struct {
		// IdleTimeout evicts games with no command and no websocket subscriber
		// for that long. Zero disables eviction.
		IdleTimeout time.Duration
	}

	Leaderboard struct {
		// Backend is one of memory, sqlite or redis. The redis key is
		// prefixed with Redis.Prefix.
		Backend    string
		Key        string
		Size       int
		SQLitePath string
	}

	Redis struct {
		Addrs  []string
		Pass   string
		Prefix string
	}

	Postgres struct {
		History struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}
}

func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080

	c.Trivia.BaseURL = trivia.DefaultBaseURL
	c.Trivia.Timeout = 10 * time.Second
	c.Trivia.CategoryTTL = time.Hour

	c.Quiz.Amount = game.DefaultSettings.Amount
	c.Quiz.Difficulty = string(game.DefaultSettings.Difficulty)
	c.Quiz.TimePerQuestion = game.DefaultSettings.TimePerQuestion

	c.Games.IdleTimeout = 30 * time.Minute

	c.Leaderboard.Backend = BackendSQLite
	c.Leaderboard.Key = leaderboard.DefaultKey
	c.Leaderboard.Size = leaderboard.DefaultSize
	c.Leaderboard.SQLitePath = "etrivia.db"

	c.Redis.Prefix = "etrivia"
	return c
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis  redis.UniversalClient
		sqlite *kv.SQLite

		postgres struct {
			history *pgxpool.Pool
		}
	}

	service struct {
		trivia      *trivia.Client
		categories  *trivia.CategoryCache
		leaderboard *leaderboard.Service
		history     *history.Service
		games       *game.Registry
	}

	http *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.eb = event.NewBus()
	telemetry.RegisterMetrics(s.eb)

	if err := s.initInfra(); err != nil {
		s.cancel()
		s.eb.Stop()
		s.closeInfra()
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	if err := s.initService(); err != nil {
		s.cancel()
		s.eb.Stop()
		s.closeInfra()
		return nil, fmt.Errorf("server: init service: %w", err)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	if err := s.initSQLite(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	return nil
}

// initRedis connects only when addresses are configured. Redis backs the
// leaderboard when selected and carries leaderboard notifications.
func (s *Server) initRedis() error {
	if len(s.c.Redis.Addrs) == 0 {
		if s.c.Leaderboard.Backend == BackendRedis {
			return fmt.Errorf("leaderboard backend is redis but no address is configured")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Addrs,
		Password: s.c.Redis.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() error {
	p := s.c.Postgres.History
	if p.Addr == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return fmt.Errorf("history: %w", err)
	}

	s.infra.postgres.history = db
	return nil
}

func (s *Server) initSQLite() error {
	if s.c.Leaderboard.Backend != BackendSQLite {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := kv.OpenSQLite(ctx, s.c.Leaderboard.SQLitePath)
	if err != nil {
		return err
	}

	s.infra.sqlite = db
	return nil
}

func (s *Server) store() (kv.Store, error) {
	switch s.c.Leaderboard.Backend {
	case BackendMemory, "":
		return kv.NewMemory(), nil
	case BackendSQLite:
		return s.infra.sqlite, nil
	case BackendRedis:
		return kv.NewRedis(s.infra.redis), nil
	default:
		return nil, fmt.Errorf("unknown leaderboard backend %q", s.c.Leaderboard.Backend)
	}
}

func (s *Server) leaderboardKey() string {
	key := s.c.Leaderboard.Key
	if key == "" {
		key = leaderboard.DefaultKey
	}
	if s.c.Leaderboard.Backend == BackendRedis && s.c.Redis.Prefix != "" {
		return fmt.Sprintf("%s:%s", s.c.Redis.Prefix, key)
	}
	return key
}

func (s *Server) initService() error {
	store, err := s.store()
	if err != nil {
		return err
	}

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		EventBus: s.eb,
		Store:    store,
		Key:      s.leaderboardKey(),
		Size:     s.c.Leaderboard.Size,
	})

	s.service.trivia = trivia.NewClient(trivia.Config{
		BaseURL:    s.c.Trivia.BaseURL,
		HTTPClient: &http.Client{Timeout: s.c.Trivia.Timeout},
	})
	s.service.categories = trivia.NewCategoryCache(s.service.trivia, s.c.Trivia.CategoryTTL)

	if s.infra.postgres.history != nil {
		s.service.history = history.NewService(history.Config{
			EventBus: s.eb,
			DB:       s.infra.postgres.history,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.service.history.Migrate(ctx); err != nil {
			return err
		}
	}

	s.service.games = game.NewRegistry(s.GameConfig())
	return nil
}

// GameConfig is the configuration every game controller of this server
// is created with.
func (s *Server) GameConfig() game.Config {
	return game.Config{
		Provider:    s.service.trivia,
		Leaderboard: s.service.leaderboard,
		EventBus:    s.eb,
		Defaults: domain.Settings{
			Amount:          s.c.Quiz.Amount,
			Difficulty:      domain.ParseDifficulty(s.c.Quiz.Difficulty),
			Category:        s.c.Quiz.Category,
			TimePerQuestion: s.c.Quiz.TimePerQuestion,
		},
	}
}

func (s *Server) Categories() *trivia.CategoryCache {
	return s.service.categories
}

func (s *Server) Leaderboard() *leaderboard.Service {
	return s.service.leaderboard
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())
	e.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ac := api.Config{
		Router:       e,
		EventBus:     s.eb,
		Games:        s.service.games,
		Categories:   s.service.categories,
		Leaderboard:  s.service.leaderboard,
		PubsubPrefix: s.c.Redis.Prefix,
	}
	// Leave the interfaces nil when the backing infra is not configured.
	if s.service.history != nil {
		ac.History = s.service.history
	}
	if s.infra.redis != nil {
		ac.Redis = s.infra.redis
	}
	api.New(ac)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	eg, ctx := errgroup.WithContext(s.ctx)
	if idle := s.c.Games.IdleTimeout; idle > 0 {
		eg.Go(func() error {
			s.service.games.RunEviction(ctx, idle/2, idle)
			return nil
		})
	}

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
		}
	}

	if s.service.games != nil {
		s.service.games.Close()
	}

	s.eb.Stop()
	s.closeInfra()

	slog.InfoContext(ctx, "server: shutdown completed")
}

func (s *Server) closeInfra() {
	if s.infra.sqlite != nil {
		if err := s.infra.sqlite.Close(); err != nil {
			slog.Error("server: close sqlite failed", "error", err)
		}
	}

	if s.infra.redis != nil {
		if err := s.infra.redis.Close(); err != nil {
			slog.Error("server: close redis failed", "error", err)
		}
	}

	if s.infra.postgres.history != nil {
		s.infra.postgres.history.Close()
	}
}
