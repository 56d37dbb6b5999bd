package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/errors"
	"github.com/victornm/etrivia/internal/event"
	"github.com/victornm/etrivia/internal/game"
	"github.com/victornm/etrivia/internal/history"
)

const anyCategoryName = "Any Category"

type Config struct {
	Router       gin.IRouter
	EventBus     *event.Bus
	Games        *game.Registry
	Categories   Categories
	Leaderboard  Leaderboard
	History      History
	Redis        Redis
	PubsubPrefix string
}

type Categories interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

type Leaderboard interface {
	Load(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

type History interface {
	ListRecent(ctx context.Context, limit int) ([]history.Entry, error)
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	games      *game.Registry
	categories Categories
	lb         Leaderboard
	history    History

	redis  Redis
	prefix string

	upgrader websocket.Upgrader
}

func New(c Config) *API {
	a := &API{
		games:      c.Games,
		categories: c.Categories,
		lb:         c.Leaderboard,
		history:    c.History,
		redis:      c.Redis,
		prefix:     c.PubsubPrefix,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	// HTTP APIs
	v1 := c.Router.Group("/api/v1")
	v1.GET("/categories", a.ListCategories)
	v1.GET("/leaderboard", a.GetLeaderboard)
	v1.GET("/history", a.ListHistory)

	games := v1.Group("/games")
	games.POST("", a.CreateGame)
	games.GET("/:id", a.GetGame)
	games.DELETE("/:id", a.DeleteGame)
	games.POST("/:id/start", a.StartGame)
	games.POST("/:id/answer", a.SubmitAnswer)
	games.POST("/:id/next", a.NextQuestion)
	games.POST("/:id/home", a.GoHome)
	games.GET("/:id/ws", a.StreamGame)

	// Register event handlers
	if c.EventBus != nil && a.redis != nil {
		c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
			return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
		})
	}

	return a
}

type ListCategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
	Warning    string            `json:"warning,omitempty"`
}

// ListCategories always offers "any category". Provider failures are reported
// as a warning only.
func (a *API) ListCategories(c *gin.Context) {
	resp := ListCategoriesResponse{
		Categories: []domain.Category{{ID: "", Name: anyCategoryName}},
	}

	cats, err := a.categories.Categories(c.Request.Context())
	if err != nil {
		slog.WarnContext(c.Request.Context(), "api: list categories failed", "error", err)
		resp.Warning = errors.Convert(err).Message
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Categories = append(resp.Categories, cats...)
	c.JSON(http.StatusOK, resp)
}

type GetLeaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

func (a *API) GetLeaderboard(c *gin.Context) {
	entries, err := a.lb.Load(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GetLeaderboardResponse{Entries: entries})
}

type ListHistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

func (a *API) ListHistory(c *gin.Context) {
	if a.history == nil {
		a.fail(c, errors.New(errors.CodeNotFound, errors.WithMessagef("history is not enabled")))
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			a.fail(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid limit %q", s)))
			return
		}
		limit = n
	}

	entries, err := a.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ListHistoryResponse{Entries: entries})
}

type GameResponse struct {
	ID   string    `json:"id"`
	View game.View `json:"view"`
}

func (a *API) CreateGame(c *gin.Context) {
	id, g, err := a.games.Create()
	if err != nil {
		a.fail(c, err)
		return
	}

	v, err := g.Home(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, GameResponse{ID: id, View: v})
}

func (a *API) GetGame(c *gin.Context) {
	g, ok := a.game(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, GameResponse{ID: c.Param("id"), View: g.View()})
}

func (a *API) DeleteGame(c *gin.Context) {
	if err := a.games.Remove(c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type StartGameRequest struct {
	Name       string `json:"name"`
	Amount     int    `json:"amount"`
	Difficulty string `json:"difficulty"`
	Category   string `json:"category"`
	Time       int    `json:"time"`
}

func (r StartGameRequest) settings() domain.Settings {
	return domain.Settings{
		Amount:          r.Amount,
		Difficulty:      domain.Difficulty(r.Difficulty),
		Category:        r.Category,
		TimePerQuestion: r.Time,
	}
}

func (a *API) StartGame(c *gin.Context) {
	g, ok := a.game(c)
	if !ok {
		return
	}

	var req StartGameRequest
	if !a.bind(c, &req) {
		return
	}

	v, err := g.Start(c.Request.Context(), req.Name, req.settings())
	a.respond(c, v, err)
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
	Letter string `json:"letter"`
}

func (a *API) SubmitAnswer(c *gin.Context) {
	g, ok := a.game(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if !a.bind(c, &req) {
		return
	}

	v, err := submit(c.Request.Context(), g, req)
	a.respond(c, v, err)
}

func submit(ctx context.Context, g *game.Controller, req SubmitAnswerRequest) (game.View, error) {
	switch {
	case req.Letter != "":
		return g.SubmitOption(ctx, req.Letter)
	case req.Answer != "":
		return g.SubmitAnswer(ctx, req.Answer)
	default:
		return game.View{}, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("answer or letter is required"))
	}
}

func (a *API) NextQuestion(c *gin.Context) {
	g, ok := a.game(c)
	if !ok {
		return
	}

	v, err := g.Next(c.Request.Context())
	a.respond(c, v, err)
}

func (a *API) GoHome(c *gin.Context) {
	g, ok := a.game(c)
	if !ok {
		return
	}

	v, err := g.Home(c.Request.Context())
	a.respond(c, v, err)
}

func (a *API) game(c *gin.Context) (*game.Controller, bool) {
	g, err := a.games.Get(c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return nil, false
	}

	return g, true
}

func (a *API) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		a.fail(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body"),
			errors.WithCause(err),
		))
		return false
	}

	return true
}

func (a *API) respond(c *gin.Context, v game.View, err error) {
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, GameResponse{ID: c.Param("id"), View: v})
}

type ErrorResponse struct {
	Error *errors.Error `json:"error"`
}

func (a *API) fail(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"path", c.FullPath(),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), ErrorResponse{Error: e})
}
