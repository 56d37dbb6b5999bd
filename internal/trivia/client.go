// Package trivia is a client for the Open Trivia DB API.
package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/telemetry"
)

const (
	DefaultBaseURL = "https://opentdb.com"
	defaultTimeout = 10 * time.Second

	endpointQuestions  = "questions"
	endpointCategories = "categories"
)

// Response codes documented by the API.
const (
	codeSuccess   = 0
	codeNoResults = 1
)

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	base string
	http *http.Client
}

func NewClient(c Config) *Client {
	cl := &Client{
		base: c.BaseURL,
		http: c.HTTPClient,
	}

	if cl.base == "" {
		cl.base = DefaultBaseURL
	}
	if cl.http == nil {
		cl.http = &http.Client{Timeout: defaultTimeout}
	}

	return cl
}

type questionsResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []domain.Question `json:"results"`
}

// Questions fetches multiple-choice questions. A filter that matches nothing
// yields an empty list and no error.
func (c *Client) Questions(ctx context.Context, f domain.QuestionFilter) ([]domain.Question, error) {
	q := url.Values{}
	q.Set("amount", strconv.Itoa(f.Amount))
	q.Set("difficulty", string(f.Difficulty))
	q.Set("type", "multiple")
	if f.CategoryID != "" {
		q.Set("category", f.CategoryID)
	}

	var resp questionsResponse
	if err := c.get(ctx, endpointQuestions, "/api.php?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	switch resp.ResponseCode {
	case codeSuccess:
	case codeNoResults:
		return []domain.Question{}, nil
	default:
		return nil, domain.ErrProviderUnavailable.Wrap(fmt.Errorf("trivia: questions: response code %d", resp.ResponseCode))
	}

	if resp.Results == nil {
		return []domain.Question{}, nil
	}
	return resp.Results, nil
}

type categoriesResponse struct {
	Categories []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"trivia_categories"`
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var resp categoriesResponse
	if err := c.get(ctx, endpointCategories, "/api_category.php", &resp); err != nil {
		return nil, err
	}

	cats := make([]domain.Category, 0, len(resp.Categories))
	for _, cat := range resp.Categories {
		cats = append(cats, domain.Category{
			ID:   strconv.Itoa(cat.ID),
			Name: cat.Name,
		})
	}

	return cats, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, v any) (err error) {
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		telemetry.ProviderRequests.WithLabelValues(endpoint, status).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("trivia: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.ErrProviderUnavailable.Wrap(fmt.Errorf("trivia: %s: %w", endpoint, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ErrProviderUnavailable.Wrap(fmt.Errorf("trivia: %s: unexpected status %d", endpoint, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return domain.ErrProviderUnavailable.Wrap(fmt.Errorf("trivia: %s: decode: %w", endpoint, err))
	}

	slog.DebugContext(ctx, "trivia: request completed", "endpoint", endpoint)
	return nil
}
