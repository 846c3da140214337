// Package client talks to a running spendlens server over its HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/spendlens/internal/daemon"
	"github.com/theirongolddev/spendlens/internal/model"
)

const (
	requestTimeout = 10 * time.Second
	trainTimeout   = 2 * time.Minute
	maxBodySize    = 8 << 20
	userAgent      = "spendlens-client/1"
)

var (
	// ErrBadRequest indicates the server rejected the parameters.
	ErrBadRequest = errors.New("client: bad request")
	// ErrUnprocessable indicates the engine could not produce a result.
	ErrUnprocessable = errors.New("client: analysis failed")
)

// APIError is a non-2xx response. It unwraps to ErrBadRequest or
// ErrUnprocessable where the status maps to one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("client: %s (HTTP %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnprocessableEntity:
		return ErrUnprocessable
	}
	return nil
}

// Client calls one server.
type Client struct {
	base string
	user string
	http *http.Client
}

// New creates a client for addr (host:port or a full URL). user is sent
// with every analysis request; empty means the server default.
func New(addr, user string) *Client {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{base: base, user: user, http: &http.Client{}}
}

// ForecastParams mirrors the forecast endpoint's query.
type ForecastParams struct {
	Horizon   int
	Timeframe model.Timeframe
	Strategy  string
}

// BudgetParams mirrors the budget endpoint's query.
type BudgetParams struct {
	Period      model.BudgetPeriod
	SavingsGoal float64
	Month       string
	Strategy    string
}

// Health reports whether the server answers its liveness probe.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, requestTimeout)
	return err
}

// Status returns the server's refresh status.
func (c *Client) Status(ctx context.Context) (*daemon.Status, error) {
	var st daemon.Status
	return &st, c.getJSON(ctx, "/v1/status", nil, &st)
}

// Events returns the server's recent events, oldest first.
func (c *Client) Events(ctx context.Context) ([]daemon.Event, error) {
	var evs []daemon.Event
	return evs, c.getJSON(ctx, "/v1/events", nil, &evs)
}

// Forecast requests a forecast.
func (c *Client) Forecast(ctx context.Context, p ForecastParams) (*model.ForecastResult, error) {
	q := c.query()
	setInt(q, "horizon", p.Horizon)
	setStr(q, "timeframe", string(p.Timeframe))
	setStr(q, "strategy", p.Strategy)
	var res model.ForecastResult
	return &res, c.getJSON(ctx, "/v1/forecast", q, &res)
}

// Budget requests a budget.
func (c *Client) Budget(ctx context.Context, p BudgetParams) (*model.BudgetResult, error) {
	q := c.query()
	setStr(q, "period", string(p.Period))
	setStr(q, "month", p.Month)
	setStr(q, "strategy", p.Strategy)
	if p.SavingsGoal > 0 {
		q.Set("savings", strconv.FormatFloat(p.SavingsGoal, 'f', -1, 64))
	}
	var res model.BudgetResult
	return &res, c.getJSON(ctx, "/v1/budget", q, &res)
}

// Patterns requests pattern findings over lookbackDays (0 = server default).
func (c *Client) Patterns(ctx context.Context, lookbackDays int) (*model.PatternFindings, error) {
	q := c.query()
	setInt(q, "lookback", lookbackDays)
	var res model.PatternFindings
	return &res, c.getJSON(ctx, "/v1/patterns", q, &res)
}

// Overspending runs the weekly check. monthlyBudget <= 0 uses the server's.
func (c *Client) Overspending(ctx context.Context, monthlyBudget float64) (*model.OverspendCheck, error) {
	q := c.query()
	if monthlyBudget > 0 {
		q.Set("budget", strconv.FormatFloat(monthlyBudget, 'f', -1, 64))
	}
	var res model.OverspendCheck
	return &res, c.getJSON(ctx, "/v1/overspending", q, &res)
}

// Train retrains the user's ensemble on the server.
func (c *Client) Train(ctx context.Context) (*model.ModelSummary, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/train", c.query(), trainTimeout)
	if err != nil {
		return nil, err
	}
	var res model.ModelSummary
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("client: parsing train response: %w", err)
	}
	return &res, nil
}

func (c *Client) query() url.Values {
	q := url.Values{}
	setStr(q, "user", c.user)
	return q
}

func setStr(q url.Values, k, v string) {
	if v != "" {
		q.Set(k, v)
	}
}

func setInt(q url.Values, k string, v int) {
	if v > 0 {
		q.Set(k, strconv.Itoa(v))
	}
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	body, err := c.do(ctx, http.MethodGet, path, q, requestTimeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("client: parsing %s: %w", path, err)
	}
	return nil
}

// do performs a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("client: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("client: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
		}
		return nil, apiErr
	}
	return body, nil
}
