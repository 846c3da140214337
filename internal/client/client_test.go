package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/daemon"
	"github.com/theirongolddev/spendlens/internal/model"
)

type recorded struct {
	method string
	path   string
	query  url.Values
}

func newServer(t *testing.T, status int, body any) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method, rec.path, rec.query = r.Method, r.URL.Path, r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestNewAddsScheme(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8484", New("127.0.0.1:8484", "").base)
	assert.Equal(t, "https://example.test", New("https://example.test/", "").base)
}

func TestForecastSendsParams(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, model.ForecastResult{Strategy: "autoregressive", HistoryDays: 40})
	c := New(srv.URL, "alice")

	res, err := c.Forecast(context.Background(), ForecastParams{Horizon: 4, Timeframe: model.Weekly})
	require.NoError(t, err)
	assert.Equal(t, "autoregressive", res.Strategy)
	assert.Equal(t, 40, res.HistoryDays)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/v1/forecast", rec.path)
	assert.Equal(t, "alice", rec.query.Get("user"))
	assert.Equal(t, "4", rec.query.Get("horizon"))
	assert.Equal(t, "weekly", rec.query.Get("timeframe"))
	assert.False(t, rec.query.Has("strategy"))
}

func TestBudgetAndOverspendingParams(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, model.BudgetResult{Total: 900})
	c := New(srv.URL, "")

	res, err := c.Budget(context.Background(), BudgetParams{Period: model.PeriodWeekly, SavingsGoal: 25.5})
	require.NoError(t, err)
	assert.InDelta(t, 900, res.Total, 1e-9)
	assert.Equal(t, "weekly", rec.query.Get("period"))
	assert.Equal(t, "25.5", rec.query.Get("savings"))
	assert.False(t, rec.query.Has("user"))

	_, err = c.Overspending(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "/v1/overspending", rec.path)
	assert.False(t, rec.query.Has("budget"))
}

func TestTrainPosts(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, model.ModelSummary{UserID: "bob"})
	res, err := New(srv.URL, "bob").Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", res.UserID)
	assert.Equal(t, http.MethodPost, rec.method)
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnprocessableEntity, map[string]string{"error": "forecast: insufficient history"})
	_, err := New(srv.URL, "").Patterns(context.Background(), 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnprocessable))
	assert.Contains(t, err.Error(), "insufficient history")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)

	bad, _ := newServer(t, http.StatusBadRequest, map[string]string{"error": `invalid lookback "x"`})
	_, err = New(bad.URL, "").Patterns(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestStatusAndEvents(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, daemon.Status{RefreshCount: 3, Users: 2})
	st, err := New(srv.URL, "").Status(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.RefreshCount)
	assert.Equal(t, 2, st.Users)

	evSrv, _ := newServer(t, http.StatusOK, []daemon.Event{{ID: 1, Type: daemon.EventComputed}})
	evs, err := New(evSrv.URL, "").Events(context.Background())
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, daemon.EventComputed, evs[0].Type)
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	err := New(addr, "").Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
