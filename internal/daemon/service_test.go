package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/model"
)

type fakeStore struct {
	mu   sync.Mutex
	txs  map[string][]model.Transaction
	fps  map[string]string
	fail error
}

func (f *fakeStore) LoadTransactions(_ context.Context, userID string, _ time.Time) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return f.txs[userID], nil
}

func (f *fakeStore) Users(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []string
	for u := range f.fps {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeStore) Fingerprint(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fps[userID], nil
}

func (f *fakeStore) setFingerprint(user, fp string) {
	f.mu.Lock()
	f.fps[user] = fp
	f.mu.Unlock()
}

type fakeEngine struct {
	mu          sync.Mutex
	lastFR      engine.ForecastRequest
	lastBR      engine.BudgetRequest
	lastBudget  float64
	invalidated []string
	events      *EventLog
}

func (f *fakeEngine) Forecast(_ context.Context, req engine.ForecastRequest) (*model.ForecastResult, error) {
	if req.Horizon > 366 {
		return nil, fmt.Errorf("%w: horizon %d too long", engine.ErrInvalidRequest, req.Horizon)
	}
	f.mu.Lock()
	f.lastFR = req
	f.mu.Unlock()
	f.events.Record(engine.Event{Time: time.Now(), UserID: req.UserID, Operation: "forecast", Strategy: "autoregressive"})
	return &model.ForecastResult{Strategy: "autoregressive", HistoryDays: len(req.Transactions), Timeframe: req.Timeframe}, nil
}

func (f *fakeEngine) Budget(_ context.Context, req engine.BudgetRequest) (*model.BudgetResult, error) {
	f.mu.Lock()
	f.lastBR = req
	f.mu.Unlock()
	return &model.BudgetResult{Period: req.Period, Total: 100}, nil
}

func (f *fakeEngine) Patterns(_ context.Context, _ string, txs []model.Transaction, _ int) (*model.PatternFindings, error) {
	return &model.PatternFindings{DaysAnalyzed: len(txs)}, nil
}

func (f *fakeEngine) CheckOverspending(_ context.Context, _ string, _ []model.Transaction, monthly float64) (*model.OverspendCheck, error) {
	f.mu.Lock()
	f.lastBudget = monthly
	f.mu.Unlock()
	return &model.OverspendCheck{Basis: "budget", Threshold: monthly / 4.3 * 1.2}, nil
}

func (f *fakeEngine) Train(_ context.Context, userID string, txs []model.Transaction) (*model.ModelSummary, error) {
	if len(txs) == 0 {
		return nil, errors.New("forecast: insufficient history")
	}
	return &model.ModelSummary{UserID: userID}, nil
}

func (f *fakeEngine) Invalidate(_ context.Context, userID string) error {
	f.mu.Lock()
	f.invalidated = append(f.invalidated, userID)
	f.mu.Unlock()
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeEngine, *fakeStore) {
	t.Helper()
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	st := &fakeStore{
		txs: map[string][]model.Transaction{
			"alice": {
				{ID: "1", Date: day, Amount: decimal.NewFromInt(10), Category: "Food", Type: model.Expense},
				{ID: "2", Date: day.AddDate(0, 0, 1), Amount: decimal.NewFromInt(12), Category: "Food", Type: model.Expense},
			},
		},
		fps: map[string]string{"alice": "aaa"},
	}
	events := NewEventLog(10)
	eng := &fakeEngine{events: events}
	svc := New(Config{DefaultUser: "alice", MonthlyBudget: 1500}, eng, st, events, nil)
	return svc, eng, st
}

func get(t *testing.T, h http.Handler, method, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, url, nil))
	return rec
}

func TestHealth(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := get(t, svc.Handler(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestForecastEndpoint(t *testing.T) {
	svc, eng, _ := newTestService(t)
	rec := get(t, svc.Handler(), http.MethodGet, "/v1/forecast?horizon=14&timeframe=weekly")
	require.Equal(t, http.StatusOK, rec.Code)

	var res model.ForecastResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.HistoryDays)
	assert.Equal(t, model.Weekly, res.Timeframe)
	assert.Equal(t, "alice", eng.lastFR.UserID)
	assert.Equal(t, 14, eng.lastFR.Horizon)
}

func TestForecastRejectsBadParams(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, url := range []string{
		"/v1/forecast?timeframe=hourly",
		"/v1/forecast?horizon=soon",
		"/v1/budget?period=yearly",
		"/v1/budget?savings=-5",
		"/v1/patterns?lookback=x",
	} {
		rec := get(t, svc.Handler(), http.MethodGet, url)
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestForecastRejectsLongHorizon(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := get(t, svc.Handler(), http.MethodGet, "/v1/forecast?horizon=1099511627776")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "horizon")
}

func TestBudgetEndpoint(t *testing.T) {
	svc, eng, _ := newTestService(t)
	rec := get(t, svc.Handler(), http.MethodGet, "/v1/budget?user=alice&period=weekly&savings=25&strategy=advanced")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PeriodWeekly, eng.lastBR.Period)
	assert.InDelta(t, 25.0, eng.lastBR.SavingsGoal, 1e-9)
	assert.Equal(t, "advanced", eng.lastBR.Strategy)
}

func TestOverspendingUsesConfiguredBudget(t *testing.T) {
	svc, eng, _ := newTestService(t)
	rec := get(t, svc.Handler(), http.MethodGet, "/v1/overspending")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1500.0, eng.lastBudget, 1e-9)

	get(t, svc.Handler(), http.MethodGet, "/v1/overspending?budget=900")
	assert.InDelta(t, 900.0, eng.lastBudget, 1e-9)
}

func TestTrainRequiresPost(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := get(t, svc.Handler(), http.MethodGet, "/v1/train")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = get(t, svc.Handler(), http.MethodPost, "/v1/train?user=bob")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = get(t, svc.Handler(), http.MethodPost, "/v1/train")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoadFailure(t *testing.T) {
	svc, _, st := newTestService(t)
	st.fail = errors.New("disk gone")
	rec := get(t, svc.Handler(), http.MethodGet, "/v1/patterns")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk gone")
}

func TestEventsRecordComputations(t *testing.T) {
	svc, _, _ := newTestService(t)
	get(t, svc.Handler(), http.MethodGet, "/v1/forecast")

	rec := get(t, svc.Handler(), http.MethodGet, "/v1/events")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, EventComputed, events[0].Type)
	require.NotNil(t, events[0].Operation)
	assert.Equal(t, "forecast", events[0].Operation.Operation)
}

func TestRefreshInvalidatesChangedUsers(t *testing.T) {
	svc, eng, st := newTestService(t)
	ctx := context.Background()

	assert.Empty(t, svc.Refresh(ctx), "first refresh only seeds")
	assert.Empty(t, svc.Refresh(ctx))

	st.setFingerprint("alice", "bbb")
	assert.Equal(t, []string{"alice"}, svc.Refresh(ctx))
	assert.Equal(t, []string{"alice"}, eng.invalidated)

	events := svc.events.Recent()
	require.NotEmpty(t, events)
	assert.Equal(t, EventDataChanged, events[len(events)-1].Type)

	st.setFingerprint("carol", "ccc")
	assert.Empty(t, svc.Refresh(ctx), "new users are seeded, not invalidated")

	status := svc.status()
	assert.Equal(t, int64(4), status.RefreshCount)
	assert.Equal(t, 2, status.Users)
}

func TestEventLogRingBuffer(t *testing.T) {
	l := NewEventLog(2)
	l.Publish(Event{Type: "a"})
	l.Publish(Event{Type: "b"})
	l.Publish(Event{Type: "c"})

	events := l.Recent()
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(3), events[1].ID)
}

func TestEventLogSubscribers(t *testing.T) {
	l := NewEventLog(5)
	ch := make(chan Event, 1)
	id := l.subscribe(ch)
	l.Publish(Event{Type: "a"})
	l.Publish(Event{Type: "b"}) // dropped, channel full
	assert.Equal(t, "a", (<-ch).Type)
	l.unsubscribe(id)
	assert.Equal(t, 0, l.subscribers())
}
