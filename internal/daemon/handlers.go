package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/model"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
}

// query reads typed query parameters, remembering the first parse error.
type query struct {
	r   *http.Request
	err error
}

func (q *query) str(name string) string { return q.r.URL.Query().Get(name) }

func (q *query) intParam(name string, def int) int {
	v := q.str(name)
	if v == "" || q.err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		q.err = fmt.Errorf("invalid %s %q", name, v)
		return def
	}
	return n
}

func (q *query) floatParam(name string, def float64) float64 {
	v := q.str(name)
	if v == "" || q.err != nil {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		q.err = fmt.Errorf("invalid %s %q", name, v)
		return def
	}
	return f
}

func (s *Service) user(q *query) string {
	if u := q.str("user"); u != "" {
		return u
	}
	return s.cfg.DefaultUser
}

// load fetches the user's transactions, writing an error response on failure.
func (s *Service) load(w http.ResponseWriter, r *http.Request, user string) ([]model.Transaction, bool) {
	txs, err := s.txs.LoadTransactions(r.Context(), user, time.Time{})
	if err != nil {
		s.log.WithError(err).WithField("user", user).Error("loading transactions")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "loading transactions failed"})
		return nil, false
	}
	return txs, true
}

func (s *Service) reply(w http.ResponseWriter, v any, err error) {
	if errors.Is(err, engine.ErrInvalidRequest) {
		badRequest(w, err)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.events.Recent())
}

func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	q := &query{r: r}
	req := engine.ForecastRequest{
		UserID:   s.user(q),
		Horizon:  q.intParam("horizon", 0),
		Strategy: q.str("strategy"),
	}
	if tf := q.str("timeframe"); tf != "" {
		parsed, ok := model.ParseTimeframe(tf)
		if !ok {
			badRequest(w, fmt.Errorf("invalid timeframe %q", tf))
			return
		}
		req.Timeframe = parsed
	}
	if q.err != nil {
		badRequest(w, q.err)
		return
	}
	txs, ok := s.load(w, r, req.UserID)
	if !ok {
		return
	}
	req.Transactions = txs
	res, err := s.engine.Forecast(r.Context(), req)
	s.reply(w, res, err)
}

func (s *Service) handleBudget(w http.ResponseWriter, r *http.Request) {
	q := &query{r: r}
	req := engine.BudgetRequest{
		UserID:      s.user(q),
		Period:      model.BudgetPeriod(q.str("period")),
		TargetMonth: q.str("month"),
		SavingsGoal: q.floatParam("savings", 0),
		Strategy:    q.str("strategy"),
	}
	switch req.Period {
	case "", model.PeriodWeekly, model.PeriodMonthly:
	default:
		badRequest(w, fmt.Errorf("invalid period %q", req.Period))
		return
	}
	if q.err != nil {
		badRequest(w, q.err)
		return
	}
	txs, ok := s.load(w, r, req.UserID)
	if !ok {
		return
	}
	req.Transactions = txs
	res, err := s.engine.Budget(r.Context(), req)
	s.reply(w, res, err)
}

func (s *Service) handlePatterns(w http.ResponseWriter, r *http.Request) {
	q := &query{r: r}
	user := s.user(q)
	lookback := q.intParam("lookback", 0)
	if q.err != nil {
		badRequest(w, q.err)
		return
	}
	txs, ok := s.load(w, r, user)
	if !ok {
		return
	}
	res, err := s.engine.Patterns(r.Context(), user, txs, lookback)
	s.reply(w, res, err)
}

func (s *Service) handleOverspending(w http.ResponseWriter, r *http.Request) {
	q := &query{r: r}
	user := s.user(q)
	monthly := q.floatParam("budget", s.cfg.MonthlyBudget)
	if q.err != nil {
		badRequest(w, q.err)
		return
	}
	txs, ok := s.load(w, r, user)
	if !ok {
		return
	}
	res, err := s.engine.CheckOverspending(r.Context(), user, txs, monthly)
	s.reply(w, res, err)
}

func (s *Service) handleTrain(w http.ResponseWriter, r *http.Request) {
	q := &query{r: r}
	user := s.user(q)
	txs, ok := s.load(w, r, user)
	if !ok {
		return
	}
	res, err := s.engine.Train(r.Context(), user, txs)
	s.reply(w, res, err)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.events.subscribe(ch)
	defer s.events.unsubscribe(id)

	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
