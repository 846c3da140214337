// Package daemon serves the analytics engine over HTTP and keeps it in step
// with the transaction store.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/spendlens/internal/engine"
	"github.com/theirongolddev/spendlens/internal/model"
)

// Analyzer is the engine surface the API exposes. *engine.Engine satisfies it.
type Analyzer interface {
	Forecast(ctx context.Context, req engine.ForecastRequest) (*model.ForecastResult, error)
	Budget(ctx context.Context, req engine.BudgetRequest) (*model.BudgetResult, error)
	Patterns(ctx context.Context, userID string, txs []model.Transaction, lookbackDays int) (*model.PatternFindings, error)
	CheckOverspending(ctx context.Context, userID string, txs []model.Transaction, monthlyBudget float64) (*model.OverspendCheck, error)
	Train(ctx context.Context, userID string, txs []model.Transaction) (*model.ModelSummary, error)
	Invalidate(ctx context.Context, userID string) error
}

// Transactions is the read side of the store. *store.Store satisfies it.
type Transactions interface {
	LoadTransactions(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)
	Users(ctx context.Context) ([]string, error)
	Fingerprint(ctx context.Context, userID string) (string, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Addr          string
	Interval      time.Duration
	DefaultUser   string
	MonthlyBudget float64
}

// Status is served at /v1/status.
type Status struct {
	StartedAt          time.Time `json:"started_at"`
	LastRefreshAt      time.Time `json:"last_refresh_at"`
	RefreshIntervalSec int       `json:"refresh_interval_sec"`
	RefreshCount       int64     `json:"refresh_count"`
	Users              int       `json:"users"`
	LastError          string    `json:"last_error,omitempty"`
	EventCount         int       `json:"event_count"`
	SubscriberCount    int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	engine Analyzer
	txs    Transactions
	events *EventLog
	log    logrus.FieldLogger

	mu            sync.RWMutex
	startedAt     time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	lastError     string
	fingerprints  map[string]string
}

// New returns a new daemon service. events may be shared with the engine's
// OnEvent hook so computations show up in /v1/events.
func New(cfg Config, a Analyzer, txs Transactions, events *EventLog, log logrus.FieldLogger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8484"
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "default"
	}
	if events == nil {
		events = NewEventLog(0)
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}

	return &Service{
		cfg:          cfg,
		engine:       a,
		txs:          txs,
		events:       events,
		log:          log.WithField("component", "daemon"),
		startedAt:    time.Now(),
		fingerprints: make(map[string]string),
	}
}

// Handler returns the API routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/forecast", s.handleForecast)
	mux.HandleFunc("GET /v1/budget", s.handleBudget)
	mux.HandleFunc("GET /v1/patterns", s.handlePatterns)
	mux.HandleFunc("GET /v1/overspending", s.handleOverspending)
	mux.HandleFunc("POST /v1/train", s.handleTrain)
	return mux
}

// Run starts HTTP endpoints and the refresh loop until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.WithField("addr", s.cfg.Addr).Info("listening")

	// Seed fingerprints so the first tick only reports real changes.
	s.Refresh(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.Refresh(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Refresh compares every user's transaction fingerprint with the last one
// seen and invalidates the engine for users whose data changed. It returns
// the users that were invalidated.
func (s *Service) Refresh(ctx context.Context) []string {
	users, err := s.txs.Users(ctx)
	if err != nil {
		s.recordRefresh(err)
		return nil
	}

	var changed []string
	for _, u := range users {
		fp, err := s.txs.Fingerprint(ctx, u)
		if err != nil {
			s.recordRefresh(fmt.Errorf("fingerprint %s: %w", u, err))
			return changed
		}
		s.mu.Lock()
		prev, seen := s.fingerprints[u]
		s.fingerprints[u] = fp
		s.mu.Unlock()
		if !seen || prev == fp {
			continue
		}

		if err := s.engine.Invalidate(ctx, u); err != nil {
			s.log.WithError(err).WithField("user", u).Warn("invalidating after data change")
		}
		s.events.Publish(Event{Type: EventDataChanged, UserID: u, Detail: prev + " -> " + fp})
		s.log.WithField("user", u).Info("transactions changed, dropped model and cached results")
		changed = append(changed, u)
	}
	s.recordRefresh(nil)
	return changed
}

func (s *Service) recordRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefreshAt = time.Now()
	s.refreshCount++
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
		s.log.WithError(err).Warn("refresh failed")
	}
}

func (s *Service) status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:          s.startedAt,
		LastRefreshAt:      s.lastRefreshAt,
		RefreshIntervalSec: int(s.cfg.Interval.Seconds()),
		RefreshCount:       s.refreshCount,
		Users:              len(s.fingerprints),
		LastError:          s.lastError,
		EventCount:         s.events.Len(),
		SubscriberCount:    s.events.subscribers(),
	}
}
