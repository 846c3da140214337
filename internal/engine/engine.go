// Package engine runs the analytics operations for one user at a time. It
// picks strategies by data volume, falls back to simpler strategies on
// failure, and reads through the result cache.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/spendlens/internal/budget"
	"github.com/theirongolddev/spendlens/internal/cache"
	"github.com/theirongolddev/spendlens/internal/config"
	"github.com/theirongolddev/spendlens/internal/forecast"
	"github.com/theirongolddev/spendlens/internal/model"
)

// Strategy names accepted by the engine. Auto selects by data volume.
const (
	StrategyAuto = "auto"
)

// ErrInvalidRequest marks requests the engine rejects before computing
// anything.
var ErrInvalidRequest = errors.New("engine: invalid request")

// ResultStore persists computed results. *store.Store satisfies it.
type ResultStore interface {
	SaveResult(ctx context.Context, userID, kind, params string, payload any) (string, error)
}

// Event describes one completed operation.
type Event struct {
	Time      time.Time     `json:"time"`
	UserID    string        `json:"user_id"`
	Operation string        `json:"operation"`
	Strategy  string        `json:"strategy,omitempty"`
	Cached    bool          `json:"cached"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Config  config.Config
	Cache   cache.Cache
	Results ResultStore
	Models  forecast.ModelStore
	Logger  logrus.FieldLogger
	OnEvent func(Event)
}

// Engine is safe for concurrent use.
type Engine struct {
	cfg     config.Config
	cache   cache.Cache
	results ResultStore
	log     logrus.FieldLogger
	onEvent func(Event)

	registry    *forecast.Registry
	ensemble    forecast.Forecaster
	ar          forecast.Forecaster
	baseline    forecast.Forecaster
	statistical budget.Generator
	advanced    budget.Generator
	policy      budget.Policy
}

// New creates an engine.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	c := opts.Cache
	if c == nil {
		c = cache.Noop{}
	}
	cfg := opts.Config
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = config.DefaultConfig().Cache.Prefix
	}

	params := forecast.ForestParams{
		Trees:           cfg.Engine.Trees,
		MaxDepth:        cfg.Engine.MaxDepth,
		MinLeaf:         cfg.Engine.MinLeaf,
		FeatureFraction: cfg.Engine.FeatureFraction,
		Seed:            cfg.Engine.Seed,
	}
	registry := forecast.NewRegistry(forecast.RegistryOptions{
		Params: params,
		Folds:  cfg.Engine.CVFolds,
		Store:  opts.Models,
		Logger: log,
	})

	return &Engine{
		cfg:         cfg,
		cache:       c,
		results:     opts.Results,
		log:         log.WithField("component", "engine"),
		onEvent:     opts.OnEvent,
		registry:    registry,
		ensemble:    forecast.NewEnsemble(registry),
		ar:          forecast.NewAutoRegressive(params),
		baseline:    forecast.NewBaseline(),
		statistical: budget.NewStatistical(),
		advanced:    budget.NewAdvanced(),
		policy:      cfg.BudgetPolicy(),
	}
}

// Registry exposes the model registry.
func (e *Engine) Registry() *forecast.Registry { return e.registry }

// Invalidate drops a user's model and cached results.
func (e *Engine) Invalidate(ctx context.Context, userID string) error {
	e.registry.Invalidate(ctx, userID)
	return e.dropCached(ctx, userID)
}

func (e *Engine) dropCached(ctx context.Context, userID string) error {
	if err := e.cache.DeletePrefix(ctx, cache.UserPrefix(e.cfg.Cache.Prefix, userID)); err != nil {
		return fmt.Errorf("invalidating cache for %s: %w", userID, err)
	}
	return nil
}

// withTimeout applies the configured per-operation deadline.
func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Engine.TimeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(e.cfg.Engine.TimeoutSeconds)*time.Second)
}

// Fingerprint identifies a transaction list. It is order-sensitive, which is
// fine for lists loaded the same way each time.
func Fingerprint(txs []model.Transaction) string {
	h := sha256.New()
	for _, tx := range txs {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s\n", tx.ID, model.DayKey(tx.Date), tx.Amount.String(), tx.Category, tx.Type)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// cached runs compute through the result cache. Cache failures are logged
// and never fail the operation.
func cached[T any](ctx context.Context, e *Engine, userID, op string, params map[string]string, compute func(context.Context) (*T, string, error)) (*T, error) {
	start := time.Now()
	key := cache.Key(e.cfg.Cache.Prefix, userID, op, params)
	ev := Event{Time: start, UserID: userID, Operation: op}

	var hit T
	err := cache.GetJSON(ctx, e.cache, key, &hit)
	if err == nil {
		ev.Cached = true
		ev.Duration = time.Since(start)
		e.emit(ev)
		return &hit, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		e.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}

	res, strategy, err := compute(ctx)
	ev.Strategy = strategy
	ev.Duration = time.Since(start)
	if err != nil {
		ev.Error = err.Error()
		e.emit(ev)
		return nil, err
	}
	e.emit(ev)

	if err := cache.SetJSON(ctx, e.cache, key, res, e.cfg.Cache.TTL()); err != nil {
		e.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	e.persist(ctx, userID, op, cache.EncodeParams(params), res)
	return res, nil
}

func (e *Engine) persist(ctx context.Context, userID, kind, params string, payload any) {
	if e.results == nil || !e.cfg.Engine.PersistResults {
		return
	}
	if _, err := e.results.SaveResult(ctx, userID, kind, params, payload); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{"user": userID, "kind": kind}).Warn("saving result")
	}
}

func (e *Engine) emit(ev Event) {
	e.log.WithFields(logrus.Fields{
		"user":     ev.UserID,
		"op":       ev.Operation,
		"strategy": ev.Strategy,
		"cached":   ev.Cached,
		"duration": ev.Duration,
	}).Debug("operation finished")
	if e.onEvent != nil {
		e.onEvent(ev)
	}
}
