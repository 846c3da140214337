package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/spendlens/internal/forecast"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/store"
)

// ForecastRequest asks for a forecast.
type ForecastRequest struct {
	UserID       string
	Transactions []model.Transaction
	Horizon      int
	Timeframe    model.Timeframe
	Strategy     string // auto, ensemble, autoregressive or baseline
}

// chain tries strategies in order until one succeeds.
type chain struct {
	strategies []forecast.Forecaster
	log        logrus.FieldLogger
}

func (c *chain) Name() string { return c.strategies[0].Name() }

func (c *chain) Forecast(ctx context.Context, req forecast.Request) (*model.ForecastResult, error) {
	var lastErr error
	for _, f := range c.strategies {
		res, err := f.Forecast(ctx, req)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.WithError(err).WithFields(logrus.Fields{
			"user":     req.UserID,
			"strategy": f.Name(),
		}).Warn("forecast strategy failed, falling back")
		lastErr = err
	}
	return nil, fmt.Errorf("all forecast strategies failed: %w", lastErr)
}

// forecaster resolves a strategy name into a fallback chain. Auto uses the
// persisted ensemble once history reaches the ensemble threshold.
func (e *Engine) forecaster(strategy string, historyDays int) (*chain, error) {
	var list []forecast.Forecaster
	switch strategy {
	case "", StrategyAuto:
		if !e.cfg.Engine.DisableEnsemble && historyDays >= e.cfg.Engine.EnsembleMinDays {
			list = []forecast.Forecaster{e.ensemble, e.ar, e.baseline}
		} else {
			list = []forecast.Forecaster{e.ar, e.baseline}
		}
	case forecast.EnsembleName:
		list = []forecast.Forecaster{e.ensemble, e.ar, e.baseline}
	case forecast.AutoRegressiveName, "ar":
		list = []forecast.Forecaster{e.ar, e.baseline}
	case forecast.BaselineName:
		list = []forecast.Forecaster{e.baseline}
	default:
		return nil, fmt.Errorf("%w: unknown forecast strategy %q", ErrInvalidRequest, strategy)
	}
	return &chain{strategies: list, log: e.log}, nil
}

// Forecast predicts spending over the requested horizon.
func (e *Engine) Forecast(ctx context.Context, req ForecastRequest) (*model.ForecastResult, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if req.Horizon <= 0 {
		req.Horizon = e.cfg.General.ForecastHorizon
	}
	if req.Timeframe == "" {
		req.Timeframe = model.Daily
	}
	if limit := forecast.HorizonLimit(e.maxHorizonDays(), req.Timeframe); req.Horizon > limit {
		return nil, fmt.Errorf("%w: horizon %d exceeds the %s limit of %d", ErrInvalidRequest, req.Horizon, req.Timeframe, limit)
	}
	f, err := e.forecaster(req.Strategy, len(pipeline.AggregateDays(req.Transactions)))
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"horizon":   strconv.Itoa(req.Horizon),
		"timeframe": string(req.Timeframe),
		"strategy":  strategyOrAuto(req.Strategy),
		"data":      Fingerprint(req.Transactions),
	}
	return cached(ctx, e, req.UserID, store.KindForecast, params, func(ctx context.Context) (*model.ForecastResult, string, error) {
		res, err := f.Forecast(ctx, forecast.Request{
			UserID:       req.UserID,
			Transactions: req.Transactions,
			Horizon:      req.Horizon,
			Timeframe:    req.Timeframe,
		})
		if err != nil {
			return nil, "", err
		}
		return res, res.Strategy, nil
	})
}

func (e *Engine) maxHorizonDays() int {
	if d := e.cfg.Engine.MaxHorizonDays; d > 0 {
		return min(d, forecast.MaxHorizonDays)
	}
	return forecast.MaxHorizonDays
}

// CheckOverspending projects the next week and compares it with the monthly
// budget, or the historical weekly average when monthlyBudget is 0.
func (e *Engine) CheckOverspending(ctx context.Context, userID string, txs []model.Transaction, monthlyBudget float64) (*model.OverspendCheck, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	f, err := e.forecaster(StrategyAuto, len(pipeline.AggregateDays(txs)))
	if err != nil {
		return nil, err
	}
	params := map[string]string{
		"budget": strconv.FormatFloat(monthlyBudget, 'f', 2, 64),
		"data":   Fingerprint(txs),
	}
	return cached(ctx, e, userID, "overspending", params, func(ctx context.Context) (*model.OverspendCheck, string, error) {
		res, err := forecast.CheckOverspending(ctx, f, forecast.Request{UserID: userID, Transactions: txs}, monthlyBudget)
		return res, f.Name(), err
	})
}

// Backtest scores a strategy on the last 14 days of history. The ensemble is
// scored with a throwaway registry so the user's model is left alone.
func (e *Engine) Backtest(ctx context.Context, userID string, txs []model.Transaction, strategy string) (*model.BacktestReport, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var f forecast.Forecaster
	switch strategy {
	case "", StrategyAuto, forecast.AutoRegressiveName, "ar":
		f = e.ar
	case forecast.EnsembleName:
		f = forecast.NewEnsemble(forecast.NewRegistry(forecast.RegistryOptions{
			Params: forecast.ForestParams{
				Trees:           e.cfg.Engine.Trees,
				MaxDepth:        e.cfg.Engine.MaxDepth,
				MinLeaf:         e.cfg.Engine.MinLeaf,
				FeatureFraction: e.cfg.Engine.FeatureFraction,
				Seed:            e.cfg.Engine.Seed,
			},
			Folds:  e.cfg.Engine.CVFolds,
			Logger: e.log,
		}))
	case forecast.BaselineName:
		f = e.baseline
	default:
		return nil, fmt.Errorf("%w: unknown forecast strategy %q", ErrInvalidRequest, strategy)
	}
	return forecast.Backtest(ctx, f, forecast.Request{UserID: userID, Transactions: txs})
}

// Train retrains the user's ensemble and drops cached results.
func (e *Engine) Train(ctx context.Context, userID string, txs []model.Transaction) (*model.ModelSummary, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	table := pipeline.Build(txs)
	if table.Len() == 0 {
		return nil, fmt.Errorf("training %s: %w", userID, forecast.ErrInsufficientHistory)
	}
	art, err := e.registry.Train(ctx, userID, table)
	if err != nil {
		return nil, err
	}
	if err := e.dropCached(ctx, userID); err != nil {
		e.log.WithError(err).Warn("dropping cached results after training")
	}
	summary := art.Summary()
	return &summary, nil
}

func strategyOrAuto(s string) string {
	if s == "" {
		return StrategyAuto
	}
	return s
}
