package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/spendlens/internal/budget"
	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/patterns"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/store"
)

// BudgetRequest asks for a budget.
type BudgetRequest struct {
	UserID       string
	Transactions []model.Transaction
	Period       model.BudgetPeriod
	TargetMonth  string
	SavingsGoal  float64
	Strategy     string // auto, statistical or advanced
}

// generators resolves a strategy name into a fallback list. Auto uses the
// advanced strategy once the table reaches the advanced threshold.
func (e *Engine) generators(strategy string, tableDays int) ([]budget.Generator, error) {
	switch strategy {
	case "", StrategyAuto:
		if !e.cfg.Engine.DisableAdvanced && tableDays >= e.cfg.Engine.AdvancedBudgetDays {
			return []budget.Generator{e.advanced, e.statistical}, nil
		}
		return []budget.Generator{e.statistical}, nil
	case budget.AdvancedName:
		return []budget.Generator{e.advanced, e.statistical}, nil
	case budget.StatisticalName:
		return []budget.Generator{e.statistical}, nil
	default:
		return nil, fmt.Errorf("%w: unknown budget strategy %q", ErrInvalidRequest, strategy)
	}
}

// Budget recommends per-category amounts for the next period.
func (e *Engine) Budget(ctx context.Context, req BudgetRequest) (*model.BudgetResult, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if req.Period == "" {
		req.Period = model.BudgetPeriod(e.cfg.Budget.Period)
	}
	if req.SavingsGoal == 0 {
		req.SavingsGoal = e.cfg.Budget.SavingsGoal
	}
	table := pipeline.Build(req.Transactions)
	gens, err := e.generators(req.Strategy, table.Len())
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"period":   string(req.Period),
		"month":    req.TargetMonth,
		"savings":  strconv.FormatFloat(req.SavingsGoal, 'f', 2, 64),
		"strategy": strategyOrAuto(req.Strategy),
		"data":     Fingerprint(req.Transactions),
	}
	return cached(ctx, e, req.UserID, store.KindBudget, params, func(ctx context.Context) (*model.BudgetResult, string, error) {
		breq := budget.Request{
			Table:       table,
			Findings:    patterns.Detect(table, e.cfg.General.LookbackDays),
			Period:      req.Period,
			TargetMonth: req.TargetMonth,
			SavingsGoal: req.SavingsGoal,
			Policy:      e.policy,
		}
		var lastErr error
		for _, g := range gens {
			res, err := g.Generate(ctx, breq)
			if err == nil && len(res.Lines) > 0 {
				return res, g.Name(), nil
			}
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			if err == nil {
				err = fmt.Errorf("%s returned no categories", g.Name())
			}
			e.log.WithError(err).WithFields(logrus.Fields{
				"user":     req.UserID,
				"strategy": g.Name(),
			}).Warn("budget strategy failed, falling back")
			lastErr = err
		}
		return nil, "", fmt.Errorf("all budget strategies failed: %w", lastErr)
	})
}

// Patterns detects recurring, anomalous and seasonal structure over the
// trailing lookbackDays (0 uses the configured default).
func (e *Engine) Patterns(ctx context.Context, userID string, txs []model.Transaction, lookbackDays int) (*model.PatternFindings, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if lookbackDays <= 0 {
		lookbackDays = e.cfg.General.LookbackDays
	}
	params := map[string]string{
		"lookback": strconv.Itoa(lookbackDays),
		"data":     Fingerprint(txs),
	}
	return cached(ctx, e, userID, store.KindPatterns, params, func(ctx context.Context) (*model.PatternFindings, string, error) {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		return patterns.Detect(pipeline.Build(txs), lookbackDays), "detector", nil
	})
}
