package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/pipeline"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// EnsembleName identifies the persisted ensemble strategy.
const EnsembleName = "ensemble"

const (
	ensembleLowerPct = 25
	ensembleUpperPct = 75
	minTrainRows     = 20
)

// Artifact is a trained ensemble with everything needed to reuse it.
type Artifact struct {
	UserID      string                    `json:"user_id"`
	Fingerprint string                    `json:"fingerprint"`
	Forest      *Forest                   `json:"forest"`
	Features    []string                  `json:"features"`
	Metrics     model.ModelMetrics        `json:"metrics"`
	Importance  []model.FeatureImportance `json:"importance"`
	TrainedAt   time.Time                 `json:"trained_at"`
	LastDate    time.Time                 `json:"last_date"`
}

// Marshal encodes the artifact for storage.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// UnmarshalArtifact decodes a stored artifact.
func UnmarshalArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return nil, fmt.Errorf("decoding model: %w", ErrNoModel)
	}
	return &a, nil
}

// Confidence maps the cross-validated error onto [0.5, 0.95].
func (a *Artifact) Confidence() float64 {
	if a.Metrics.AvgDaily <= 0 {
		return 0.5
	}
	return stats.Clamp(1-a.Metrics.CVMAE/a.Metrics.AvgDaily, 0.5, 0.95)
}

// lagged and shifted feature groups; shifted columns are read from the
// previous row so that no feature includes the target day.
func laggedColumns() []string {
	var cols []string
	for _, lag := range pipeline.Lags {
		cols = append(cols, model.LagColumn("total", lag))
	}
	for _, c := range model.KeyCategories {
		for _, lag := range pipeline.Lags {
			cols = append(cols, model.LagColumn(c, lag))
		}
	}
	return cols
}

func shiftedColumns() []string {
	var cols []string
	for _, w := range pipeline.Windows {
		cols = append(cols,
			model.RollingColumn("total", "mean", w),
			model.RollingColumn("total", "std", w),
			model.RollingColumn("total", "max", w))
	}
	return append(cols, model.ColMomentum, model.ColConsistency)
}

// EnsembleFeatures lists the model inputs in order.
func EnsembleFeatures() []string {
	cols := append([]string(nil), pipeline.TemporalColumns...)
	cols = append(cols, laggedColumns()...)
	return append(cols, shiftedColumns()...)
}

// trainingMatrix turns table rows 1..n-1 into examples.
func trainingMatrix(t *model.DailyTable) ([][]float64, []float64) {
	temporal := pipeline.TemporalColumns
	lagged := laggedColumns()
	shifted := shiftedColumns()
	total := t.Total()

	x := make([][]float64, 0, t.Len())
	y := make([]float64, 0, t.Len())
	for i := 1; i < t.Len(); i++ {
		row := make([]float64, 0, len(temporal)+len(lagged)+len(shifted))
		for _, c := range temporal {
			row = append(row, t.Col(c)[i])
		}
		for _, c := range lagged {
			row = append(row, t.Col(c)[i])
		}
		for _, c := range shifted {
			row = append(row, t.Col(c)[i-1])
		}
		x = append(x, row)
		y = append(y, total[i])
	}
	return x, y
}

// synthesizeRow builds the feature row for day from the trailing window,
// mirroring trainingMatrix.
func synthesizeRow(day time.Time, w *Window) []float64 {
	row := pipeline.TemporalFeatures(day)
	for _, lag := range pipeline.Lags {
		row = append(row, w.Lag(lag))
	}
	for _, c := range model.KeyCategories {
		for _, lag := range pipeline.Lags {
			row = append(row, w.CategoryLag(c, lag))
		}
	}
	for _, size := range pipeline.Windows {
		vals := w.Trailing(size)
		row = append(row, stats.Mean(vals), stats.StdDev(vals), stats.Max(vals))
	}
	return append(row, trailingMomentum(w.Trailing(6)), trailingConsistency(w.Trailing(7)))
}

// trailingMomentum is mean(last 3) minus the mean of the 3 values before,
// 0 until at least 4 values exist.
func trailingMomentum(vals []float64) float64 {
	if len(vals) < 4 {
		return 0
	}
	recent := vals[len(vals)-3:]
	prior := vals[:len(vals)-3]
	return stats.Mean(recent) - stats.Mean(prior)
}

func trailingConsistency(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stats.SafeDiv(stats.StdDev(vals), stats.Mean(vals))
}

// TrainArtifact fits an ensemble on the feature table with expanding-window
// cross-validation (never shuffled), then refits on all rows.
func TrainArtifact(ctx context.Context, userID string, t *model.DailyTable, params ForestParams, folds int) (*Artifact, error) {
	x, y := trainingMatrix(t)
	if len(x) < minTrainRows {
		return nil, fmt.Errorf("training ensemble on %d rows: %w", len(x), ErrInsufficientHistory)
	}

	mae, used, err := crossValidate(ctx, x, y, params, folds)
	if err != nil {
		return nil, err
	}
	forest, err := FitForest(ctx, x, y, EnsembleFeatures(), params)
	if err != nil {
		return nil, fmt.Errorf("fitting ensemble: %w", err)
	}

	return &Artifact{
		UserID:      userID,
		Fingerprint: TableFingerprint(t),
		Forest:      forest,
		Features:    EnsembleFeatures(),
		Metrics: model.ModelMetrics{
			CVMAE:     mae,
			Folds:     used,
			TrainRows: len(x),
			AvgDaily:  stats.Mean(t.Total()),
		},
		Importance: forest.Ranked(),
		TrainedAt:  time.Now().UTC(),
		LastDate:   t.Last(),
	}, nil
}

// crossValidate splits rows into folds+1 consecutive blocks; fold k trains
// on blocks 0..k-1 and tests on block k. Returns the mean MAE and the number
// of folds evaluated.
func crossValidate(ctx context.Context, x [][]float64, y []float64, params ForestParams, folds int) (float64, int, error) {
	if folds < 1 {
		folds = 3
	}
	for folds > 1 && len(x)/(folds+1) < params.normalized().MinLeaf*2 {
		folds--
	}
	block := len(x) / (folds + 1)
	if block < 1 {
		return 0, 0, nil
	}

	var maes []float64
	for k := 1; k <= folds; k++ {
		trainEnd := k * block
		testEnd := trainEnd + block
		if k == folds {
			testEnd = len(x)
		}
		forest, err := FitForest(ctx, x[:trainEnd], y[:trainEnd], EnsembleFeatures(), params)
		if err != nil {
			return 0, 0, fmt.Errorf("cross-validation fold %d: %w", k, err)
		}
		var absErr float64
		for i := trainEnd; i < testEnd; i++ {
			absErr += math.Abs(forest.Predict(x[i]) - y[i])
		}
		maes = append(maes, absErr/float64(testEnd-trainEnd))
	}
	return stats.Mean(maes), len(maes), nil
}

// predictNext predicts the day after the window's last day.
func (a *Artifact) predictNext(w *Window) dailyPoint {
	day := w.Next()
	point, lower, upper := band(a.Forest.PredictAll(synthesizeRow(day, w)), ensembleLowerPct, ensembleUpperPct)
	return dailyPoint{date: day, predicted: point, lower: lower, upper: upper}
}

// Roll produces n daily points, appending each to the window before the next.
func (a *Artifact) roll(ctx context.Context, w *Window, n int) ([]dailyPoint, error) {
	shares := w.Shares()
	out := make([]dailyPoint, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dp := a.predictNext(w)
		w.Push(dp.date, dp.predicted, Split(dp.predicted, shares))
		out = append(out, dp)
	}
	return out, nil
}

// Ensemble is the persisted-model strategy. Models come from a Registry.
type Ensemble struct {
	registry *Registry
}

// NewEnsemble creates the strategy over a registry.
func NewEnsemble(registry *Registry) *Ensemble {
	return &Ensemble{registry: registry}
}

// Name implements Forecaster.
func (e *Ensemble) Name() string { return EnsembleName }

// Forecast implements Forecaster.
func (e *Ensemble) Forecast(ctx context.Context, req Request) (*model.ForecastResult, error) {
	table := pipeline.Build(req.Transactions)
	if res := precheck(e.Name(), req, table.Len()); res != nil {
		return res, nil
	}
	tf := req.Timeframe
	if tf == "" {
		tf = model.Daily
	}

	art, err := e.registry.Get(ctx, req.UserID, table)
	if err != nil {
		return nil, err
	}

	w := WindowFromTable(table)
	points, err := art.roll(ctx, w, horizonDays(w.Next(), req.Horizon, tf))
	if err != nil {
		return nil, err
	}

	return &model.ForecastResult{
		Points:      bucketize(points, tf),
		Confidence:  art.Confidence(),
		Drivers:     Drivers(art.Importance),
		Strategy:    e.Name(),
		Timeframe:   tf,
		HistoryDays: table.Len(),
	}, nil
}

// Summary describes the artifact for reporting.
func (a *Artifact) Summary() model.ModelSummary {
	importance := a.Importance
	if len(importance) > 10 {
		importance = importance[:10]
	}
	return model.ModelSummary{
		UserID:      a.UserID,
		Fingerprint: a.Fingerprint,
		TrainedAt:   a.TrainedAt,
		LastDate:    a.LastDate,
		Trees:       len(a.Forest.Trees),
		Features:    len(a.Features),
		Confidence:  a.Confidence(),
		Metrics:     a.Metrics,
		Importance:  importance,
	}
}
