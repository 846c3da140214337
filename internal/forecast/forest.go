package forecast

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/stats"
)

// ForestParams controls ensemble training.
type ForestParams struct {
	Trees           int     `json:"trees"`
	MaxDepth        int     `json:"max_depth"`
	MinLeaf         int     `json:"min_leaf"`
	FeatureFraction float64 `json:"feature_fraction"`
	Seed            int64   `json:"seed"`
}

// DefaultForestParams returns the parameters used when none are configured.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 50, MaxDepth: 8, MinLeaf: 3, FeatureFraction: 0.6, Seed: 42}
}

func (p ForestParams) normalized() ForestParams {
	d := DefaultForestParams()
	if p.Trees <= 0 {
		p.Trees = d.Trees
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = d.MaxDepth
	}
	if p.MinLeaf <= 0 {
		p.MinLeaf = d.MinLeaf
	}
	if p.FeatureFraction <= 0 || p.FeatureFraction > 1 {
		p.FeatureFraction = d.FeatureFraction
	}
	return p
}

// Forest is a bagged ensemble of regression trees.
type Forest struct {
	Trees      []Tree    `json:"trees"`
	Features   []string  `json:"features"`
	Importance []float64 `json:"importance"`
}

var errNoRows = errors.New("forecast: no training rows")

// FitForest trains one tree per bootstrap sample. Trees are grown in
// parallel; each tree draws from its own seeded source so results do not
// depend on scheduling.
func FitForest(ctx context.Context, x [][]float64, y []float64, features []string, p ForestParams) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errNoRows
	}
	p = p.normalized()

	f := &Forest{
		Trees:      make([]Tree, p.Trees),
		Features:   features,
		Importance: make([]float64, len(features)),
	}
	partial := make([][]float64, p.Trees)

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > p.Trees {
		numWorkers = p.Trees
	}

	work := make(chan int, p.Trees)
	for i := 0; i < p.Trees; i++ {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for t := range work {
				if ctx.Err() != nil {
					continue
				}
				rng := rand.New(rand.NewSource(p.Seed + int64(t)*7919)) //nolint:gosec // deterministic sampling, not security
				idx := make([]int, len(x))
				for i := range idx {
					idx[i] = rng.Intn(len(x))
				}
				partial[t] = make([]float64, len(features))
				f.Trees[t] = fitTree(x, y, idx, p, rng, partial[t])
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var total float64
	for _, imp := range partial {
		for i, v := range imp {
			f.Importance[i] += v
			total += v
		}
	}
	if total > 0 {
		for i := range f.Importance {
			f.Importance[i] /= total
		}
	}
	return f, nil
}

// PredictAll returns every tree's prediction for one row.
func (f *Forest) PredictAll(x []float64) []float64 {
	out := make([]float64, len(f.Trees))
	for i := range f.Trees {
		out[i] = f.Trees[i].Predict(x)
	}
	return out
}

// Predict returns the ensemble mean.
func (f *Forest) Predict(x []float64) float64 {
	return stats.Mean(f.PredictAll(x))
}

// Ranked returns features by descending importance.
func (f *Forest) Ranked() []model.FeatureImportance {
	out := make([]model.FeatureImportance, len(f.Features))
	for i, name := range f.Features {
		out[i] = model.FeatureImportance{Feature: name, Importance: f.Importance[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}
