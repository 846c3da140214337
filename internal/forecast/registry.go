package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/theirongolddev/spendlens/internal/model"
	"github.com/theirongolddev/spendlens/internal/store"
)

var (
	// ErrNoModel is returned when no usable model exists for a user.
	ErrNoModel = errors.New("forecast: no trained model")
	// ErrInsufficientHistory is returned when there is too little data to train.
	ErrInsufficientHistory = errors.New("forecast: insufficient history")
)

// ModelStore persists serialized models. *store.Store satisfies it.
type ModelStore interface {
	SaveModel(ctx context.Context, rec store.ModelRecord) error
	LoadModel(ctx context.Context, userID string) (*store.ModelRecord, error)
	DeleteModel(ctx context.Context, userID string) error
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Params ForestParams
	Folds  int
	Store  ModelStore // optional
	Logger logrus.FieldLogger
}

// Registry holds one trained ensemble per user. Models are trained lazily,
// reloaded from the store when the data has not changed, and trained at
// most once at a time per user.
type Registry struct {
	params ForestParams
	folds  int
	store  ModelStore
	log    logrus.FieldLogger

	mu     sync.RWMutex
	models map[string]heldModel
	gen    uint64

	group singleflight.Group
}

// heldModel is an artifact plus the generation of the run that produced it.
// Runs are numbered as they start, so a slow run for older data cannot
// replace a model from a run that started later.
type heldModel struct {
	art *Artifact
	gen uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	folds := opts.Folds
	if folds <= 0 {
		folds = 3
	}
	return &Registry{
		params: opts.Params.normalized(),
		folds:  folds,
		store:  opts.Store,
		log:    log.WithField("component", "forecast.registry"),
		models: make(map[string]heldModel),
	}
}

// TableFingerprint identifies the data a model was trained on: the dates and
// daily totals of the feature table.
func TableFingerprint(t *model.DailyTable) string {
	h := sha256.New()
	var buf [8]byte
	total := t.Total()
	for i, d := range t.Dates {
		h.Write([]byte(model.DayKey(d)))
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(math.Round(total[i]*100)/100))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Cached returns the in-memory model for a user, if any.
func (r *Registry) Cached(userID string) (*Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	held, ok := r.models[userID]
	return held.art, ok
}

// Get returns a model for the user's current data. A held model is reused
// when it was built from the same data; otherwise a stored one is reloaded,
// or a new one trained.
func (r *Registry) Get(ctx context.Context, userID string, t *model.DailyTable) (*Artifact, error) {
	fp := TableFingerprint(t)
	if art, ok := r.Cached(userID); ok && art.Fingerprint == fp {
		return art, nil
	}
	return r.resolve(ctx, userID, fp, t, true)
}

// Train retrains the user's model unconditionally.
func (r *Registry) Train(ctx context.Context, userID string, t *model.DailyTable) (*Artifact, error) {
	r.Invalidate(ctx, userID)
	return r.resolve(ctx, userID, TableFingerprint(t), t, false)
}

// Invalidate drops the user's model from memory and storage.
func (r *Registry) Invalidate(ctx context.Context, userID string) {
	r.mu.Lock()
	delete(r.models, userID)
	r.mu.Unlock()
	if r.store != nil {
		if err := r.store.DeleteModel(ctx, userID); err != nil {
			r.log.WithError(err).WithField("user", userID).Warn("deleting stored model")
		}
	}
}

func (r *Registry) nextGen() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	return r.gen
}

// put stores art unless a run that started later already stored a model.
func (r *Registry) put(art *Artifact, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if held, ok := r.models[art.UserID]; ok && held.gen > gen {
		return false
	}
	r.models[art.UserID] = heldModel{art: art, gen: gen}
	return true
}

func (r *Registry) loadStored(ctx context.Context, userID, fp string) *Artifact {
	if r.store == nil {
		return nil
	}
	rec, err := r.store.LoadModel(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.WithError(err).WithField("user", userID).Warn("loading stored model")
		}
		return nil
	}
	if rec.Fingerprint != fp {
		return nil
	}
	art, err := UnmarshalArtifact(rec.Payload)
	if err != nil {
		r.log.WithError(err).WithField("user", userID).Warn("discarding unreadable model")
		return nil
	}
	r.log.WithField("user", userID).Debug("reloaded stored model")
	return art
}

// resolve runs at most one load-or-train per user and fingerprint at a
// time; concurrent callers share the result.
func (r *Registry) resolve(ctx context.Context, userID, fp string, t *model.DailyTable, reload bool) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err, shared := r.group.Do(userID+"/"+fp, func() (any, error) {
		if art, ok := r.Cached(userID); ok && art.Fingerprint == fp {
			return art, nil
		}
		gen := r.nextGen()
		if reload {
			if art := r.loadStored(ctx, userID, fp); art != nil {
				r.put(art, gen)
				return art, nil
			}
		}
		art, err := TrainArtifact(ctx, userID, t, r.params, r.folds)
		if err != nil {
			return nil, err
		}
		if !r.put(art, gen) {
			r.log.WithField("user", userID).Debug("newer model already held, keeping it")
			return art, nil
		}
		r.persist(ctx, art)
		r.log.WithFields(logrus.Fields{
			"user":       userID,
			"rows":       art.Metrics.TrainRows,
			"cv_mae":     art.Metrics.CVMAE,
			"confidence": art.Confidence(),
		}).Info("trained ensemble")
		return art, nil
	})
	if err != nil {
		return nil, fmt.Errorf("training model for %s: %w", userID, err)
	}
	if shared {
		r.log.WithField("user", userID).Debug("shared in-flight training")
	}
	return v.(*Artifact), nil
}

func (r *Registry) persist(ctx context.Context, art *Artifact) {
	if r.store == nil {
		return
	}
	payload, err := art.Marshal()
	if err != nil {
		r.log.WithError(err).Warn("encoding model")
		return
	}
	err = r.store.SaveModel(ctx, store.ModelRecord{
		UserID:      art.UserID,
		Fingerprint: art.Fingerprint,
		Payload:     payload,
		CVMAE:       art.Metrics.CVMAE,
		TrainRows:   art.Metrics.TrainRows,
		TrainedAt:   art.TrainedAt,
	})
	if err != nil {
		r.log.WithError(err).WithField("user", art.UserID).Warn("saving model")
	}
}
