// Package serving owns the process-lifetime model state: a single-writer
// state machine that loads the latest tracked model once at startup and
// then answers read-only inference calls. Handlers reach the model only
// through the Runtime, never through shared globals.
package serving

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"irisd/internal/forest"
	"irisd/internal/tracking"
	"irisd/pkg/types"
)

// State is the runtime lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// Prediction is the per-request inference result. Ephemeral, not persisted.
type Prediction struct {
	ClassIndex int
	ClassName  string
	Confidence float64
}

// Snapshot is a read-only projection of the runtime state.
type Snapshot struct {
	State        State
	RunID        string
	Err          string
	LoadDuration time.Duration
}

// Runtime resolves, loads, and serves exactly one model. The model handle
// is written once during Load and is read-only afterwards; concurrent
// Predict calls share it without further locking.
type Runtime struct {
	store        *tracking.Store
	experiment   string
	artifactName string
	log          zerolog.Logger

	mu           sync.RWMutex
	state        State
	model        *forest.Forest
	runID        string
	err          string
	loadDuration time.Duration
}

// New returns an uninitialized runtime. Load must complete before any
// Predict call can succeed.
func New(store *tracking.Store, experiment, artifactName string, log zerolog.Logger) *Runtime {
	return &Runtime{
		store:        store,
		experiment:   experiment,
		artifactName: artifactName,
		log:          log,
		state:        StateUninitialized,
	}
}

// Load performs the one-time startup transition: resolve the latest run of
// the configured experiment, fetch and decode its artifact, and flip to
// ready. Any failure flips to failed, which is terminal; the caller is
// expected to abort the process rather than serve without a model.
func (r *Runtime) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateUninitialized {
		state := r.state
		r.mu.Unlock()
		return notLoadedError{state: state}
	}
	r.state = StateLoading
	r.mu.Unlock()

	start := time.Now()
	run, err := r.load(ctx)
	dur := time.Since(start)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadDuration = dur
	if err != nil {
		r.state = StateFailed
		r.err = err.Error()
		r.log.Error().Err(err).Str("experiment", r.experiment).Msg("model load failed")
		return err
	}
	r.runID = run.RunID
	r.state = StateReady
	r.log.Info().
		Str("experiment", r.experiment).
		Str("run_id", run.RunID).
		Dur("load_duration", dur).
		Msg("model loaded")
	return nil
}

// load does the resolution and decoding work and stores the model handle.
// State transitions stay in Load.
func (r *Runtime) load(ctx context.Context) (*tracking.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	run, err := tracking.ResolveLatest(r.store, r.experiment)
	if err != nil {
		return nil, err
	}
	raw, err := r.store.LoadArtifact(run.RunID, r.artifactName)
	if err != nil {
		return nil, err
	}
	model, err := forest.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.model = model
	r.mu.Unlock()
	return run, nil
}

// Ready reports whether the runtime holds a usable model.
func (r *Runtime) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == StateReady && r.model != nil
}

// Snapshot returns the current lifecycle state for health reporting.
func (r *Runtime) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{State: r.state, RunID: r.runID, Err: r.err, LoadDuration: r.loadDuration}
}

// Predict classifies one feature vector. Valid only in ready; otherwise a
// ModelNotLoaded error is returned and the state is left untouched.
// Confidence is the probability the model assigns to the class it
// predicted, not the maximum of the probability vector.
func (r *Runtime) Predict(features [types.NumFeatures]float64) (Prediction, error) {
	r.mu.RLock()
	model := r.model
	state := r.state
	r.mu.RUnlock()
	if state != StateReady || model == nil {
		return Prediction{}, notLoadedError{state: state}
	}
	x := features[:]
	idx := model.Predict(x)
	proba := model.PredictProba(x)
	if idx < 0 || idx >= len(types.ClassNames) || idx >= len(proba) {
		return Prediction{}, unknownClassError{index: idx, numClasses: len(types.ClassNames)}
	}
	return Prediction{
		ClassIndex: idx,
		ClassName:  types.ClassNames[idx],
		Confidence: proba[idx],
	}, nil
}
