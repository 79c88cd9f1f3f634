// Package tracking is a file-backed, append-only record of training runs:
// parameters, metrics, and the model artifact for each attempt, grouped by
// named experiment. Layout under the root directory:
//
//	experiments.json          name -> id index
//	runs/<run_id>.json        one record per run
//	artifacts/<run_id>/<name> serialized model artifacts
package tracking

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"irisd/internal/common/fsutil"
)

// Run statuses. The trainer only logs finished runs; other writers may use
// the remaining values.
const (
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
	StatusRunning  = "RUNNING"
)

// Experiment is a named grouping of runs. The name->id mapping is stable
// for the lifetime of the store.
type Experiment struct {
	ExperimentID string `json:"experiment_id"`
	Name         string `json:"name"`
}

// Run is one recorded training attempt. Immutable once logged.
type Run struct {
	RunID        string             `json:"run_id"`
	ExperimentID string             `json:"experiment_id"`
	Status       string             `json:"status"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	Params       map[string]string  `json:"params"`
	Metrics      map[string]float64 `json:"metrics"`
	ArtifactName string             `json:"artifact_name"`
}

// Store provides access to one tracking root directory. Safe for
// concurrent use by a single process.
type Store struct {
	mu   sync.Mutex
	root string
	now  func() time.Time // overridable in tests
}

// Open prepares a store rooted at dir, creating the layout if needed.
// A leading '~' in dir is expanded.
func Open(dir string) (*Store, error) {
	root, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	for _, d := range []string{root, filepath.Join(root, "runs"), filepath.Join(root, "artifacts")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create tracking dir: %w", err)
		}
	}
	return &Store{root: root, now: time.Now}, nil
}

// GetExperimentByName returns the experiment with the given name, or nil
// when no such experiment exists. Absence is not an error.
func (s *Store) GetExperimentByName(name string) (*Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exps, err := s.readExperiments()
	if err != nil {
		return nil, err
	}
	for i := range exps {
		if exps[i].Name == name {
			return &exps[i], nil
		}
	}
	return nil, nil
}

// GetOrCreateExperiment looks up an experiment by name, creating it on
// first use.
func (s *Store) GetOrCreateExperiment(name string) (*Experiment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("empty experiment name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exps, err := s.readExperiments()
	if err != nil {
		return nil, err
	}
	for i := range exps {
		if exps[i].Name == name {
			return &exps[i], nil
		}
	}
	exp := Experiment{ExperimentID: uuid.NewString(), Name: name}
	exps = append(exps, exp)
	if err := s.writeExperiments(exps); err != nil {
		return nil, err
	}
	return &exp, nil
}

// LogRun records one finished training attempt. Params, metrics, and the
// artifact are attached to the same run record; the run file is written
// last and atomically, so a visible run always has its artifact in place.
func (s *Store) LogRun(experimentID string, params map[string]string, metrics map[string]float64, artifactName string, artifact []byte) (*Run, error) {
	if experimentID == "" {
		return nil, fmt.Errorf("empty experiment id")
	}
	if artifactName == "" {
		return nil, fmt.Errorf("empty artifact name")
	}
	run := &Run{
		RunID:        uuid.NewString(),
		ExperimentID: experimentID,
		Status:       StatusFinished,
		StartTime:    s.now().UTC(),
		EndTime:      s.now().UTC(),
		Params:       params,
		Metrics:      metrics,
		ArtifactName: artifactName,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	artDir := filepath.Join(s.root, "artifacts", run.RunID)
	if err := os.MkdirAll(artDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(artDir, artifactName), artifact, 0o644); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	b, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := fsutil.WriteFileAtomic(s.runPath(run.RunID), b, 0o644); err != nil {
		return nil, fmt.Errorf("write run: %w", err)
	}
	return run, nil
}

// SearchRuns returns the runs of an experiment ordered by start time
// descending (most recently started first). limit <= 0 means no limit.
func (s *Store) SearchRuns(experimentID string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(filepath.Join(s.root, "runs"))
	if err != nil {
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var runs []Run
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.root, "runs", e.Name()))
		if err != nil {
			return nil, err
		}
		var run Run
		if err := json.Unmarshal(b, &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", e.Name(), err)
		}
		if run.ExperimentID == experimentID {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartTime.After(runs[j].StartTime) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// LoadArtifact reads an artifact logged with a run.
func (s *Store) LoadArtifact(runID, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(filepath.Join(s.root, "artifacts", runID, name))
	if err != nil {
		return nil, fmt.Errorf("load artifact %s for run %s: %w", name, runID, err)
	}
	return b, nil
}

func (s *Store) runPath(runID string) string {
	return filepath.Join(s.root, "runs", runID+".json")
}

func (s *Store) readExperiments() ([]Experiment, error) {
	p := filepath.Join(s.root, "experiments.json")
	b, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var exps []Experiment
	if err := json.Unmarshal(b, &exps); err != nil {
		return nil, fmt.Errorf("decode experiments index: %w", err)
	}
	return exps, nil
}

func (s *Store) writeExperiments(exps []Experiment) error {
	b, err := json.MarshalIndent(exps, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(s.root, "experiments.json"), b, 0o644)
}
