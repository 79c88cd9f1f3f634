// Package trainer runs one training invocation end to end: prepare the
// datasets, fit the forest, evaluate both splits, and log parameters,
// metrics, and the artifact as a single tracked run.
package trainer

import (
	"fmt"

	"github.com/rs/zerolog"

	"irisd/internal/dataset"
	"irisd/internal/eval"
	"irisd/internal/forest"
	"irisd/internal/tracking"
)

// Options names the inputs of a training invocation.
type Options struct {
	TrainData    string
	TestData     string
	Experiment   string
	ArtifactName string
	Params       forest.Params
}

// Result is what a completed invocation produced.
type Result struct {
	Run     *tracking.Run
	Model   *forest.Forest
	Metrics map[string]float64
}

// Run executes the pipeline. Deterministic for a fixed Params.Seed.
func Run(store *tracking.Store, opts Options, log zerolog.Logger) (*Result, error) {
	if opts.ArtifactName == "" {
		return nil, fmt.Errorf("empty artifact name")
	}
	xTrain, yTrain, err := dataset.Load(opts.TrainData)
	if err != nil {
		return nil, fmt.Errorf("load train data: %w", err)
	}
	xTest, yTest, err := dataset.Load(opts.TestData)
	if err != nil {
		return nil, fmt.Errorf("load test data: %w", err)
	}
	log.Info().Int("train_samples", len(xTrain)).Int("test_samples", len(xTest)).Msg("datasets loaded")

	params := opts.Params.WithDefaults()
	model, err := forest.Fit(xTrain, yTrain, params)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	metrics := map[string]float64{}
	for _, split := range []struct {
		name string
		x    [][]float64
		y    []int
	}{{"train", xTrain, yTrain}, {"test", xTest, yTest}} {
		m, err := eval.Evaluate(model, split.x, split.y, split.name)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", split.name, err)
		}
		for k, v := range m {
			metrics[k] = v
		}
	}
	log.Info().
		Float64("train_accuracy", metrics["train_accuracy"]).
		Float64("test_accuracy", metrics["test_accuracy"]).
		Float64("test_f1", metrics["test_f1"]).
		Msg("evaluation complete")

	artifact, err := model.Marshal()
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}
	exp, err := store.GetOrCreateExperiment(opts.Experiment)
	if err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}
	run, err := store.LogRun(exp.ExperimentID, params.Map(), metrics, opts.ArtifactName, artifact)
	if err != nil {
		return nil, fmt.Errorf("log run: %w", err)
	}
	log.Info().Str("run_id", run.RunID).Str("experiment", opts.Experiment).Msg("run logged")
	return &Result{Run: run, Model: model, Metrics: metrics}, nil
}
