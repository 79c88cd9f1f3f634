package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"irisd/internal/config"
	"irisd/internal/forest"
	"irisd/internal/tracking"
	"irisd/internal/trainer"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// buildRootCmd wires the training pipeline behind a single cobra command.
func buildRootCmd() *cobra.Command {
	var (
		trainData    string
		testData     string
		trackingDir  string
		experiment   string
		artifactName string
		params       forest.Params
	)
	root := &cobra.Command{
		Use:           "iristrain",
		Short:         "Train the iris classifier and log the run to the tracking store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "iristrain").Logger()
			store, err := tracking.Open(trackingDir)
			if err != nil {
				return fmt.Errorf("open tracking store: %w", err)
			}
			res, err := trainer.Run(store, trainer.Options{
				TrainData:    trainData,
				TestData:     testData,
				Experiment:   experiment,
				ArtifactName: artifactName,
				Params:       params,
			}, log)
			if err != nil {
				return err
			}
			fmt.Printf("run %s logged to experiment %q\n", res.Run.RunID, experiment)
			fmt.Printf("train_accuracy=%.4f test_accuracy=%.4f test_f1=%.4f\n",
				res.Metrics["train_accuracy"], res.Metrics["test_accuracy"], res.Metrics["test_f1"])
			return nil
		},
	}
	root.Flags().StringVar(&trainData, "train-data", "data/iris_train.json", "Training dataset (.json or .csv)")
	root.Flags().StringVar(&testData, "test-data", "data/iris_test.json", "Held-out dataset (.json or .csv)")
	root.Flags().StringVar(&trackingDir, "tracking-dir", config.DefaultTrackingDir, "Run-tracking store root directory")
	root.Flags().StringVar(&experiment, "experiment", config.DefaultExperiment, "Experiment name")
	root.Flags().StringVar(&artifactName, "artifact-name", config.DefaultArtifactName, "Artifact name to log")
	root.Flags().IntVar(&params.NEstimators, "n-estimators", 0, "Number of trees (default 100)")
	root.Flags().IntVar(&params.MaxDepth, "max-depth", 0, "Maximum tree depth (default 10)")
	root.Flags().IntVar(&params.MinSamplesSplit, "min-samples-split", 0, "Minimum samples to split a node (default 2)")
	root.Flags().IntVar(&params.MinSamplesLeaf, "min-samples-leaf", 0, "Minimum samples per leaf (default 1)")
	root.Flags().Int64Var(&params.Seed, "seed", 0, "Random seed (default 42)")
	return root
}
