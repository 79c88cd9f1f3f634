package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"irisd/internal/config"
	"irisd/internal/httpapi"
	"irisd/internal/serving"
	"irisd/internal/tracking"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := config.DefaultAddr
	if v := os.Getenv("IRISD_ADDR"); v != "" {
		defaultAddr = v
	}
	defaultTracking := config.DefaultTrackingDir
	if v := os.Getenv("IRISD_TRACKING_DIR"); v != "" {
		defaultTracking = v
	}
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8000")
	trackingDir := flag.String("tracking-dir", defaultTracking, "Run-tracking store root directory")
	experiment := flag.String("experiment", config.DefaultExperiment, "Experiment to resolve the model from")
	artifactName := flag.String("artifact-name", config.DefaultArtifactName, "Artifact name logged with each run")
	configPath := flag.String("config", "", "Optional config file (.yaml/.json/.toml); flags override")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "irisd").Logger()

	cfg := config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
		}
		cfg = loaded
	}
	// Flags (or their env/builtin defaults) take precedence over file values.
	cfg.Addr = pick(*addr, cfg.Addr, config.DefaultAddr)
	cfg.TrackingDir = pick(*trackingDir, cfg.TrackingDir, config.DefaultTrackingDir)
	cfg.Experiment = pick(*experiment, cfg.Experiment, config.DefaultExperiment)
	cfg.ArtifactName = pick(*artifactName, cfg.ArtifactName, config.DefaultArtifactName)

	httpapi.SetLogger(log)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	store, err := tracking.Open(cfg.TrackingDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.TrackingDir).Msg("open tracking store")
	}

	// Startup gate: resolve and load the model before accepting any traffic.
	// A failed load aborts the process rather than serving per-request errors.
	rt := serving.New(store, cfg.Experiment, cfg.ArtifactName, log)
	baseCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	httpapi.SetBaseContext(baseCtx)
	if err := rt.Load(baseCtx); err != nil {
		httpapi.SetModelLoaded(false)
		log.Fatal().Err(err).Str("experiment", cfg.Experiment).Msg("startup model load failed")
	}
	httpapi.ObserveModelLoad(rt.Snapshot().LoadDuration)
	httpapi.SetModelLoaded(true)

	mux := httpapi.NewMux(rt)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("experiment", cfg.Experiment).Msg("irisd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	<-baseCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}

// pick returns the first non-default of flagVal/fileVal, else the default.
func pick(flagVal, fileVal, def string) string {
	if flagVal != def && flagVal != "" {
		return flagVal
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}
