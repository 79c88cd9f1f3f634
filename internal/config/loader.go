package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"irisd/internal/common/fsutil"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	TrackingDir  string `json:"tracking_dir" yaml:"tracking_dir" toml:"tracking_dir"`
	Experiment   string `json:"experiment" yaml:"experiment" toml:"experiment"`
	ArtifactName string `json:"artifact_name" yaml:"artifact_name" toml:"artifact_name"`
	TrainData    string `json:"train_data" yaml:"train_data" toml:"train_data"`
	TestData     string `json:"test_data" yaml:"test_data" toml:"test_data"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Defaults applied by callers when the corresponding field is unset.
const (
	DefaultAddr         = ":8000"
	DefaultTrackingDir  = "./mlruns"
	DefaultExperiment   = "iris_classification"
	DefaultArtifactName = "iris-model"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	if !fsutil.PathExists(path) {
		return cfg, fmt.Errorf("config file not found: %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
