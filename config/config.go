// Package config loads YAML configuration for a simulation trajectory or
// a grid-search invocation, following the teacher's config.Load
// (os.ExpandEnv over the raw bytes, then yaml.v3 unmarshal).
package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// TrajectoryConfig is every configuration option a single simulation
// trajectory recognizes (spec.md §6).
type TrajectoryConfig struct {
	Sigma           float64 `yaml:"sigma"`             // fundamental volatility
	InformedFrac    float64 `yaml:"informed_frac"`     // gamma / p, in [0,1]
	ArrivalRate     float64 `yaml:"arrival_rate"`      // lambda, Poisson rate per tick
	MinVolume       int64   `yaml:"min_volume"`
	MaxVolume       int64   `yaml:"max_volume"`
	HalfSpreadTicks int64   `yaml:"half_spread_ticks"` // s
	SkewCoefficient float64 `yaml:"skew_coefficient"`  // c
	QuoteSize       int64   `yaml:"quote_size"`
	InitialMid      int64   `yaml:"initial_mid"`
	InitialCash     float64 `yaml:"initial_cash"`
	Horizon         int     `yaml:"horizon"` // T
	Seed            int64   `yaml:"seed"`
}

// RegimePoint is one (sigma, informed_frac) point in a grid search.
type RegimePoint struct {
	Sigma        float64 `yaml:"sigma"`
	InformedFrac float64 `yaml:"informed_frac"`
}

// GridSearchConfig configures a GridSearchHarness invocation over a set
// of regimes (spec.md §4.10).
type GridSearchConfig struct {
	Regimes          []RegimePoint `yaml:"regimes"`
	Objective        string        `yaml:"objective"` // mean_return | final_wealth | mean_squared_distance
	SkewCoeffMin     float64       `yaml:"skew_coeff_min"`
	SkewCoeffMax     float64       `yaml:"skew_coeff_max"`
	CoarseCandidates int           `yaml:"coarse_candidates"`
	FineCandidates   int           `yaml:"fine_candidates"`
	Replicates       int           `yaml:"replicates"`
	ArrivalRate      float64       `yaml:"arrival_rate"`
	MinVolume        int64         `yaml:"min_volume"`
	MaxVolume        int64         `yaml:"max_volume"`
	HalfSpreadTicks  int64         `yaml:"half_spread_ticks"`
	QuoteSize        int64         `yaml:"quote_size"`
	InitialMid       int64         `yaml:"initial_mid"`
	InitialCash      float64       `yaml:"initial_cash"`
	Horizon          int           `yaml:"horizon"`
}

// AppConfig is the top-level document: a single trajectory to run, and/or
// a grid search to run over regimes.
type AppConfig struct {
	Trajectory *TrajectoryConfig  `yaml:"trajectory"`
	GridSearch *GridSearchConfig `yaml:"grid_search"`
}

// Load reads filePath (or $CONFIG_FILE if empty), expands environment
// variables in the raw bytes, and unmarshals YAML into an AppConfig,
// the identical mechanism to the teacher's config.Load.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "file_path", filePath)
	sugar.Debug("loading config")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Errorw("failed to read config file", "error", err)
		return nil, err
	}
	raw = []byte(os.ExpandEnv(string(raw)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		sugar.Errorw("failed to parse config file", "error", err)
		return nil, err
	}

	return cfg, nil
}
