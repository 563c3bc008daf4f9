package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/quantsim/lobsim/config"
	"github.com/quantsim/lobsim/pkg/search"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	if cfg.GridSearch == nil {
		panic("config: grid_search section is required for cmd/gridsearch")
	}
	gc := cfg.GridSearch

	configBytes, err := json.MarshalIndent(gc, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	harness := search.NewHarness(gc)
	results, err := harness.Run(context.Background())
	if err != nil {
		zap.S().Errorf("grid search failed: %v", err)
		panic(err)
	}

	for _, r := range results {
		if !r.Usable {
			fmt.Printf("regime sigma=%.4f informed_frac=%.2f: no usable candidate\n",
				r.Regime.Sigma, r.Regime.InformedFrac)
			continue
		}
		fmt.Printf("regime sigma=%.4f informed_frac=%.2f: best_coefficient=%.6g score=%.6g survived=%d/%d\n",
			r.Regime.Sigma, r.Regime.InformedFrac, r.Best.Coefficient, r.Best.Score,
			r.Best.Survived, gc.Replicates)
	}
}
