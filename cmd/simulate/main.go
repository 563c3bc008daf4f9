package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/quantsim/lobsim/config"
	"github.com/quantsim/lobsim/pkg/market"
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
	if cfg.Trajectory == nil {
		panic("config: trajectory section is required for cmd/simulate")
	}
	tc := cfg.Trajectory

	configBytes, err := json.MarshalIndent(tc, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	fundamental := market.NewFundamentalProcess(float64(tc.InitialMid), tc.Sigma, tc.Seed)
	flow := market.NewInformedFlowGenerator(
		tc.InformedFrac, tc.ArrivalRate, tc.MinVolume, tc.MaxVolume,
		tc.Seed+1, market.InformedTraderID, market.NoiseTraderID,
	)
	maker := market.NewMarketMakerAgent(
		market.MakerTraderID, tc.InitialMid, tc.InitialCash,
		tc.HalfSpreadTicks, tc.SkewCoefficient, tc.QuoteSize,
	)
	loop := market.NewSimulationLoop(fundamental, flow, maker, tc.Horizon)

	traj := loop.Run(context.Background())

	last := traj.Ticks[len(traj.Ticks)-1]
	fmt.Printf("ticks=%d final_fundamental=%.4f final_mid=%.4f inventory=%d cash=%s wealth=%s mean_return=%.6g\n",
		len(traj.Ticks), last.Fundamental, last.MakerMid, last.Inventory,
		last.Cash.StringFixed(2), last.Wealth.StringFixed(2), traj.MeanReturn())
}
