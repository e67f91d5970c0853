package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streetsim/streetsim/sim/scenario"
)

var (
	scenarioPath string // YAML scenario file; empty means the built-in default
	horizon      int64  // Simulated seconds to run for (overrides the scenario file)
	seed         int64  // RNG seed (overrides the scenario file)
	snapshotOut  string // Where to save the raw analytics snapshot, if anywhere
)

// loadScenario builds the scenario config from the file and flag overrides.
func loadScenario(cmd *cobra.Command) (scenario.Config, error) {
	cfg := scenario.DefaultConfig()
	if scenarioPath != "" {
		var err error
		cfg, err = scenario.LoadConfig(scenarioPath)
		if err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("horizon") {
		cfg.Horizon = horizon
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, cfg.Validate()
}

// runCmd executes a scenario and prints the report
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and print the analytics report",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadScenario(cmd)
		if err != nil {
			logrus.Fatalf("unable to load scenario: %v", err)
		}

		runID := uuid.NewString()
		logrus.Infof("run %s: %d roads, %d vehicles, %d buses, horizon %ds, seed %d",
			runID, cfg.Roads, cfg.Vehicles, cfg.Buses, cfg.Horizon, cfg.Seed)

		r, err := scenario.NewRunner(cfg)
		if err != nil {
			logrus.Fatalf("unable to build scenario: %v", err)
		}
		r.Run()

		for _, line := range r.Report() {
			fmt.Println(line)
		}

		if snapshotOut != "" {
			if err := r.Analytics.Save(snapshotOut); err != nil {
				logrus.Fatalf("unable to save snapshot: %v", err)
			}
			logrus.Infof("run %s: snapshot saved to %s", runID, snapshotOut)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (default: built-in scenario)")
	runCmd.Flags().Int64Var(&horizon, "horizon", 3600, "Total simulated seconds")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for scripted traffic generation")
	runCmd.Flags().StringVar(&snapshotOut, "out", "", "Path to save the raw analytics snapshot (JSON)")
	rootCmd.AddCommand(runCmd)
}
