// The chart command renders a quick HTML line chart of per-mode road
// throughput, for eyeballing a run without the dashboard.

package cmd

import (
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streetsim/streetsim/sim"
	"github.com/streetsim/streetsim/sim/scenario"
)

var (
	chartOut  string // Output HTML file
	chartRoad int    // Road to chart
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Run a scenario and write an HTML throughput chart for one road",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadScenario(cmd)
		if err != nil {
			logrus.Fatalf("unable to load scenario: %v", err)
		}
		r, err := scenario.NewRunner(cfg)
		if err != nil {
			logrus.Fatalf("unable to build scenario: %v", err)
		}
		r.Run()

		series := r.Analytics.ThroughputRoad(r.Now(), sim.RoadID(chartRoad), sim.Duration(cfg.Bucket))

		line := charts.NewLine()
		line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
			Title:    "Road throughput",
			Subtitle: "agents entering the road per bucket, by mode",
		}))

		var xs []string
		for _, b := range series[sim.ModeDrive] {
			xs = append(xs, b.Start.String())
		}
		line.SetXAxis(xs)
		for _, mode := range sim.TripModes() {
			var data []opts.LineData
			for _, b := range series[mode] {
				data = append(data, opts.LineData{Value: b.Count})
			}
			line.AddSeries(string(mode), data)
		}

		f, err := os.Create(chartOut)
		if err != nil {
			logrus.Fatalf("unable to create %s: %v", chartOut, err)
		}
		defer f.Close()
		if err := line.Render(f); err != nil {
			logrus.Fatalf("unable to render chart: %v", err)
		}
		logrus.Infof("chart written to %s", chartOut)
	},
}

func init() {
	chartCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (default: built-in scenario)")
	chartCmd.Flags().StringVar(&chartOut, "chart-out", "throughput.html", "Output HTML file")
	chartCmd.Flags().IntVar(&chartRoad, "road", 0, "Road to chart")
	rootCmd.AddCommand(chartCmd)
}
