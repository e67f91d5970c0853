// The serve command runs a scenario, then exposes the aggregator's queries
// and the allocator's renderable snapshots over a read-only JSON API — the
// same contract a dashboard would consume. Only non-mutating queries are
// reachable; the single writer has finished by the time the server starts.

package cmd

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streetsim/streetsim/sim"
	"github.com/streetsim/streetsim/sim/scenario"
)

var serveAddr string // Listen address for the dashboard API

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a scenario and serve its analytics over a JSON API",
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

		logrus.Infof("serving analytics on %s", serveAddr)
		if err := http.ListenAndServe(serveAddr, NewAPIRouter(r)); err != nil {
			logrus.Fatalf("server stopped: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (default: built-in scenario)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8042", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

// distSummary is the JSON shape of a duration distribution.
type distSummary struct {
	Count int          `json:"count"`
	P50   sim.Duration `json:"p50"`
	P90   sim.Duration `json:"p90"`
	Max   sim.Duration `json:"max"`
	Mean  sim.Duration `json:"mean"`
}

func summarize(d *sim.Distribution) distSummary {
	s := distSummary{Count: d.Count()}
	s.P50, _ = d.Percentile(50)
	s.P90, _ = d.Percentile(90)
	s.Max, _ = d.Max()
	s.Mean, _ = d.Mean()
	return s
}

// NewAPIRouter builds the read-only query API over a finished run.
func NewAPIRouter(r *scenario.Runner) *mux.Router {
	now := r.Now()
	bucket := sim.Duration(r.Cfg.Bucket)
	router := mux.NewRouter()

	router.HandleFunc("/api/throughput/road/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := intVar(w, req, "id")
		if !ok {
			return
		}
		writeJSON(w, r.Analytics.ThroughputRoad(now, sim.RoadID(id), bucket))
	}).Methods("GET")

	router.HandleFunc("/api/throughput/intersection/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := intVar(w, req, "id")
		if !ok {
			return
		}
		writeJSON(w, r.Analytics.ThroughputIntersection(now, sim.IntersectionID(id), bucket))
	}).Methods("GET")

	router.HandleFunc("/api/delays/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := intVar(w, req, "id")
		if !ok {
			return
		}
		type bucketOut struct {
			Start  sim.Time    `json:"start"`
			Delays distSummary `json:"delays"`
		}
		var out []bucketOut
		for _, b := range r.Analytics.IntersectionDelaysBucketized(now, sim.IntersectionID(id), bucket) {
			out = append(out, bucketOut{Start: b.Start, Delays: summarize(b.Delays)})
		}
		writeJSON(w, out)
	}).Methods("GET")

	router.HandleFunc("/api/headways/{route}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := intVar(w, req, "route")
		if !ok {
			return
		}
		out := make(map[sim.BusStopID]distSummary)
		for stop, d := range r.Analytics.BusHeadways(now, sim.BusRouteID(id)) {
			out[stop] = summarize(d)
		}
		writeJSON(w, out)
	}).Methods("GET")

	router.HandleFunc("/api/trips/{id}/phases", func(w http.ResponseWriter, req *http.Request) {
		id, ok := intVar(w, req, "id")
		if !ok {
			return
		}
		writeJSON(w, r.Analytics.TripPhases(sim.TripID(id), r.World))
	}).Methods("GET")

	router.HandleFunc("/api/parking/lane/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := intVar(w, req, "id")
		if !ok {
			return
		}
		lane := sim.LaneID(id)
		writeJSON(w, map[string]any{
			"total": r.Parking.TotalSpots(lane),
			"free":  r.Parking.FreeSpots(lane),
			"cars":  r.Parking.DrawRecords(lane),
		})
	}).Methods("GET")

	router.HandleFunc("/api/parking/overhead", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, r.Analytics.ParkingOverheadReport())
	}).Methods("GET")

	return router
}

func intVar(w http.ResponseWriter, req *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(mux.Vars(req)[name])
	if err != nil {
		http.Error(w, "bad "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("encode response: %v", err)
	}
}
