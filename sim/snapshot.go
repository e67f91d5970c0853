// Snapshot persistence for the aggregator. Only the raw event-derived lists
// are written; counters and distributions are rebuildable caches and are
// reconstructed on load. This keeps saved state compact and avoids
// duplicating authoritative data.

package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
)

// snapshot is the serialized form of an Analytics value.
type snapshot struct {
	RawRoad       []RoadRecord                     `json:"raw_per_road"`
	RawTurn       []TurnRecord                     `json:"raw_per_intersection"`
	BusArrivals   []BusArrivalRecord               `json:"bus_arrivals"`
	Boardings     []BoardingRecord                 `json:"boardings"`
	FinishedTrips []FinishedTripRecord             `json:"finished_trips"`
	TripLog       []TripLogRecord                  `json:"trip_log"`
	Delays        map[IntersectionID][]DelayRecord `json:"intersection_delays"`
}

// Save writes the raw event log and raw per-locus lists to path as JSON.
func (a *Analytics) Save(path string) error {
	snap := snapshot{
		RawRoad:       a.rawRoad,
		RawTurn:       a.rawTurn,
		BusArrivals:   a.busArrivals,
		Boardings:     a.boardings,
		FinishedTrips: a.finishedTrips,
		TripLog:       a.tripLog,
		Delays:        a.delays,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analytics snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write analytics snapshot: %w", err)
	}
	logrus.Debugf("analytics: snapshot saved to %s", path)
	return nil
}

// LoadAnalytics reads a snapshot and rebuilds the derived counters by
// replaying the raw lists. The lists in the file must be time-ordered, as
// written by Save; a snapshot assembled by merging several logs has to be
// re-sorted before it can be loaded.
func LoadAnalytics(path string) (*Analytics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analytics snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal analytics snapshot: %w", err)
	}

	a := NewAnalytics()
	a.rawRoad = snap.RawRoad
	a.rawTurn = snap.RawTurn
	a.busArrivals = snap.BusArrivals
	a.boardings = snap.Boardings
	a.finishedTrips = snap.FinishedTrips
	a.tripLog = snap.TripLog
	if snap.Delays != nil {
		a.delays = snap.Delays
	}
	a.rebuild()
	return a, nil
}

// rebuild recomputes every incremental counter and the append-order
// watermark from the raw lists.
func (a *Analytics) rebuild() {
	for _, r := range a.rawRoad {
		a.RoadThruput.Inc(r.Road)
		a.noteTime(r.T)
	}
	for _, r := range a.rawTurn {
		a.IntersectionThruput.Inc(r.Intersection)
		a.noteTime(r.T)
	}
	for _, b := range a.boardings {
		a.BusPassengers.Inc(b.Route)
		a.noteTime(b.T)
	}
	for _, arr := range a.busArrivals {
		a.noteTime(arr.T)
	}
	for _, ft := range a.finishedTrips {
		a.noteTime(ft.T)
	}
	for _, e := range a.tripLog {
		a.noteTime(e.T)
	}
	for _, list := range a.delays {
		for _, rec := range list {
			a.noteTime(rec.T)
		}
	}

	// Each list must individually be time-ordered for the early-break scans.
	for name, ordered := range map[string]bool{
		"raw_per_road":         sort.SliceIsSorted(a.rawRoad, func(i, j int) bool { return a.rawRoad[i].T < a.rawRoad[j].T }),
		"raw_per_intersection": sort.SliceIsSorted(a.rawTurn, func(i, j int) bool { return a.rawTurn[i].T < a.rawTurn[j].T }),
		"bus_arrivals":         sort.SliceIsSorted(a.busArrivals, func(i, j int) bool { return a.busArrivals[i].T < a.busArrivals[j].T }),
		"finished_trips":       sort.SliceIsSorted(a.finishedTrips, func(i, j int) bool { return a.finishedTrips[i].T < a.finishedTrips[j].T }),
		"trip_log":             sort.SliceIsSorted(a.tripLog, func(i, j int) bool { return a.tripLog[i].T < a.tripLog[j].T }),
	} {
		if !ordered {
			panic(fmt.Sprintf("analytics: snapshot list %s is not time-ordered; re-sort merged logs before loading", name))
		}
	}
}

func (a *Analytics) noteTime(t Time) {
	if t > a.lastTime {
		a.lastTime = t
	}
}
