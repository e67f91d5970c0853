// The metrics aggregator. Record appends to an append-only, time-ordered
// event log and bumps O(1) counters; every query builds transient values
// from the raw records and never mutates stored state.
//
// All bucketed queries walk the already time-ordered raw stream forward and
// break early on the first out-of-window record. That is only valid because
// Record enforces append order; merging logs from multiple sources would
// require an explicit re-sort first, so Record refuses out-of-order input
// outright instead of silently assuming it away.

package sim

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Raw record types. These, not the derived counters, are the authoritative
// state; snapshots persist exactly these lists.

// RoadRecord is one agent entering a road segment.
type RoadRecord struct {
	T    Time     `json:"t"`
	Mode TripMode `json:"mode"`
	Road RoadID   `json:"road"`
}

// TurnRecord is one agent entering an intersection turn.
type TurnRecord struct {
	T            Time           `json:"t"`
	Mode         TripMode       `json:"mode"`
	Intersection IntersectionID `json:"intersection"`
}

// BusArrivalRecord is one bus instance arriving at a stop.
type BusArrivalRecord struct {
	T     Time       `json:"t"`
	Bus   CarID      `json:"bus"`
	Route BusRouteID `json:"route"`
	Stop  BusStopID  `json:"stop"`
}

// BoardingRecord is one passenger boarding a bus on a route.
type BoardingRecord struct {
	T     Time       `json:"t"`
	Route BusRouteID `json:"route"`
}

// FinishedTripRecord is a trip ending, normally or aborted.
type FinishedTripRecord struct {
	T       Time     `json:"t"`
	Trip    TripID   `json:"trip"`
	Mode    TripMode `json:"mode,omitempty"` // empty for aborted trips
	Aborted bool     `json:"aborted,omitempty"`
	Total   Duration `json:"total"`
}

// TripLogRecord is one milestone in a trip's timeline.
type TripLogRecord struct {
	T           Time         `json:"t"`
	Trip        TripID       `json:"trip"`
	Kind        PhaseKind    `json:"kind,omitempty"`
	Req         *PathRequest `json:"req,omitempty"`
	Description string       `json:"description"`
	Terminal    bool         `json:"terminal,omitempty"`
}

// DelayRecord is one measured intersection delay.
type DelayRecord struct {
	T     Time     `json:"t"`
	Delay Duration `json:"delay"`
}

// Trip log descriptions for terminal markers.
const (
	descTripFinished = "trip finished"
	descTripAborted  = "trip aborted"
)

// Analytics owns the event log and all derived counters and distributions.
// Owned exclusively by the simulation engine; external readers invoke only
// the non-mutating queries.
type Analytics struct {
	// Incremental counters, always available in O(1). Rebuildable from the
	// raw lists below.
	RoadThruput         *Counter[RoadID]
	IntersectionThruput *Counter[IntersectionID]
	BusPassengers       *Counter[BusRouteID]

	rawRoad       []RoadRecord
	rawTurn       []TurnRecord
	busArrivals   []BusArrivalRecord
	boardings     []BoardingRecord
	finishedTrips []FinishedTripRecord
	tripLog       []TripLogRecord
	delays        map[IntersectionID][]DelayRecord

	lastTime Time
}

// NewAnalytics returns an empty aggregator.
func NewAnalytics() *Analytics {
	return &Analytics{
		RoadThruput:         NewCounter[RoadID](),
		IntersectionThruput: NewCounter[IntersectionID](),
		BusPassengers:       NewCounter[BusRouteID](),
		delays:              make(map[IntersectionID][]DelayRecord),
	}
}

// Record appends an event to the log at the given simulated time and updates
// the matching incremental counter or per-locus list. Events must arrive in
// time order; an out-of-order append is a caller bug and panics, because the
// bucketed queries depend on insertion order matching time order.
func (a *Analytics) Record(ev Event, now Time) {
	if now < a.lastTime {
		logrus.Errorf("analytics: event at %s recorded after %s", now, a.lastTime)
		panic("analytics: event log must be appended in time order")
	}
	a.lastTime = now

	switch e := ev.(type) {
	case EnteredRoad:
		a.RoadThruput.Inc(e.Road)
		a.rawRoad = append(a.rawRoad, RoadRecord{T: now, Mode: e.Mode, Road: e.Road})
	case EnteredTurn:
		a.IntersectionThruput.Inc(e.Intersection)
		a.rawTurn = append(a.rawTurn, TurnRecord{T: now, Mode: e.Mode, Intersection: e.Intersection})
	case BusArrived:
		a.busArrivals = append(a.busArrivals, BusArrivalRecord{T: now, Bus: e.Bus, Route: e.Route, Stop: e.Stop})
	case PassengerBoarded:
		a.BusPassengers.Inc(e.Route)
		a.boardings = append(a.boardings, BoardingRecord{T: now, Route: e.Route})
	case TripFinished:
		a.finishedTrips = append(a.finishedTrips, FinishedTripRecord{T: now, Trip: e.Trip, Mode: e.Mode, Total: e.Total})
		a.tripLog = append(a.tripLog, TripLogRecord{T: now, Trip: e.Trip, Description: descTripFinished, Terminal: true})
	case TripAborted:
		a.finishedTrips = append(a.finishedTrips, FinishedTripRecord{T: now, Trip: e.Trip, Aborted: true})
		a.tripLog = append(a.tripLog, TripLogRecord{T: now, Trip: e.Trip, Description: descTripAborted, Terminal: true})
	case IntersectionDelay:
		a.delays[e.Intersection] = append(a.delays[e.Intersection], DelayRecord{T: now, Delay: e.Delay})
	case TripPhaseStarted:
		a.tripLog = append(a.tripLog, TripLogRecord{T: now, Trip: e.Trip, Kind: e.Kind, Req: e.Req, Description: e.Description})
	}
}

// BucketCount is one fixed-width window of a throughput series.
type BucketCount struct {
	Start Time `json:"start"`
	Count int  `json:"count"`
}

// stamped is a raw record reduced to what the bucket walker needs.
type stamped struct {
	t    Time
	mode TripMode
}

// bucketCounts partitions time-ordered stamped records into consecutive
// fixed-width windows from the start of the day, one series per mode sharing
// bucket boundaries. The series has no gaps: every bucket from start-of-day
// through the one containing the last record appears, even with count zero.
// No trailing empty buckets are added past the last record.
func bucketCounts(records []stamped, bucket Duration) map[TripMode][]BucketCount {
	series := make(map[TripMode][]BucketCount, len(TripModes()))
	for _, m := range TripModes() {
		series[m] = nil
	}
	if len(records) == 0 {
		return series
	}
	push := func(start Time) {
		for m := range series {
			series[m] = append(series[m], BucketCount{Start: start})
		}
	}
	cur := StartOfDay
	push(cur)
	for _, r := range records {
		for r.t >= cur+Time(bucket) {
			cur += Time(bucket)
			push(cur)
		}
		s := series[r.mode]
		s[len(s)-1].Count++
	}
	return series
}

// ThroughputRoad returns, per travel mode, the gap-free series of
// (bucketStart, count) of agents entering the road, covering start-of-day
// through the bucket containing the last matching record at or before now.
func (a *Analytics) ThroughputRoad(now Time, road RoadID, bucket Duration) map[TripMode][]BucketCount {
	var matched []stamped
	for _, r := range a.rawRoad {
		if r.T > now {
			break
		}
		if r.Road != road {
			continue
		}
		matched = append(matched, stamped{r.T, r.Mode})
	}
	return bucketCounts(matched, bucket)
}

// ThroughputIntersection is ThroughputRoad for intersection turns.
func (a *Analytics) ThroughputIntersection(now Time, intersection IntersectionID, bucket Duration) map[TripMode][]BucketCount {
	var matched []stamped
	for _, r := range a.rawTurn {
		if r.T > now {
			break
		}
		if r.Intersection != intersection {
			continue
		}
		matched = append(matched, stamped{r.T, r.Mode})
	}
	return bucketCounts(matched, bucket)
}

// DelayBucket is one fixed-width window of measured intersection delays.
type DelayBucket struct {
	Start  Time
	Delays *Distribution
}

// IntersectionDelaysBucketized partitions an intersection's measured delays
// into consecutive fixed-width windows, accumulating a statistic-queryable
// distribution per window. Same bucket-walking discipline as throughput.
func (a *Analytics) IntersectionDelaysBucketized(now Time, i IntersectionID, bucket Duration) []DelayBucket {
	var out []DelayBucket
	cur := StartOfDay
	for _, rec := range a.delays[i] {
		if rec.T > now {
			break
		}
		if out == nil {
			out = append(out, DelayBucket{Start: cur, Delays: NewDistribution()})
		}
		for rec.T >= cur+Time(bucket) {
			cur += Time(bucket)
			out = append(out, DelayBucket{Start: cur, Delays: NewDistribution()})
		}
		out[len(out)-1].Delays.Add(rec.Delay)
	}
	return out
}

// IntersectionDelays accumulates every delay measured at an intersection in
// the closed time range [t1, t2].
func (a *Analytics) IntersectionDelays(i IntersectionID, t1, t2 Time) *Distribution {
	delays := NewDistribution()
	for _, rec := range a.delays[i] {
		if rec.T < t1 {
			continue
		}
		if rec.T > t2 {
			break
		}
		delays.Add(rec.Delay)
	}
	return delays
}

// TripPhase is a named interval of a trip's timeline bounded by two
// consecutive logged milestones. The last phase of an in-progress trip has
// Ended false. Path is resolved lazily at query time and is nil when the
// phase carried no path request or the router found no path.
type TripPhase struct {
	Start       Time
	End         Time
	Ended       bool
	Kind        PhaseKind
	Path        *TracedPath
	Description string
}

// TripPhases replays the log filtered to one trip, pairing consecutive
// entries into phases. Pairing stops at the first terminal marker. A phase
// carrying a path request resolves it against the router here, so routing
// cost is paid only for inspected trips, never at record time. An unlogged
// trip yields an empty result.
func (a *Analytics) TripPhases(trip TripID, router Router) []TripPhase {
	var phases []TripPhase
	for _, e := range a.tripLog {
		if e.Trip != trip {
			continue
		}
		if len(phases) > 0 {
			phases[len(phases)-1].End = e.T
			phases[len(phases)-1].Ended = true
		}
		if e.Terminal {
			break
		}
		var traced *TracedPath
		if e.Req != nil {
			if path, ok := router.Pathfind(*e.Req); ok {
				traced = &TracedPath{StartDist: e.Req.Start.Dist, Path: path}
			}
		}
		phases = append(phases, TripPhase{
			Start:       e.T,
			Kind:        e.Kind,
			Path:        traced,
			Description: e.Description,
		})
	}
	return phases
}

// allTripPhases builds phase timelines for every trip at once, without
// resolving any paths. Aborted trips are dropped entirely.
func (a *Analytics) allTripPhases() map[TripID][]TripPhase {
	trips := make(map[TripID][]TripPhase)
	for _, e := range a.tripLog {
		phases := trips[e.Trip]
		if len(phases) > 0 {
			phases[len(phases)-1].End = e.T
			phases[len(phases)-1].Ended = true
		}
		if e.Terminal {
			if e.Description == descTripAborted {
				delete(trips, e.Trip)
			}
			continue
		}
		trips[e.Trip] = append(phases, TripPhase{
			Start:       e.T,
			Kind:        e.Kind,
			Description: e.Description,
		})
	}
	return trips
}

// ParkingOverhead considers all completed trips containing both a driving
// phase and walking/parking phases, and accumulates the fraction of the
// trip spent outside the driving phase (walking to or from the vehicle,
// searching for parking) into a percentage distribution. Waiting for a bus
// counts as neither. Read-only.
func (a *Analytics) ParkingOverhead() *PctDistribution {
	distrib := NewPctDistribution()
	for _, phases := range a.allTripPhases() {
		if len(phases) == 0 || !phases[len(phases)-1].Ended {
			continue
		}
		var driving, overhead Duration
		for _, p := range phases {
			dt := Duration(p.End - p.Start)
			switch p.Kind {
			case PhaseDriving:
				driving += dt
			case PhaseWalking, PhaseParking:
				overhead += dt
			}
		}
		// Only trips with both portions say anything about overhead, and a
		// zero baseline would divide by zero anyway.
		if driving == 0 || overhead == 0 {
			continue
		}
		distrib.Add(float64(overhead) / float64(driving+overhead))
	}
	return distrib
}

// ParkingOverheadReport renders the overhead distribution as report lines.
func (a *Analytics) ParkingOverheadReport() []string {
	distrib := a.ParkingOverhead()
	return []string{
		"Consider all trips with both a walking and a driving portion.",
		"Walking to the parked car, searching for parking, and walking from the spot to the destination are overhead; 0% overhead means the whole trip was spent driving.",
		distrib.Describe(),
	}
}

// BusHeadways groups arrivals at or before now by physical bus instance,
// takes consecutive-arrival time deltas per bus, and accumulates each delta
// into the distribution of the stop where the later arrival happened. A bus
// that never returns to a stop contributes no sample for that stop.
func (a *Analytics) BusHeadways(now Time, route BusRouteID) map[BusStopID]*Distribution {
	perBus := a.arrivalsPerBus(now, route)
	headways := make(map[BusStopID]*Distribution)
	for _, bus := range sortedBuses(perBus) {
		arrivals := perBus[bus]
		for i := 1; i < len(arrivals); i++ {
			stop := arrivals[i].Stop
			if headways[stop] == nil {
				headways[stop] = NewDistribution()
			}
			headways[stop].Add(Duration(arrivals[i].T - arrivals[i-1].T))
		}
	}
	return headways
}

// BusHeadwaysOverTime is BusHeadways keeping each (arrival time, headway)
// pair instead of collapsing them into a distribution.
func (a *Analytics) BusHeadwaysOverTime(now Time, route BusRouteID) map[BusStopID][]DelayRecord {
	perBus := a.arrivalsPerBus(now, route)
	headways := make(map[BusStopID][]DelayRecord)
	for _, bus := range sortedBuses(perBus) {
		arrivals := perBus[bus]
		for i := 1; i < len(arrivals); i++ {
			stop := arrivals[i].Stop
			headways[stop] = append(headways[stop], DelayRecord{
				T:     arrivals[i].T,
				Delay: Duration(arrivals[i].T - arrivals[i-1].T),
			})
		}
	}
	return headways
}

func (a *Analytics) arrivalsPerBus(now Time, route BusRouteID) map[CarID][]BusArrivalRecord {
	perBus := make(map[CarID][]BusArrivalRecord)
	for _, arr := range a.busArrivals {
		if arr.T > now {
			break
		}
		if arr.Route == route {
			perBus[arr.Bus] = append(perBus[arr.Bus], arr)
		}
	}
	return perBus
}

func sortedBuses(perBus map[CarID][]BusArrivalRecord) []CarID {
	buses := make([]CarID, 0, len(perBus))
	for bus := range perBus {
		buses = append(buses, bus)
	}
	sort.Slice(buses, func(i, j int) bool { return buses[i].Less(buses[j]) })
	return buses
}

// FinishedTrips accumulates the durations of trips of one mode finished at
// or before now.
func (a *Analytics) FinishedTrips(now Time, mode TripMode) *Distribution {
	distrib := NewDistribution()
	for _, ft := range a.finishedTrips {
		if ft.T > now {
			break
		}
		if !ft.Aborted && ft.Mode == mode {
			distrib.Add(ft.Total)
		}
	}
	return distrib
}

// AllFinishedTrips returns the duration distribution of every finished trip
// at or before now, the number of aborted trips, and the per-mode
// distributions.
func (a *Analytics) AllFinishedTrips(now Time) (*Distribution, int, map[TripMode]*Distribution) {
	perMode := make(map[TripMode]*Distribution, len(TripModes()))
	for _, m := range TripModes() {
		perMode[m] = NewDistribution()
	}
	all := NewDistribution()
	aborted := 0
	for _, ft := range a.finishedTrips {
		if ft.T > now {
			break
		}
		if ft.Aborted {
			aborted++
			continue
		}
		all.Add(ft.Total)
		perMode[ft.Mode].Add(ft.Total)
	}
	return all, aborted, perMode
}
