// Runner is a deterministic, scripted simulation loop driving the core: the
// kind of external caller the bookkeeping core exists to serve. Scripted
// drivers search for stalls with FirstFreeSpot, Reserve on decision, Commit
// on arrival and Release on departure, emitting the full event taxonomy as
// they go; buses loop a route emitting arrivals and boardings.
//
// The loop is a timestamp-ordered event heap. Ties are broken by insertion
// order so a given seed always replays the same run.

package scenario

import (
	"container/heap"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/streetsim/streetsim/sim"
)

// event is one scheduled step of the scripted traffic.
type event interface {
	timestamp() sim.Time
	execute(r *Runner)
}

type queued struct {
	ev  event
	seq int
}

// eventQueue orders events by timestamp, then by insertion order.
type eventQueue []queued

func (eq eventQueue) Len() int { return len(eq) }
func (eq eventQueue) Less(i, j int) bool {
	if eq[i].ev.timestamp() != eq[j].ev.timestamp() {
		return eq[i].ev.timestamp() < eq[j].ev.timestamp()
	}
	return eq[i].seq < eq[j].seq
}
func (eq eventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(queued))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Runner holds the world, the two core subsystems, and the event loop.
type Runner struct {
	Cfg       Config
	World     *GridMap
	Parking   *sim.ParkingState
	Analytics *sim.Analytics

	clock sim.Time
	queue eventQueue
	seq   int
	rng   *rand.Rand
}

// NewRunner builds the grid world and schedules the scripted traffic.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	world := NewGridMap(cfg.Roads, cfg.LaneLength)
	r := &Runner{
		Cfg:       cfg,
		World:     world,
		Parking:   sim.NewParkingState(world),
		Analytics: sim.NewAnalytics(),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
	r.seedDrivers()
	r.seedBuses()
	return r, nil
}

func (r *Runner) seedDrivers() {
	for i := 0; i < r.Cfg.Vehicles; i++ {
		home := sim.RoadID(r.rng.Intn(r.Cfg.Roads))
		dest := sim.RoadID(r.rng.Intn(r.Cfg.Roads))
		if dest == home {
			dest = (dest + 1) % sim.RoadID(r.Cfg.Roads)
		}
		d := &driver{
			trip: sim.TripID(i),
			vehicle: sim.Vehicle{
				ID:     sim.CarID{Num: i, Kind: sim.KindCar},
				Length: 4.0 + r.rng.Float64(), // sedans and small vans
			},
			home: home,
			dest: dest,
		}
		start := sim.Time(r.rng.Int63n(r.Cfg.Horizon / 2))
		r.schedule(tripBegin{at: start, d: d})
	}
}

func (r *Runner) seedBuses() {
	if r.Cfg.Buses == 0 {
		return
	}
	route := sim.BusRouteID(1)
	stops := make([]busStop, r.Cfg.BusStops)
	for j := range stops {
		stops[j] = busStop{
			id:   sim.BusStopID(j),
			road: sim.RoadID(j % r.Cfg.Roads),
		}
	}
	legDur := sim.Duration(r.Cfg.LaneLength/8.0) + 45
	for k := 0; k < r.Cfg.Buses; k++ {
		b := &bus{
			id:     sim.CarID{Num: k, Kind: sim.KindBus},
			route:  route,
			stops:  stops,
			legDur: legDur,
		}
		r.schedule(busArrive{at: sim.Time(int64(k) * 600), b: b})
	}
}

func (r *Runner) schedule(ev event) {
	heap.Push(&r.queue, queued{ev: ev, seq: r.seq})
	r.seq++
}

// Now returns the current simulated time.
func (r *Runner) Now() sim.Time {
	return r.clock
}

// Run executes scheduled events in time order until the queue drains or the
// horizon is reached.
func (r *Runner) Run() {
	horizon := sim.Time(r.Cfg.Horizon)
	for len(r.queue) > 0 {
		item := heap.Pop(&r.queue).(queued)
		if item.ev.timestamp() > horizon {
			break
		}
		r.clock = item.ev.timestamp()
		logrus.Debugf("[%s] executing %T", r.clock, item.ev)
		item.ev.execute(r)
	}
	logrus.Infof("[%s] scenario ended", r.clock)
}

// === Drivers ===

type driver struct {
	trip    sim.TripID
	vehicle sim.Vehicle
	home    sim.RoadID
	dest    sim.RoadID
	began   sim.Time
	path    []sim.RoadID
	spot    sim.ParkingSpot
}

// tripBegin starts a trip: the driver walks to the parked-elsewhere car.
type tripBegin struct {
	at sim.Time
	d  *driver
}

func (e tripBegin) timestamp() sim.Time { return e.at }

func (e tripBegin) execute(r *Runner) {
	e.d.began = e.at
	r.Analytics.Record(sim.TripPhaseStarted{
		Trip:        e.d.trip,
		Kind:        sim.PhaseWalking,
		Description: "walking to the car",
	}, e.at)
	r.Analytics.Record(sim.EnteredRoad{Mode: sim.ModeWalk, Road: e.d.home}, e.at)
	r.schedule(driveBegin{at: e.at + sim.Time(30+r.rng.Int63n(90)), d: e.d})
}

// driveBegin puts the driver on the road, with a path request the analytics
// will resolve lazily if anyone ever inspects this trip.
type driveBegin struct {
	at sim.Time
	d  *driver
}

func (e driveBegin) timestamp() sim.Time { return e.at }

func (e driveBegin) execute(r *Runner) {
	d := e.d
	req := sim.PathRequest{
		Start: sim.Position{Lane: r.World.DrivingLane(d.home), Dist: 0},
		End:   sim.Position{Lane: r.World.DrivingLane(d.dest), Dist: r.Cfg.LaneLength / 2},
	}
	r.Analytics.Record(sim.TripPhaseStarted{
		Trip:        d.trip,
		Kind:        sim.PhaseDriving,
		Req:         &req,
		Description: d.vehicle.ID.String(),
	}, e.at)

	step := sim.RoadID(1)
	if d.dest < d.home {
		step = -1
	}
	d.path = d.path[:0]
	for road := d.home; ; road += step {
		d.path = append(d.path, road)
		if road == d.dest {
			break
		}
	}
	r.Analytics.Record(sim.EnteredRoad{Mode: sim.ModeDrive, Road: d.home}, e.at)
	r.schedule(driveLeg{at: e.at + r.legTime(), d: d, leg: 1})
}

// driveLeg crosses one intersection onto the next road of the path.
type driveLeg struct {
	at  sim.Time
	d   *driver
	leg int
}

func (e driveLeg) timestamp() sim.Time { return e.at }

func (e driveLeg) execute(r *Runner) {
	d := e.d
	if e.leg >= len(d.path) {
		r.schedule(parkAttempt{at: e.at, d: d})
		return
	}
	road := d.path[e.leg]
	x := r.World.Intersection(d.path[e.leg-1], road)
	r.Analytics.Record(sim.EnteredTurn{Mode: sim.ModeDrive, Intersection: x}, e.at)
	r.Analytics.Record(sim.IntersectionDelay{
		Intersection: x,
		Delay:        sim.Duration(5 + r.rng.Int63n(35)),
	}, e.at)
	r.Analytics.Record(sim.EnteredRoad{Mode: sim.ModeDrive, Road: road}, e.at)
	r.schedule(driveLeg{at: e.at + r.legTime(), d: d, leg: e.leg + 1})
}

// parkAttempt looks for the first reachable stall on the destination's
// parking lane and claims it, or aborts the trip if the lane is full.
type parkAttempt struct {
	at sim.Time
	d  *driver
}

func (e parkAttempt) timestamp() sim.Time { return e.at }

func (e parkAttempt) execute(r *Runner) {
	d := e.d
	r.Analytics.Record(sim.TripPhaseStarted{
		Trip:        d.trip,
		Kind:        sim.PhaseParking,
		Description: "looking for parking",
	}, e.at)
	pos := sim.Position{Lane: r.World.ParkingLane(d.dest), Dist: 0}
	spot, ok := r.Parking.FirstFreeSpot(pos, d.vehicle)
	if !ok {
		logrus.Debugf("[%s] %s found no parking on road %d, aborting trip %d", e.at, d.vehicle.ID, d.dest, d.trip)
		r.Analytics.Record(sim.TripAborted{Trip: d.trip}, e.at)
		return
	}
	r.Parking.Reserve(spot)
	d.spot = spot
	r.schedule(parkCommit{at: e.at + sim.Time(20+r.rng.Int63n(40)), d: d})
}

// parkCommit is the physical arrival at the reserved stall.
type parkCommit struct {
	at sim.Time
	d  *driver
}

func (e parkCommit) timestamp() sim.Time { return e.at }

func (e parkCommit) execute(r *Runner) {
	d := e.d
	r.Parking.Commit(sim.ParkedCar{Vehicle: d.vehicle, Spot: d.spot})
	r.Analytics.Record(sim.TripPhaseStarted{
		Trip:        d.trip,
		Kind:        sim.PhaseWalking,
		Description: "walking from the spot",
	}, e.at)
	r.Analytics.Record(sim.EnteredRoad{Mode: sim.ModeWalk, Road: d.dest}, e.at)
	r.schedule(tripEnd{at: e.at + sim.Time(30+r.rng.Int63n(60)), d: d})
}

// tripEnd finishes the trip; the car stays parked until depart.
type tripEnd struct {
	at sim.Time
	d  *driver
}

func (e tripEnd) timestamp() sim.Time { return e.at }

func (e tripEnd) execute(r *Runner) {
	d := e.d
	r.Analytics.Record(sim.TripFinished{
		Trip:  d.trip,
		Mode:  sim.ModeDrive,
		Total: sim.Duration(e.at - d.began),
	}, e.at)
	r.schedule(depart{at: e.at + sim.Time(600+r.rng.Int63n(1800)), d: d})
}

// depart frees the stall again.
type depart struct {
	at sim.Time
	d  *driver
}

func (e depart) timestamp() sim.Time { return e.at }

func (e depart) execute(r *Runner) {
	r.Parking.Release(sim.ParkedCar{Vehicle: e.d.vehicle, Spot: e.d.spot})
	r.Analytics.Record(sim.EnteredRoad{Mode: sim.ModeDrive, Road: e.d.dest}, e.at)
}

func (r *Runner) legTime() sim.Time {
	// roughly 8 m/s through a road plus signal luck
	return sim.Time(int64(r.Cfg.LaneLength/8.0) + r.rng.Int63n(30))
}

// === Buses ===

type busStop struct {
	id   sim.BusStopID
	road sim.RoadID
}

type bus struct {
	id      sim.CarID
	route   sim.BusRouteID
	stops   []busStop
	stopIdx int
	legDur  sim.Duration
}

// busArrive is one bus reaching its next stop; it boards whoever is waiting
// and heads for the following stop.
type busArrive struct {
	at sim.Time
	b  *bus
}

func (e busArrive) timestamp() sim.Time { return e.at }

func (e busArrive) execute(r *Runner) {
	b := e.b
	stop := b.stops[b.stopIdx%len(b.stops)]
	r.Analytics.Record(sim.EnteredRoad{Mode: sim.ModeTransit, Road: stop.road}, e.at)
	r.Analytics.Record(sim.BusArrived{Bus: b.id, Route: b.route, Stop: stop.id}, e.at)
	for i := 0; i < r.rng.Intn(4); i++ {
		r.Analytics.Record(sim.PassengerBoarded{Route: b.route}, e.at)
	}
	b.stopIdx++
	r.schedule(busArrive{at: e.at + sim.Time(b.legDur) + sim.Time(r.rng.Int63n(60)), b: b})
}

// === Reporting ===

// Report renders a human-readable summary of the finished run.
func (r *Runner) Report() []string {
	now := r.clock
	lines := []string{fmt.Sprintf("=== Scenario report at %s ===", now)}

	all, aborted, perMode := r.Analytics.AllFinishedTrips(now)
	lines = append(lines, fmt.Sprintf("finished trips: %s", all.Describe()))
	lines = append(lines, fmt.Sprintf("aborted trips: %d", aborted))
	for _, m := range sim.TripModes() {
		if perMode[m].Count() > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %s", m, perMode[m].Describe()))
		}
	}

	for road := 0; road < r.Cfg.Roads; road++ {
		lines = append(lines, fmt.Sprintf("road %d crossings: %d", road, r.Analytics.RoadThruput.Get(sim.RoadID(road))))
	}

	lines = append(lines, r.Analytics.ParkingOverheadReport()...)

	if r.Cfg.Buses > 0 {
		route := sim.BusRouteID(1)
		lines = append(lines, fmt.Sprintf("route %d passengers: %d", route, r.Analytics.BusPassengers.Get(route)))
		headways := r.Analytics.BusHeadways(now, route)
		for j := 0; j < r.Cfg.BusStops; j++ {
			if d, ok := headways[sim.BusStopID(j)]; ok {
				lines = append(lines, fmt.Sprintf("  stop %d headways: %s", j, d.Describe()))
			}
		}
	}
	return lines
}
