package sim

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestRecord_OutOfOrder_Panics(t *testing.T) {
	a := NewAnalytics()
	a.Record(EnteredRoad{Mode: ModeDrive, Road: 0}, 100)

	assert.Panics(t, func() {
		a.Record(EnteredRoad{Mode: ModeDrive, Road: 0}, 99)
	})

	// Equal timestamps are fine; many events happen on the same tick.
	assert.NotPanics(t, func() {
		a.Record(EnteredRoad{Mode: ModeDrive, Road: 0}, 100)
	})
}

func TestThroughputRoad_BucketScenario(t *testing.T) {
	// GIVEN drive entries onto road 1 at t=0, 50, 130, 650, 1205, plus one
	// entry on another road and one past the query time
	a := NewAnalytics()
	for _, ts := range []Time{0, 50, 130, 650, 1205} {
		a.Record(EnteredRoad{Mode: ModeDrive, Road: 1}, ts)
	}
	a.Record(EnteredRoad{Mode: ModeDrive, Road: 2}, 1300)
	a.Record(EnteredRoad{Mode: ModeDrive, Road: 1}, 5000)

	// WHEN bucketed by 600s windows as of t=2000
	series := a.ThroughputRoad(2000, 1, 600)

	// THEN the drive series is [0,600)=3, [600,1200)=1, [1200,1800)=1
	want := []BucketCount{
		{Start: 0, Count: 3},
		{Start: 600, Count: 1},
		{Start: 1200, Count: 1},
	}
	if diff := cmp.Diff(want, series[ModeDrive]); diff != "" {
		t.Errorf("drive series mismatch (-want +got):\n%s", diff)
	}

	// Every mode shares the bucket boundaries, empty or not.
	for _, mode := range TripModes() {
		assert.Len(t, series[mode], 3, "mode %s", mode)
	}
	assert.Equal(t, 0, series[ModeWalk][0].Count)
}

func TestThroughputRoad_GapFree(t *testing.T) {
	// A long quiet stretch still yields the intermediate zero bucket, but no
	// trailing empties past the last record.
	a := NewAnalytics()
	a.Record(EnteredRoad{Mode: ModeBike, Road: 0}, 10)
	a.Record(EnteredRoad{Mode: ModeBike, Road: 0}, 1300)

	series := a.ThroughputRoad(5000, 0, 600)

	want := []BucketCount{
		{Start: 0, Count: 1},
		{Start: 600, Count: 0},
		{Start: 1200, Count: 1},
	}
	assert.Equal(t, want, series[ModeBike])
}

func TestThroughputRoad_NoData(t *testing.T) {
	a := NewAnalytics()

	series := a.ThroughputRoad(1000, 3, 600)

	for _, mode := range TripModes() {
		assert.Empty(t, series[mode])
	}
}

func TestThroughputRoad_MatchesCounter(t *testing.T) {
	// The incremental counter and a full-horizon bucket walk must agree.
	a := NewAnalytics()
	times := []Time{5, 9, 700, 710, 715, 2400}
	for _, ts := range times {
		a.Record(EnteredRoad{Mode: ModeDrive, Road: 4}, ts)
	}

	total := 0
	for _, b := range a.ThroughputRoad(2400, 4, 600)[ModeDrive] {
		total += b.Count
	}
	assert.Equal(t, len(times), total)
	assert.Equal(t, len(times), a.RoadThruput.Get(4))
}

func TestThroughputIntersection(t *testing.T) {
	a := NewAnalytics()
	a.Record(EnteredTurn{Mode: ModeWalk, Intersection: 2}, 30)
	a.Record(EnteredTurn{Mode: ModeDrive, Intersection: 2}, 30)
	a.Record(EnteredTurn{Mode: ModeDrive, Intersection: 3}, 40)

	series := a.ThroughputIntersection(100, 2, 60)

	assert.Equal(t, []BucketCount{{Start: 0, Count: 1}}, series[ModeWalk])
	assert.Equal(t, []BucketCount{{Start: 0, Count: 1}}, series[ModeDrive])
	assert.Equal(t, 2, a.IntersectionThruput.Get(2))
	assert.Equal(t, 1, a.IntersectionThruput.Get(3))
}

func TestIntersectionDelaysBucketized(t *testing.T) {
	a := NewAnalytics()
	a.Record(IntersectionDelay{Intersection: 1, Delay: 10}, 0)
	a.Record(IntersectionDelay{Intersection: 1, Delay: 20}, 100)
	a.Record(IntersectionDelay{Intersection: 1, Delay: 30}, 650)
	a.Record(IntersectionDelay{Intersection: 9, Delay: 99}, 700)

	buckets := a.IntersectionDelaysBucketized(2000, 1, 600)

	if assert.Len(t, buckets, 2) {
		assert.Equal(t, Time(0), buckets[0].Start)
		assert.Equal(t, 2, buckets[0].Delays.Count())
		assert.Equal(t, Time(600), buckets[1].Start)
		max, _ := buckets[1].Delays.Max()
		assert.Equal(t, Duration(30), max)
	}

	assert.Empty(t, a.IntersectionDelaysBucketized(2000, 5, 600))
}

func TestIntersectionDelays_ClosedRange(t *testing.T) {
	a := NewAnalytics()
	a.Record(IntersectionDelay{Intersection: 1, Delay: 10}, 50)
	a.Record(IntersectionDelay{Intersection: 1, Delay: 20}, 100)
	a.Record(IntersectionDelay{Intersection: 1, Delay: 30}, 200)

	// [100, 200] includes both endpoints.
	d := a.IntersectionDelays(1, 100, 200)
	assert.Equal(t, 2, d.Count())

	assert.Equal(t, 0, a.IntersectionDelays(1, 300, 400).Count())
}

func phaseStart(a *Analytics, trip TripID, kind PhaseKind, req *PathRequest, desc string, now Time) {
	a.Record(TripPhaseStarted{Trip: trip, Kind: kind, Req: req, Description: desc}, now)
}

func TestTripPhases_PairsConsecutiveEntries(t *testing.T) {
	a := NewAnalytics()
	req := &PathRequest{
		Start: Position{Lane: testDriving, Dist: 5},
		End:   Position{Lane: testDriving, Dist: 35},
	}
	phaseStart(a, 7, PhaseWalking, nil, "walking to car", 100)
	phaseStart(a, 7, PhaseDriving, req, "driving to work", 160)
	a.Record(TripFinished{Trip: 7, Mode: ModeDrive, Total: 300}, 400)

	phases := a.TripPhases(7, testRouter{})

	if assert.Len(t, phases, 2) {
		assert.Equal(t, Time(100), phases[0].Start)
		assert.Equal(t, Time(160), phases[0].End)
		assert.True(t, phases[0].Ended)
		assert.Equal(t, PhaseWalking, phases[0].Kind)
		assert.Nil(t, phases[0].Path)

		assert.Equal(t, Time(400), phases[1].End)
		assert.True(t, phases[1].Ended)
		if assert.NotNil(t, phases[1].Path) {
			assert.Equal(t, 5.0, phases[1].Path.StartDist)
			assert.Equal(t, []LaneID{testDriving, testDriving}, phases[1].Path.Path.Steps)
		}
	}
}

func TestTripPhases_InProgressTrip(t *testing.T) {
	a := NewAnalytics()
	phaseStart(a, 3, PhaseWalking, nil, "walking", 50)

	phases := a.TripPhases(3, noRouter{})

	if assert.Len(t, phases, 1) {
		assert.False(t, phases[0].Ended)
	}
}

func TestTripPhases_UnroutablePathIsNil(t *testing.T) {
	a := NewAnalytics()
	req := &PathRequest{Start: Position{Lane: 0}, End: Position{Lane: 99}}
	phaseStart(a, 3, PhaseDriving, req, "driving", 50)

	phases := a.TripPhases(3, noRouter{})

	if assert.Len(t, phases, 1) {
		assert.Nil(t, phases[0].Path)
	}
}

func TestTripPhases_IgnoresOtherTrips(t *testing.T) {
	a := NewAnalytics()
	phaseStart(a, 1, PhaseWalking, nil, "walking", 10)
	phaseStart(a, 2, PhaseDriving, nil, "driving", 20)
	a.Record(TripAborted{Trip: 1}, 30)

	assert.Len(t, a.TripPhases(2, noRouter{}), 1)
	assert.Empty(t, a.TripPhases(42, noRouter{}))

	// The abort closes trip 1's last phase and ends the timeline.
	phases := a.TripPhases(1, noRouter{})
	if assert.Len(t, phases, 1) {
		assert.Equal(t, Time(30), phases[0].End)
		assert.True(t, phases[0].Ended)
	}
}

func TestParkingOverhead_HalfOverheadTrip(t *testing.T) {
	// GIVEN a finished trip: walk 0-100, drive 100-400, park 400-500,
	// walk 500-600
	a := NewAnalytics()
	phaseStart(a, 1, PhaseWalking, nil, "walking to car", 0)
	phaseStart(a, 1, PhaseDriving, nil, "driving", 100)
	phaseStart(a, 1, PhaseParking, nil, "parking", 400)
	phaseStart(a, 1, PhaseWalking, nil, "walking to destination", 500)
	a.Record(TripFinished{Trip: 1, Mode: ModeDrive, Total: 600}, 600)

	// WHEN the overhead distribution is built
	d := a.ParkingOverhead()

	// THEN 300s overhead against 300s driving is exactly 50%
	if assert.Equal(t, 1, d.Count()) {
		mean, _ := d.Mean()
		assert.Equal(t, 0.5, mean)
		assert.Equal(t, 50, TruncPct(mean))
	}
}

func TestParkingOverhead_SkipsNonQualifyingTrips(t *testing.T) {
	a := NewAnalytics()

	// Trip 1: pure walk, no driving baseline.
	phaseStart(a, 1, PhaseWalking, nil, "walking", 0)
	a.Record(TripFinished{Trip: 1, Mode: ModeWalk, Total: 100}, 100)

	// Trip 2: still in progress, last phase unended.
	phaseStart(a, 2, PhaseWalking, nil, "walking to car", 150)
	phaseStart(a, 2, PhaseDriving, nil, "driving", 200)

	// Trip 3: aborted, dropped entirely.
	phaseStart(a, 3, PhaseWalking, nil, "walking to car", 250)
	phaseStart(a, 3, PhaseDriving, nil, "driving", 300)
	a.Record(TripAborted{Trip: 3}, 350)

	// Trip 4: bus waits count as neither overhead nor baseline.
	phaseStart(a, 4, PhaseWaitingBus, nil, "waiting for bus", 400)
	phaseStart(a, 4, PhaseDriving, nil, "riding", 500)
	a.Record(TripFinished{Trip: 4, Mode: ModeTransit, Total: 300}, 700)

	assert.Equal(t, 0, a.ParkingOverhead().Count())
	assert.Equal(t, "no data yet", a.ParkingOverheadReport()[2])
}

func busArrival(a *Analytics, num int, stop BusStopID, now Time) {
	a.Record(BusArrived{
		Bus:   CarID{Num: num, Kind: KindBus},
		Route: 7,
		Stop:  stop,
	}, now)
}

func TestBusHeadways_PerBusConsecutiveWindows(t *testing.T) {
	// GIVEN bus 1 looping A, B, A, B and bus 2 seen only once
	const stopA, stopB BusStopID = 1, 2
	a := NewAnalytics()
	busArrival(a, 1, stopA, 0)
	busArrival(a, 1, stopB, 100)
	busArrival(a, 2, stopA, 250)
	busArrival(a, 1, stopA, 300)
	busArrival(a, 1, stopB, 420)

	// WHEN headways are grouped per stop
	headways := a.BusHeadways(2000, 7)

	// THEN each delta lands on the stop of the later arrival: B gets
	// {100, 120}, A gets {200}, and bus 2 contributes nothing
	if assert.Len(t, headways, 2) {
		assert.Equal(t, 2, headways[stopB].Count())
		max, _ := headways[stopB].Max()
		assert.Equal(t, Duration(120), max)

		assert.Equal(t, 1, headways[stopA].Count())
		median, _ := headways[stopA].Median()
		assert.Equal(t, Duration(200), median)
	}
}

func TestBusHeadwaysOverTime(t *testing.T) {
	const stopA, stopB BusStopID = 1, 2
	a := NewAnalytics()
	busArrival(a, 1, stopA, 0)
	busArrival(a, 1, stopB, 100)
	busArrival(a, 1, stopA, 300)

	over := a.BusHeadwaysOverTime(2000, 7)

	assert.Equal(t, []DelayRecord{{T: 100, Delay: 100}}, over[stopB])
	assert.Equal(t, []DelayRecord{{T: 300, Delay: 200}}, over[stopA])
}

func TestBusHeadways_RespectsNowAndRoute(t *testing.T) {
	a := NewAnalytics()
	busArrival(a, 1, 1, 0)
	a.Record(BusArrived{Bus: CarID{Num: 1, Kind: KindBus}, Route: 8, Stop: 1}, 50)
	busArrival(a, 1, 1, 500)

	// The second route-7 arrival is after now, so no window closes.
	assert.Empty(t, a.BusHeadways(400, 7))
	assert.Empty(t, a.BusHeadways(2000, 8))
}

func TestFinishedTrips(t *testing.T) {
	a := NewAnalytics()
	a.Record(TripFinished{Trip: 1, Mode: ModeDrive, Total: 100}, 100)
	a.Record(TripFinished{Trip: 2, Mode: ModeWalk, Total: 250}, 250)
	a.Record(TripAborted{Trip: 3}, 300)
	a.Record(TripFinished{Trip: 4, Mode: ModeDrive, Total: 400}, 900)

	// Per-mode, as of t=500: only trip 1 is a finished drive.
	drives := a.FinishedTrips(500, ModeDrive)
	assert.Equal(t, 1, drives.Count())

	all, aborted, perMode := a.AllFinishedTrips(1000)
	assert.Equal(t, 3, all.Count())
	assert.Equal(t, 1, aborted)
	assert.Equal(t, 2, perMode[ModeDrive].Count())
	assert.Equal(t, 1, perMode[ModeWalk].Count())
	assert.Equal(t, 0, perMode[ModeTransit].Count())
}

func TestPassengerBoarded_Counter(t *testing.T) {
	a := NewAnalytics()
	a.Record(PassengerBoarded{Route: 7}, 10)
	a.Record(PassengerBoarded{Route: 7}, 20)
	a.Record(PassengerBoarded{Route: 8}, 30)

	assert.Equal(t, 2, a.BusPassengers.Get(7))
	assert.Equal(t, 1, a.BusPassengers.Get(8))
	assert.Equal(t, 3, a.BusPassengers.Total())
}
