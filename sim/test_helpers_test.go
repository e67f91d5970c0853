package sim

import (
	"math"

	"github.com/paulmach/orb"
)

// testIndex is a minimal SpatialIndex: three lanes of one road — driving,
// parking, sidewalk — all sharing a centerline. The parking lane is 40m,
// which yields exactly 3 spots (front distances 16, 24, 32).
type testIndex struct{}

const (
	testDriving  LaneID = 0
	testParking  LaneID = 1
	testSidewalk LaneID = 2

	testLaneLength = 40.0
)

func (testIndex) Lanes() []LaneID {
	return []LaneID{testDriving, testParking, testSidewalk}
}

func (testIndex) LaneLength(l LaneID) float64 {
	return testLaneLength
}

func (testIndex) LaneKind(l LaneID) LaneKind {
	switch l {
	case testDriving:
		return LaneDriving
	case testParking:
		return LaneParking
	default:
		return LaneSidewalk
	}
}

func (testIndex) DistAlong(l LaneID, dist float64) (orb.Point, float64) {
	return orb.Point{dist, 0}, 0
}

func (testIndex) EquivPos(pos Position, target LaneID) Position {
	dist := math.Min(math.Max(pos.Dist, 0), testLaneLength)
	return Position{Lane: target, Dist: dist}
}

// testRouter resolves every request to a fixed two-lane path.
type testRouter struct{}

func (testRouter) Pathfind(req PathRequest) (Path, bool) {
	return Path{Steps: []LaneID{req.Start.Lane, req.End.Lane}}, true
}

// noRouter never finds a path.
type noRouter struct{}

func (noRouter) Pathfind(req PathRequest) (Path, bool) {
	return Path{}, false
}

func testVehicle(num int) Vehicle {
	return Vehicle{ID: CarID{Num: num, Kind: KindCar}, Length: 4.0}
}
