// GridMap is a synthetic map: N parallel roads, each with a driving lane, a
// parking lane and a sidewalk, joined by intersections between consecutive
// roads. It implements the core's SpatialIndex and Router interfaces, which
// is all the bookkeeping core ever sees of a map.

package scenario

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/streetsim/streetsim/sim"
)

const simSpotLength = sim.SpotLength

// roadSpacing is the distance between parallel roads, meters.
const roadSpacing = 50.0

// lanesPerRoad: driving, parking, sidewalk.
const lanesPerRoad = 3

// GridMap lays out road r with lanes 3r (driving), 3r+1 (parking) and
// 3r+2 (sidewalk). Intersection i joins roads i and i+1.
type GridMap struct {
	roads      int
	laneLength float64
}

// NewGridMap builds a grid of the given number of roads and lane length.
func NewGridMap(roads int, laneLength float64) *GridMap {
	return &GridMap{roads: roads, laneLength: laneLength}
}

// DrivingLane returns the driving lane of a road.
func (g *GridMap) DrivingLane(r sim.RoadID) sim.LaneID {
	return sim.LaneID(int(r) * lanesPerRoad)
}

// ParkingLane returns the parking lane of a road.
func (g *GridMap) ParkingLane(r sim.RoadID) sim.LaneID {
	return sim.LaneID(int(r)*lanesPerRoad + 1)
}

// Sidewalk returns the sidewalk of a road.
func (g *GridMap) Sidewalk(r sim.RoadID) sim.LaneID {
	return sim.LaneID(int(r)*lanesPerRoad + 2)
}

// RoadOfLane returns the parent road of a lane.
func (g *GridMap) RoadOfLane(l sim.LaneID) sim.RoadID {
	return sim.RoadID(int(l) / lanesPerRoad)
}

// Intersection returns the intersection crossed when moving between two
// adjacent roads.
func (g *GridMap) Intersection(from, to sim.RoadID) sim.IntersectionID {
	if to < from {
		from, to = to, from
	}
	return sim.IntersectionID(from)
}

// Roads returns how many roads the grid has.
func (g *GridMap) Roads() int {
	return g.roads
}

// Lanes lists every lane, road by road.
func (g *GridMap) Lanes() []sim.LaneID {
	lanes := make([]sim.LaneID, 0, g.roads*lanesPerRoad)
	for i := 0; i < g.roads*lanesPerRoad; i++ {
		lanes = append(lanes, sim.LaneID(i))
	}
	return lanes
}

// LaneLength returns the (uniform) lane length.
func (g *GridMap) LaneLength(l sim.LaneID) float64 {
	return g.laneLength
}

// LaneKind classifies a lane by its offset within the road.
func (g *GridMap) LaneKind(l sim.LaneID) sim.LaneKind {
	switch int(l) % lanesPerRoad {
	case 0:
		return sim.LaneDriving
	case 1:
		return sim.LaneParking
	default:
		return sim.LaneSidewalk
	}
}

// DistAlong places a distance along a lane in the plane. Roads run east to
// west, stacked north to south; every lane of a road shares its centerline.
func (g *GridMap) DistAlong(l sim.LaneID, dist float64) (orb.Point, float64) {
	y := float64(g.RoadOfLane(l)) * roadSpacing
	return orb.Point{dist, y}, 0
}

// EquivPos maps a position to the equivalent position on a sibling lane,
// clamped to the target lane's length.
func (g *GridMap) EquivPos(pos sim.Position, target sim.LaneID) sim.Position {
	dist := math.Min(math.Max(pos.Dist, 0), g.LaneLength(target))
	return sim.Position{Lane: target, Dist: dist}
}

// Pathfind walks driving lanes road by road from the start to the end
// position. It fails only when a position is off the grid.
func (g *GridMap) Pathfind(req sim.PathRequest) (sim.Path, bool) {
	from := g.RoadOfLane(req.Start.Lane)
	to := g.RoadOfLane(req.End.Lane)
	if int(from) >= g.roads || int(to) >= g.roads || from < 0 || to < 0 {
		return sim.Path{}, false
	}
	step := sim.RoadID(1)
	if to < from {
		step = -1
	}
	var steps []sim.LaneID
	for r := from; ; r += step {
		steps = append(steps, g.DrivingLane(r))
		if r == to {
			break
		}
	}
	return sim.Path{Steps: steps}, true
}
