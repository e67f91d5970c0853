// External collaborator interfaces. The core consumes map geometry as a
// read-only spatial index and route planning as an opaque path-finding
// function; concrete implementations live outside this package
// (sim/scenario provides a synthetic grid for the CLI and tests).

package sim

import "github.com/paulmach/orb"

// LaneKind classifies what a lane is for. Only parking lanes hold spots.
type LaneKind string

const (
	LaneDriving  LaneKind = "driving"
	LaneParking  LaneKind = "parking"
	LaneSidewalk LaneKind = "sidewalk"
)

// SpatialIndex is the read-only view of map geometry the core depends on.
// Implementations must be deterministic: same inputs, same outputs.
type SpatialIndex interface {
	// Lanes lists every lane in the map, in a stable order.
	Lanes() []LaneID
	// LaneLength returns the length of a lane in meters.
	LaneLength(l LaneID) float64
	// LaneKind returns what the lane is used for.
	LaneKind(l LaneID) LaneKind
	// DistAlong projects a distance along a lane to a point and an
	// orientation in radians.
	DistAlong(l LaneID, dist float64) (orb.Point, float64)
	// EquivPos maps a position on one lane to the equivalent position on a
	// sibling lane of the same road.
	EquivPos(pos Position, target LaneID) Position
}

// PathRequest asks the router for a path between two positions.
type PathRequest struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Path is an opaque route produced by the external router. The core never
// inspects the steps; it only carries them through to presentation.
type Path struct {
	Steps []LaneID `json:"steps"`
}

// TracedPath pairs a path with the distance along its first lane where the
// trace starts, enough for a renderer to draw it.
type TracedPath struct {
	StartDist float64 `json:"start_dist"`
	Path      Path    `json:"path"`
}

// Router is the external path-finding function. Pathfind reports false when
// no path exists between the requested positions.
type Router interface {
	Pathfind(req PathRequest) (Path, bool)
}
