// Defines the opaque value-type identifiers shared by both subsystems, the
// simulated clock, and the travel modes agents report events under.

package sim

import "fmt"

// LaneID identifies one lane of a road.
type LaneID int

// RoadID identifies a road; every lane has a parent road.
type RoadID int

// IntersectionID identifies an intersection between roads.
type IntersectionID int

// BusRouteID identifies a bus route.
type BusRouteID int

// BusStopID identifies a physical bus stop.
type BusStopID int

// TripID identifies one agent trip from origin to destination.
type TripID int

// VehicleKind distinguishes the kinds of vehicles a CarID can refer to.
type VehicleKind string

const (
	KindCar  VehicleKind = "car"
	KindBike VehicleKind = "bike"
	KindBus  VehicleKind = "bus"
)

// CarID identifies a physical vehicle instance. Compared only by
// equality/ordering; the simulation engine owns the actual vehicles.
type CarID struct {
	Num  int         `json:"num"`
	Kind VehicleKind `json:"kind"`
}

func (c CarID) String() string {
	return fmt.Sprintf("%s#%d", c.Kind, c.Num)
}

// Less orders CarIDs deterministically (kind, then number). Used wherever
// per-vehicle map contents must be walked in a stable order.
func (c CarID) Less(other CarID) bool {
	if c.Kind != other.Kind {
		return c.Kind < other.Kind
	}
	return c.Num < other.Num
}

// TripMode is the travel mode an agent reports events under.
type TripMode string

const (
	ModeWalk    TripMode = "walk"
	ModeBike    TripMode = "bike"
	ModeDrive   TripMode = "drive"
	ModeTransit TripMode = "transit"
)

// TripModes returns all modes in a fixed order. Bucketed throughput series
// report one series per mode, keyed in this order.
func TripModes() []TripMode {
	return []TripMode{ModeWalk, ModeBike, ModeDrive, ModeTransit}
}

// Time is a simulated timestamp in whole seconds since the start of the
// simulated day. Wall-clock time never enters the core.
type Time int64

// StartOfDay is the origin of simulated time.
const StartOfDay Time = 0

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t/3600, (t/60)%60, t%60)
}

// Duration is a span of simulated time in whole seconds.
type Duration int64

func (d Duration) String() string {
	return fmt.Sprintf("%ds", int64(d))
}

// Position is a distance along a specific lane, in meters from the lane start.
type Position struct {
	Lane LaneID  `json:"lane"`
	Dist float64 `json:"dist"`
}
