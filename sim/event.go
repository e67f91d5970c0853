// Typed simulation facts. Events are immutable values emitted by agent logic
// as the simulation advances and fed to Analytics.Record along with the
// simulated time they happened at.

package sim

// Event is the marker for all simulation facts the aggregator understands.
type Event interface{ isEvent() }

// EnteredRoad records an agent crossing onto a road segment.
type EnteredRoad struct {
	Mode TripMode
	Road RoadID
}

func (EnteredRoad) isEvent() {}

// EnteredTurn records an agent starting a turn through an intersection.
type EnteredTurn struct {
	Mode         TripMode
	Intersection IntersectionID
}

func (EnteredTurn) isEvent() {}

// BusArrived records a physical bus instance arriving at a stop on a route.
type BusArrived struct {
	Bus   CarID
	Route BusRouteID
	Stop  BusStopID
}

func (BusArrived) isEvent() {}

// PassengerBoarded records one passenger boarding a bus on a route.
type PassengerBoarded struct {
	Route BusRouteID
}

func (PassengerBoarded) isEvent() {}

// TripFinished records a trip completing, with its mode and total duration.
type TripFinished struct {
	Trip  TripID
	Mode  TripMode
	Total Duration
}

func (TripFinished) isEvent() {}

// TripAborted records a trip ending without reaching its destination.
type TripAborted struct {
	Trip TripID
}

func (TripAborted) isEvent() {}

// IntersectionDelay records a measured delay waiting at an intersection.
type IntersectionDelay struct {
	Intersection IntersectionID
	Delay        Duration
}

func (IntersectionDelay) isEvent() {}

// PhaseKind classifies a trip phase for analysis. The parking-overhead
// report counts walking and parking phases as overhead, driving as payload,
// and ignores waiting for a bus.
type PhaseKind string

const (
	PhaseDriving    PhaseKind = "driving"
	PhaseWalking    PhaseKind = "walking"
	PhaseParking    PhaseKind = "parking"
	PhaseWaitingBus PhaseKind = "waiting for bus"
)

// TripPhaseStarted records a new phase of a trip beginning. Req, when
// present, is the routing request the phase follows; it is resolved against
// the external router lazily, only when the trip is inspected.
type TripPhaseStarted struct {
	Trip        TripID
	Kind        PhaseKind
	Req         *PathRequest
	Description string
}

func (TripPhaseStarted) isEvent() {}
