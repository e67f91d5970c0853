// The parking allocator. Owns per-lane stall geometry and occupancy, and the
// reserve/commit/release protocol that lets agents claim a stall before
// physically arriving at it.
//
// Per-slot state machine: Free -> Reserved -> Occupied -> Free. A reservation
// abandoned without Commit simply goes back to Free; a slot never moves from
// Occupied to Reserved without passing through Free. Violations of the
// choreography are caller bugs and panic.

package sim

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

// spotGeometry is the immutable position of one spot along its lane,
// generated once from lane length at construction. The distances refer to
// the front of the spot (farthest along the lane).
type spotGeometry struct {
	frontDist float64
	pos       orb.Point
	angle     float64
}

// distForVehicle centers this particular vehicle in the spot and returns the
// distance along the lane of the vehicle's front.
func (g spotGeometry) distForVehicle(v Vehicle) float64 {
	return g.frontDist - (SpotLength-v.Length)/2
}

// distForPed is the center of the entire spot, where a pedestrian stands.
func (g spotGeometry) distForPed() float64 {
	return g.frontDist - SpotLength/2
}

// slot is one stall: geometry plus occupant in a single record, addressed by
// its index in the lane. Keeping them together means the two can never drift
// out of sync.
type slot struct {
	geom     spotGeometry
	occupant *CarID // nil when the slot is not occupied
}

// parkingLane holds the ordered slots of one lane. Lanes that are not
// parking lanes just have zero slots.
type parkingLane struct {
	id    LaneID
	slots []slot
}

func newParkingLane(id LaneID, index SpatialIndex) parkingLane {
	if index.LaneKind(id) != LaneParking {
		return parkingLane{id: id}
	}
	n := numSpots(index.LaneLength(id))
	slots := make([]slot, 0, n)
	for idx := 0; idx < n; idx++ {
		// The first two spot lengths of the lane are kept clear of stalls.
		frontDist := SpotLength * (2.0 + float64(idx))
		pos, angle := index.DistAlong(id, frontDist-SpotLength/2)
		slots = append(slots, slot{geom: spotGeometry{
			frontDist: frontDist,
			pos:       pos,
			angle:     angle,
		}})
	}
	return parkingLane{id: id, slots: slots}
}

// numSpots is how many stalls fit on a parking lane of the given length,
// leaving the first two spot lengths clear.
func numSpots(laneLength float64) int {
	n := int(laneLength/SpotLength) - 2
	if n < 0 {
		return 0
	}
	return n
}

// ParkingState tracks which physical parking stall on every lane is occupied
// and which stalls carry a pending reservation. It is owned exclusively by
// the simulation engine and mutated only from the single stepping context.
type ParkingState struct {
	lanes    map[LaneID]*parkingLane
	cars     map[CarID]ParkedCar
	reserved map[ParkingSpot]struct{}
	index    SpatialIndex
}

// NewParkingState builds stall geometry for every lane in the map.
func NewParkingState(index SpatialIndex) *ParkingState {
	lanes := make(map[LaneID]*parkingLane)
	total := 0
	for _, id := range index.Lanes() {
		l := newParkingLane(id, index)
		lanes[id] = &l
		total += len(l.slots)
	}
	logrus.Debugf("parking: built %d lanes with %d total spots", len(lanes), total)
	return &ParkingState{
		lanes:    lanes,
		cars:     make(map[CarID]ParkedCar),
		reserved: make(map[ParkingSpot]struct{}),
		index:    index,
	}
}

func (p *ParkingState) lane(id LaneID) *parkingLane {
	l, ok := p.lanes[id]
	if !ok {
		panic(fmt.Sprintf("parking: unknown lane %d", id))
	}
	return l
}

// TotalSpots returns how many stalls a lane has.
func (p *ParkingState) TotalSpots(lane LaneID) int {
	return len(p.lane(lane).slots)
}

// FreeSpots returns every unoccupied spot of a lane, in lane order.
// Reservations do not affect the result; no side effects.
func (p *ParkingState) FreeSpots(lane LaneID) []ParkingSpot {
	l := p.lane(lane)
	var spots []ParkingSpot
	for idx := range l.slots {
		if l.slots[idx].occupant == nil {
			spots = append(spots, ParkingSpot{Lane: lane, Idx: idx})
		}
	}
	return spots
}

// IsFree reports whether a spot is neither occupied nor reserved.
func (p *ParkingState) IsFree(spot ParkingSpot) bool {
	_, taken := p.reserved[spot]
	return p.lane(spot.Lane).slots[spot.Idx].occupant == nil && !taken
}

// OccupantOf returns the vehicle committed to a spot, if any.
func (p *ParkingState) OccupantOf(spot ParkingSpot) (CarID, bool) {
	occ := p.lane(spot.Lane).slots[spot.Idx].occupant
	if occ == nil {
		return CarID{}, false
	}
	return *occ, true
}

// FirstFreeSpot scans the lane addressed by pos in index order and returns
// the first spot that is unoccupied, unreserved, and whose vehicle-specific
// front distance is at or beyond pos.Dist. Agents only ever park by moving
// forward, never by reversing past their current position. Returns false if
// no such spot exists.
func (p *ParkingState) FirstFreeSpot(pos Position, vehicle Vehicle) (ParkingSpot, bool) {
	l := p.lane(pos.Lane)
	for idx := range l.slots {
		spot := ParkingSpot{Lane: pos.Lane, Idx: idx}
		if _, taken := p.reserved[spot]; taken {
			continue
		}
		if l.slots[idx].occupant != nil {
			continue
		}
		if pos.Dist <= l.slots[idx].geom.distForVehicle(vehicle) {
			return spot, true
		}
	}
	return ParkingSpot{}, false
}

// Reserve records a pending claim on a spot. The spot must carry no existing
// reservation — a double reservation means two agents targeted the same spot
// without the caller serializing the decision — and must not be occupied: a
// slot never moves from Occupied to Reserved without passing through Free.
// Both violations panic.
func (p *ParkingState) Reserve(spot ParkingSpot) {
	if _, taken := p.reserved[spot]; taken {
		panic(fmt.Sprintf("parking: spot %v reserved twice without an intervening commit or abandon", spot))
	}
	if occ := p.lane(spot.Lane).slots[spot.Idx].occupant; occ != nil {
		panic(fmt.Sprintf("parking: reserve of %v but spot is occupied by %s", spot, *occ))
	}
	p.reserved[spot] = struct{}{}
}

// Commit consumes the matching reservation and marks the spot occupied.
// The spot must have been reserved and must be unoccupied.
func (p *ParkingState) Commit(pc ParkedCar) {
	if _, taken := p.reserved[pc.Spot]; !taken {
		panic(fmt.Sprintf("parking: commit of %s at %v without a matching reservation", pc.Vehicle.ID, pc.Spot))
	}
	delete(p.reserved, pc.Spot)
	s := &p.lane(pc.Spot.Lane).slots[pc.Spot.Idx]
	if s.occupant != nil {
		panic(fmt.Sprintf("parking: commit of %s at %v but spot is occupied by %s", pc.Vehicle.ID, pc.Spot, *s.occupant))
	}
	id := pc.Vehicle.ID
	s.occupant = &id
	p.cars[id] = pc
	logrus.Debugf("parking: %s committed at %v", id, pc.Spot)
}

// Release clears occupancy on departure. Reservations are untouched.
func (p *ParkingState) Release(pc ParkedCar) {
	delete(p.cars, pc.Vehicle.ID)
	l := p.lane(pc.Spot.Lane)
	for idx := range l.slots {
		if l.slots[idx].occupant != nil && *l.slots[idx].occupant == pc.Vehicle.ID {
			l.slots[idx].occupant = nil
			return
		}
	}
	panic(fmt.Sprintf("parking: release of %s but it is not parked on lane %d", pc.Vehicle.ID, pc.Spot.Lane))
}

// SpotToDrivingPos projects the vehicle-centered front of a spot onto the
// given driving lane. Deterministic; same inputs always yield the same
// output.
func (p *ParkingState) SpotToDrivingPos(spot ParkingSpot, vehicle Vehicle, drivingLane LaneID) Position {
	g := p.lane(spot.Lane).slots[spot.Idx].geom
	return p.index.EquivPos(Position{Lane: spot.Lane, Dist: g.distForVehicle(vehicle)}, drivingLane)
}

// SpotToSidewalkPos projects the center of a spot onto the given sidewalk.
func (p *ParkingState) SpotToSidewalkPos(spot ParkingSpot, sidewalk LaneID) Position {
	g := p.lane(spot.Lane).slots[spot.Idx].geom
	return p.index.EquivPos(Position{Lane: spot.Lane, Dist: g.distForPed()}, sidewalk)
}

// DrawRecords returns renderable snapshots for every car parked on a lane,
// in spot order.
func (p *ParkingState) DrawRecords(lane LaneID) []DrawRecord {
	l := p.lane(lane)
	var out []DrawRecord
	for idx := range l.slots {
		if l.slots[idx].occupant == nil {
			continue
		}
		out = append(out, p.drawRecord(p.cars[*l.slots[idx].occupant]))
	}
	return out
}

// AllDrawRecords returns snapshots for every parked car, ordered by vehicle
// ID so repeated calls are identical.
func (p *ParkingState) AllDrawRecords() []DrawRecord {
	out := make([]DrawRecord, 0, len(p.cars))
	for _, pc := range p.cars {
		out = append(out, p.drawRecord(pc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

func (p *ParkingState) drawRecord(pc ParkedCar) DrawRecord {
	g := p.lane(pc.Spot.Lane).slots[pc.Spot.Idx].geom
	return DrawRecord{
		ID:        pc.Vehicle.ID,
		Lane:      pc.Spot.Lane,
		FrontDist: g.distForVehicle(pc.Vehicle),
		Length:    pc.Vehicle.Length,
		Pos:       g.pos,
		Angle:     g.angle,
	}
}
