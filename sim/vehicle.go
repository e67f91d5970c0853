package sim

import "github.com/paulmach/orb"

// SpotLength is the length of one parking spot in meters.
const SpotLength = 8.0

// Vehicle is the identity and footprint of a vehicle, owned by the wider
// simulation and passed in by value.
type Vehicle struct {
	ID     CarID
	Length float64 // meters; must be <= SpotLength to fit a spot
}

// ParkingSpot addresses one fixed parking location by (lane, index).
type ParkingSpot struct {
	Lane LaneID `json:"lane"`
	Idx  int    `json:"idx"`
}

// ParkedCar associates a vehicle with the spot holding it. Created on a
// successful Commit, destroyed by Release.
type ParkedCar struct {
	Vehicle Vehicle
	Spot    ParkingSpot
}

// DrawRecord is a renderable snapshot of one parked car: enough for a
// renderer to place the body, irrelevant to simulation correctness.
type DrawRecord struct {
	ID        CarID     `json:"id"`
	Lane      LaneID    `json:"lane"`
	FrontDist float64   `json:"front_dist"` // front of the car along the lane
	Length    float64   `json:"length"`
	Pos       orb.Point `json:"pos"`   // center of the spot
	Angle     float64   `json:"angle"` // radians
}
