// Package sim provides the bookkeeping core of the streetsim traffic simulator.
//
// # Reading Guide
//
// Start with these three files to understand the core:
//   - parking.go: per-lane stall geometry, occupancy, and the reserve/commit/release protocol
//   - event.go: the typed facts agents emit as the simulation advances
//   - analytics.go: the append-only event log and the read-models derived from it
//
// # Architecture
//
// Two subsystems cooperate. The ParkingState allocator owns lane/spot/occupant
// and reservation state, and arbitrates which vehicle may claim an opening
// stall. The Analytics aggregator owns the event log plus incrementally-updated
// counters, and builds time-bucketed series, distributions, trip timelines and
// bus headways lazily at query time.
//
// Map geometry and route planning are external collaborators, consumed through
// the SpatialIndex and Router interfaces in world.go. The simulation loop
// itself lives outside this package (see sim/scenario for a concrete driver);
// both subsystems are stepped synchronously from a single writer, and all
// temporal meaning comes from the explicit simulated Time passed into every
// call, never wall clock.
//
// Invariant violations in the reserve/commit choreography (double reservation,
// commit without a matching reservation, occupancy mismatch) are caller bugs
// and panic. Queries on absent data return empty results.
package sim
