// Package types provides shared type definitions for the fleet dispatcher.
//
// # Overview
//
// This package contains the core domain model used across the dispatcher:
// Behaviours, Tasks, Robots and POIs, plus the source-graph and
// planning-graph value objects that the graph-conversion, supervisor-graph
// and planning packages build and consume. It is the one package every
// other package in this module depends on, so it has no dependency on any
// of them.
//
// # Key Components
//
// Domain model: Behaviour, Task, Robot, POI — value objects with eager
// validation at construction.
//
// Source graph: the compact operational graph received from the
// supervisor's backend (nodes with semantic roles, edges with direction
// and width class).
//
// Planning graph: the expanded graph of single-robot-action edges that
// routing operates over.
//
// External collaborator contracts: GraphSource, FleetSource, TaskSource —
// interfaces only, no implementation. Those backends (HTTP API clients,
// the MQTT robot bridge, the persistent task database) are out of scope
// for this module.
//
// # Design Principles
//
//   - Minimal dependencies: this package imports nothing from the rest of
//     the dispatcher.
//   - Eager validation: invalid input fails at construction time, not
//     somewhere downstream mid-tick.
//   - Immutability: a tick's Robot and Task snapshots are rebuilt fresh
//     each call; nothing here survives across ticks.
//
// # Thread Safety
//
// These types are plain value objects and are not safe for concurrent
// mutation. The dispatcher is single-threaded per tick; a caller that
// wants concurrent ticks must deep-copy or serialize access.
package types
