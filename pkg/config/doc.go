// Package config provides configuration management for the fleet
// dispatcher.
//
// # Overview
//
// The config package centralizes the dispatcher's tunables: robot
// geometry, fixed behaviour costs, and the Phase-4 wall-clock/fuel budget.
//
// # Configuration Structure
//
//   - Robot geometry: length and nominal velocity, used to derive GO_TO
//     edge weights and capacities.
//   - Behaviour costs: fixed time cost of DOCK, UNDOCK, WAIT and
//     intersection-internal GO_TO edges.
//   - Planning budget: the Phase-4 wall-clock timeout and/or deterministic
//     iteration fuel.
//   - Priority weighting: an optional expr-lang expression overriding the
//     default priority-weight formula.
//
// # Basic Usage
//
//	cfg := config.Default()
//	d := dispatcher.New(cfg)
//
// # Thread Safety
//
// Configuration objects are safe for concurrent read access once built;
// nothing in this package mutates a Config after construction.
package config
