// Package dispatcher implements the four-phase tick orchestration loop:
// the single entry point that, given a
// planning graph, a fleet snapshot and a task backlog, produces one tick's
// plan. It owns no state across ticks; every call rebuilds the routing
// scratch (pkg/planning.Router occupancy), the robots plan manager and the
// tasks manager from the snapshots it is handed.
package dispatcher
