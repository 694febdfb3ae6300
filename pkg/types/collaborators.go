package types

import "context"

// The interfaces below describe, but do not implement, the external
// collaborators this module consumes: the HTTP/API clients
// that fetch graphs, robots, stands and tasks from backend services, and
// the MQTT bridge to robot telemetry. This module consumes them; it does
// not provide a concrete backend-fetching implementation.

// GraphSource supplies the current source graph. Implementations typically
// poll a supervisor backend over HTTP, or watch a configuration file.
type GraphSource interface {
	FetchGraph(ctx context.Context) (SourceGraph, error)
}

// FleetSource supplies the live fleet snapshot for the current tick.
type FleetSource interface {
	FetchFleet(ctx context.Context) (map[string]Robot, error)
}

// TaskSource supplies the current prioritized task backlog.
type TaskSource interface {
	FetchTasks(ctx context.Context) ([]Task, error)
}

// RobotTelemetry reports robot position/state changes, typically bridged
// from the fleet's MQTT broker. The dispatcher does not subscribe to this
// directly; a caller's ingestion loop uses it to refresh the FleetSource
// snapshot between ticks.
type RobotTelemetry interface {
	Subscribe(ctx context.Context, robotID string) (<-chan Robot, error)
}
