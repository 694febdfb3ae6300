// Package observer provides an event-driven observer pattern for dispatch
// tick monitoring.
//
// # Overview
//
// The observer package implements the observer pattern to enable monitoring,
// logging, and reacting to dispatch events. Observers can track tick
// lifecycle, phase progress, and robot assignment outcomes without coupling
// to the dispatcher implementation.
//
// # Features
//
//   - Event-driven: react to tick, phase and robot events
//   - Multiple observers: register any number simultaneously
//   - Async fan-out: each observer runs in its own goroutine, panics
//     recovered so one misbehaving observer never affects another
//
// # Observer Interface
//
//	type Observer interface {
//	    OnEvent(ctx context.Context, event Event)
//	}
//
// # Event Types
//
// EventTickStart / EventTickEnd:
//   - Emitted at the start and end of a dispatch tick
//
// EventPhaseStart / EventPhaseEnd:
//   - Emitted around each of the four assignment phases
//
// EventRobotAssigned / EventRobotSkipped:
//   - Emitted per-robot as the dispatcher decides its plan for the tick
//
// EventPoiCapacityRejected:
//   - Emitted when a robot's candidate edge is rejected because the
//     destination POI group is at capacity
//
// # Basic Usage
//
//	mgr := observer.NewManager()
//	mgr.Register(observer.NewConsoleObserver())
//	mgr.Notify(ctx, observer.Event{Type: observer.EventTickStart, TickID: tickID})
//
// # Thread Safety
//
// Manager.Notify dispatches to observers concurrently; Observer
// implementations must be safe for concurrent use.
package observer
