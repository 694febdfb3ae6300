package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/PawSmy/Supervisor/pkg/observer"
)

func TestNewProvider_MetricsEnabled(t *testing.T) {
	cfg := DefaultConfig()
	provider, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(context.Background())

	if provider.Meter() == nil {
		t.Error("Meter() = nil, want a meter when metrics are enabled")
	}
	if provider.Tracer() == nil {
		t.Error("Tracer() = nil, want a tracer when tracing is enabled")
	}
	if provider.MetricsHandler() == nil {
		t.Error("MetricsHandler() = nil, want the Prometheus scrape handler")
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableMetrics = false
	cfg.EnableTracing = false
	provider, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(context.Background())

	// Recording against a metrics-disabled provider must be a no-op, not
	// a panic.
	provider.RecordTick(context.Background(), "tick-1", time.Millisecond, true, 3)
	provider.RecordPhase(context.Background(), "phase4_remaining", time.Millisecond, 1)
	provider.RecordPoiCapacityRejection(context.Background(), "p1", "agv-1")
}

func TestTelemetryObserver_TickLifecycle(t *testing.T) {
	provider, err := NewProvider(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(context.Background())

	obs := NewTelemetryObserver(provider)
	ctx := context.Background()
	now := time.Now()

	obs.OnEvent(ctx, observer.Event{Type: observer.EventTickStart, Status: observer.StatusStarted, TickID: "tick-1", Timestamp: now})
	obs.OnEvent(ctx, observer.Event{Type: observer.EventPhaseStart, Status: observer.StatusStarted, TickID: "tick-1", Phase: "phase1_continue_in_place", Timestamp: now})
	obs.OnEvent(ctx, observer.Event{Type: observer.EventRobotAssigned, Status: observer.StatusSuccess, TickID: "tick-1", RobotID: "agv-1", Phase: "phase1_continue_in_place"})
	obs.OnEvent(ctx, observer.Event{Type: observer.EventPhaseEnd, Status: observer.StatusCompleted, TickID: "tick-1", Phase: "phase1_continue_in_place", Timestamp: time.Now()})
	obs.OnEvent(ctx, observer.Event{Type: observer.EventTickEnd, Status: observer.StatusSuccess, TickID: "tick-1", Timestamp: time.Now()})

	if len(obs.phaseSpans) != 0 {
		t.Errorf("phaseSpans not drained after phase end: %d left", len(obs.phaseSpans))
	}
	if len(obs.phaseStartTimes) != 0 {
		t.Errorf("phaseStartTimes not drained after phase end: %d left", len(obs.phaseStartTimes))
	}
}
