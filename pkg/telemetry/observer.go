package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/PawSmy/Supervisor/pkg/observer"
)

// TelemetryObserver implements observer.Observer and records telemetry data
// for dispatch tick events.
type TelemetryObserver struct {
	provider *Provider

	// Track active spans for the tick and its phases
	tickSpan   trace.Span
	phaseSpans map[string]trace.Span

	// Track execution times
	tickStartTime   time.Time
	phaseStartTimes map[string]time.Time

	robotsAssignedInPhase map[string]int
}

// NewTelemetryObserver creates a new telemetry observer
func NewTelemetryObserver(provider *Provider) *TelemetryObserver {
	return &TelemetryObserver{
		provider:              provider,
		phaseSpans:            make(map[string]trace.Span),
		phaseStartTimes:       make(map[string]time.Time),
		robotsAssignedInPhase: make(map[string]int),
	}
}

// OnEvent handles dispatch events and records telemetry data
func (o *TelemetryObserver) OnEvent(ctx context.Context, event observer.Event) {
	switch event.Type {
	case observer.EventTickStart:
		o.handleTickStart(ctx, event)
	case observer.EventTickEnd:
		o.handleTickEnd(ctx, event)
	case observer.EventPhaseStart:
		o.handlePhaseStart(ctx, event)
	case observer.EventPhaseEnd:
		o.handlePhaseEnd(ctx, event)
	case observer.EventRobotAssigned:
		o.robotsAssignedInPhase[event.Phase]++
	case observer.EventPoiCapacityRejected:
		poiID, _ := event.Metadata["poi_id"].(string)
		o.provider.RecordPoiCapacityRejection(ctx, poiID, event.RobotID)
	}
}

func (o *TelemetryObserver) handleTickStart(ctx context.Context, event observer.Event) {
	_, span := o.provider.Tracer().Start(ctx, "dispatch.tick",
		trace.WithAttributes(
			attribute.String("tick.id", event.TickID),
			attribute.String("fleet.id", event.FleetID),
		),
	)

	o.tickSpan = span
	o.tickStartTime = event.Timestamp
}

func (o *TelemetryObserver) handleTickEnd(ctx context.Context, event observer.Event) {
	duration := time.Since(o.tickStartTime)

	robotsConsidered := 0
	if val, ok := event.Metadata["robots_considered"]; ok {
		if count, ok := val.(int); ok {
			robotsConsidered = count
		}
	}

	success := event.Status == observer.StatusSuccess
	o.provider.RecordTick(ctx, event.TickID, duration, success, robotsConsidered)

	if o.tickSpan != nil {
		if event.Error != nil {
			o.tickSpan.RecordError(event.Error)
			o.tickSpan.SetStatus(codes.Error, event.Error.Error())
		} else {
			o.tickSpan.SetStatus(codes.Ok, "tick completed successfully")
		}
		o.tickSpan.End()
	}
}

func (o *TelemetryObserver) handlePhaseStart(ctx context.Context, event observer.Event) {
	var spanCtx context.Context
	if o.tickSpan != nil {
		spanCtx = trace.ContextWithSpan(ctx, o.tickSpan)
	} else {
		spanCtx = ctx
	}

	_, span := o.provider.Tracer().Start(spanCtx, "dispatch.phase",
		trace.WithAttributes(
			attribute.String("phase", event.Phase),
			attribute.String("tick.id", event.TickID),
		),
	)

	o.phaseSpans[event.Phase] = span
	o.phaseStartTimes[event.Phase] = event.Timestamp
	o.robotsAssignedInPhase[event.Phase] = 0
}

func (o *TelemetryObserver) handlePhaseEnd(ctx context.Context, event observer.Event) {
	var duration time.Duration
	if startTime, ok := o.phaseStartTimes[event.Phase]; ok {
		duration = time.Since(startTime)
		delete(o.phaseStartTimes, event.Phase)
	}

	o.provider.RecordPhase(ctx, event.Phase, duration, o.robotsAssignedInPhase[event.Phase])
	delete(o.robotsAssignedInPhase, event.Phase)

	if span, ok := o.phaseSpans[event.Phase]; ok {
		if event.Error != nil {
			span.RecordError(event.Error)
			span.SetStatus(codes.Error, event.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "phase completed successfully")
		}
		span.End()
		delete(o.phaseSpans, event.Phase)
	}
}
