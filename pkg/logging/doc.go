// Package logging provides structured logging for the fleet dispatcher,
// built on the standard library's slog package.
//
// # Context Integration
//
//	logger := logging.Default().
//	    WithFleetID(fleetID).
//	    WithTickID(tickID)
//
//	logger.Info("tick started")
//	logger.WithRobotID(r.ID).Warn("edge commitment declined: group full")
//
// # Output
//
// JSON by default; set Config.Pretty for a human-readable text handler
// during local runs.
package logging
