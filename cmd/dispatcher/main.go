// Command dispatcher runs one dispatch tick over a JSON snapshot and
// prints the resulting plan.
//
// Usage:
//
//	dispatcher -graph graph.json -fleet fleet.json -tasks tasks.json [flags]
//
// Flags:
//
//	-graph string
//	    Path to the source-graph snapshot (required)
//	-fleet string
//	    Path to the fleet snapshot (required)
//	-tasks string
//	    Path to the task backlog (required)
//	-robot string
//	    Emit only this robot's commitment instead of the full plan
//	-fleet-id string
//	    Fleet/site id attached to observer events and telemetry (not to the
//	    dispatcher's own log lines)
//	-priority-expr string
//	    Optional expr-lang task priority-weight expression
//	-log-level string
//	    Log level: debug, info, warn, error (default "info")
//	-pretty
//	    Human-readable log output instead of JSON
//
// Example:
//
//	# One tick over a recorded site snapshot
//	dispatcher -graph site.json -fleet fleet.json -tasks backlog.json
//
//	# Ask what robot agv-07 should do next
//	dispatcher -graph site.json -fleet fleet.json -tasks backlog.json -robot agv-07
//
// The plan is printed to stdout as JSON: robot id -> {taskId, nextEdge,
// endBeh}. Robots for which no edge could be committed are absent.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/PawSmy/Supervisor/pkg/config"
	"github.com/PawSmy/Supervisor/pkg/dispatcher"
	"github.com/PawSmy/Supervisor/pkg/logging"
	"github.com/PawSmy/Supervisor/pkg/priority"
	"github.com/PawSmy/Supervisor/pkg/schema"
	"github.com/PawSmy/Supervisor/pkg/sourcegraph"
	"github.com/PawSmy/Supervisor/pkg/supervisor"
	"github.com/PawSmy/Supervisor/pkg/types"
)

func main() {
	graphPath := flag.String("graph", "", "Path to the source-graph snapshot (required)")
	fleetPath := flag.String("fleet", "", "Path to the fleet snapshot (required)")
	tasksPath := flag.String("tasks", "", "Path to the task backlog (required)")
	robotID := flag.String("robot", "", "Emit only this robot's commitment")
	fleetID := flag.String("fleet-id", "", "Fleet/site id attached to observer events and telemetry (not to the dispatcher's own log lines)")
	priorityExpr := flag.String("priority-expr", "", "Optional expr-lang task priority-weight expression")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "Human-readable log output instead of JSON")
	flag.Parse()

	if *graphPath == "" || *fleetPath == "" || *tasksPath == "" {
		fmt.Fprintln(os.Stderr, "dispatcher: -graph, -fleet and -tasks are required")
		flag.Usage()
		os.Exit(2)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = *logLevel
	logCfg.Pretty = *pretty
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dispatcher: %v\n", err)
		os.Exit(2)
	}

	if err := run(log, *graphPath, *fleetPath, *tasksPath, *robotID, *fleetID, *priorityExpr); err != nil {
		fmt.Fprintf(os.Stderr, "dispatcher: %v\n", err)
		os.Exit(1)
	}
}

func run(log *logging.Logger, graphPath, fleetPath, tasksPath, robotID, fleetID, priorityExpr string) error {
	validator, err := schema.New()
	if err != nil {
		return fmt.Errorf("build schema validator: %w", err)
	}

	graphDoc, err := readValidated(validator, schema.KindGraph, graphPath)
	if err != nil {
		return err
	}
	fleetDoc, err := readValidated(validator, schema.KindFleet, fleetPath)
	if err != nil {
		return err
	}
	tasksDoc, err := readValidated(validator, schema.KindTasks, tasksPath)
	if err != nil {
		return err
	}

	var payload types.GraphPayload
	if err := json.Unmarshal(graphDoc, &payload); err != nil {
		return fmt.Errorf("decode graph snapshot: %w", err)
	}
	src, err := types.NewSourceGraphFromJSON(payload)
	if err != nil {
		return err
	}
	reduced, err := sourcegraph.Build(src)
	if err != nil {
		return err
	}
	cfg := config.Default()
	cfg.PriorityWeightExpression = priorityExpr
	if err := cfg.Validate(); err != nil {
		return err
	}
	pg, err := supervisor.Build(cfg, src, reduced)
	if err != nil {
		return err
	}

	fleet, err := decodeFleet(fleetDoc)
	if err != nil {
		return err
	}
	backlog, err := decodeTasks(tasksDoc)
	if err != nil {
		return err
	}

	d := dispatcher.New(cfg)
	d.SetLogger(log)
	if priorityExpr != "" {
		eval, err := priority.NewEvaluator(priorityExpr)
		if err != nil {
			return fmt.Errorf("compile priority expression: %w", err)
		}
		d.SetPriorityEvaluator(eval)
	}

	ctx := context.Background()
	if fleetID != "" {
		ctx = context.WithValue(ctx, types.ContextKeyFleetID, fleetID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if robotID != "" {
		commitment, err := d.GetPlanSelectedRobot(ctx, pg, fleet, backlog, robotID)
		if err != nil {
			return err
		}
		return enc.Encode(commitment)
	}
	plan, err := d.GetPlanAllFreeRobots(ctx, pg, fleet, backlog)
	if err != nil {
		return err
	}
	return enc.Encode(plan)
}

func readValidated(v *schema.Validator, kind schema.Kind, path string) ([]byte, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s snapshot: %w", kind, err)
	}
	if err := v.Validate(kind, doc); err != nil {
		return nil, fmt.Errorf("%s snapshot: %w", kind, err)
	}
	return doc, nil
}

func decodeFleet(doc []byte) (map[string]types.Robot, error) {
	var wire map[string]json.RawMessage
	if err := json.Unmarshal(doc, &wire); err != nil {
		return nil, fmt.Errorf("decode fleet snapshot: %w", err)
	}
	fleet := make(map[string]types.Robot, len(wire))
	for id, raw := range wire {
		r, err := types.NewRobotFromJSON(id, raw)
		if err != nil {
			return nil, err
		}
		fleet[id] = r
	}
	return fleet, nil
}

func decodeTasks(doc []byte) ([]types.Task, error) {
	var wire []json.RawMessage
	if err := json.Unmarshal(doc, &wire); err != nil {
		return nil, fmt.Errorf("decode task backlog: %w", err)
	}
	backlog := make([]types.Task, 0, len(wire))
	for i, raw := range wire {
		t, err := types.NewTaskFromJSON(raw, i)
		if err != nil {
			return nil, err
		}
		backlog = append(backlog, t)
	}
	return backlog, nil
}
