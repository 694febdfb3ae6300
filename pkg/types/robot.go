package types

import (
	"encoding/json"
	"fmt"
)

// Robot is a fleet member as reported in the live fleet snapshot, plus the
// transient per-tick fields the dispatcher sets while building a plan.
type Robot struct {
	ID            string
	Edge          *[2]string // current graph edge (startNode, endNode); nil if standing at a POI
	POIID         string     // used to resolve Edge when Edge is nil
	PlanningOn    bool
	Free          bool
	TimeRemaining float64

	// Transient per-tick fields. Reset at the start of every tick; never
	// persisted.
	Task       *Task
	NextEdge   *[2]string
	EndBehEdge bool
}

type robotWire struct {
	Edge          *[2]string `json:"edge"`
	POIID         *string    `json:"poiId"`
	PlanningOn    *bool      `json:"planningOn"`
	IsFree        *bool      `json:"isFree"`
	TimeRemaining *float64   `json:"timeRemaining"`
}

// NewRobotFromJSON validates and constructs a Robot from a single JSON
// object keyed by robot id in the fleet snapshot.
func NewRobotFromJSON(id string, raw json.RawMessage) (Robot, error) {
	var w robotWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Robot{}, WrongRobotInputData(id, fmt.Errorf("not a structured record: %w", err))
	}
	r := Robot{ID: id, POIID: NoPOI}
	if w.Edge != nil {
		if (*w.Edge)[0] == "" || (*w.Edge)[1] == "" {
			return Robot{}, WrongRobotInputData(id, fmt.Errorf("edge must name two non-empty nodes"))
		}
		r.Edge = w.Edge
	}
	if w.POIID != nil {
		r.POIID = *w.POIID
	}
	if r.Edge == nil && r.POIID == NoPOI {
		return Robot{}, WrongRobotInputData(id, fmt.Errorf("robot has neither an edge nor a poiId"))
	}
	if w.PlanningOn != nil {
		r.PlanningOn = *w.PlanningOn
	}
	if w.IsFree != nil {
		r.Free = *w.IsFree
	}
	if w.TimeRemaining != nil {
		r.TimeRemaining = *w.TimeRemaining
	}
	return r, nil
}
