package types

import (
	"encoding/json"
	"fmt"
)

// BehaviourKind is the tagged variant of an atomic robot action.
type BehaviourKind string

const (
	GoTo   BehaviourKind = "GO_TO"
	Dock   BehaviourKind = "DOCK"
	Wait   BehaviourKind = "WAIT"
	BatEx  BehaviourKind = "BAT_EX" // battery exchange; equivalent to Wait for planning
	Undock BehaviourKind = "UNDOCK"
)

// waitLegacyAlias is the numeric wire value some producers still send for
// WAIT, inherited from the original beh_type encoding ({"wait": 3}).
const waitLegacyAlias = "3"

func parseBehaviourKind(name string) (BehaviourKind, bool) {
	switch name {
	case string(GoTo):
		return GoTo, true
	case string(Dock):
		return Dock, true
	case string(Wait), waitLegacyAlias:
		return Wait, true
	case string(BatEx):
		return BatEx, true
	case string(Undock):
		return Undock, true
	default:
		return "", false
	}
}

// Behaviour is an ordered action a robot executes as part of a task.
// Only GoTo carries a destination POI id; the destination POI of any
// other behaviour is implicitly the POI reached by the most recent
// preceding GoTo in the same task.
type Behaviour struct {
	ID   string
	Kind BehaviourKind
	To   string // POI id; only meaningful when Kind == GoTo
}

// behaviourWire is the external JSON shape:
//
//	{"id": "...", "parameters": {"name": "GO_TO", "to": "poi-1"}}
type behaviourWire struct {
	ID         *string `json:"id"`
	Parameters *struct {
		Name *string `json:"name"`
		To   *string `json:"to"`
	} `json:"parameters"`
}

// NewBehaviourFromJSON validates and constructs a Behaviour from a single
// JSON object, failing with WrongBehaviourInputData when the input is
// not a structured record, a required key is missing,
// type mismatches, an unenumerated kind, or a GO_TO without a destination.
func NewBehaviourFromJSON(raw json.RawMessage) (Behaviour, error) {
	var w behaviourWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Behaviour{}, WrongBehaviourInputData("<unknown>", fmt.Errorf("not a structured record: %w", err))
	}
	if w.ID == nil {
		return Behaviour{}, WrongBehaviourInputData("<unknown>", fmt.Errorf("missing required field: id"))
	}
	id := *w.ID
	if w.Parameters == nil {
		return Behaviour{}, WrongBehaviourInputData(id, fmt.Errorf("missing required field: parameters"))
	}
	if w.Parameters.Name == nil {
		return Behaviour{}, WrongBehaviourInputData(id, fmt.Errorf("missing required field: parameters.name"))
	}
	kind, ok := parseBehaviourKind(*w.Parameters.Name)
	if !ok {
		return Behaviour{}, WrongBehaviourInputData(id, fmt.Errorf("unknown behaviour name: %s", *w.Parameters.Name))
	}
	b := Behaviour{ID: id, Kind: kind}
	if kind == GoTo {
		if w.Parameters.To == nil || *w.Parameters.To == "" {
			return Behaviour{}, WrongBehaviourInputData(id, fmt.Errorf("GO_TO behaviour missing parameters.to"))
		}
		b.To = *w.Parameters.To
	}
	return b, nil
}

// IsSingleEdge reports whether this behaviour always resolves to a
// single planning-graph edge (DOCK, WAIT, BAT_EX, UNDOCK all do; GO_TO may
// resolve to a multi-edge path).
func (b Behaviour) IsSingleEdge() bool {
	return b.Kind != GoTo
}
