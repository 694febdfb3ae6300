package types

import (
	"encoding/json"
	"fmt"
)

// roleCodes/sectionCodes map the compact integer codes used on the wire
// to the POIRole/SectionKind vocabulary.
var roleCodes = map[int]POIRole{
	1:  RoleCharger,
	2:  RoleLoad,
	3:  RoleUnload,
	4:  RoleLoadUnload,
	5:  RoleParking,
	6:  RoleQueue,
	7:  RoleWaiting,
	8:  RoleDeparture,
	9:  RoleWaitingDeparture,
	10: RoleIntersection,
}

var sectionCodes = map[int]SectionKind{
	1: SectionDockWaitUndock,
	2: SectionWaitPOI,
	3: SectionNoChanges,
	4: SectionNormal,
	5: SectionIntersection,
}

// nodeTypeWire decodes either the bare string "normal" or a compound
// {"id": int, "nodeSection": int} object.
type nodeTypeWire struct {
	value NodeSection
}

func (n *nodeTypeWire) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString != "normal" {
			return fmt.Errorf("unknown bare node type marker: %s", asString)
		}
		n.value = NodeSection{Role: RoleNormal, Section: SectionNormal}
		return nil
	}

	var compound struct {
		ID          int `json:"id"`
		NodeSection int `json:"nodeSection"`
	}
	if err := json.Unmarshal(data, &compound); err != nil {
		return fmt.Errorf("node type is neither \"normal\" nor a compound descriptor: %w", err)
	}
	role, ok := roleCodes[compound.ID]
	if !ok {
		return fmt.Errorf("unknown POI role code: %d", compound.ID)
	}
	section, ok := sectionCodes[compound.NodeSection]
	if !ok {
		return fmt.Errorf("unknown section code: %d", compound.NodeSection)
	}
	n.value = NodeSection{Role: role, Section: section}
	return nil
}

type sourceNodeWire struct {
	Name  string       `json:"name"`
	Pos   [2]float64   `json:"pos"`
	Type  nodeTypeWire `json:"type"`
	POIID *string      `json:"poiId"`
}

type sourceEdgeWire struct {
	Start    string `json:"startNode"`
	End      string `json:"endNode"`
	Way      int    `json:"type"`
	IsActive bool   `json:"isActive"`
}

// GraphPayload is the wire shape of a source-graph snapshot: a map of
// node id -> node record and a map of edge id -> edge record.
type GraphPayload struct {
	Nodes map[string]json.RawMessage `json:"nodes"`
	Edges map[string]json.RawMessage `json:"edges"`
}

// NewSourceGraphFromJSON decodes and validates a GraphPayload into a
// SourceGraph. It does not perform connectivity validation
// (pkg/sourcegraph owns that); it only checks that each record is
// well-typed.
func NewSourceGraphFromJSON(payload GraphPayload) (SourceGraph, error) {
	g := SourceGraph{
		Nodes: make(map[string]SourceNode, len(payload.Nodes)),
		Edges: make(map[string]SourceEdge, len(payload.Edges)),
	}
	for id, raw := range payload.Nodes {
		var w sourceNodeWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return SourceGraph{}, PoisManagerError(id, fmt.Errorf("invalid node record: %w", err))
		}
		poiID := NoPOI
		if w.POIID != nil && *w.POIID != "" {
			poiID = *w.POIID
		}
		g.Nodes[id] = SourceNode{
			ID:      id,
			Name:    w.Name,
			Pos:     Position{X: w.Pos[0], Y: w.Pos[1]},
			Section: w.Type.value,
			POIID:   poiID,
		}
	}
	for id, raw := range payload.Edges {
		var w sourceEdgeWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return SourceGraph{}, PoisManagerError(id, fmt.Errorf("invalid edge record: %w", err))
		}
		way := WayType(w.Way)
		if way != TwoWay && way != NarrowTwoWay && way != OneWay {
			return SourceGraph{}, PoisManagerError(id, fmt.Errorf("invalid way type: %d", w.Way))
		}
		g.Edges[id] = SourceEdge{
			ID:       id,
			Start:    w.Start,
			End:      w.End,
			Way:      way,
			IsActive: w.IsActive,
		}
	}
	return g, nil
}
