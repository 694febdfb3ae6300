package types

// POI is a named location with a semantic role (charger, loader, unloader,
// parking, queue, waiting, departure, intersection) and a section kind
// that governs how the graph builder expands it.
type POI struct {
	ID      string
	Section NodeSection
}

// IsOperational reports whether robots dwell at this POI under a
// dock/wait/undock or wait/end chain with single-user occupancy
// accounting (chargers and load/unload stations), as opposed to parking,
// queue, waiting and departure nodes which have their own shapes.
func (p POI) IsOperational() bool {
	return p.Section.IsOperational()
}
