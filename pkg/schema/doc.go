// Package schema validates the external snapshot payloads (source graph,
// fleet, task backlog) against JSON Schemas before they are decoded into
// the domain model. It exists to give ingestion a single, uniform point of
// rejection for malformed external input, rather than scattering ad hoc
// shape checks across the types package's JSON decoders.
package schema
