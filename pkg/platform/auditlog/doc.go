// Package auditlog provides a bounded, append-only, concurrency-safe event log.
//
// A Log keeps at most Cap() events. Appending to a full log evicts the oldest
// event first (FIFO), so memory stays fixed for the life of the owning
// subsystem. Reads return copies and never observe a partially appended event.
//
// # Usage
//
//	log := auditlog.New[audit.Entry](500)
//	id := log.Append(audit.Entry{Action: "flag_changed"})
//	recent := log.Recent(20)
//	last, ok := log.ExportLastJSON()
//
// # Export
//
// Events serialize as a single JSON object carrying "id" and "timestamp"
// (RFC 3339, UTC) alongside the payload's own fields. ExportLastJSON is
// indented for people; ExportAllJSON is compact for bulk transfer. Export is
// best-effort: a payload that cannot be marshaled yields no result instead of
// an error.
//
// # Ownership
//
// There is no package-level log. Create one per subsystem and pass it to the
// code that records into it.
package auditlog
