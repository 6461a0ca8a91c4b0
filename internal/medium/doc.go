// Package medium provides the flat key/value persistence layer underneath
// the scoped store.
//
// Three implementations are provided:
//
//   - SQLiteMedium: the durable primary, a single preferences table in a
//     local SQLite database (WAL mode).
//   - FileMedium: one JSON file per key, used as the fallback when the
//     primary is unavailable.
//   - MemoryMedium: in-memory, for tests; can be forced to fail to
//     exercise fallback behavior.
//
// The store composes a primary and a fallback medium and routes around
// failures transparently; callers of the store never observe which medium
// served an operation.
package medium
