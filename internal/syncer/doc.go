// Package syncer reconciles the local scoped store with the remote
// backend. Local writes remain authoritative and immediate; the engine
// listens for change events, coalesces bursts behind a debounce window,
// and pushes snapshots to the remote subject to a minimum interval
// between cycles. Session start triggers a one-time pull that overwrites
// local state with the remote copy.
//
// Sync is best-effort: a failed domain is logged and retried on the next
// cycle, and failures never surface to the writer that triggered them.
package syncer
