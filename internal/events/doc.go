// Package events provides the typed publish/subscribe channel that
// decouples data writers from the sync engine and UI observers.
//
// Events are notifications, not commands: the scoped store is the source
// of truth, and consumers treat any number of events for one logical
// change as "at least one sync needed".
package events
