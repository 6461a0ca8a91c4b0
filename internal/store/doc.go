// Package store provides the user-scoped key/value persistence layer.
//
// # Scoping
//
// Every logical key resolves to a physical slot namespaced by the active
// user: "user_<userId>::<logicalKey>". Anonymous (pre-login) data lives
// under the bare logical key. Two different users never alias the same
// slot, and the anonymous scope is migrated into a user's scope exactly
// once at login via MigrateAllToUser.
//
// # Media
//
// The store composes two persistence media (see the medium package): a
// durable primary and a fallback. Failures of the primary are logged and
// the operation retried on the fallback; callers never observe which
// medium served them, and no store operation returns an error.
//
// # Sessions
//
// The active user id lives in a SessionTracker written only by the
// auth-state observer. Store calls without an explicit user id resolve
// the tracker at call time.
package store
