// ABOUTME: Remote gateway contract and error taxonomy for the hosted backend
// ABOUTME: Defines the per-domain upsert/delete/fetch boundary the sync engine calls

package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389/companion-sync/internal/domain"
)

// ErrNotFound is returned by FetchOne when no record exists for the user.
// Absence is an expected outcome, not a fault; callers fall back to local
// defaults.
var ErrNotFound = errors.New("record not found")

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"
	KindAuth     ErrorKind = "auth"
	KindNotFound ErrorKind = "not_found"
	KindServer   ErrorKind = "server"
)

// Error is a classified gateway failure. The sync engine treats every
// kind the same way (log and skip the domain for this cycle), but the
// kind is preserved for observability.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Record is one remote row as decoded JSON.
type Record = domain.Record

// Gateway is the request layer to the hosted backend, one logical
// operation per call. Implementations must be safe for concurrent use:
// the sync engine issues per-domain calls concurrently.
type Gateway interface {
	// Upsert inserts or replaces the record for userID in the domain's
	// remote collection.
	Upsert(ctx context.Context, d domain.Domain, userID string, rec Record) error

	// DeleteAll removes every record for userID in the domain's remote
	// collection. Used by the full-replace domains (goals, badges).
	DeleteAll(ctx context.Context, d domain.Domain, userID string) error

	// FetchOne returns the single record for userID, or ErrNotFound.
	FetchOne(ctx context.Context, d domain.Domain, userID string) (Record, error)

	// FetchMany returns every record for userID, newest first for
	// time-ordered domains. An empty result is not an error.
	FetchMany(ctx context.Context, d domain.Domain, userID string) ([]Record, error)
}
