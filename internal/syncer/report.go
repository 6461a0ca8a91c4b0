// ABOUTME: Per-cycle sync outcome record exposed by the engine
// ABOUTME: Captures which domains succeeded and which failed on the last run

package syncer

import (
	"time"

	"github.com/2389/companion-sync/internal/domain"
)

// Phase names what kind of cycle a Report describes.
type Phase string

const (
	PhasePush Phase = "push"
	PhasePull Phase = "pull"
)

// Report records the outcome of one sync cycle. Each domain the cycle
// touched gets an entry in Errors; a nil value means the domain synced
// cleanly, a non-nil value carries the failure.
type Report struct {
	Phase      Phase
	StartedAt  time.Time
	FinishedAt time.Time
	Errors     map[domain.Domain]error
}

// Err returns the recorded error for a domain, or nil if the domain
// succeeded or was not part of the cycle.
func (r *Report) Err(d domain.Domain) error {
	if r == nil {
		return nil
	}
	return r.Errors[d]
}

// OK reports whether every domain in the cycle completed without error.
func (r *Report) OK() bool {
	if r == nil {
		return false
	}
	for _, err := range r.Errors {
		if err != nil {
			return false
		}
	}
	return true
}

// Failed returns the domains that errored, in no particular order.
func (r *Report) Failed() []domain.Domain {
	if r == nil {
		return nil
	}
	var out []domain.Domain
	for d, err := range r.Errors {
		if err != nil {
			out = append(out, d)
		}
	}
	return out
}

func (r *Report) clone() *Report {
	if r == nil {
		return nil
	}
	cp := &Report{
		Phase:      r.Phase,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Errors:     make(map[domain.Domain]error, len(r.Errors)),
	}
	for d, err := range r.Errors {
		cp.Errors[d] = err
	}
	return cp
}
