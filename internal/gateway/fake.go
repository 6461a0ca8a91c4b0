// ABOUTME: In-memory Gateway implementation for testing
// ABOUTME: Records calls and injects per-domain failures without a backend

package gateway

import (
	"context"
	"sync"

	"github.com/2389/companion-sync/internal/domain"
)

// Fake is an in-memory Gateway for tests. Records are stored per domain
// and user; FetchOne returns the most recent upsert. Failures can be
// injected per domain to exercise fault isolation.
type Fake struct {
	mu      sync.Mutex
	records map[domain.Domain]map[string][]Record
	fail    map[domain.Domain]error
	calls   []string
}

// NewFake creates an empty fake gateway.
func NewFake() *Fake {
	return &Fake{
		records: make(map[domain.Domain]map[string][]Record),
		fail:    make(map[domain.Domain]error),
	}
}

// FailDomain makes every operation on d return err until cleared with a
// nil err.
func (f *Fake) FailDomain(d domain.Domain, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, d)
		return
	}
	f.fail[d] = err
}

// Upsert implements Gateway.Upsert.
func (f *Fake) Upsert(ctx context.Context, d domain.Domain, userID string, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "upsert:"+string(d))
	if err := f.fail[d]; err != nil {
		return err
	}
	if f.records[d] == nil {
		f.records[d] = make(map[string][]Record)
	}
	f.records[d][userID] = append(f.records[d][userID], rec)
	return nil
}

// DeleteAll implements Gateway.DeleteAll.
func (f *Fake) DeleteAll(ctx context.Context, d domain.Domain, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete_all:"+string(d))
	if err := f.fail[d]; err != nil {
		return err
	}
	if f.records[d] != nil {
		delete(f.records[d], userID)
	}
	return nil
}

// FetchOne implements Gateway.FetchOne.
func (f *Fake) FetchOne(ctx context.Context, d domain.Domain, userID string) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "fetch_one:"+string(d))
	if err := f.fail[d]; err != nil {
		return nil, err
	}
	recs := f.records[d][userID]
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[len(recs)-1], nil
}

// FetchMany implements Gateway.FetchMany.
func (f *Fake) FetchMany(ctx context.Context, d domain.Domain, userID string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "fetch_many:"+string(d))
	if err := f.fail[d]; err != nil {
		return nil, err
	}
	recs := f.records[d][userID]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

// Seed stores records for a domain and user without recording a call.
func (f *Fake) Seed(d domain.Domain, userID string, recs ...Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.records[d] == nil {
		f.records[d] = make(map[string][]Record)
	}
	f.records[d][userID] = append(f.records[d][userID], recs...)
}

// Records returns the stored records for a domain and user.
func (f *Fake) Records(d domain.Domain, userID string) []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.records[d][userID]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// Calls returns the operations performed, in order, as "op:domain".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many operations were performed.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Reset clears stored records, injected failures, and the call log.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = make(map[domain.Domain]map[string][]Record)
	f.fail = make(map[domain.Domain]error)
	f.calls = nil
}
