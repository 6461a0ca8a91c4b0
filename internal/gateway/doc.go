// Package gateway defines the request boundary to the hosted backend.
//
// The sync engine depends only on the Gateway interface; the REST
// implementation speaks a PostgREST-style API, and Fake serves tests.
// Failures are classified (network, auth, not_found, server) but the
// engine handles every kind identically: log and skip that domain for
// the cycle. The next change event or session start retries naturally.
package gateway
