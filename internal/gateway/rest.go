// ABOUTME: REST implementation of the Gateway against a PostgREST-style backend
// ABOUTME: Maps domains to tables, classifies failures, and pre-checks token expiry

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/2389/companion-sync/internal/domain"
)

// table describes how a domain maps onto the remote schema.
type table struct {
	name    string
	keyCol  string // column holding the user id
	orderBy string // optional ordering for FetchMany
}

// tables is the fixed domain -> remote table mapping.
var tables = map[domain.Domain]table{
	domain.DomainProfile:     {name: "profiles", keyCol: "id"},
	domain.DomainSettings:    {name: "user_settings", keyCol: "id"},
	domain.DomainBadges:      {name: "user_badges", keyCol: "user_id"},
	domain.DomainGoals:       {name: "user_goals", keyCol: "user_id"},
	domain.DomainMoodHistory: {name: "mood_history", keyCol: "user_id", orderBy: "recorded_at.desc"},
}

// RESTConfig holds the options for NewREST.
type RESTConfig struct {
	BaseURL     string        // backend origin, e.g. https://abc.example.co
	APIKey      string        // project api key, sent on every request
	AccessToken string        // user bearer token (JWT)
	Client      *http.Client  // optional; defaults to a 15s-timeout client
	Logger      *slog.Logger  // optional
}

// REST talks to a PostgREST-style backend over HTTPS.
type REST struct {
	baseURL string
	apiKey  string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewREST creates a REST gateway.
func NewREST(cfg RESTConfig) *REST {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &REST{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		token:   cfg.AccessToken,
		client:  client,
		logger:  logger.With("component", "gateway"),
	}
}

// Upsert implements Gateway.Upsert.
func (g *REST) Upsert(ctx context.Context, d domain.Domain, userID string, rec Record) error {
	tbl, err := g.table(d, "upsert")
	if err != nil {
		return err
	}

	body, err := json.Marshal([]Record{rec})
	if err != nil {
		return &Error{Kind: KindServer, Op: "upsert", Err: err}
	}

	req, err := g.newRequest(ctx, http.MethodPost, g.tableURL(tbl.name, nil), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	return g.do(req, "upsert", nil)
}

// DeleteAll implements Gateway.DeleteAll.
func (g *REST) DeleteAll(ctx context.Context, d domain.Domain, userID string) error {
	tbl, err := g.table(d, "delete_all")
	if err != nil {
		return err
	}

	q := url.Values{tbl.keyCol: {"eq." + userID}}
	req, err := g.newRequest(ctx, http.MethodDelete, g.tableURL(tbl.name, q), nil)
	if err != nil {
		return err
	}

	return g.do(req, "delete_all", nil)
}

// FetchOne implements Gateway.FetchOne.
func (g *REST) FetchOne(ctx context.Context, d domain.Domain, userID string) (Record, error) {
	tbl, err := g.table(d, "fetch_one")
	if err != nil {
		return nil, err
	}

	q := url.Values{tbl.keyCol: {"eq." + userID}, "limit": {"1"}}
	req, err := g.newRequest(ctx, http.MethodGet, g.tableURL(tbl.name, q), nil)
	if err != nil {
		return nil, err
	}

	var rows []Record
	if err := g.do(req, "fetch_one", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// FetchMany implements Gateway.FetchMany.
func (g *REST) FetchMany(ctx context.Context, d domain.Domain, userID string) ([]Record, error) {
	tbl, err := g.table(d, "fetch_many")
	if err != nil {
		return nil, err
	}

	q := url.Values{tbl.keyCol: {"eq." + userID}}
	if tbl.orderBy != "" {
		q.Set("order", tbl.orderBy)
	}
	req, err := g.newRequest(ctx, http.MethodGet, g.tableURL(tbl.name, q), nil)
	if err != nil {
		return nil, err
	}

	var rows []Record
	if err := g.do(req, "fetch_many", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// table resolves the remote mapping for a domain.
func (g *REST) table(d domain.Domain, op string) (table, error) {
	tbl, ok := tables[d]
	if !ok {
		return table{}, &Error{Kind: KindServer, Op: op, Err: fmt.Errorf("unknown domain %q", d)}
	}
	return tbl, nil
}

// tableURL builds the REST endpoint for a table with optional filters.
func (g *REST) tableURL(name string, q url.Values) string {
	u := g.baseURL + "/rest/v1/" + name
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// newRequest builds an authenticated request, rejecting up front when the
// bearer token is already expired so a doomed round trip is skipped.
func (g *REST) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	if err := g.checkToken(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: method, Err: err}
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// checkToken parses the access token without verifying its signature
// (the backend verifies; we only want the exp claim) and fails fast when
// it has expired.
func (g *REST) checkToken() error {
	if g.token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(g.token, claims); err != nil {
		// Opaque tokens pass through; the backend decides.
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if time.Now().After(exp.Time) {
		return &Error{Kind: KindAuth, Op: "token", Err: jwt.ErrTokenExpired}
	}
	return nil
}

// do executes the request and decodes the response into out when non-nil.
func (g *REST) do(req *http.Request, op string, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
		return &Error{Kind: classify(resp.StatusCode), Op: op, Err: err}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServer, Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// classify maps an HTTP status to an error kind.
func classify(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	default:
		return KindServer
	}
}
