// Package projectauth implements C4: project-level authorization backed by
// a two-tier cache (process-local LRU + shared Redis store) in front of a
// remote project registry.
package projectauth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
)

// Feature is one toggle a project may have enabled.
type Feature struct {
	ID      string
	Enabled bool
}

// Quota describes a project's usage ceiling.
type Quota struct {
	Used  uint64
	Max   uint64
	Valid bool
}

// ProjectData is the immutable (within a cache entry's lifetime) record
// returned by a successful lookup.
type ProjectData struct {
	ID             string
	IsEnabled      bool
	IsRateLimited  bool
	Quota          Quota
	AllowedOrigins []string
	Features       []Feature
	Secret         string
}

// RegistryClient is the external collaborator this package is a cache in
// front of (spec §4.4's "remote registry"). HTTPRegistry (httpregistry.go)
// is its HTTP implementation; the registry's own storage is out of core
// scope.
type RegistryClient interface {
	FetchProject(ctx context.Context, projectID string) (ProjectData, error)
}

// ErrNotFound, ErrInvalidKey and ErrDisabled are the negative outcomes the
// registry can report; all three are cached just like a positive result
// (spec §4.4).
var (
	ErrNotFound   = errors.New("projectauth: project not found")
	ErrInvalidKey = errors.New("projectauth: invalid project key")
	ErrDisabled   = errors.New("projectauth: project disabled")
)

type cacheEntry struct {
	data    ProjectData
	negErr  error
	expires time.Time
}

func (e cacheEntry) expired(now time.Time) bool { return now.After(e.expires) }

// Authorizer is C4.
type Authorizer struct {
	registry RegistryClient
	redis    *redis.Client
	l1       *lru.Cache[string, cacheEntry]
	ttl      time.Duration
	now      func() time.Time
}

// New builds an Authorizer. redisClient may be nil, in which case the L2
// tier is skipped entirely and only L1 + the registry are consulted (used
// in tests and in deployments that accept the extra registry load).
func New(registry RegistryClient, redisClient *redis.Client, ttl time.Duration, l1Size int) (*Authorizer, error) {
	cache, err := lru.New[string, cacheEntry](l1Size)
	if err != nil {
		return nil, fmt.Errorf("projectauth: building L1 cache: %w", err)
	}
	return &Authorizer{registry: registry, redis: redisClient, l1: cache, ttl: ttl, now: time.Now}, nil
}

// Validate resolves projectID through the two-tier cache protocol of
// spec §4.4: L1 hit returns immediately; L2 hit populates L1; a miss on
// both fetches the registry and writes both tiers (including negative
// results); a transport failure caches nothing and reports an
// Unauthorized error whose field is "registry".
func (a *Authorizer) Validate(ctx context.Context, projectID string) (ProjectData, error) {
	if entry, ok := a.l1.Get(projectID); ok && !entry.expired(a.now()) {
		return a.resolve(entry)
	}

	if a.redis != nil {
		if entry, ok, err := a.fetchL2(ctx, projectID); err == nil && ok {
			a.l1.Add(projectID, entry)
			return a.resolve(entry)
		}
	}

	data, fetchErr := a.registry.FetchProject(ctx, projectID)
	entry, cacheable := a.classify(data, fetchErr)
	if !cacheable {
		return ProjectData{}, apperr.Wrap(apperr.ReasonUnauthorized, "registry", "the project registry is unavailable", fetchErr)
	}

	a.l1.Add(projectID, entry)
	if a.redis != nil {
		a.storeL2(ctx, projectID, entry)
	}
	return a.resolve(entry)
}

// classify decides whether a registry outcome is cacheable. Positive
// results and the three named negative reasons are cacheable; anything else
// (a genuine transport failure) is not, per spec §4.4's cache protocol.
func (a *Authorizer) classify(data ProjectData, err error) (cacheEntry, bool) {
	expires := a.now().Add(a.ttl)
	switch {
	case err == nil:
		return cacheEntry{data: data, expires: expires}, true
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrDisabled):
		return cacheEntry{negErr: err, expires: expires}, true
	default:
		return cacheEntry{}, false
	}
}

func (a *Authorizer) resolve(entry cacheEntry) (ProjectData, error) {
	if entry.negErr != nil {
		reason := apperr.ReasonUnauthorized
		return ProjectData{}, apperr.Wrap(reason, "authentication", "We failed to authenticate your request", entry.negErr)
	}
	if !entry.data.IsEnabled {
		return ProjectData{}, apperr.New(apperr.ReasonUnauthorized, "authentication", "We failed to authenticate your request")
	}
	if entry.data.Quota.Valid && entry.data.Quota.Max > 0 && entry.data.Quota.Used >= entry.data.Quota.Max {
		return ProjectData{}, apperr.New(apperr.ReasonQuotaExceeded, "quota", "project quota exceeded")
	}
	return entry.data, nil
}

// AllowedOrigins returns the project's configured origin patterns, used by
// CORS for selected higher-level methods.
func (a *Authorizer) AllowedOrigins(ctx context.Context, projectID string) ([]string, bool) {
	data, err := a.Validate(ctx, projectID)
	if err != nil {
		return nil, false
	}
	return data.AllowedOrigins, true
}

// VerifySecret compares a caller-supplied secret against the registry's
// record using a constant-time comparison to forestall timing side
// channels (spec §4.4).
func VerifySecret(want, got string) bool {
	if len(want) != len(got) {
		// length is not itself sensitive, so a length mismatch returns
		// early without comparing any bytes.
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

const redisKeyPrefix = "rpcproxy:project:"

func (a *Authorizer) fetchL2(ctx context.Context, projectID string) (cacheEntry, bool, error) {
	raw, err := a.redis.Get(ctx, redisKeyPrefix+projectID).Bytes()
	if errors.Is(err, redis.Nil) {
		return cacheEntry{}, false, nil
	}
	if err != nil {
		return cacheEntry{}, false, err
	}
	var wire wireEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return cacheEntry{}, false, err
	}
	entry := cacheEntry{data: wire.Data, expires: wire.Expires}
	if wire.NegErr != "" {
		entry.negErr = errors.New(wire.NegErr)
	}
	return entry, true, nil
}

func (a *Authorizer) storeL2(ctx context.Context, projectID string, entry cacheEntry) {
	wire := wireEntry{Data: entry.data, Expires: entry.expires}
	if entry.negErr != nil {
		wire.NegErr = entry.negErr.Error()
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return
	}
	// Best-effort: an L2 write failure only costs an extra registry hit
	// on the next miss, it does not affect this request's outcome.
	_ = a.redis.Set(ctx, redisKeyPrefix+projectID, raw, a.ttl).Err()
}

type wireEntry struct {
	Data    ProjectData `json:"data"`
	NegErr  string      `json:"neg_err,omitempty"`
	Expires time.Time   `json:"expires"`
}
