// Package providerregistry implements C3: it chooses, for a given chain,
// an ordered list of candidate adapters weighted by configured priority
// and recent health, and records proxy outcomes back into those weights.
package providerregistry

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
	"github.com/synnergy-network/rpc-gateway/internal/caip2"
	"github.com/synnergy-network/rpc-gateway/internal/chainregistry"
	"github.com/synnergy-network/rpc-gateway/internal/provider"
)

// Priority orders adapters ahead of pure health when both are otherwise
// equal; higher values are preferred.
type Priority int

const (
	PriorityDisabled Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
)

// Candidate is one adapter made available for a single request, paired
// with the kind RecordOutcome must be called with afterwards.
type Candidate struct {
	Kind    provider.Kind
	Adapter provider.Adapter
}

type weightKey struct {
	kind  provider.Kind
	chain caip2.ID
}

// weight is one sharded, lock-protected cell. Contention is low (single
// digits of adapters per chain) so a per-cell mutex is simpler than a
// fully lock-free scheme and just as correct under spec §5's "benign
// race" ordering guarantee.
type weight struct {
	mu                 sync.Mutex
	priority           Priority
	consecutiveFailures uint32
	cooldownUntil      time.Time
}

// Registry is C3. It owns the adapter set (read-only after construction)
// and the mutable weight cells keyed by (kind, chain).
type Registry struct {
	adapters     map[provider.Kind]provider.Adapter
	byChain      map[caip2.ID][]provider.Kind
	weights      sync.Map // weightKey -> *weight
	maxFailures  uint32
	cooldownBase time.Duration
	cooldownCap  time.Duration
	now          func() time.Time
	rng          *rand.Rand
	rngMu        sync.Mutex
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithCooldown overrides the exponential-backoff base and ceiling used
// when an adapter is marked rate-limited or unreachable.
func WithCooldown(base, cap time.Duration) Option {
	return func(r *Registry) {
		r.cooldownBase = base
		r.cooldownCap = cap
	}
}

// New builds a Registry from the adapter set, deriving the per-chain
// candidate lists from each adapter's SupportedChains() alone; the chain
// registry's eligible-provider lists are not consulted here.
func New(adapters []provider.Adapter, opts ...Option) *Registry {
	r := &Registry{
		adapters:     make(map[provider.Kind]provider.Adapter, len(adapters)),
		byChain:      make(map[caip2.ID][]provider.Kind),
		maxFailures:  8,
		cooldownBase: 2 * time.Second,
		cooldownCap:  5 * time.Minute,
		now:          time.Now,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, a := range adapters {
		r.adapters[a.Kind()] = a
		for _, chain := range a.SupportedChains() {
			r.byChain[chain] = append(r.byChain[chain], a.Kind())
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) weightFor(kind provider.Kind, chain caip2.ID) *weight {
	key := weightKey{kind, chain}
	if w, ok := r.weights.Load(key); ok {
		return w.(*weight)
	}
	w := &weight{priority: PriorityNormal}
	actual, _ := r.weights.LoadOrStore(key, w)
	return actual.(*weight)
}

// SetPriority overrides the configured priority for (kind, chain),
// typically called once at bootstrap from per-adapter configuration.
func (r *Registry) SetPriority(kind provider.Kind, chain caip2.ID, p Priority) {
	w := r.weightFor(kind, chain)
	w.mu.Lock()
	w.priority = p
	w.mu.Unlock()
}

// CandidatesFor returns up to max adapters eligible for chain, ordered by
// (priority desc, consecutive_failures asc, random tiebreak), skipping any
// whose cooldown has not elapsed. An empty non-error result is never
// returned: if nothing is eligible, ErrChainTemporarilyUnavailable is
// returned instead.
func (r *Registry) CandidatesFor(chain caip2.ID, max int) ([]Candidate, error) {
	kinds, known := r.byChain[chain]
	if !known || len(kinds) == 0 {
		if _, catalogued := chainregistry.Lookup(chain); !catalogued {
			return nil, apperr.New(apperr.ReasonUnsupportedChain, "chainId",
				fmt.Sprintf("%s is not a recognized chain", chain))
		}
		return nil, apperr.New(apperr.ReasonUnsupportedChain, "chainId",
			fmt.Sprintf("%s has no configured provider", chain))
	}

	now := r.now()
	type scored struct {
		kind     provider.Kind
		priority Priority
		failures uint32
		tiebreak float64
	}
	eligible := make([]scored, 0, len(kinds))
	r.rngMu.Lock()
	for _, k := range kinds {
		w := r.weightFor(k, chain)
		w.mu.Lock()
		priority := w.priority
		failures := w.consecutiveFailures
		cooldown := w.cooldownUntil
		w.mu.Unlock()
		if priority == PriorityDisabled {
			continue
		}
		if cooldown.After(now) {
			continue
		}
		eligible = append(eligible, scored{kind: k, priority: priority, failures: failures, tiebreak: r.rng.Float64()})
	}
	r.rngMu.Unlock()

	if len(eligible) == 0 {
		return nil, apperr.New(apperr.ReasonChainTemporarilyUnavailable, "chainId",
			fmt.Sprintf("no provider is currently available for %s", chain))
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].priority != eligible[j].priority {
			return eligible[i].priority > eligible[j].priority
		}
		if eligible[i].failures != eligible[j].failures {
			return eligible[i].failures < eligible[j].failures
		}
		return eligible[i].tiebreak < eligible[j].tiebreak
	})

	if max > 0 && len(eligible) > max {
		eligible = eligible[:max]
	}
	out := make([]Candidate, 0, len(eligible))
	for _, s := range eligible {
		out = append(out, Candidate{Kind: s.kind, Adapter: r.adapters[s.kind]})
	}
	return out, nil
}

// AdapterByID performs an exact lookup, used only by the provider-override
// testing path.
func (r *Registry) AdapterByID(kind provider.Kind) (Candidate, bool) {
	a, ok := r.adapters[kind]
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Kind: kind, Adapter: a}, true
}

// RecordOutcome updates the weight cell for (kind, chain) per spec §4.3:
// success clears failures and cooldown; rate-limited/transport-error
// outcomes increment failures and set an exponential, bounded cooldown;
// 4xx outcomes (client fault) leave weights untouched.
func (r *Registry) RecordOutcome(kind provider.Kind, chain caip2.ID, outcome provider.Outcome, httpStatus int) {
	w := r.weightFor(kind, chain)
	w.mu.Lock()
	defer w.mu.Unlock()

	switch outcome {
	case provider.OutcomeSuccess:
		w.consecutiveFailures = 0
		w.cooldownUntil = time.Time{}
	case provider.OutcomeRateLimited:
		w.consecutiveFailures++
		w.cooldownUntil = r.now().Add(r.backoff(w.consecutiveFailures, false))
	case provider.OutcomeTransportError:
		w.consecutiveFailures++
		w.cooldownUntil = r.now().Add(r.backoff(w.consecutiveFailures, true))
	case provider.OutcomeHTTPError:
		if httpStatus >= 500 {
			w.consecutiveFailures++
			w.cooldownUntil = r.now().Add(r.backoff(w.consecutiveFailures, true))
		}
		// 4xx: client fault, no weight change.
	}
}

// backoff computes exponential, bounded backoff. Transport errors use a
// longer floor than rate-limit signals per spec §4.3.
func (r *Registry) backoff(failures uint32, transportFloor bool) time.Duration {
	if failures > r.maxFailures {
		failures = r.maxFailures
	}
	d := r.cooldownBase * time.Duration(1<<failures)
	if transportFloor && d < 4*r.cooldownBase {
		d = 4 * r.cooldownBase
	}
	if d > r.cooldownCap {
		d = r.cooldownCap
	}
	return d
}
