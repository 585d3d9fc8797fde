package ratelimit

import "sync"

// Registry owns one Limiter per command kind.
type Registry struct {
	mu       sync.Mutex
	configs  map[string]Config
	limiters map[string]*Limiter
}

// NewRegistry creates a registry with per-kind thresholds.
//
// Kinds missing from configs get a Limiter with zero intervals, which never
// throttles.
func NewRegistry(configs map[string]Config) *Registry {
	copied := make(map[string]Config, len(configs))
	for kind, cfg := range configs {
		copied[kind] = cfg
	}

	return &Registry{
		configs:  copied,
		limiters: make(map[string]*Limiter),
	}
}

// For returns the Limiter of kind, creating it on first use.
func (r *Registry) For(kind string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[kind]; ok {
		return lim
	}

	lim := New(r.configs[kind])
	r.limiters[kind] = lim
	return lim
}
