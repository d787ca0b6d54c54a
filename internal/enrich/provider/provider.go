// Package provider defines the capability interface and adapters for the
// paid enrichment APIs.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sells-group/person-enricher/internal/cost"
	"github.com/sells-group/person-enricher/internal/model"
)

// Result is the contribution of a single provider attempt.
type Result struct {
	// Fields holds newly discovered values; may be empty.
	Fields model.Partial
	// Called reports whether a billable network call was made.
	Called bool
}

// skipped is returned when a precondition is not met and nothing was called.
func skipped() *Result {
	return &Result{Fields: model.Partial{}}
}

// called wraps the fields found by a request that went out on the wire.
func called(fields model.Partial) *Result {
	if fields == nil {
		fields = model.Partial{}
	}
	return &Result{Fields: fields, Called: true}
}

// Provider is one enrichment API behind a uniform attempt contract.
//
// Attempt fails soft: transport and decoding problems are logged and
// reported as an empty Result with Called set. The only errors returned are
// configuration errors, which are fatal for the call.
type Provider interface {
	// API identifies the provider in the price table.
	API() cost.API
	// Attempt runs one lookup for the contact.
	Attempt(ctx context.Context, c model.Contact) (*Result, error)
}

// ConfigError reports a provider that cannot run because it lacks credentials.
type ConfigError struct {
	API cost.API
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider: %s is not configured: missing %s", e.API, e.Key)
}

// IsConfigError reports whether err (or anything it wraps) is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Registry manages the available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[cost.API]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[cost.API]Provider),
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider to the registry, replacing any previous one for the same API.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.API()] = p
}

// Get returns a provider by API, or nil if not found.
func (r *Registry) Get(api cost.API) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[api]
}

// List returns all registered APIs, sorted.
func (r *Registry) List() []cost.API {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apis := make([]cost.API, 0, len(r.providers))
	for api := range r.providers {
		apis = append(apis, api)
	}
	sort.Slice(apis, func(i, j int) bool { return apis[i] < apis[j] })
	return apis
}
