package source

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"connector-service/core/directory"
	"connector-service/core/service"

	"go.uber.org/zap"
)

var (
	// ErrServiceTypeNotConfigured is returned for connectors without a service type.
	ErrServiceTypeNotConfigured = errors.New("service type is not configured")
	// ErrServiceTypeNotSupported is returned for service types nobody registered.
	ErrServiceTypeNotSupported = errors.New("service type is not supported")
)

// Field describes one configuration entry of a source.
type Field struct {
	Label     string `json:"label"`
	Order     int    `json:"order"`
	Type      string `json:"type"`
	Value     any    `json:"value"`
	Sensitive bool   `json:"sensitive,omitempty"`
	Required  bool   `json:"required"`
}

// Options carries the dependencies handed to every source.
type Options struct {
	Features service.Features
	Logger   *zap.Logger
}

// Factory builds a source for a connector.
type Factory func(connector *directory.Connector, opts Options) (DocumentSource, error)

// Definition registers a service type.
type Definition struct {
	ServiceType          string
	Name                 string
	Factory              Factory
	DefaultConfiguration func() map[string]Field
}

// Registry maps service types to source factories.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a service type. Registering the same type twice is an error.
func (r *Registry) Register(def Definition) error {
	if def.ServiceType == "" || def.Factory == nil {
		return fmt.Errorf("invalid source definition %q", def.ServiceType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.ServiceType]; exists {
		return fmt.Errorf("service type %s already registered", def.ServiceType)
	}
	r.defs[def.ServiceType] = def
	return nil
}

// Lookup returns the definition of a service type.
func (r *Registry) Lookup(serviceType string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[serviceType]
	return def, ok
}

// Definitions returns every registered definition ordered by service type.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceType < out[j].ServiceType })
	return out
}

// ServiceTypes lists the registered service types in order.
func (r *Registry) ServiceTypes() []string {
	defs := r.Definitions()
	out := make([]string, len(defs))
	for i, def := range defs {
		out[i] = def.ServiceType
	}
	return out
}

// DefaultConfiguration returns the configuration fields of a service type.
func (r *Registry) DefaultConfiguration(serviceType string) (map[string]Field, error) {
	def, ok := r.Lookup(serviceType)
	if !ok {
		return nil, fmt.Errorf("service type %s: %w", serviceType, ErrServiceTypeNotSupported)
	}
	if def.DefaultConfiguration == nil {
		return map[string]Field{}, nil
	}
	return def.DefaultConfiguration(), nil
}

// Create builds the source of a connector.
func (r *Registry) Create(connector *directory.Connector, opts Options) (DocumentSource, error) {
	if connector.ServiceType == "" {
		return nil, fmt.Errorf("connector %s: %w", connector.ID, ErrServiceTypeNotConfigured)
	}
	def, ok := r.Lookup(connector.ServiceType)
	if !ok {
		return nil, fmt.Errorf("connector %s, service type %s: %w", connector.ID, connector.ServiceType, ErrServiceTypeNotSupported)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return def.Factory(connector, opts)
}
