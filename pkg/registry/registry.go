// Package registry maps object type names to Go constructors.
//
// Object definitions in configuration name a type ("echo", "sequence",
// "metrics.server", ...). The object factory looks the type up here and calls
// its constructor with the definition's properties. Packages register their
// types from init functions, the way connectors register themselves:
//
//	func init() {
//	    registry.MustRegister("echo", newEcho, registry.TypeInfo{
//	        Description: "Writes a message to stdout",
//	    })
//	}
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/logger"
)

// Constructor creates an object instance from its spec
type Constructor func(ctx context.Context, spec Spec) (any, error)

// Spec carries everything a constructor needs to build one object
type Spec struct {
	// ID is the identifier the object was requested by
	ID string
	// Type is the registered type name
	Type string
	// Properties holds resolved property values; references to other
	// objects have already been replaced by the objects themselves.
	Properties map[string]any
}

// Decode decodes the spec's properties into target, a pointer to a struct.
// Struct fields are matched case-insensitively against `mapstructure` tags or
// field names, and scalar strings are converted weakly ("8080" -> 8080).
func (s Spec) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create property decoder")
	}
	if err := decoder.Decode(s.Properties); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "invalid properties for "+s.Type).
			WithDetail("id", s.ID)
	}
	return nil
}

// TypeInfo provides information about a registered type
type TypeInfo struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Properties  map[string]string `json:"properties,omitempty"`
}

type entry struct {
	constructor Constructor
	info        TypeInfo
}

// Registry manages type registration and instantiation
type Registry struct {
	types map[string]entry
	mu    sync.RWMutex
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new type registry
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]entry),
	}
}

// Register registers a constructor under name. The optional info describes
// the type for listings.
func (r *Registry) Register(name string, ctor Constructor, info ...TypeInfo) error {
	if name == "" {
		return errors.New(errors.ErrorTypeValidation, "type name is required")
	}
	if ctor == nil {
		return errors.Newf(errors.ErrorTypeValidation, "type %s has no constructor", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return errors.Newf(errors.ErrorTypeConflict, "type %s already registered", name)
	}

	e := entry{constructor: ctor, info: TypeInfo{Name: name}}
	if len(info) > 0 {
		e.info = info[0]
		e.info.Name = name
	}
	r.types[name] = e
	logger.Debug("type registered", zap.String("component", "type_registry"), zap.String("name", name))
	return nil
}

// MustRegister is like Register but panics on error. It is meant for init
// functions where a duplicate name is a programming error.
func (r *Registry) MustRegister(name string, ctor Constructor, info ...TypeInfo) {
	if err := r.Register(name, ctor, info...); err != nil {
		panic(err)
	}
}

// Create creates an instance of the type named spec.Type
func (r *Registry) Create(ctx context.Context, spec Spec) (any, error) {
	r.mu.RLock()
	e, exists := r.types[spec.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "type %s not registered", spec.Type).
			WithDetail("id", spec.ID)
	}
	if spec.Properties == nil {
		spec.Properties = map[string]any{}
	}

	obj, err := e.constructor(ctx, spec)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create "+spec.ID+" of type "+spec.Type)
	}
	return obj, nil
}

// Has checks if a type is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.types[name]
	return exists
}

// List returns the registered type names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the description of a registered type
func (r *Registry) Info(name string) (TypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.types[name]
	if !exists {
		return TypeInfo{}, errors.Newf(errors.ErrorTypeNotFound, "type %s not registered", name)
	}
	return e.info, nil
}

// Clear removes all registered types (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types = make(map[string]entry)
}

// Global registry functions

// Register registers a type in the global registry
func Register(name string, ctor Constructor, info ...TypeInfo) error {
	return globalRegistry.Register(name, ctor, info...)
}

// MustRegister registers a type in the global registry, panicking on error
func MustRegister(name string, ctor Constructor, info ...TypeInfo) {
	globalRegistry.MustRegister(name, ctor, info...)
}

// Create creates an instance from the global registry
func Create(ctx context.Context, spec Spec) (any, error) {
	return globalRegistry.Create(ctx, spec)
}

// Has checks if a type is registered in the global registry
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// List returns the type names registered in the global registry
func List() []string {
	return globalRegistry.List()
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
