// Package objects creates application objects from their definitions.
//
// A Factory resolves an identifier to a definition, resolves the
// definition's references, and calls the registered constructor for its
// type. Definitions are looked up in this order:
//
//  1. the `objects` section of the configuration
//  2. a definition file found through the class loader
//     (<alias path>/<id remainder>.yaml, .yml or .json)
//  3. a registered type whose name equals the identifier
//
// Property strings starting with "@" name other objects and are replaced by
// those objects before the constructor runs; "@@" yields a literal "@".
package objects

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/launchpad/pkg/classloader"
	"github.com/ajitpratap0/launchpad/pkg/config"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/logger"
	"github.com/ajitpratap0/launchpad/pkg/metrics"
	"github.com/ajitpratap0/launchpad/pkg/observability"
	"github.com/ajitpratap0/launchpad/pkg/registry"
)

const referencePrefix = "@"

var definitionExtensions = []string{".yaml", ".yml", ".json"}

func init() {
	config.SetDefaultObjectFactoryProvider(Provider(registry.GetRegistry(), classloader.Default()))
}

// Factory creates objects for one configuration. It is safe for concurrent
// use.
type Factory struct {
	cfg      *config.Configuration
	registry *registry.Registry
	loader   *classloader.Loader
	logger   *zap.Logger

	mu       sync.Mutex
	shared   map[string]any
	fileDefs map[string]config.ObjectDefinition
}

// Option configures a Factory
type Option func(*Factory)

// WithLogger sets the factory logger
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// NewFactory creates a factory. A nil reg uses the global registry; a nil
// cfg or loader skips that lookup step.
func NewFactory(cfg *config.Configuration, reg *registry.Registry, loader *classloader.Loader, opts ...Option) *Factory {
	if reg == nil {
		reg = registry.GetRegistry()
	}
	f := &Factory{
		cfg:      cfg,
		registry: reg,
		loader:   loader,
		shared:   make(map[string]any),
		fileDefs: make(map[string]config.ObjectDefinition),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().With(zap.String("component", "object_factory"))
	}
	return f
}

// Provider returns a config.ObjectFactoryProvider building factories over
// reg and loader
func Provider(reg *registry.Registry, loader *classloader.Loader) config.ObjectFactoryProvider {
	return func(cfg *config.Configuration) config.ObjectFactory {
		return NewFactory(cfg, reg, loader)
	}
}

// Create creates the object identified by id
func (f *Factory) Create(ctx context.Context, id string) (any, error) {
	return f.create(ctx, id, nil)
}

func (f *Factory) create(ctx context.Context, id string, chain []string) (any, error) {
	key := strings.ToLower(id)
	for _, c := range chain {
		if c == key {
			return nil, errors.Newf(errors.ErrorTypeConflict, "circular reference to %q", id).
				WithDetail("chain", append(append([]string(nil), chain...), key))
		}
	}

	def, err := f.definition(id)
	if err != nil {
		return nil, err
	}

	if def.Shared {
		f.mu.Lock()
		obj, ok := f.shared[key]
		f.mu.Unlock()
		if ok {
			return obj, nil
		}
	}

	ctx, span := observability.StartSpan(ctx, "objects.create")
	span.SetAttribute("object.id", id)
	span.SetAttribute("object.type", def.Type)
	obj, err := f.construct(ctx, id, def, append(append([]string(nil), chain...), key))
	span.Finish(err)
	if err != nil {
		return nil, err
	}

	if def.Shared {
		f.mu.Lock()
		if existing, ok := f.shared[key]; ok {
			obj = existing
		} else {
			f.shared[key] = obj
		}
		f.mu.Unlock()
	}
	return obj, nil
}

func (f *Factory) construct(ctx context.Context, id string, def config.ObjectDefinition, chain []string) (any, error) {
	props, err := f.resolve(ctx, def.Properties, chain)
	if err != nil {
		return nil, err
	}

	obj, err := f.registry.Create(ctx, registry.Spec{
		ID:         id,
		Type:       def.Type,
		Properties: props.(map[string]any),
	})
	if err != nil {
		return nil, err
	}

	metrics.ObjectsCreated.WithLabelValues(def.Type).Inc()
	f.logger.Debug("object created",
		zap.String("id", id),
		zap.String("type", def.Type),
		zap.Bool("shared", def.Shared))
	return obj, nil
}

// resolve replaces references in v with the objects they name
func (f *Factory) resolve(ctx context.Context, v any, chain []string) (any, error) {
	switch t := v.(type) {
	case string:
		ref, literal, isRef := parseReference(t)
		if !isRef {
			return literal, nil
		}
		return f.create(ctx, ref, chain)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			r, err := f.resolve(ctx, item, chain)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			r, err := f.resolve(ctx, item, chain)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// parseReference splits "@id" into id. "@@text" is the literal "@text".
func parseReference(s string) (ref string, literal string, isRef bool) {
	switch {
	case strings.HasPrefix(s, referencePrefix+referencePrefix):
		return "", s[1:], false
	case strings.HasPrefix(s, referencePrefix) && len(s) > 1:
		return s[1:], "", true
	default:
		return "", s, false
	}
}

// definition finds the definition for id
func (f *Factory) definition(id string) (config.ObjectDefinition, error) {
	if f.cfg != nil {
		if def, ok := f.cfg.Definition(id); ok {
			return def, nil
		}
	}

	if f.loader != nil {
		def, found, err := f.fileDefinition(id)
		if err != nil {
			return config.ObjectDefinition{}, err
		}
		if found {
			return def, nil
		}
	}

	if f.registry.Has(id) {
		return config.ObjectDefinition{Type: id, Properties: map[string]any{}}, nil
	}

	return config.ObjectDefinition{}, errors.Newf(errors.ErrorTypeNotFound, "unknown object identifier %q", id)
}

func (f *Factory) fileDefinition(id string) (config.ObjectDefinition, bool, error) {
	f.mu.Lock()
	def, ok := f.fileDefs[id]
	f.mu.Unlock()
	if ok {
		return def, true, nil
	}

	path, err := f.loader.Locate(id, definitionExtensions...)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return config.ObjectDefinition{}, false, nil
		}
		return config.ObjectDefinition{}, false, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator's class map
	if err != nil {
		return config.ObjectDefinition{}, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to read object definition").
			WithDetail("path", path)
	}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return config.ObjectDefinition{}, false, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse object definition").
			WithDetail("path", path)
	}
	if err := def.Validate(); err != nil {
		return config.ObjectDefinition{}, false, errors.Wrap(err, errors.ErrorTypeValidation, "invalid object definition").
			WithDetail("path", path)
	}
	if def.Properties == nil {
		def.Properties = map[string]any{}
	}

	f.logger.Debug("object definition located", zap.String("id", id), zap.String("path", path))

	f.mu.Lock()
	f.fileDefs[id] = def
	f.mu.Unlock()
	return def, true, nil
}
