package config

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ajitpratap0/launchpad/pkg/errors"
)

// Fragment is an in-memory configuration document merged on top of the
// configuration file.
type Fragment map[string]any

// ObjectDefinition describes how to create one object. Definitions live
// under the top-level `objects` key, keyed by object identifier:
//
//	objects:
//	  app.main:
//	    type: sequence
//	    properties:
//	      steps: ["@app.banner", "@app.server"]
type ObjectDefinition struct {
	// Type is the registered type name
	Type string `mapstructure:"type" json:"type" yaml:"type" validate:"required"`
	// Properties are passed to the type's constructor
	Properties map[string]any `mapstructure:"properties" json:"properties,omitempty" yaml:"properties,omitempty"`
	// Shared objects are created once per object factory
	Shared bool `mapstructure:"shared" json:"shared,omitempty" yaml:"shared,omitempty"`
}

var validate = validator.New()

// Validate checks the definition's required fields
func (d ObjectDefinition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "invalid object definition")
	}
	return nil
}

// ObjectFactory creates objects by identifier
type ObjectFactory interface {
	Create(ctx context.Context, id string) (any, error)
}

// ObjectFactoryProvider builds the object factory of a configuration
type ObjectFactoryProvider func(cfg *Configuration) ObjectFactory

// Configuration is the merged result of a configuration file, its imports and
// the extra fragments. It is read-only once created.
type Configuration struct {
	settings    map[string]any
	definitions map[string]ObjectDefinition
	baseDir     string
	userDir     string
	sources     []string

	provider ObjectFactoryProvider
	once     sync.Once
	objects  ObjectFactory
}

// Get returns the value at a dot-separated path such as "server.port".
// Keys are case-insensitive.
func (c *Configuration) Get(path string) (any, bool) {
	var current any = c.settings
	for _, key := range strings.Split(strings.ToLower(path), ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[key]; !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString returns the value at path as a string, or "" when it is missing
// or not a string
func (c *Configuration) GetString(path string) string {
	v, _ := c.Get(path)
	s, _ := v.(string)
	return s
}

// GetBool returns the value at path as a bool, or false when it is missing
// or not a bool
func (c *Configuration) GetBool(path string) bool {
	v, _ := c.Get(path)
	b, _ := v.(bool)
	return b
}

// IsSet reports whether path holds a value
func (c *Configuration) IsSet(path string) bool {
	_, ok := c.Get(path)
	return ok
}

// Settings returns the merged settings. The map must not be modified.
func (c *Configuration) Settings() map[string]any {
	return c.settings
}

// Definition returns the object definition for id
func (c *Configuration) Definition(id string) (ObjectDefinition, bool) {
	d, ok := c.definitions[strings.ToLower(id)]
	return d, ok
}

// DefinitionIDs returns the identifiers of all defined objects, sorted
func (c *Configuration) DefinitionIDs() []string {
	ids := make([]string, 0, len(c.definitions))
	for id := range c.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BaseDir returns the base directory the configuration was created with
func (c *Configuration) BaseDir() string { return c.baseDir }

// UserDir returns the user directory the configuration was created with
func (c *Configuration) UserDir() string { return c.userDir }

// Sources returns the locations that were read, imports first
func (c *Configuration) Sources() []string {
	return append([]string(nil), c.sources...)
}

// ObjectFactory returns the object factory bound to this configuration. It
// is built on first use.
func (c *Configuration) ObjectFactory() ObjectFactory {
	c.once.Do(func() {
		if c.provider == nil {
			c.objects = unavailableFactory{}
			return
		}
		c.objects = c.provider(c)
	})
	return c.objects
}

type unavailableFactory struct{}

func (unavailableFactory) Create(_ context.Context, id string) (any, error) {
	return nil, errors.Newf(errors.ErrorTypeCapability, "no object factory installed, cannot create %q", id)
}
