package bootstrap

import (
	"context"

	"github.com/ajitpratap0/launchpad/pkg/config"
	// installs the default object factory provider
	_ "github.com/ajitpratap0/launchpad/pkg/objects"
)

// Runnable is an application entry point
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc adapts a function to the Runnable interface
type RunnableFunc func(ctx context.Context) error

// Run calls f
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ClassLoader registers namespace prefix -> path aliases process-wide
type ClassLoader interface {
	Load(classMap map[string]string)
}

// ConfigurationFactory produces configurations. SetDebug and SetCacheDir
// are process-wide switches.
type ConfigurationFactory interface {
	SetDebug(debug bool)
	SetCacheDir(dir string)
	Create(ctx context.Context, configFile, baseDir, userDir string, extConfigs []config.Fragment) (Configuration, error)
}

// Configuration exposes the object factory of a created configuration
type Configuration interface {
	ObjectFactory() config.ObjectFactory
}

// FromConfigFactory adapts a *config.Factory to ConfigurationFactory
func FromConfigFactory(f *config.Factory) ConfigurationFactory {
	return configFactory{f: f}
}

type configFactory struct {
	f *config.Factory
}

func (c configFactory) SetDebug(debug bool)    { c.f.SetDebug(debug) }
func (c configFactory) SetCacheDir(dir string) { c.f.SetCacheDir(dir) }

func (c configFactory) Create(ctx context.Context, configFile, baseDir, userDir string, extConfigs []config.Fragment) (Configuration, error) {
	cfg, err := c.f.Create(ctx, configFile, baseDir, userDir, extConfigs)
	if err != nil {
		// a nil *config.Configuration must not become a non-nil interface
		return nil, err
	}
	return cfg, nil
}
