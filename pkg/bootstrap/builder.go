package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/classloader"
	"github.com/ajitpratap0/launchpad/pkg/config"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/logger"
	"github.com/ajitpratap0/launchpad/pkg/metrics"
	"github.com/ajitpratap0/launchpad/pkg/observability"
)

// State is a snapshot of the values accumulated by a Builder. Empty strings
// mean "not set".
type State struct {
	ConfigFile                   string
	BaseDir                      string
	UserDir                      string
	ExtConfigs                   []config.Fragment
	TargetObjectID               string
	ConfigurationFactoryDebug    bool
	ConfigurationFactoryCacheDir string
	ClassMap                     map[string]string
}

func (s State) clone() State {
	out := s
	out.ExtConfigs = append([]config.Fragment{}, s.ExtConfigs...)
	out.ClassMap = make(map[string]string, len(s.ClassMap))
	for k, v := range s.ClassMap {
		out.ClassMap[k] = v
	}
	return out
}

// Builder accumulates startup settings and resolves them into the target
// Runnable. Setters only record values; every collaborator call happens in
// Build. A Builder is owned by one goroutine.
type Builder struct {
	state State

	classLoader ClassLoader
	factory     ConfigurationFactory
	logger      *zap.Logger
}

// Option configures the collaborators of a Builder
type Option func(*Builder)

// WithClassLoader sets the class loader. The default is the process-wide
// classloader.Default().
func WithClassLoader(l ClassLoader) Option {
	return func(b *Builder) { b.classLoader = l }
}

// WithConfigurationFactory sets the configuration factory. The default is
// the process-wide config.Default().
func WithConfigurationFactory(f ConfigurationFactory) Option {
	return func(b *Builder) { b.factory = f }
}

// WithLogger sets the builder logger
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// New returns a fresh Builder. Every call returns a new instance; nothing is
// shared between builders except the process-wide collaborators.
func New(opts ...Option) *Builder {
	b := &Builder{
		state: State{ClassMap: map[string]string{}},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.classLoader == nil {
		b.classLoader = classloader.Default()
	}
	if b.factory == nil {
		b.factory = FromConfigFactory(config.Default())
	}
	if b.logger == nil {
		b.logger = logger.Get().With(zap.String("component", "bootstrap"))
	}
	return b
}

// SetConfigFile sets the primary configuration source
func (b *Builder) SetConfigFile(path string) *Builder {
	b.state.ConfigFile = path
	return b
}

// SetBaseDir sets the base directory relative paths are resolved against
func (b *Builder) SetBaseDir(dir string) *Builder {
	b.state.BaseDir = dir
	return b
}

// SetUserDir sets the user directory
func (b *Builder) SetUserDir(dir string) *Builder {
	b.state.UserDir = dir
	return b
}

// SetExtConfigs replaces the extra configuration fragments
func (b *Builder) SetExtConfigs(fragments []config.Fragment) *Builder {
	b.state.ExtConfigs = append([]config.Fragment{}, fragments...)
	return b
}

// SetTargetObjectID sets the identifier of the object to build
func (b *Builder) SetTargetObjectID(id string) *Builder {
	b.state.TargetObjectID = id
	return b
}

// SetConfigurationFactoryDebug sets the value pushed to the configuration
// factory debug switch
func (b *Builder) SetConfigurationFactoryDebug(debug bool) *Builder {
	b.state.ConfigurationFactoryDebug = debug
	return b
}

// SetConfigurationFactoryCacheDir sets the value pushed to the configuration
// factory cache directory switch. The empty string leaves the switch alone.
func (b *Builder) SetConfigurationFactoryCacheDir(dir string) *Builder {
	b.state.ConfigurationFactoryCacheDir = dir
	return b
}

// SetClassMap replaces the class map
func (b *Builder) SetClassMap(classMap map[string]string) *Builder {
	b.state.ClassMap = make(map[string]string, len(classMap))
	for k, v := range classMap {
		b.state.ClassMap[k] = v
	}
	return b
}

// AddClassMapEntry sets one class map entry
func (b *Builder) AddClassMapEntry(prefix, path string) *Builder {
	b.state.ClassMap[prefix] = path
	return b
}

// State returns a copy of the accumulated values
func (b *Builder) State() State {
	return b.state.clone()
}

// Build resolves the accumulated state into the target Runnable:
//
//  1. a non-empty class map is registered with the class loader
//  2. the debug flag is pushed to the configuration factory
//  3. a non-empty cache directory is pushed to the configuration factory
//  4. a configuration is created from the config file, base directory,
//     user directory and extra fragments
//  5. its object factory creates the target object
//
// Collaborator errors are returned unmodified. An object that does not
// implement Runnable yields an ErrorTypeCapability error. Build does not
// modify the builder.
func (b *Builder) Build(ctx context.Context) (Runnable, error) {
	ctx, span := observability.StartSpan(ctx, "bootstrap.build")
	span.SetAttribute("target", b.state.TargetObjectID)
	timer := metrics.NewTimer("build")

	target, err := b.build(ctx)

	metrics.BuildDuration.WithLabelValues(metrics.Outcome(err)).Observe(timer.Stop().Seconds())
	span.Finish(err)
	return target, err
}

// createRequest groups the positional arguments of ConfigurationFactory.Create
type createRequest struct {
	configFile string
	baseDir    string
	userDir    string
	extConfigs []config.Fragment
}

func (b *Builder) build(ctx context.Context) (Runnable, error) {
	s := b.state.clone()
	log := b.logger.With(zap.String("target", s.TargetObjectID))

	if len(s.ClassMap) > 0 {
		log.Debug("registering class map", zap.Int("entries", len(s.ClassMap)))
		b.classLoader.Load(s.ClassMap)
	}

	log.Debug("setting configuration factory debug", zap.Bool("debug", s.ConfigurationFactoryDebug))
	b.factory.SetDebug(s.ConfigurationFactoryDebug)

	if s.ConfigurationFactoryCacheDir != "" {
		log.Debug("setting configuration cache directory", zap.String("cache_dir", s.ConfigurationFactoryCacheDir))
		b.factory.SetCacheDir(s.ConfigurationFactoryCacheDir)
	}

	req := createRequest{
		configFile: s.ConfigFile,
		baseDir:    s.BaseDir,
		userDir:    s.UserDir,
		extConfigs: s.ExtConfigs,
	}
	log.Debug("creating configuration",
		zap.String("config_file", req.configFile),
		zap.String("base_dir", req.baseDir),
		zap.String("user_dir", req.userDir),
		zap.Int("ext_configs", len(req.extConfigs)))
	cfg, err := b.factory.Create(ctx, req.configFile, req.baseDir, req.userDir, req.extConfigs)
	if err != nil {
		return nil, err
	}

	objects := cfg.ObjectFactory()

	log.Debug("creating target object")
	obj, err := objects.Create(ctx, s.TargetObjectID)
	if err != nil {
		return nil, err
	}

	target, ok := obj.(Runnable)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability, "object %q of type %T is not runnable", s.TargetObjectID, obj).
			WithDetail("target", s.TargetObjectID)
	}
	return target, nil
}
