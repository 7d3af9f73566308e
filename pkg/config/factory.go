package config

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/compression"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/logger"
	"github.com/ajitpratap0/launchpad/pkg/metrics"
	"github.com/ajitpratap0/launchpad/pkg/observability"
)

// Factory creates configurations. Its debug and cache directory switches
// apply to every subsequent Create call.
type Factory struct {
	mu       sync.RWMutex
	debug    bool
	cacheDir string
	codec    compression.Algorithm
	provider ObjectFactoryProvider
	sources  map[string]Source
	logger   *zap.Logger
}

// Option configures a Factory
type Option func(*Factory)

// WithCacheCodec selects the compression algorithm for new cache entries
func WithCacheCodec(algo compression.Algorithm) Option {
	return func(f *Factory) { f.codec = algo }
}

// WithSource registers src for locations with the given scheme
func WithSource(scheme string, src Source) Option {
	return func(f *Factory) { f.sources[scheme] = src }
}

// WithObjectFactoryProvider sets the provider used by created configurations
func WithObjectFactoryProvider(p ObjectFactoryProvider) Option {
	return func(f *Factory) { f.provider = p }
}

// WithLogger sets the factory logger
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

var defaultFactory = NewFactory()

// NewFactory creates a factory reading local files, s3:// and gs://
// locations
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		codec: compression.DefaultConfig().Algorithm,
		sources: map[string]Source{
			"file": FileSource{},
			"s3":   NewS3Source(""),
			"gs":   NewGCSSource(""),
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Default returns the process-wide factory
func Default() *Factory {
	return defaultFactory
}

// SetDebug sets the debug switch of the process-wide factory
func SetDebug(debug bool) {
	defaultFactory.SetDebug(debug)
}

// SetCacheDir sets the cache directory of the process-wide factory
func SetCacheDir(dir string) {
	defaultFactory.SetCacheDir(dir)
}

// SetDefaultObjectFactoryProvider sets the object factory provider of the
// process-wide factory
func SetDefaultObjectFactoryProvider(p ObjectFactoryProvider) {
	defaultFactory.SetObjectFactoryProvider(p)
}

// SetDebug enables debug mode. Debug mode logs every source read and
// bypasses the cache.
func (f *Factory) SetDebug(debug bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.debug = debug
}

// Debug returns the debug switch
func (f *Factory) Debug() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.debug
}

// SetCacheDir sets the directory for cached configurations. An empty dir
// disables the cache.
func (f *Factory) SetCacheDir(dir string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cacheDir = dir
}

// CacheDir returns the cache directory
func (f *Factory) CacheDir() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cacheDir
}

// SetCacheCodec selects the compression algorithm for new cache entries
func (f *Factory) SetCacheCodec(algo compression.Algorithm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codec = algo
}

// SetObjectFactoryProvider sets the provider used by configurations created
// from now on
func (f *Factory) SetObjectFactoryProvider(p ObjectFactoryProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.provider = p
}

// RegisterSource registers src for locations with the given scheme,
// replacing any previous source
func (f *Factory) RegisterSource(scheme string, src Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[scheme] = src
}

type factorySnapshot struct {
	debug    bool
	cacheDir string
	codec    compression.Algorithm
	provider ObjectFactoryProvider
	sources  map[string]Source
}

func (f *Factory) snapshot() factorySnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	sources := make(map[string]Source, len(f.sources))
	for k, v := range f.sources {
		sources[k] = v
	}
	return factorySnapshot{
		debug:    f.debug,
		cacheDir: f.cacheDir,
		codec:    f.codec,
		provider: f.provider,
		sources:  sources,
	}
}

func (f *Factory) log() *zap.Logger {
	if f.logger != nil {
		return f.logger
	}
	return logger.Get().With(zap.String("component", "config_factory"))
}

// Create loads configFile, its imports and the extra fragments into a new
// Configuration. A relative configFile is resolved against baseDir. An
// empty configFile yields a configuration made of the fragments alone.
func (f *Factory) Create(ctx context.Context, configFile, baseDir, userDir string, extConfigs []Fragment) (*Configuration, error) {
	ctx, span := observability.StartSpan(ctx, "config.create")
	span.SetAttribute("config.file", configFile)
	cfg, err := f.create(ctx, configFile, baseDir, userDir, extConfigs)
	span.Finish(err)
	return cfg, err
}

func (f *Factory) create(ctx context.Context, configFile, baseDir, userDir string, extConfigs []Fragment) (*Configuration, error) {
	snap := f.snapshot()
	log := f.log()
	start := time.Now()

	location := cleanLocation(configFile, baseDir)

	var cache *configCache
	var key string
	switch {
	case snap.cacheDir == "":
	case snap.debug:
		metrics.ConfigCacheLookups.WithLabelValues(metrics.CacheBypass).Inc()
		log.Debug("configuration cache bypassed in debug mode", zap.String("cache_dir", snap.cacheDir))
	default:
		k, err := cacheKey(location, baseDir, userDir, extConfigs)
		if err != nil {
			return nil, err
		}
		cache = &configCache{dir: snap.cacheDir, codec: snap.codec, logger: log}
		key = k

		entry, result := cache.load(key)
		metrics.ConfigCacheLookups.WithLabelValues(result).Inc()
		if entry != nil {
			cfg, err := newConfiguration(entry.Settings, entry.BaseDir, entry.UserDir, entry.Sources, snap.provider)
			if err == nil {
				metrics.ConfigLoadDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
				log.Debug("configuration loaded from cache", zap.String("key", key))
				return cfg, nil
			}
			log.Warn("cached configuration is invalid, rebuilding", zap.Error(err))
		}
	}

	loader := newDocumentLoader(snap.sources, baseDir, userDir)
	if location != "" {
		if err := loader.load(ctx, location); err != nil {
			return nil, err
		}
	}
	if snap.debug {
		log.Debug("configuration sources read", zap.Strings("sources", loader.read))
	}

	for _, ext := range extConfigs {
		mergeSettings(loader.settings, normalizeMap(ext))
	}

	cfg, err := newConfiguration(loader.settings, baseDir, userDir, loader.read, snap.provider)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		entry := &cacheEntry{
			Version:   cacheVersion,
			Settings:  cfg.settings,
			Sources:   cfg.sources,
			Env:       loader.env,
			BaseDir:   baseDir,
			UserDir:   userDir,
			CreatedAt: time.Now().UTC(),
		}
		if err := cache.store(key, entry); err != nil {
			log.Warn("failed to cache configuration", zap.Error(err))
		}
	}

	metrics.ConfigLoadDuration.WithLabelValues(sourceLabel(location)).Observe(time.Since(start).Seconds())
	log.Debug("configuration created",
		zap.String("config_file", location),
		zap.Int("sources", len(cfg.sources)),
		zap.Int("fragments", len(extConfigs)),
		zap.Int("objects", len(cfg.definitions)))
	return cfg, nil
}

func sourceLabel(location string) string {
	if location == "" {
		return "none"
	}
	return scheme(location)
}

// newConfiguration decodes and validates the object definitions in settings
func newConfiguration(settings map[string]any, baseDir, userDir string, sources []string, provider ObjectFactoryProvider) (*Configuration, error) {
	definitions := map[string]ObjectDefinition{}
	if raw, ok := settings["objects"]; ok && raw != nil {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &definitions,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create definition decoder")
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid object definitions")
		}
	}

	for id, def := range definitions {
		if err := def.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid definition for "+id).
				WithDetail("id", id)
		}
		if def.Properties == nil {
			def.Properties = map[string]any{}
			definitions[id] = def
		}
	}

	return &Configuration{
		settings:    settings,
		definitions: definitions,
		baseDir:     baseDir,
		userDir:     userDir,
		sources:     append([]string(nil), sources...),
		provider:    provider,
	}, nil
}
