package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/compression"
	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/metrics"
)

const (
	cacheVersion   = 2
	cacheExtension = ".cfgcache"
)

// cacheEntry is the persisted form of a Configuration
type cacheEntry struct {
	Version   int               `json:"version"`
	Settings  map[string]any    `json:"settings"`
	Sources   []string          `json:"sources"`
	Env       map[string]string `json:"env,omitempty"`
	BaseDir   string            `json:"base_dir"`
	UserDir   string            `json:"user_dir"`
	CreatedAt time.Time         `json:"created_at"`
}

// configCache stores merged configurations on disk. Each file is a
// compression frame around the JSON entry.
type configCache struct {
	dir    string
	codec  compression.Algorithm
	logger *zap.Logger
}

// cacheKey derives the cache key from the resolved location and the other
// Create inputs
func cacheKey(configFile, baseDir, userDir string, ext []Fragment) (string, error) {
	extJSON, err := json.Marshal(ext)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode extra configuration")
	}

	h := sha256.New()
	for _, part := range [][]byte{[]byte(configFile), []byte(baseDir), []byte(userDir), extJSON} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *configCache) path(key string) string {
	return filepath.Join(c.dir, key+cacheExtension)
}

// load returns the entry for key and the lookup result label. A nil entry
// means the caller must rebuild.
func (c *configCache) load(key string) (*cacheEntry, string) {
	p := c.path(key)
	info, err := os.Stat(p)
	if err != nil {
		return nil, metrics.CacheMiss
	}

	raw, err := os.ReadFile(p) //nolint:gosec // G304: path is derived from the cache directory
	if err != nil {
		c.logger.Warn("failed to read cache entry", zap.String("path", p), zap.Error(err))
		return nil, metrics.CacheMiss
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		c.logger.Warn("discarding unreadable cache entry", zap.String("path", p), zap.Error(err))
		return nil, metrics.CacheStale
	}

	for name, value := range entry.Env {
		if os.Getenv(name) != value {
			c.logger.Debug("cached configuration used a different environment", zap.String("var", name))
			return nil, metrics.CacheStale
		}
	}

	for _, src := range entry.Sources {
		if !isLocal(src) {
			continue
		}
		srcInfo, err := os.Stat(localPath(src))
		if err != nil || srcInfo.ModTime().After(info.ModTime()) {
			return nil, metrics.CacheStale
		}
	}
	return entry, metrics.CacheHit
}

// store writes entry under key, replacing any previous entry atomically
func (c *configCache) store(key string, entry *cacheEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode cache entry")
	}
	frame, err := compression.Seal(c.codec, payload)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create cache directory")
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create cache entry")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(frame); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write cache entry")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write cache entry")
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to store cache entry")
	}
	return nil
}

func decodeEntry(raw []byte) (*cacheEntry, error) {
	payload, _, err := compression.Open(raw)
	if err != nil {
		return nil, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "corrupt cache entry")
	}
	if entry.Version != cacheVersion {
		return nil, errors.Newf(errors.ErrorTypeValidation, "cache entry version %d is not supported", entry.Version)
	}
	if entry.Settings == nil {
		entry.Settings = map[string]any{}
	}
	return &entry, nil
}
