// Package classloader maps namespace prefixes to filesystem locations.
//
// A class map such as {"app": "/srv/app/objects"} lets an identifier like
// "app.http.Server" resolve to /srv/app/objects/http/Server. The object
// factory uses this to find definition files for identifiers that are not
// declared in the loaded configuration.
//
// Aliases are process-wide when registered through Default() or the package
// level Load function.
package classloader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/duke-git/lancet/v2/maputil"
	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/logger"
)

// Loader holds prefix -> path aliases. It is safe for concurrent use.
type Loader struct {
	mu      sync.RWMutex
	aliases map[string]string
	// ordered holds the alias prefixes, longest first
	ordered []string
}

var defaultLoader = New()

// New creates an empty loader
func New() *Loader {
	return &Loader{aliases: make(map[string]string)}
}

// Default returns the process-wide loader
func Default() *Loader {
	return defaultLoader
}

// Load registers every entry of classMap in the process-wide loader
func Load(classMap map[string]string) {
	defaultLoader.Load(classMap)
}

// Load registers the entries of classMap. Existing prefixes are overwritten,
// others are left untouched.
func (l *Loader) Load(classMap map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for prefix, path := range classMap {
		prefix = trimSeparators(prefix)
		l.aliases[prefix] = filepath.Clean(path)
	}
	l.ordered = maputil.Keys(l.aliases)
	sort.Slice(l.ordered, func(i, j int) bool {
		if len(l.ordered[i]) != len(l.ordered[j]) {
			return len(l.ordered[i]) > len(l.ordered[j])
		}
		return l.ordered[i] < l.ordered[j]
	})

	l.log().Debug("class map loaded", zap.Int("entries", len(classMap)), zap.Int("aliases", len(l.aliases)))
}

func (l *Loader) log() *zap.Logger {
	return logger.Get().With(zap.String("component", "classloader"))
}

// Aliases returns a copy of the registered aliases
func (l *Loader) Aliases() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]string, len(l.aliases))
	for k, v := range l.aliases {
		out[k] = v
	}
	return out
}

// Reset removes all aliases (mainly for testing)
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.aliases = make(map[string]string)
	l.ordered = nil
}

// Resolve maps id to a filesystem path using the longest matching prefix.
// The part of id after the prefix is split on '.', '/' and '\' and joined
// below the alias path. A ".." segment splits into nothing, so the result
// stays inside the alias path.
func (l *Loader) Resolve(id string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, prefix := range l.ordered {
		rest, ok := cutPrefix(id, prefix)
		if !ok {
			continue
		}
		parts := strings.FieldsFunc(rest, isSeparator)
		return filepath.Join(append([]string{l.aliases[prefix]}, parts...)...), true
	}
	return "", false
}

// Locate returns the first existing regular file among Resolve(id)+ext for
// each of exts, in order.
func (l *Loader) Locate(id string, exts ...string) (string, error) {
	base, ok := l.Resolve(id)
	if !ok {
		return "", errors.Newf(errors.ErrorTypeNotFound, "no class map entry matches %q", id)
	}
	if len(exts) == 0 {
		exts = []string{""}
	}

	for _, ext := range exts {
		candidate := base + ext
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeNotFound, "no file for %q under %s", id, base).
		WithDetail("extensions", exts)
}

// cutPrefix reports whether prefix is a whole-segment prefix of id and
// returns the remainder.
func cutPrefix(id, prefix string) (string, bool) {
	if prefix == "" {
		return id, true
	}
	if !strings.HasPrefix(id, prefix) {
		return "", false
	}
	rest := id[len(prefix):]
	if rest == "" {
		return "", true
	}
	if !isSeparator(rune(rest[0])) {
		return "", false
	}
	return rest[1:], true
}

func isSeparator(r rune) bool {
	return r == '.' || r == '/' || r == '\\'
}

func trimSeparators(prefix string) string {
	return strings.TrimRightFunc(prefix, isSeparator)
}
