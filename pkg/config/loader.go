package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/launchpad/pkg/errors"
)

// keyDelimiter keeps viper from splitting object identifiers such as
// "app.main" into nested keys.
const keyDelimiter = "::"

const importsKey = "imports"

func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
}

// documentLoader reads a configuration document and, depth first, the
// documents it imports.
type documentLoader struct {
	sources  map[string]Source
	builtins map[string]string

	settings map[string]any
	visiting []string
	read     []string
	// env holds the environment values substituted into the documents
	env map[string]string
}

func newDocumentLoader(sources map[string]Source, baseDir, userDir string) *documentLoader {
	return &documentLoader{
		sources: sources,
		builtins: map[string]string{
			"BASE_DIR": baseDir,
			"USER_DIR": userDir,
		},
		settings: map[string]any{},
		env:      map[string]string{},
	}
}

// load merges the document at location into l.settings after its imports
func (l *documentLoader) load(ctx context.Context, location string) error {
	for _, v := range l.visiting {
		if v == location {
			return errors.Newf(errors.ErrorTypeConflict, "import cycle at %s", location).
				WithDetail("chain", append(append([]string(nil), l.visiting...), location))
		}
	}

	src, ok := l.sources[scheme(location)]
	if !ok {
		return errors.Newf(errors.ErrorTypeValidation, "unsupported configuration scheme %q", scheme(location)).
			WithDetail("location", location)
	}
	data, err := src.Fetch(ctx, location)
	if err != nil {
		return err
	}

	doc, err := parseDocument(location, substituteEnvVars(string(data), l.vars(location), l.getenv))
	if err != nil {
		return err
	}

	imports, err := importList(doc[importsKey])
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "invalid imports in "+location)
	}
	delete(doc, importsKey)

	l.visiting = append(l.visiting, location)
	for _, imp := range imports {
		if err := l.load(ctx, resolveLocation(location, imp)); err != nil {
			return err
		}
	}
	l.visiting = l.visiting[:len(l.visiting)-1]

	mergeSettings(l.settings, doc)
	l.read = append(l.read, location)
	return nil
}

func (l *documentLoader) vars(location string) map[string]string {
	vars := make(map[string]string, len(l.builtins)+1)
	for k, v := range l.builtins {
		vars[k] = v
	}
	vars["CONFIG_DIR"] = locationDir(location)
	return vars
}

// getenv reads an environment variable and records the value it substituted
func (l *documentLoader) getenv(name string) string {
	v := os.Getenv(name)
	l.env[name] = v
	return v
}

// parseDocument parses content according to the extension of location
func parseDocument(location, content string) (map[string]any, error) {
	v := newViper()
	v.SetConfigType(formatOf(location))
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse configuration").
			WithDetail("location", location)
	}
	return normalizeMap(v.AllSettings()), nil
}

func importList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("import entry %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("imports must be a list of locations, got %T", value)
	}
}

// substituteEnvVars replaces ${VAR_NAME} with vars[VAR_NAME] or, when vars
// has no entry, getenv(VAR_NAME)
func substituteEnvVars(content string, vars map[string]string, getenv func(string) string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		value, ok := vars[varName]
		if !ok {
			value = getenv(varName)
		}
		b.WriteString(content[:start])
		b.WriteString(value)
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

// mergeSettings deep-merges src into dst. Maps are merged key by key, any
// other value in src replaces the value in dst.
func mergeSettings(dst, src map[string]any) {
	for k, sv := range src {
		sm, srcIsMap := sv.(map[string]any)
		dm, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeSettings(dm, sm)
			continue
		}
		dst[k] = sv
	}
}

// normalize returns a deep copy of v with lower-cased map keys, the form
// viper produces for parsed documents
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case Fragment:
		return normalizeMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[strings.ToLower(fmt.Sprint(k))] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[strings.ToLower(k)] = normalize(item)
	}
	return out
}

// cleanLocation joins relative local paths under baseDir and makes them
// absolute against the working directory
func cleanLocation(configFile, baseDir string) string {
	if configFile == "" || !isLocal(configFile) {
		return configFile
	}
	p := localPath(configFile)
	if !filepath.IsAbs(p) && baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
