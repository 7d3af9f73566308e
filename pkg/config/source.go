package config

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/launchpad/pkg/errors"
)

// Source fetches raw configuration documents for one location scheme
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context, location string) ([]byte, error)

// Fetch calls f
func (f SourceFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// FileSource reads local files. It accepts plain paths and file:// URLs.
type FileSource struct{}

// Fetch reads the file at location
func (FileSource) Fetch(_ context.Context, location string) ([]byte, error) {
	p := localPath(location)
	data, err := os.ReadFile(p) //nolint:gosec // G304: configuration paths are supplied by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "configuration file not found").
				WithDetail("path", p)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read configuration file").
			WithDetail("path", p)
	}
	return data, nil
}

// scheme returns the URL scheme of location, "file" for plain paths
func scheme(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return "file"
	}
	return strings.ToLower(location[:i])
}

// isLocal reports whether location is read from the local filesystem
func isLocal(location string) bool {
	return scheme(location) == "file"
}

// localPath strips a file:// prefix
func localPath(location string) string {
	if strings.HasPrefix(location, "file://") {
		return strings.TrimPrefix(location, "file://")
	}
	return location
}

// splitBucket splits "s3://bucket/key/path" into bucket and key
func splitBucket(location string) (string, string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", errors.Wrap(err, errors.ErrorTypeValidation, "invalid configuration location")
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.Newf(errors.ErrorTypeValidation, "location %q must name a bucket and an object", location)
	}
	return u.Host, key, nil
}

// resolveLocation resolves ref relative to the document at parent
func resolveLocation(parent, ref string) string {
	if !isLocal(ref) || filepath.IsAbs(localPath(ref)) {
		return ref
	}
	if !isLocal(parent) {
		u, err := url.Parse(parent)
		if err != nil {
			return ref
		}
		u.Path = path.Join(path.Dir(u.Path), ref)
		return u.String()
	}
	return filepath.Join(filepath.Dir(localPath(parent)), ref)
}

// locationDir returns the directory part of location
func locationDir(location string) string {
	if isLocal(location) {
		return filepath.Dir(localPath(location))
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	u.Path = path.Dir(u.Path)
	return u.String()
}

// formatOf returns the viper config type for location's extension
func formatOf(location string) string {
	if u, err := url.Parse(location); err == nil && !isLocal(location) {
		location = u.Path
	}
	switch strings.ToLower(path.Ext(filepath.ToSlash(location))) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}
