package config

import (
	"context"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/launchpad/pkg/errors"
)

// GCSSource reads gs://bucket/object locations. The storage client is
// created on first use.
type GCSSource struct {
	credentialsFile string

	mu     sync.Mutex
	client *storage.Client
}

// NewGCSSource creates a GCS source. An empty credentialsFile uses
// application default credentials.
func NewGCSSource(credentialsFile string) *GCSSource {
	return &GCSSource{credentialsFile: credentialsFile}
}

// Fetch reads the object at location
func (s *GCSSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, object, err := splitBucket(location)
	if err != nil {
		return nil, err
	}

	client, err := s.storageClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "configuration object not found").
				WithDetail("location", location)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open configuration object").
			WithDetail("location", location)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read configuration object").
			WithDetail("location", location)
	}
	return data, nil
}

// Close releases the storage client if one was created
func (s *GCSSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *GCSSource) storageClient(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	var opts []option.ClientOption
	if s.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}
	s.client = client
	return client, nil
}
