package config

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ajitpratap0/launchpad/pkg/errors"
)

// S3Source reads s3://bucket/key locations. The AWS client is created on
// first use from the default credential chain.
type S3Source struct {
	region string

	mu         sync.Mutex
	downloader *manager.Downloader
}

// NewS3Source creates an S3 source. An empty region uses the SDK default.
func NewS3Source(region string) *S3Source {
	return &S3Source{region: region}
}

// Fetch downloads the object at location
func (s *S3Source) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := splitBucket(location)
	if err != nil {
		return nil, err
	}

	downloader, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(nil)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to download configuration").
			WithDetail("location", location)
	}
	return buf.Bytes(), nil
}

func (s *S3Source) client(ctx context.Context) (*manager.Downloader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.downloader != nil {
		return s.downloader, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if s.region != "" {
		opts = append(opts, awsconfig.WithRegion(s.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS configuration")
	}

	s.downloader = manager.NewDownloader(s3.NewFromConfig(cfg))
	return s.downloader, nil
}
