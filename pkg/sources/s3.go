package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

const (
	downloadPartSize    = 16 * 1024 * 1024
	downloadConcurrency = 4
)

// objectAPI is the subset of the S3 client used by S3Source
type objectAPI interface {
	s3.ListObjectsV2APIClient
	manager.DownloadAPIClient
}

// S3Source reads outputs stored under a bucket prefix. Listings and object
// bodies are cached for the configured TTL.
type S3Source struct {
	client objectAPI
	bucket string
	prefix string
	cache  *objectCache
}

// NewS3Source creates an S3 client from cfg
func NewS3Source(ctx context.Context, cfg types.S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, &types.ConfigurationError{Setting: "source.s3.bucket", Value: ""}
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	log.Debug().
		Str("bucket", cfg.Bucket).
		Str("prefix", cfg.Prefix).
		Str("endpoint", cfg.Endpoint).
		Msg("s3 output source initialized")

	return newS3Source(client, cfg), nil
}

func newS3Source(client objectAPI, cfg types.S3Config) *S3Source {
	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Source{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		cache:  newObjectCache(cfg.CacheEntries, cfg.CacheTTL),
	}
}

func buildAWSConfig(ctx context.Context, cfg types.S3Config) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	// Static credentials win over the default chain
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}

func (s *S3Source) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}

// List returns the base names of the objects directly under the prefix
func (s *S3Source) List(ctx context.Context) ([]string, error) {
	data, err := s.cache.fetch(listingKey, func() ([]byte, error) {
		names, err := s.listObjects(ctx)
		if err != nil {
			return nil, err
		}
		return []byte(strings.Join(names, "\n")), nil
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []string{}, nil
	}
	return strings.Split(string(data), "\n"), nil
}

func (s *S3Source) listObjects(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.prefix),
		Delimiter: aws.String("/"),
	})

	names := []string{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)

	log.Debug().Str("location", s.Location()).Int("objects", len(names)).Msg("listed outputs")
	return names, nil
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	key := s.prefix + name
	data, err := s.cache.fetch(key, func() ([]byte, error) {
		return s.download(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *S3Source) download(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	downloader := manager.NewDownloader(s.client, func(d *manager.Downloader) {
		d.PartSize = downloadPartSize
		d.Concurrency = downloadConcurrency
	})

	_, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		var notFound *s3types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// Refresh drops cached listings and objects
func (s *S3Source) Refresh() {
	s.cache.purge()
}
