// Package objstore implements the object-store gateway over S3-compatible
// storage using the AWS SDK v2.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"lakecat/internal/config"
	"lakecat/internal/domain"
)

// Compile-time check: S3Store implements the gateway port.
var _ domain.ObjectStore = (*S3Store)(nil)

// S3Store is the S3-backed ObjectStore. It does not retry: transient
// failures surface as StoreUnavailableError for the caller to handle.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// Option customizes S3Store construction.
type Option func(*options)

type options struct {
	credentials aws.CredentialsProvider
}

// WithCredentialsProvider injects a credentials provider, used when the
// config carries no static credentials. Explicit config still wins.
func WithCredentialsProvider(p aws.CredentialsProvider) Option {
	return func(o *options) { o.credentials = p }
}

// NewS3Store builds an S3Store for the configured bucket.
//
// Credential precedence: static fields on cfg, then an injected provider,
// then the AWS default chain (environment, shared config, instance role).
func NewS3Store(ctx context.Context, cfg *config.Config, opts ...Option) (*S3Store, error) {
	if cfg.Bucket() == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var client *s3.Client
	switch {
	case cfg.HasS3Config():
		client = s3.New(s3.Options{
			Region: *cfg.S3Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				*cfg.S3KeyID, *cfg.S3Secret, "",
			),
			BaseEndpoint: endpointURL(cfg),
			UsePathStyle: true, // S3-compatible stores require path-style URLs
		})
	case o.credentials != nil:
		region := ""
		if cfg.S3Region != nil {
			region = *cfg.S3Region
		}
		client = s3.New(s3.Options{
			Region:       region,
			Credentials:  o.credentials,
			BaseEndpoint: endpointURL(cfg),
			UsePathStyle: true,
		})
	default:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load default AWS config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg, func(opt *s3.Options) {
			if ep := endpointURL(cfg); ep != nil {
				opt.BaseEndpoint = ep
				opt.UsePathStyle = true
			}
			if cfg.S3Region != nil {
				opt.Region = *cfg.S3Region
			}
		})
	}

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket(),
	}, nil
}

func endpointURL(cfg *config.Config) *string {
	if cfg.S3Endpoint == nil {
		return nil
	}
	return aws.String("https://" + *cfg.S3Endpoint)
}

// Bucket returns the bucket this store operates on.
func (s *S3Store) Bucket() string { return s.bucket }

// List returns every object under prefix. Pagination happens internally;
// the result is fully materialized. When recursive is false the listing
// stops at the next "/" level.
func (s *S3Store) List(ctx context.Context, prefix string, recursive bool) ([]domain.ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var out []domain.ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, domain.ErrStoreUnavailable("list", prefix, err)
		}
		for _, obj := range page.Contents {
			info := domain.ObjectInfo{Key: aws.ToString(obj.Key)}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// Read fetches an object's full contents.
func (s *S3Store) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapKeyError("read", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrStoreUnavailable("read", key, err)
	}
	return data, nil
}

// Write stores data at key, replacing whatever was there. Last writer
// wins; there is no optimistic concurrency check.
func (s *S3Store) Write(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return domain.ErrStoreUnavailable("write", key, err)
	}
	return nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.ErrStoreUnavailable("delete", key, err)
	}
	return nil
}

// Exists reports whether the key is present.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.head(ctx, key)
	if err != nil {
		var notFound *domain.ObjectNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LastModified returns the object's last-modified timestamp, or nil when
// the key is absent. Missing objects are not an error here.
func (s *S3Store) LastModified(ctx context.Context, key string) (*time.Time, error) {
	head, err := s.head(ctx, key)
	if err != nil {
		var notFound *domain.ObjectNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	return head.LastModified, nil
}

// PresignGet generates a presigned GET URL for one object. The URL embeds
// credentials and is fully escaped, so keys containing "=" from Hive
// partitioning are safe to hand to the engine's HTTP reader.
func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	result, err := s.presign.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(ttl),
	)
	if err != nil {
		return "", domain.ErrStoreUnavailable("presign", key, err)
	}
	return result.URL, nil
}

func (s *S3Store) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapKeyError("head", key, err)
	}
	return out, nil
}

// mapKeyError translates SDK failures into the domain taxonomy: missing
// keys become ObjectNotFoundError, everything else StoreUnavailableError.
func mapKeyError(op, key string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return domain.ErrObjectNotFound(key)
	}
	return domain.ErrStoreUnavailable(op, key, err)
}
