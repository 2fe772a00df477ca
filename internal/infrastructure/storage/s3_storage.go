// Package storage archives sealed proof bundles in object storage.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tradeflow/backend/internal/application/workflow"
	infraconfig "github.com/tradeflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	bundleContentType     = "application/json"
	defaultEndpoint       = "http://localhost:9000"
	defaultRegion         = "us-east-1"
	defaultPresignExpires = 15 * time.Minute
)

// ErrEmptyKey rejects calls without an object key
var ErrEmptyKey = errors.New("archive key is required")

var (
	_ workflow.BundleArchive = (*S3BundleArchive)(nil)
	_ workflow.ArchiveLinker = (*S3BundleArchive)(nil)
)

// S3BundleArchive keeps bundle documents in an S3-compatible bucket (AWS
// S3, MinIO, RustFS).
type S3BundleArchive struct {
	client            *s3.Client
	presign           *s3.PresignClient
	bucket            string
	presignExpiration time.Duration
	logger            *zap.Logger
}

type S3BundleArchiveOption func(*S3BundleArchive)

func WithLogger(logger *zap.Logger) S3BundleArchiveOption {
	return func(s *S3BundleArchive) { s.logger = logger }
}

// WithPresignExpiration overrides the configured download link lifetime
func WithPresignExpiration(d time.Duration) S3BundleArchiveOption {
	return func(s *S3BundleArchive) { s.presignExpiration = d }
}

// NewS3BundleArchive builds a client with static credentials. It makes no
// network call; use EnsureBucket at startup.
func NewS3BundleArchive(cfg *infraconfig.StorageConfig, opts ...S3BundleArchiveOption) (*S3BundleArchive, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("storage configuration is required")
	case cfg.Bucket == "":
		return nil, errors.New("storage bucket is required")
	case cfg.AccessKey == "":
		return nil, errors.New("storage access key is required")
	case cfg.SecretKey == "":
		return nil, errors.New("storage secret key is required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	a := &S3BundleArchive{
		client:            client,
		presign:           s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.presignExpiration <= 0 {
		a.presignExpiration = defaultPresignExpires
	}
	return a, nil
}

// normalizeEndpoint fills in a local MinIO default and a scheme
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid storage endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q: missing host", endpoint)
	}
	return endpoint, nil
}

// isMissing recognises a 404 for a key or bucket. HEAD responses carry no
// body, so some stores only report a bare NotFound code.
func isMissing(err error) bool {
	var (
		notFound *types.NotFound
		noKey    *types.NoSuchKey
		noBucket *types.NoSuchBucket
		apiErr   smithy.APIError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &noKey), errors.As(err, &noBucket):
		return true
	case errors.As(err, &apiErr):
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "NoSuchBucket"
	}
	return false
}

func (s *S3BundleArchive) object(key string) (*string, *string, error) {
	if key == "" {
		return nil, nil, ErrEmptyKey
	}
	return aws.String(s.bucket), aws.String(key), nil
}

// EnsureBucket creates the bucket when it is missing
func (s *S3BundleArchive) EnsureBucket(ctx context.Context) error {
	bucket := aws.String(s.bucket)
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: bucket})
	if err == nil {
		return nil
	}
	if !isMissing(err) {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("Creating proof archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: bucket})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Archive uploads document under key with its SHA-256, so the store
// rejects a corrupted body
func (s *S3BundleArchive) Archive(ctx context.Context, key string, document []byte) error {
	bucket, k, err := s.object(key)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(document)
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         bucket,
		Key:            k,
		Body:           bytes.NewReader(document),
		ContentType:    aws.String(bundleContentType),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(sum[:])),
	}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.logger.Debug("Archived proof bundle", zap.String("key", key), zap.Int("bytes", len(document)))
	return nil
}

// Fetch returns ErrObjectNotFound for an unknown key
func (s *S3BundleArchive) Fetch(ctx context.Context, key string) ([]byte, error) {
	bucket, k, err := s.object(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: k})
	if isMissing(err) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3BundleArchive) Exists(ctx context.Context, key string) (bool, error) {
	bucket, k, err := s.object(key)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: bucket, Key: k})
	switch {
	case err == nil:
		return true, nil
	case isMissing(err):
		return false, nil
	default:
		return false, fmt.Errorf("head %s: %w", key, err)
	}
}

// DownloadURL presigns a GET. A non-positive expiresIn uses the archive
// default.
func (s *S3BundleArchive) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	bucket, k, err := s.object(key)
	if err != nil {
		return "", time.Time{}, err
	}
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: k}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

func (s *S3BundleArchive) Bucket() string {
	return s.bucket
}
