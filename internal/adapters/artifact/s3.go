package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/okian/storyloom/internal/config"
	"github.com/okian/storyloom/pkg/metrics"
)

// S3Config addresses an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3ConfigFrom picks the s3_* settings out of the service config.
func S3ConfigFrom(c *config.Config) S3Config {
	return S3Config{
		Endpoint:  c.S3Endpoint,
		Region:    c.S3Region,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Bucket:    c.S3Bucket,
		UseSSL:    c.S3UseSSL,
	}
}

// S3Store keeps objects in an S3 bucket through minio-go. The bucket is
// created on first use.
type S3Store struct {
	client *minio.Client
	bucket string
	region string

	initOnce sync.Once
	initErr  error
}

// NewS3Store creates a client for cfg. No request is made until first use.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucket: bucket, region: region}, nil
}

// Backend names the store in metrics.
func (s *S3Store) Backend() string { return config.BackendS3 }

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if !exists {
			s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
		}
	})
	return s.initErr
}

// Put uploads obj under key.
func (s *S3Store) Put(ctx context.Context, key string, obj Object) error {
	key, err := checkKey(key)
	if err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(obj.Data), int64(len(obj.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	metrics.RecordArtifactStored(s.Backend())
	return nil
}

// Get downloads the object at key.
func (s *S3Store) Get(ctx context.Context, key string) (Object, error) {
	key, err := checkKey(key)
	if err != nil {
		return Object{}, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return Object{}, fmt.Errorf("ensure bucket: %w", err)
	}

	o, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Object{}, s.mapErr(key, err)
	}
	defer o.Close()

	info, err := o.Stat()
	if err != nil {
		return Object{}, s.mapErr(key, err)
	}
	data, err := io.ReadAll(o)
	if err != nil {
		return Object{}, s.mapErr(key, err)
	}
	return Object{Data: data, ContentType: info.ContentType}, nil
}

func (s *S3Store) mapErr(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("get %s: %w", key, err)
}

// New builds the store selected by c.ArtifactBackend.
func New(c *config.Config) (Store, error) {
	switch c.ArtifactBackend {
	case config.BackendS3:
		return NewS3Store(S3ConfigFrom(c))
	case config.BackendMemory, "":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: unknown artifact backend %q", config.ErrInvalidConfig, c.ArtifactBackend)
}
