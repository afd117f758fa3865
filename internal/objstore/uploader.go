package objstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Defaults for optional Config fields.
const (
	DefaultRegion = "us-east-1"
	DefaultPrefix = "runs"
)

// Config locates the bucket and holds its credentials.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// Prefix is prepended to every key. Defaults to DefaultPrefix.
	Prefix string
}

// Validate checks that the required fields are set.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return ErrNoEndpoint
	}
	if strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "" {
		return ErrNoCredentials
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return ErrNoBucket
	}
	return nil
}

// Uploader writes run documents to a bucket.
type Uploader struct {
	client *minio.Client
	bucket string
	region string
	prefix string
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// New creates an Uploader for cfg. No request is made until the first Put.
func New(cfg Config, opts ...Option) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = DefaultRegion
	}
	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}

	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	u := &Uploader{
		client: client,
		bucket: strings.TrimSpace(cfg.Bucket),
		region: region,
		prefix: prefix,
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.logger == nil {
		u.logger = slog.Default()
	}

	return u, nil
}

// ensureBucket creates the bucket once if it does not exist.
func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		u.logger.Info("creating bucket", "bucket", u.bucket, "region", u.region)
		u.initErr = u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region})
	})
	return u.initErr
}

// Put stores content under the run's folder.
func (u *Uploader) Put(ctx context.Context, runID, name string, content []byte) error {
	key, err := u.objectKey(runID, name)
	if err != nil {
		return err
	}
	if err := u.ensureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket %s: %w", u.bucket, err)
	}
	if content == nil {
		content = []byte{}
	}

	_, err = u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}

	u.logger.Debug("uploaded object", "bucket", u.bucket, "key", key, "size", len(content))
	return nil
}

// objectKey builds "<prefix>/<runID>/<name>".
func (u *Uploader) objectKey(runID, name string) (string, error) {
	runID = strings.TrimSpace(runID)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if runID == "" {
		return "", ErrNoRunID
	}
	if name == "" {
		return "", ErrNoName
	}
	return u.prefix + "/" + runID + "/" + name, nil
}

// contentType guesses the content type from the file extension.
func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
