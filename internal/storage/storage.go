package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/config"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/logging"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/metrics"
)

const (
	// Default part size for multipart uploads (10MB)
	DefaultPartSize = 10 * 1024 * 1024

	// Maximum number of concurrent parts
	MaxConcurrentParts = 10

	// DefaultURLExpiry is used when no expiry is configured
	DefaultURLExpiry = time.Hour
)

// Storage stores content files in an S3-compatible bucket
type Storage struct {
	client     *minio.Client
	bucketName string
	region     string
	urlExpiry  time.Duration
	logger     *logging.Logger
}

// New creates a new storage client and makes sure the bucket exists
func New(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}

	s := &Storage{
		client:     client,
		bucketName: cfg.BucketName,
		region:     cfg.Region,
		urlExpiry:  expiry,
		logger:     logger,
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket creates the content bucket if it does not exist
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload stores a content file. Files larger than DefaultPartSize are sent
// as a parallel multipart upload.
func (s *Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	start := time.Now()

	_, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, putOptions(key, size, contentType))
	s.record("upload", key, size, start, err)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	return nil
}

// GetURL returns a presigned download URL for a content file
func (s *Storage) GetURL(ctx context.Context, key string) (string, error) {
	start := time.Now()

	url, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.urlExpiry, nil)
	s.record("presign", key, 0, start, err)
	if err != nil {
		return "", fmt.Errorf("failed to generate URL: %w", err)
	}

	return url.String(), nil
}

// Delete deletes a content file
func (s *Storage) Delete(ctx context.Context, key string) error {
	start := time.Now()

	err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
	s.record("delete", key, 0, start, err)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

func (s *Storage) record(operation, key string, size int64, start time.Time, err error) {
	duration := time.Since(start)
	metrics.RecordStorageOperation(operation, status(err), duration.Seconds(), size)
	s.logger.LogStorageOperation(operation, s.bucketName, key, size, duration, err)
}

func putOptions(key string, size int64, contentType string) minio.PutObjectOptions {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = ContentType(key)
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if size < 0 || size >= DefaultPartSize {
		opts.PartSize = DefaultPartSize
		opts.NumThreads = MaxConcurrentParts
	}
	return opts
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ContentType returns the content type based on file extension
func ContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".mp3":
		return "audio/mpeg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
