package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds connection settings for an S3-compatible object store.
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

// S3Store persists cache entries as objects in one bucket. The object
// store has no native per-object TTL, so expiry is enforced on read via
// the entry envelope.
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3 connects to the object store and ensures the bucket exists.
func NewS3(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}

	slog.Info("object store connected", "backend", "s3", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Exists reports whether an object is present under key. It does not
// inspect the entry TTL; an expired entry may still report true until it
// is read or deleted.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

// GetJSON reads and decodes the entry under key into out.
func (s *S3Store) GetJSON(ctx context.Context, key string, out any) error {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", key, err)
	}

	err = unpackEntry(data, out, time.Now())
	if err == ErrNotFound {
		// Entry outlived its TTL; drop the dead object so Exists stops
		// reporting it. Best effort only.
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// PutJSON stores value under key without expiry, overwriting any
// previous entry.
func (s *S3Store) PutJSON(ctx context.Context, key string, value any) error {
	return s.put(ctx, key, value, 0)
}

// PutJSONWithTTL stores value under key with a TTL enforced at read time.
func (s *S3Store) PutJSONWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.put(ctx, key, value, ttl)
}

func (s *S3Store) put(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := packEntry(key, value, ttl, time.Now())
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	opts := minio.PutObjectOptions{ContentType: "application/json"}
	if bytes.HasPrefix(data, zstdMagic) {
		opts.ContentEncoding = "zstd"
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes the object under key. Deleting a missing key is not an
// error.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the underlying client holds no persistent connection.
func (s *S3Store) Close() error {
	return nil
}
