// Package artifact stores baked documents under content-addressed keys.
package artifact

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/crypto/blake2b"
)

// Sink stores an exported PDF and returns where it went.
type Sink interface {
	Put(ctx context.Context, docID string, pdf []byte) (string, error)
}

// Key returns <docID>/<blake2b-256 of pdf>.pdf. Identical bytes map to
// the same key, so re-exporting an unchanged document is idempotent.
func Key(docID string, pdf []byte) (string, error) {
	if docID == "" || strings.ContainsAny(docID, `/\`) || docID == "." || docID == ".." {
		return "", fmt.Errorf("invalid document id %q", docID)
	}
	sum := blake2b.Sum256(pdf)
	return docID + "/" + hex.EncodeToString(sum[:]) + ".pdf", nil
}

// FileSink writes under a directory.
type FileSink struct {
	Dir string
}

func (s FileSink) Put(ctx context.Context, docID string, pdf []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := Key(docID, pdf)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// MinioConfig locates a bucket on an S3-compatible server.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioSink uploads to a MinIO bucket.
type MinioSink struct {
	client *minio.Client
	bucket string
}

// NewMinioSink connects and creates the bucket when missing.
func NewMinioSink(ctx context.Context, cfg MinioConfig) (*MinioSink, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &MinioSink{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioSink) Put(ctx context.Context, docID string, pdf []byte) (string, error) {
	key, err := Key(docID, pdf)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return "minio://" + s.bucket + "/" + key, nil
}
