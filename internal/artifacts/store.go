// Package artifacts pushes and pulls the pipeline's intermediate NDJSON
// files (*.chunks.ndjson, *.embeddings.ndjson) to an S3-compatible
// bucket, so a run started on one machine can resume on another.
//
// Adapted from the teacher's internal/storage.MinIOClient: the
// presigned-URL surface (meant for browser uploads in front of a web
// API) has no caller in this CLI pipeline and is dropped, but the
// bucket-provisioning and object put/get/stat calls are kept, narrowed
// to whole-file NDJSON artifacts addressed by object key.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config configures the artifact bucket connection (spec SPEC_FULL.md
// env vars ARTIFACT_BUCKET_*).
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

// Store pushes and pulls pipeline artifact files to/from a bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// Open connects to the bucket, creating it if it doesn't exist yet.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("artifacts: new client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("artifacts: bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("artifacts: make bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Push uploads the local file at localPath under objectKey (typically
// the file's own base name, e.g. "report.chunks.ndjson").
func (s *Store) Push(ctx context.Context, objectKey, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("artifacts: open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("artifacts: stat %s: %w", localPath, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectKey, f, info.Size(), minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return fmt.Errorf("artifacts: put %s: %w", objectKey, err)
	}
	return nil
}

// Pull downloads objectKey to localPath, overwriting any existing file.
func (s *Store) Pull(ctx context.Context, objectKey, localPath string) error {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("artifacts: get %s: %w", objectKey, err)
	}
	defer obj.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("artifacts: create %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, obj); err != nil {
		return fmt.Errorf("artifacts: copy %s: %w", objectKey, err)
	}
	return nil
}

// Exists reports whether objectKey is present in the bucket.
func (s *Store) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("artifacts: stat %s: %w", objectKey, err)
	}
	return true, nil
}
