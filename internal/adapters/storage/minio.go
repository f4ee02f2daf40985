package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"signage-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient stores media objects in a single bucket.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		slog.Info("Created MinIO bucket", "bucket", cfg.Bucket)
	}

	slog.Info("Connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &MinIOClient{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes the object and returns its public URL.
func (m *MinIOClient) Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	return m.ObjectURL(objectKey), nil
}

func (m *MinIOClient) Remove(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectKey, err)
	}
	return nil
}

func (m *MinIOClient) ObjectURL(objectKey string) string {
	return PublicURL(m.client.EndpointURL(), m.bucket, objectKey)
}

func PublicURL(endpoint *url.URL, bucket, objectKey string) string {
	u := url.URL{
		Scheme: endpoint.Scheme,
		Host:   endpoint.Host,
		Path:   "/" + bucket + "/" + objectKey,
	}
	return u.String()
}
