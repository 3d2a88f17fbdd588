package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/furnihome/furnihome-backend/internal/logger"
	"github.com/furnihome/furnihome-backend/internal/utils"
)

type BucketService interface {
	UploadFile(ctx context.Context, key string, r io.Reader, contentType string) error
	DeleteFile(ctx context.Context, key string) error
	GetPublicURL(key string) string
}

type bucketService struct {
	log        *logger.Logger
	client     *storage.Client
	bucketName string
}

// NewBucketService connects to the GCS bucket named by GCS_BUCKET_NAME,
// authenticating with GCS_CREDENTIALS_FILE when set and application default
// credentials otherwise.
func NewBucketService(ctx context.Context, log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	bucketName := utils.GetEnv("GCS_BUCKET_NAME", "", serviceLog)
	if bucketName == "" {
		return nil, fmt.Errorf("missing GCS_BUCKET_NAME environment variable")
	}
	var opts []option.ClientOption
	if credentials := utils.GetEnv("GCS_CREDENTIALS_FILE", "", serviceLog); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog.Info("Bucket service ready", "bucket", bucketName)
	return &bucketService{log: serviceLog, client: client, bucketName: bucketName}, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, r io.Reader, contentType string) error {
	w := bs.client.Bucket(bs.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		bs.log.Warn("Failed to write object", "key", key, "error", err)
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		bs.log.Warn("Failed to finalize object", "key", key, "error", err)
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	bs.log.Info("Uploaded object", "key", key)
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	err := bs.client.Bucket(bs.bucketName).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		bs.log.Warn("Failed to delete object", "key", key, "error", err)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, (&url.URL{Path: key}).EscapedPath())
}
