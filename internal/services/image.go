package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/logger"
)

const (
	maxImageSide = 1024
	jpegQuality  = 85
)

// ImageService normalizes uploaded photos to a bounded JPEG and stores them.
type ImageService interface {
	Process(r io.Reader) ([]byte, error)
	Upload(ctx context.Context, prefix string, r io.Reader) (key, url string, err error)
	Delete(ctx context.Context, key string)
}

type imageService struct {
	log           *logger.Logger
	bucketService BucketService
}

func NewImageService(log *logger.Logger, bucketService BucketService) ImageService {
	return &imageService{log: log.With("service", "ImageService"), bucketService: bucketService}
}

// Process decodes any supported format, applies EXIF orientation and fits
// the image inside maxImageSide x maxImageSide.
func (is *imageService) Process(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errordata.NewValidation("image", "file is not a supported image")
	}
	b := img.Bounds()
	if b.Dx() > maxImageSide || b.Dy() > maxImageSide {
		img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (is *imageService) Upload(ctx context.Context, prefix string, r io.Reader) (string, string, error) {
	if is.bucketService == nil {
		return "", "", fmt.Errorf("image storage is not configured")
	}
	data, err := is.Process(r)
	if err != nil {
		return "", "", err
	}
	key := fmt.Sprintf("%s/%s.jpg", prefix, uuid.New().String())
	if err := is.bucketService.UploadFile(ctx, key, bytes.NewReader(data), "image/jpeg"); err != nil {
		return "", "", err
	}
	is.log.Info("Image stored", "key", key, "bytes", len(data))
	return key, is.bucketService.GetPublicURL(key), nil
}

// Delete removes a previously stored image. Failures are only logged.
func (is *imageService) Delete(ctx context.Context, key string) {
	if key == "" || is.bucketService == nil {
		return
	}
	if err := is.bucketService.DeleteFile(ctx, key); err != nil {
		is.log.Warn("Failed to delete old image", "key", key, "error", err)
	}
}
