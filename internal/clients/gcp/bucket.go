package gcp

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/storage"

	"github.com/cropsense/cropsense-backend/internal/pkg/logger"
)

const signedURLTTL = 1 * time.Hour

// BucketService stores uploaded plant images. The prediction core never owns
// image bytes; it only keeps the object key on the persisted record.
type BucketService interface {
	UploadImage(ctx context.Context, key string, data []byte, contentType string) error
	SignedURL(key string) (string, error)
	DeleteImage(ctx context.Context, key string) error
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	serviceLog := log.With("service", "BucketService")

	bucketName := os.Getenv("IMAGE_GCS_BUCKET_NAME")
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var IMAGE_GCS_BUCKET_NAME")
	}

	ctx := context.Background()
	stClient, err := storage.NewClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Image storage initialized", "bucket", bucketName)
	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucketName,
	}, nil
}

func (s *bucketService) UploadImage(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return fmt.Errorf("empty object key")
	}
	w := s.storageClient.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %q: %w", key, err)
	}
	return nil
}

func (s *bucketService) SignedURL(key string) (string, error) {
	url, err := s.storageClient.Bucket(s.bucketName).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(signedURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("sign url for %q: %w", key, err)
	}
	return url, nil
}

func (s *bucketService) DeleteImage(ctx context.Context, key string) error {
	if err := s.storageClient.Bucket(s.bucketName).Object(key).Delete(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			return nil
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
