package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cropsense/cropsense-backend/internal/clients/gcp"
	"github.com/cropsense/cropsense-backend/internal/pkg/logger"
)

// UploadService stores uploaded image bytes under a per-user object key and
// hands back the key plus a time-limited signed URL.
type UploadService interface {
	UploadImage(ctx context.Context, userID, imageData, fileName string) (string, string, error)
}

type uploadService struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewUploadService(log *logger.Logger, bucket gcp.BucketService) UploadService {
	return &uploadService{
		log:    log.With("service", "UploadService"),
		bucket: bucket,
	}
}

func (us *uploadService) UploadImage(ctx context.Context, userID, imageData, fileName string) (string, string, error) {
	if us.bucket == nil {
		return "", "", fmt.Errorf("image storage not configured")
	}
	if imageData == "" || fileName == "" {
		return "", "", fmt.Errorf("image data and file name are required")
	}

	data, contentType, err := DecodeImageDataURL(imageData)
	if err != nil {
		return "", "", fmt.Errorf("decode image data: %w", err)
	}

	filePath := fmt.Sprintf("%s/%d_%s", userID, time.Now().UnixMilli(), fileName)
	if err := us.bucket.UploadImage(ctx, filePath, data, contentType); err != nil {
		return "", "", fmt.Errorf("upload image: %w", err)
	}

	signedURL, err := us.bucket.SignedURL(filePath)
	if err != nil {
		return "", "", fmt.Errorf("signed url: %w", err)
	}
	return filePath, signedURL, nil
}

// DecodeImageDataURL accepts either a base64 data URL
// ("data:image/jpeg;base64,...") or a bare base64 string and returns the
// decoded bytes and the declared content type (defaulting to image/jpeg).
func DecodeImageDataURL(imageData string) ([]byte, string, error) {
	contentType := "image/jpeg"
	payload := imageData

	if strings.HasPrefix(imageData, "data:") {
		comma := strings.IndexByte(imageData, ',')
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data url")
		}
		meta := imageData[len("data:"):comma]
		payload = imageData[comma+1:]
		if semi := strings.IndexByte(meta, ';'); semi > 0 {
			contentType = meta[:semi]
		} else if meta != "" {
			contentType = meta
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("base64 decode: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	return data, contentType, nil
}
