package gcp

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/cropsense/cropsense-backend/internal/domain"
	"github.com/cropsense/cropsense-backend/internal/pkg/logger"
)

const (
	labelDetectMax     = 10
	labelDetectTimeout = 15 * time.Second
)

// LabelDetector asks a general-purpose image classifier for a ranked list of
// free-text labels. Available() is false when no credential is configured;
// the caller then substitutes a synthetic outcome instead of failing.
type LabelDetector interface {
	DetectLabels(ctx context.Context, img []byte) ([]domain.LabelScore, error)
	Available() bool
	Close() error
}

type visionDetector struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
}

// NewLabelDetector returns a Cloud Vision backed detector, or an unavailable
// one when no GCP credential is present. Missing configuration is a supported
// degraded mode, not an error.
func NewLabelDetector(log *logger.Logger) (LabelDetector, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.LabelDetector")

	if !HasCredentials() {
		slog.Warn("No GCP credentials configured, label detection unavailable")
		return unavailableDetector{}, nil
	}

	ctx := context.Background()
	vClient, err := vision.NewImageAnnotatorClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionDetector{log: slog, visionClient: vClient}, nil
}

func (d *visionDetector) Available() bool { return true }

func (d *visionDetector) DetectLabels(ctx context.Context, img []byte) ([]domain.LabelScore, error) {
	ctx, cancel := context.WithTimeout(ctx, labelDetectTimeout)
	defer cancel()

	br := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: labelDetectMax},
			},
		}},
	}
	resp, err := d.visionClient.BatchAnnotateImages(ctx, br)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return []domain.LabelScore{}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	anns := r0.GetLabelAnnotations()
	labels := make([]domain.LabelScore, 0, len(anns))
	for _, ann := range anns {
		if ann == nil {
			continue
		}
		labels = append(labels, domain.LabelScore{
			Label: ann.GetDescription(),
			Score: float64(ann.GetScore()),
		})
	}
	return labels, nil
}

func (d *visionDetector) Close() error {
	if d.visionClient != nil {
		return d.visionClient.Close()
	}
	return nil
}

// unavailableDetector is the sentinel used when the external classifier is
// not configured.
type unavailableDetector struct{}

func (unavailableDetector) DetectLabels(ctx context.Context, img []byte) ([]domain.LabelScore, error) {
	return nil, fmt.Errorf("label detection not configured")
}
func (unavailableDetector) Available() bool { return false }
func (unavailableDetector) Close() error    { return nil }
