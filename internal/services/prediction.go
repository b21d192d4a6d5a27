package services

import (
	"context"
	"fmt"

	"github.com/cropsense/cropsense-backend/internal/clients/gcp"
	"github.com/cropsense/cropsense-backend/internal/data/predictions"
	"github.com/cropsense/cropsense-backend/internal/domain"
	"github.com/cropsense/cropsense-backend/internal/pkg/logger"
)

// statsPreviewLimit is how many recent predictions ride along with the
// statistics payload for the dashboard quick view.
const statsPreviewLimit = 10

// PredictionService is the user-facing prediction pipeline: classify an
// upload, persist results, and read history and statistics back.
//
// Classify never fails: classifier faults are absorbed into fallback
// outcomes. Everything else surfaces errors normally.
type PredictionService interface {
	Classify(ctx context.Context, img []byte) (domain.Outcome, []domain.LabelScore)
	SavePrediction(ctx context.Context, userID string, p *domain.Prediction) (string, *domain.Prediction, error)
	History(ctx context.Context, userID string) ([]*domain.Prediction, error)
	Stats(ctx context.Context, userID string) (domain.Statistics, []*domain.Prediction, error)
	DeletePrediction(ctx context.Context, userID, id string) error
}

type predictionService struct {
	log      *logger.Logger
	store    predictions.Store
	detector gcp.LabelDetector
	resolver LabelStrategy
	bucket   gcp.BucketService
}

// NewPredictionService wires the pipeline. bucket may be nil; it is only used
// to clean up stored images when their prediction is deleted.
func NewPredictionService(log *logger.Logger, store predictions.Store, detector gcp.LabelDetector, resolver LabelStrategy, bucket gcp.BucketService) PredictionService {
	return &predictionService{
		log:      log.With("service", "PredictionService"),
		store:    store,
		detector: detector,
		resolver: resolver,
		bucket:   bucket,
	}
}

// Classify runs the adapter and resolver. The second return value is the raw
// ranked list, present only when the external classifier actually answered.
func (ps *predictionService) Classify(ctx context.Context, img []byte) (domain.Outcome, []domain.LabelScore) {
	if ps.detector == nil || !ps.detector.Available() {
		return ps.resolver.Classify(nil), nil
	}

	labels, err := ps.detector.DetectLabels(ctx, img)
	if err != nil {
		// Degraded mode: log and substitute, never surface this to the user.
		ps.log.Warn("External classifier call failed, falling back", "error", err)
		out := ps.resolver.Classify(nil)
		out.Source = domain.SourceExternalFallback
		return out, nil
	}

	return ps.resolver.Classify(labels), labels
}

func (ps *predictionService) SavePrediction(ctx context.Context, userID string, p *domain.Prediction) (string, *domain.Prediction, error) {
	if p == nil {
		return "", nil, InvalidInputError("prediction is required")
	}
	if !p.Label.Valid() {
		return "", nil, InvalidInputError(fmt.Sprintf("prediction label must be %q or %q", domain.LabelWeed, domain.LabelCrop))
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return "", nil, InvalidInputError("confidence must be in [0,1]")
	}

	// Ownership comes from the verified identity, never from the payload.
	p.UserID = userID
	p.Confidence = Round2(p.Confidence)

	id, err := ps.store.Save(ctx, p)
	if err != nil {
		return "", nil, fmt.Errorf("save prediction: %w", err)
	}
	return id, p, nil
}

func (ps *predictionService) History(ctx context.Context, userID string) ([]*domain.Prediction, error) {
	preds, err := ps.store.ListByUser(ctx, userID, predictions.DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return preds, nil
}

func (ps *predictionService) Stats(ctx context.Context, userID string) (domain.Statistics, []*domain.Prediction, error) {
	preds, err := ps.store.ListByUser(ctx, userID, 0)
	if err != nil {
		return domain.Statistics{}, nil, fmt.Errorf("list predictions: %w", err)
	}
	stats := Summarize(preds)
	if len(preds) > statsPreviewLimit {
		preds = preds[:statsPreviewLimit]
	}
	return stats, preds, nil
}

func (ps *predictionService) DeletePrediction(ctx context.Context, userID, id string) error {
	p, err := ps.store.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := ps.store.DeleteByID(ctx, userID, id); err != nil {
		return err
	}
	// Best effort: an orphaned object is preferable to a failed delete.
	if p != nil && p.FilePath != "" && ps.bucket != nil {
		if err := ps.bucket.DeleteImage(ctx, p.FilePath); err != nil {
			ps.log.Warn("Failed to delete stored image", "file_path", p.FilePath, "error", err)
		}
	}
	return nil
}
