package services

import (
	"github.com/cropsense/cropsense-backend/internal/domain"
)

// Summarize computes counts and mean confidence over whatever slice of
// history the caller hands it. Pure function: full history, last 50 and last
// 10 are caller-selected views, not separate code paths.
func Summarize(preds []*domain.Prediction) domain.Statistics {
	stats := domain.Statistics{Total: len(preds)}
	if len(preds) == 0 {
		return stats
	}

	sum := 0.0
	for _, p := range preds {
		switch p.Label {
		case domain.LabelWeed:
			stats.WeedCount++
		default:
			stats.CropCount++
		}
		sum += p.Confidence
	}
	stats.AvgConfidence = Round2(sum / float64(len(preds)))
	return stats
}
