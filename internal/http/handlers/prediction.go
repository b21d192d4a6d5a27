package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cropsense/cropsense-backend/internal/data/predictions"
	"github.com/cropsense/cropsense-backend/internal/domain"
	"github.com/cropsense/cropsense-backend/internal/http/response"
	"github.com/cropsense/cropsense-backend/internal/pkg/ctxutil"
	"github.com/cropsense/cropsense-backend/internal/services"
)

type PredictionHandler struct {
	predictionService services.PredictionService
}

func NewPredictionHandler(predictionService services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// Predict classifies an uploaded image. This path never fails on classifier
// faults: they degrade to fallback outcomes inside the service.
func (ph *PredictionHandler) Predict(c *gin.Context) {
	var req struct {
		ImageData string `json:"imageData"`
		FileName  string `json:"fileName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.ImageData == "" {
		response.RespondError(c, http.StatusBadRequest, errors.New("Image data is required"))
		return
	}

	img, _, err := services.DecodeImageDataURL(req.ImageData)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}

	outcome, rawLabels := ph.predictionService.Classify(c.Request.Context(), img)

	resp := gin.H{
		"prediction": outcome.Label,
		"confidence": outcome.Confidence,
		"source":     outcome.Source,
	}
	if len(rawLabels) > 0 {
		resp["rawPredictions"] = rawLabels
	}
	response.RespondOK(c, resp)
}

func (ph *PredictionHandler) SavePrediction(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Prediction string   `json:"prediction"`
		Confidence *float64 `json:"confidence"`
		ImageName  string   `json:"imageName"`
		FilePath   string   `json:"filePath"`
		Timestamp  int64    `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Prediction == "" || req.Confidence == nil {
		response.RespondError(c, http.StatusBadRequest, errors.New("Prediction and confidence are required"))
		return
	}

	p := domain.Prediction{
		Label:      domain.Label(req.Prediction),
		Confidence: *req.Confidence,
		ImageName:  req.ImageName,
		FilePath:   req.FilePath,
		Timestamp:  req.Timestamp,
	}
	id, saved, err := ph.predictionService.SavePrediction(c.Request.Context(), rd.UserID.String(), &p)
	if err != nil {
		var invalid services.InvalidInputError
		if errors.As(err, &invalid) {
			response.RespondError(c, http.StatusBadRequest, err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, errors.New("Failed to save prediction"))
		return
	}
	response.RespondOK(c, gin.H{
		"success":      true,
		"predictionId": id,
		"data":         saved,
	})
}

func (ph *PredictionHandler) ListPredictions(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	preds, err := ph.predictionService.History(c.Request.Context(), rd.UserID.String())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	response.RespondOK(c, gin.H{"predictions": preds})
}

func (ph *PredictionHandler) Stats(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	stats, recent, err := ph.predictionService.Stats(c.Request.Context(), rd.UserID.String())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	response.RespondOK(c, gin.H{
		"totalPredictions": stats.Total,
		"weedCount":        stats.WeedCount,
		"cropCount":        stats.CropCount,
		"avgConfidence":    stats.AvgConfidence,
		"predictions":      recent,
	})
}

func (ph *PredictionHandler) DeletePrediction(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id := c.Param("id")
	if err := ph.predictionService.DeletePrediction(c.Request.Context(), rd.UserID.String(), id); err != nil {
		if errors.Is(err, predictions.ErrForbidden) {
			response.RespondError(c, http.StatusForbidden, errors.New("Unauthorized to delete this prediction"))
			return
		}
		response.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}
