package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cropsense/cropsense-backend/internal/http/response"
	"github.com/cropsense/cropsense-backend/internal/pkg/ctxutil"
	"github.com/cropsense/cropsense-backend/internal/services"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (uh *UploadHandler) UploadImage(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		ImageData string `json:"imageData"`
		FileName  string `json:"fileName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.ImageData == "" || req.FileName == "" {
		response.RespondError(c, http.StatusBadRequest, errors.New("Image data and file name are required"))
		return
	}

	filePath, signedURL, err := uh.uploadService.UploadImage(c.Request.Context(), rd.UserID.String(), req.ImageData, req.FileName)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	response.RespondOK(c, gin.H{
		"filePath":  filePath,
		"signedUrl": signedURL,
	})
}
