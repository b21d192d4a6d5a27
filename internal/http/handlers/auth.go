package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cropsense/cropsense-backend/internal/domain"
	"github.com/cropsense/cropsense-backend/internal/http/response"
	"github.com/cropsense/cropsense-backend/internal/pkg/ctxutil"
	"github.com/cropsense/cropsense-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		response.RespondError(c, http.StatusBadRequest, errors.New("Email and password are required"))
		return
	}
	user := domain.User{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}
	if err := ah.authService.RegisterUser(c.Request.Context(), &user); err != nil {
		var invalid services.InvalidInputError
		if errors.As(err, &invalid) {
			response.RespondError(c, http.StatusBadRequest, err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, errors.New("Failed to create user"))
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}
	accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}
	accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.AbortError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := ah.authService.LogoutUser(c.Request.Context(), rd.TokenString); err != nil {
		response.RespondError(c, http.StatusBadRequest, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}
