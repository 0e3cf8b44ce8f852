package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/service"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
	"github.com/noah-isme/edu-resource-portal/pkg/response"
)

// AuthHandler exposes admin login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary Admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}
	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, resp, nil)
}
