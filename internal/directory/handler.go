package directory

import (
	"github.com/gin-gonic/gin"

	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/response"
)

// Handler handles provider directory HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a directory handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /providers (public directory listing).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.ServiceUnavailable(c, "directory unavailable")
		return
	}
	response.OK(c, list)
}

// CreateRequest is the body for POST /providers (admin only).
type CreateRequest struct {
	FullName  string `json:"full_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
	Bio       string `json:"bio"`
}

// Create handles POST /providers (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Role == "" {
		req.Role = "provider"
	}
	p := &models.Provider{
		FullName:  req.FullName,
		Email:     req.Email,
		Role:      req.Role,
		Specialty: req.Specialty,
		Bio:       req.Bio,
		IsActive:  true,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.ServiceUnavailable(c, "could not create provider")
		return
	}
	response.Created(c, p)
}
