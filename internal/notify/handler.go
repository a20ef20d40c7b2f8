package notify

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/believe-consult/backend/pkg/response"
)

// Handler exposes notification delivery logs.
type Handler struct {
	repo *Repository
}

// NewHandler creates a notification log handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByBooking handles GET /bookings/:id/notifications (moderator/admin).
func (h *Handler) ListByBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	list, err := h.repo.ListByBooking(c.Request.Context(), id)
	if err != nil {
		response.ServiceUnavailable(c, "could not list notifications")
		return
	}
	response.OK(c, list)
}
