package bookings

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/believe-consult/backend/internal/middleware"
	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/response"
)

// CreateRequest is the body for POST /bookings.
type CreateRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Age         int     `json:"age" binding:"required,gte=1,lte=120"`
	Issue       string  `json:"issue" binding:"required"`
	TimingFrom  string  `json:"timing_from" binding:"required"`
	TimingTo    string  `json:"timing_to" binding:"required"`
	MeetingDate *string `json:"meeting_date"` // RFC3339, optional
	ProviderID  string  `json:"provider_id" binding:"required,uuid"`
}

// UpdateRequest is the body for PUT /bookings/:id. Only these fields may
// be set by a provider/moderator principal; absent fields are untouched.
type UpdateRequest struct {
	Status        *string  `json:"status"`
	MeetingRef    *string  `json:"meeting_ref"`
	Notes         *string  `json:"notes"`
	AllowedEmails []string `json:"allowed_emails"` // appended, never removed
}

// Handler handles booking HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a booking handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /bookings (public, rate-limited).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		response.BadRequest(c, "invalid provider_id")
		return
	}
	var meetingDate *time.Time
	if req.MeetingDate != nil && *req.MeetingDate != "" {
		t, err := time.Parse(time.RFC3339, *req.MeetingDate)
		if err != nil {
			response.BadRequest(c, "invalid meeting_date")
			return
		}
		meetingDate = &t
	}

	b, err := h.svc.Create(c.Request.Context(), CreateInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Age:         req.Age,
		Issue:       req.Issue,
		TimingFrom:  req.TimingFrom,
		TimingTo:    req.TimingTo,
		MeetingDate: meetingDate,
		ProviderID:  providerID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, b)
}

// Update handles PUT /bookings/:id (moderator/admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var fields UpdateFields
	if req.Status != nil {
		st := models.BookingStatus(*req.Status)
		if !st.Valid() {
			response.BadRequest(c, "unknown status")
			return
		}
		fields.Status = &st
	}
	fields.MeetingRef = req.MeetingRef
	fields.Notes = req.Notes
	fields.AddAllowedEmails = req.AllowedEmails

	b, err := h.svc.Update(c.Request.Context(), id, fields)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, b)
}

// Cancel handles DELETE /bookings/:id (requester or admin). The booking
// transitions to cancelled and stays queryable.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	email, _ := c.MustGet(middleware.ContextUserEmail).(string)
	roleStr, _ := c.MustGet(middleware.ContextUserRole).(string)

	if err := h.svc.Cancel(c.Request.Context(), id, email, models.Role(roleStr)); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "booking cancelled"})
}

// GetByID handles GET /bookings/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, b)
}

// GetStatus handles GET /bookings/:id/status (public; status only).
func (h *Handler) GetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"status": b.Status})
}

// List handles GET /bookings (moderator/admin). Filters: email, status,
// provider_id — provider filtering is by stable id, never display name.
func (h *Handler) List(c *gin.Context) {
	var f Filter
	f.Email = c.Query("email")
	f.Status = models.BookingStatus(c.Query("status"))
	if pid := c.Query("provider_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			response.BadRequest(c, "invalid provider_id")
			return
		}
		f.ProviderID = id
	}
	list, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}

// ListByUser handles GET /bookings/user/:email. Requesters see only
// their own bookings; moderators and admins may look up anyone.
func (h *Handler) ListByUser(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		response.BadRequest(c, "email required")
		return
	}
	callerEmail, _ := c.MustGet(middleware.ContextUserEmail).(string)
	roleStr, _ := c.MustGet(middleware.ContextUserRole).(string)
	role := models.Role(roleStr)
	if email != callerEmail && role != models.RoleAdmin && role != models.RoleModerator {
		response.Forbidden(c, "not authorized")
		return
	}
	list, err := h.svc.List(c.Request.Context(), Filter{Email: email})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, list)
}
