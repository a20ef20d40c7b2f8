package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/believe-consult/backend/internal/middleware"
	"github.com/believe-consult/backend/internal/models"
	"github.com/believe-consult/backend/pkg/metrics"
	"github.com/believe-consult/backend/pkg/response"
)

// Handler handles session pairing HTTP endpoints.
type Handler struct {
	gate    *Gate
	pairing *Pairing
	logger  *zap.Logger
}

// NewHandler creates a session handler.
func NewHandler(gate *Gate, pairing *Pairing, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gate: gate, pairing: pairing, logger: logger}
}

// PairToken handles GET /sessions/pair-token?bookingId=&requesterEmail=&claimedRole=&uid=.
// When the caller presents a valid JWT, role and email come from the
// verified claims; the query parameters are only honored for
// unauthenticated callers and that path is logged as untrusted input.
func (h *Handler) PairToken(c *gin.Context) {
	bookingIDStr := c.Query("bookingId")
	if bookingIDStr == "" {
		response.BadRequest(c, "bookingId is required")
		return
	}
	bookingID, err := uuid.Parse(bookingIDStr)
	if err != nil {
		response.BadRequest(c, "invalid bookingId")
		return
	}

	requesterEmail := c.Query("requesterEmail")
	role := models.Role(c.Query("claimedRole"))

	if v, ok := c.Get(middleware.ContextUserEmail); ok {
		// verified identity wins over caller-supplied parameters
		requesterEmail, _ = v.(string)
		roleStr, _ := c.MustGet(middleware.ContextUserRole).(string)
		role = models.Role(roleStr)
	} else if role != "" {
		h.logger.Warn("pair-token using unverified claimed role",
			zap.String("claimed_role", string(role)),
			zap.String("client_ip", c.ClientIP()),
		)
	}

	if requesterEmail == "" && role != models.RoleModerator {
		response.BadRequest(c, "requesterEmail is required")
		return
	}

	booking, err := h.gate.Authorize(c.Request.Context(), bookingID, requesterEmail, role)
	if err != nil {
		metrics.PairTokenDenied.Inc()
		response.FromError(c, err)
		return
	}

	cred, err := h.pairing.Issue(booking.ID, c.Query("uid"))
	if err != nil {
		h.logger.Error("credential generation failed", zap.Error(err), zap.String("booking_id", booking.ID.String()))
		response.ServiceUnavailable(c, "could not generate join credential")
		return
	}

	metrics.PairTokensIssued.Inc()
	response.OK(c, cred)
}
