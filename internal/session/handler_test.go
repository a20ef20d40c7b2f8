package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/believe-consult/backend/internal/middleware"
	"github.com/believe-consult/backend/internal/models"
)

func setupPairTokenRouter(t *testing.T, status models.BookingStatus, identity func(*gin.Context)) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gate, id := setupGate(status)
	h := NewHandler(gate, NewPairing(testRTCConfig()), nil)

	r := gin.New()
	if identity != nil {
		r.GET("/sessions/pair-token", identity, h.PairToken)
	} else {
		r.GET("/sessions/pair-token", h.PairToken)
	}
	return r, id
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPairTokenForParticipant(t *testing.T) {
	r, id := setupPairTokenRouter(t, models.StatusAccepted, nil)

	w := get(r, "/sessions/pair-token?bookingId="+id.String()+"&requesterEmail=asha@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"channel":"session-`+id.String()+`"`)
	assert.Contains(t, w.Body.String(), `"credential"`)
}

func TestPairTokenRequiresBookingID(t *testing.T) {
	r, _ := setupPairTokenRouter(t, models.StatusAccepted, nil)

	assert.Equal(t, http.StatusBadRequest, get(r, "/sessions/pair-token").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/sessions/pair-token?bookingId=nope").Code)
}

func TestPairTokenRequiresRequesterEmail(t *testing.T) {
	r, id := setupPairTokenRouter(t, models.StatusAccepted, nil)

	w := get(r, "/sessions/pair-token?bookingId="+id.String())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPairTokenDeniesStranger(t *testing.T) {
	r, id := setupPairTokenRouter(t, models.StatusAccepted, nil)

	w := get(r, "/sessions/pair-token?bookingId="+id.String()+"&requesterEmail=mallory@example.com")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPairTokenClaimedModeratorWithoutEmail(t *testing.T) {
	// unauthenticated claimedRole=moderator is honored but logged; the
	// closed-booking bypass still applies
	r, id := setupPairTokenRouter(t, models.StatusCancelled, nil)

	w := get(r, "/sessions/pair-token?bookingId="+id.String()+"&claimedRole=moderator")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPairTokenVerifiedIdentityOverridesQuery(t *testing.T) {
	// the verified JWT identity is a stranger; the query claims an
	// allow-listed email and moderator role, and must be ignored
	identity := func(c *gin.Context) {
		c.Set(middleware.ContextUserEmail, "mallory@example.com")
		c.Set(middleware.ContextUserRole, "user")
		c.Next()
	}
	r, id := setupPairTokenRouter(t, models.StatusAccepted, identity)

	w := get(r, "/sessions/pair-token?bookingId="+id.String()+"&requesterEmail=asha@example.com&claimedRole=moderator")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPairTokenVerifiedModerator(t *testing.T) {
	identity := func(c *gin.Context) {
		c.Set(middleware.ContextUserEmail, "mod@example.com")
		c.Set(middleware.ContextUserRole, "moderator")
		c.Next()
	}
	r, id := setupPairTokenRouter(t, models.StatusAccepted, identity)

	w := get(r, "/sessions/pair-token?bookingId="+id.String())
	assert.Equal(t, http.StatusOK, w.Code)
}
