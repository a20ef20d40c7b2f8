package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/believe-consult/backend/pkg/fault"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err, Kind: fault.KindValidation.String()})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err, Kind: fault.KindUnauthorized.String()})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err, Kind: fault.KindNotFound.String()})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err, Kind: fault.KindInvalidTransition.String()})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err, Kind: fault.KindUnavailable.String()})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// FromError maps a fault kind to its HTTP status. Unknown errors become
// a generic 500 so internals never leak.
func FromError(c *gin.Context, err error) {
	msg := fault.MessageOf(err)
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		NotFound(c, msg)
	case fault.KindInvalidTransition:
		Conflict(c, msg)
	case fault.KindUnauthorized:
		Forbidden(c, msg)
	case fault.KindValidation:
		BadRequest(c, msg)
	case fault.KindUnavailable:
		ServiceUnavailable(c, msg)
	default:
		Internal(c, "internal error")
	}
}
