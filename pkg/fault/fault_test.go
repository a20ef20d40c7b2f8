package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("booking not found")))
	assert.Equal(t, KindInvalidTransition, KindOf(InvalidTransition("closed")))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("no")))
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindUnavailable, KindOf(Unavailable("db down", errors.New("timeout"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("while updating: %w", NotFound("booking not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("store call failed", cause)
	assert.ErrorIs(t, err, cause)
	// cause stays out of the client-safe message
	assert.Equal(t, "store call failed", MessageOf(err))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "no", MessageOf(Unauthorized("no")))
	assert.Equal(t, "internal error", MessageOf(errors.New("raw db error")))
}
