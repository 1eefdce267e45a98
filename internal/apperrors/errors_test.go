package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsConflict(Conflict("timer already running for client #%d", 3)))
	assert.True(t, IsNotFound(NotFound("session #%d not found", 9)))
	assert.True(t, IsInconsistentState(InconsistentState("marker points at a closed session")))

	assert.False(t, IsConflict(NotFound("nope")))
	assert.False(t, IsConflict(nil))
	assert.False(t, IsConflict(errors.New("plain")))
}

func TestTypeSurvivesWrapping(t *testing.T) {
	base := Conflict("timer already running")

	assert.True(t, IsConflict(fmt.Errorf("start failed: %w", base)))
	assert.True(t, IsConflict(eris.Wrap(base, "start failed")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := TransientIO("failed to start session", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "transient_io")
	assert.Contains(t, err.Error(), "disk full")
}
