package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecidePath(t *testing.T) {
	assert.Equal(t, PathStandard, DecidePath(0))
	assert.Equal(t, PathCarryOver, DecidePath(1))
	assert.Equal(t, PathCarryOver, DecidePath(2))
	assert.Equal(t, PathHeldBack, DecidePath(3))
	assert.Equal(t, PathHeldBack, DecidePath(9))
}
