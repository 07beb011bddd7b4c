package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger, flush, err := New("fern-test", "debug", true)
	require.NoError(t, err)
	defer flush()

	assert.NotNil(t, logger)
	logger.WithField("scope_id", "e1").Debug("logger ready")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New("fern-test", "loud", false)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Info("dropped")
	})
}
