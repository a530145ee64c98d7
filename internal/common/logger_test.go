package common

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerToValidatesInputs(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, SetupLoggerTo(&buf, "debug", "console"))
	require.NoError(t, SetupLoggerTo(&buf, "info", "json"))

	err := SetupLoggerTo(&buf, "verbose", "console")
	require.ErrorIs(t, err, ErrInvalidConfig)

	err = SetupLoggerTo(&buf, "info", "xml")
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSetupLoggerToJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, "info", "json"))

	slog.Info("threshold adjusted", "new", 0.65)

	line := buf.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(line), "{"))
	assert.Contains(t, line, `"msg":"threshold adjusted"`)
	assert.Contains(t, line, `"new":0.65`)
}

func TestSetupLoggerToRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, "warn", "console"))

	slog.Info("should be suppressed")
	assert.Empty(t, buf.String())

	slog.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestUserError(t *testing.T) {
	wrapped := NewUserError("could not open the memory database", ErrStoreUnavailable)
	assert.Contains(t, wrapped.Error(), "could not open the memory database")
	require.ErrorIs(t, wrapped, ErrStoreUnavailable)

	bare := NewUserError("nothing to process", nil)
	assert.Equal(t, "nothing to process", bare.Error())
}
