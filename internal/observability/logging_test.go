package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryebridge/gridkeeper/internal/config"
)

func TestNewLoggerFormats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: format})
		require.NoError(t, err, "format %s", format)
		require.NotNil(t, logger)
		logger.Sync()
	}
}

func TestFlushNeverFails(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "console"})
	require.NoError(t, err)
	logger.Info("draining")
	// Terminals refuse Sync on stderr; Flush must absorb that.
	Flush(logger)
	Flush(logger)
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "chatty", Format: "json"})
	assert.Error(t, err)
}

func TestNewLoggerRejectsBadFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
