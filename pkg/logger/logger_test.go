package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("production logger logs at info", func(t *testing.T) {
		l, err := NewLogger(&LoggerConfig{Debug: false})
		require.NoError(t, err)
		require.NotNil(t, l)

		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("debug logger logs at debug", func(t *testing.T) {
		l, err := NewLogger(&LoggerConfig{Debug: true})
		require.NoError(t, err)

		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("nil config falls back to production", func(t *testing.T) {
		l, err := NewLogger(nil)
		require.NoError(t, err)

		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})
}
