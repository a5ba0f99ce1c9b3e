package arclog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfavshrimp/arc/internal/arclog"
	"github.com/myfavshrimp/arc/internal/registry"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := arclog.New("nonsense", false)
	assert.Error(t, err)
}

func TestNewAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"", "trace", "debug", "info", "warn", "error"} {
		l, err := arclog.New(level, false)
		require.NoError(t, err, "level %q", level)
		require.NotNil(t, l)
	}
}

func TestProgressDoesNotPanic(t *testing.T) {
	l, err := arclog.New("info", false)
	require.NoError(t, err)
	assert.NotPanics(t, func() { l.Progress("web-1", "deploy", registry.StateSuccess) })
}
