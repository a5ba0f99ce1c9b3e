package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myfavshrimp/arc/internal/codec"
)

func TestJSONRoundTrip(t *testing.T) {
	in := map[string]any{"name": "web-1", "count": float64(3)}
	text, err := codec.JSONEncode(in)
	require.NoError(t, err)

	got, err := codec.JSONDecode(text)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestJSONEncodePrettyIndents(t *testing.T) {
	text, err := codec.JSONEncodePretty(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Contains(t, text, "\n")
}

func TestTOMLRoundTrip(t *testing.T) {
	in := map[string]any{"name": "web-1"}
	text, err := codec.TOMLEncode(in)
	require.NoError(t, err)

	got, err := codec.TOMLDecode(text)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestYAMLRoundTrip(t *testing.T) {
	in := map[string]any{"name": "web-1", "nested": map[string]any{"a": "b"}}
	text, err := codec.YAMLEncode(in)
	require.NoError(t, err)

	got, err := codec.YAMLDecode(text)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestURLRoundTrip(t *testing.T) {
	in := map[string]string{"a": "1", "b": "two words"}
	text := codec.URLEncode(in)

	got, err := codec.URLDecode(text)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestEnvRoundTrip(t *testing.T) {
	in := map[string]string{"NAME": "web-1", "DESC": "has spaces"}
	text := codec.EnvEncode(in)

	got, err := codec.EnvDecode(text)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}
