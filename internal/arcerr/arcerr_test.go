package arcerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/myfavshrimp/arc/internal/arcerr"
)

func TestExitCodeMapsCategoriesPerSpec(t *testing.T) {
	cases := []struct {
		category arcerr.Category
		want     int
	}{
		{arcerr.Config, 2},
		{arcerr.Selection, 2},
		{arcerr.Script, 2},
		{arcerr.Handler, 1},
		{arcerr.Transport, 1},
	}
	for _, c := range cases {
		err := arcerr.New(c.category, "boom", nil, nil)
		assert.Equal(t, c.want, arcerr.ExitCode(err), "category %s", c.category)
	}
}

func TestExitCodeIsThreeForPlainErrors(t *testing.T) {
	assert.Equal(t, 3, arcerr.ExitCode(errors.New("plain")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := arcerr.New(arcerr.Transport, "dial failed", cause, nil)
	assert.True(t, errors.Is(err, cause))
}

func TestFormatIncludesContext(t *testing.T) {
	err := arcerr.New(arcerr.Config, "duplicate system", nil, map[string]any{"name": "web-1"})
	got := arcerr.Format(err)
	assert.Contains(t, got, "duplicate system")
	assert.Contains(t, got, "web-1")
}

func TestExitCodeUnwrapsWrappedArcError(t *testing.T) {
	inner := arcerr.New(arcerr.Script, "bad lua", nil, nil)
	wrapped := fmt.Errorf("loading project: %w", inner)
	assert.Equal(t, 2, arcerr.ExitCode(wrapped))
}
