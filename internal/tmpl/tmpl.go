// Package tmpl renders Jinja-style templates for scripts via gonja,
// exposed to Lua as template.render(text, ctx).
package tmpl

import (
	"fmt"

	"github.com/nikolalohinski/gonja/v2"
	"github.com/nikolalohinski/gonja/v2/exec"
)

// Render parses text as a gonja template and executes it against ctx, a
// flat or nested map of values the template may reference.
func Render(text string, ctx map[string]any) (string, error) {
	tpl, err := gonja.FromString(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	out, err := tpl.ExecuteToString(exec.NewContext(ctx))
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}
