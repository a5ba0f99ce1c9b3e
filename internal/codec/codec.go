// Package codec bridges Arc's dynamic script values to JSON, TOML, YAML,
// URL query strings, and .env-style key/value text.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// JSONEncode marshals v to compact JSON.
func JSONEncode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("json encode: %w", err)
	}
	return string(b), nil
}

// JSONEncodePretty marshals v to indented JSON.
func JSONEncodePretty(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json encode_pretty: %w", err)
	}
	return string(b), nil
}

// JSONDecode unmarshals JSON text into a generic any (map/slice/scalar).
func JSONDecode(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return v, nil
}

// TOMLEncode marshals v to TOML text.
func TOMLEncode(v any) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return "", fmt.Errorf("toml encode: %w", err)
	}
	return buf.String(), nil
}

// TOMLDecode unmarshals TOML text into a generic map.
func TOMLDecode(text string) (any, error) {
	var v map[string]any
	if _, err := toml.Decode(text, &v); err != nil {
		return nil, fmt.Errorf("toml decode: %w", err)
	}
	return v, nil
}

// YAMLEncode marshals v to YAML text.
func YAMLEncode(v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("yaml encode: %w", err)
	}
	return string(b), nil
}

// YAMLDecode unmarshals YAML text into a generic any.
func YAMLDecode(text string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	return normalizeYAML(v), nil
}

// normalizeYAML recursively converts map[string]any keys (yaml.v3 already
// does this for string-keyed maps) so downstream codecs see plain Go maps.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

// URLEncode encodes a flat string-keyed map as a query string.
func URLEncode(v map[string]string) string {
	values := url.Values{}
	for k, val := range v {
		values.Set(k, val)
	}
	return values.Encode()
}

// URLDecode parses a query string into a flat string-keyed map. Repeated
// keys keep only the last occurrence.
func URLDecode(text string) (map[string]string, error) {
	values, err := url.ParseQuery(text)
	if err != nil {
		return nil, fmt.Errorf("url decode: %w", err)
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[len(v)-1]
		}
	}
	return out, nil
}

// EnvEncode renders a flat string-keyed map as KEY=VALUE lines, sorted by
// key for deterministic output.
func EnvEncode(v map[string]string) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, envQuote(v[k]))
	}
	return b.String()
}

func envQuote(v string) string {
	if strings.ContainsAny(v, " \t\"'#\n") {
		return fmt.Sprintf("%q", v)
	}
	return v
}

// EnvDecode parses KEY=VALUE text into a flat map. Blank lines and lines
// starting with "#" are ignored, and surrounding quotes are trimmed from
// values; "export" prefixes, escape sequences and inline comments are not
// interpreted.
func EnvDecode(text string) (map[string]string, error) {
	out := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("env decode: malformed line %q", line)
		}
		val = strings.Trim(val, `"'`)
		out[strings.TrimSpace(key)] = val
	}
	return out, nil
}
