package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] that reads a YAML config file.
//
// It is used with [kong.Configuration]:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// Keys name flags without the leading dashes. Hyphens and underscores are
// interchangeable, and nested mappings join their keys with a hyphen, so
// the following are equivalent:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Numbers are passed to kong as strings. A file that is empty or holds only
// comments yields no values. Command-line flags override config values.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc map[string]any

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	cfg := make(config, len(doc))
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] over a flattened YAML document.
type config map[string]any

// key normalizes a flag or config name.
func key(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", "-"))
}

func (c config) flatten(prefix string, m map[string]any) {
	for k, v := range m {
		name := key(k)
		if prefix != "" {
			name = prefix + "-" + name
		}

		if sub, ok := v.(map[string]any); ok {
			c.flatten(name, sub)

			continue
		}

		c[name] = scalar(v)
	}
}

// scalar converts numbers to the string form kong parses.
func scalar(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = scalar(e)
		}

		return out
	default:
		return v
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[key(flag.Name)]; ok {
		return value, nil
	}

	return nil, nil
}
