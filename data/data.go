package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/jsonc"
)

// Stdin names standard input in a list of data files.
const Stdin = "-"

// Format is the encoding of a data document.
type Format int

const (
	// FormatYAML also accepts plain JSON, which is valid YAML.
	FormatYAML Format = iota
	// FormatJSON accepts JSON with comments and trailing commas.
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}

	return "yaml"
}

// FormatOf selects a format by file extension. Files ending in .json or
// .jsonc are JSON; everything else, including stdin, is YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Parse decodes src into a data context. An empty document yields an empty
// map. Integers decode as int, and nested mappings as map[string]any.
func Parse(format Format, src []byte) (map[string]any, error) {
	var (
		doc any
		err error
	)

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(src)))
		dec.UseNumber()

		if err = dec.Decode(&doc); errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		err = yaml.Unmarshal(src, &doc)
	}

	if err != nil {
		return nil, ErrDecode.With(slog.String("format", format.String())).Wrap(err)
	}

	switch m := Normalize(doc).(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	default:
		return nil, ErrNotMapping.With(slog.String("type", fmt.Sprintf("%T", m)))
	}
}

// Read parses the document read from r. The name selects the format with
// [FormatOf] and identifies the document in errors.
func Read(r io.Reader, name string) (map[string]any, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrRead.With(slog.String("source", name)).Wrap(err)
	}

	m, err := Parse(FormatOf(name), src)
	if err != nil {
		return nil, WrapError(err).With(slog.String("source", name))
	}

	return m, nil
}

// ReadFile reads and parses the data file at path.
func ReadFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.With(slog.String("source", path)).Wrap(err)
	}
	defer f.Close()

	return Read(f, path)
}

// Load reads each path in order and merges the results with [Merge].
// The path [Stdin] is read from stdin, at most once.
func Load(stdin io.Reader, paths ...string) (map[string]any, error) {
	out := map[string]any{}
	read := false

	for _, path := range paths {
		var (
			m   map[string]any
			err error
		)

		switch {
		case path != Stdin:
			m, err = ReadFile(path)
		case read:
			continue
		default:
			read = true
			m, err = Read(stdin, path)
		}

		if err != nil {
			return nil, err
		}

		Merge(out, m)
	}

	return out, nil
}

// Merge copies src into dst and returns dst. Mappings present in both are
// merged recursively; any other value in src replaces the one in dst.
func Merge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				Merge(dm, sm)

				continue
			}

			v = Merge(map[string]any{}, sm)
		}

		dst[k] = v
	}

	return dst
}

// Normalize converts decoded values to the types templates expect:
// integers become int when they fit, JSON numbers become int or float64,
// and mappings with non-string keys get string keys.
func Normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Normalize(i)
		}

		if f, err := val.Float64(); err == nil {
			return f
		}

		return val.String()
	case int64:
		if val >= math.MinInt && val <= math.MaxInt {
			return int(val)
		}

		return val
	case uint64:
		if val <= math.MaxInt {
			return int(val)
		}

		return val
	case map[string]any:
		for k, e := range val {
			val[k] = Normalize(e)
		}

		return val
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = Normalize(e)
		}

		return m
	case []any:
		for i, e := range val {
			val[i] = Normalize(e)
		}

		return val
	default:
		return v
	}
}

// Value returns the typed value of text as it would appear in a YAML
// document: "3" is an int, "true" a bool, "null" nil, and "[1, 2]" a list.
// Text that does not decode, or decodes to a block mapping, is returned
// unchanged as a string.
func Value(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}

	var v any
	if err := yaml.Unmarshal([]byte(trimmed), &v); err != nil {
		return text
	}

	if _, ok := v.(map[string]any); ok && !strings.HasPrefix(trimmed, "{") {
		return text
	}

	return Normalize(v)
}

// Set applies an assignment of the form "key=value" to m. The key may be a
// dot-separated path; missing intermediate mappings are created. The value
// is typed with [Value].
func Set(m map[string]any, assignment string) error {
	key, text, ok := strings.Cut(assignment, "=")

	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return ErrAssignment.With(slog.String("assignment", assignment))
	}

	path := strings.Split(key, ".")
	if slices.Contains(path, "") {
		return ErrAssignment.With(slog.String("assignment", assignment))
	}

	cur := m

	for i, name := range path[:len(path)-1] {
		switch next := cur[name].(type) {
		case map[string]any:
			cur = next
		case nil:
			sub := map[string]any{}
			cur[name] = sub
			cur = sub
		default:
			return ErrPath.With(slog.String("path", strings.Join(path[:i+1], ".")))
		}
	}

	cur[path[len(path)-1]] = Value(text)

	return nil
}

// Lookup returns the value at the dot-separated path in m.
func Lookup(m map[string]any, path string) (any, bool) {
	var cur any = m

	if path == "" {
		return cur, true
	}

	for name := range strings.SplitSeq(path, ".") {
		sub, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = sub[name]; !ok {
			return nil, false
		}
	}

	return cur, true
}

// Keys returns the sorted member names of the mapping at path in m, or nil
// when path does not name a mapping.
func Keys(m map[string]any, path string) []string {
	v, ok := Lookup(m, path)
	if !ok {
		return nil
	}

	sub, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(sub))
	for k := range sub {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// Marshal encodes m as a YAML document.
func Marshal(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}\n"), nil
	}

	return yaml.MarshalWithOptions(m, yaml.Indent(2), yaml.IndentSequence(true))
}
