package tmpl

//go:generate go tool stringer --linecomment --type Format --output format_string.go

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format selects how [FormatSegments] renders a segment sequence.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
	FormatYAML               // yaml
)

// Formats returns an iterator over the names of all segment formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range []Format{FormatText, FormatJSON, FormatYAML} {
			if !yield(f.String()) {
				return
			}
		}
	}
}

// ParseFormat returns the Format named by s, or false if s names none.
func ParseFormat(s string) (Format, bool) {
	for _, f := range []Format{FormatText, FormatJSON, FormatYAML} {
		if strings.EqualFold(strings.TrimSpace(s), f.String()) {
			return f, true
		}
	}

	return FormatText, false
}

// FormatSegments writes segs to w in the given format.
//
// The text format writes one line per segment: position, kind, and quoted
// text. JSON and YAML encode the segment list with the given indent; an
// indent of zero selects compact output.
func FormatSegments(
	ctx context.Context,
	w io.Writer,
	segs []Segment,
	format Format,
	indent int,
) error {
	if segs == nil {
		segs = []Segment{}
	}

	switch format {
	case FormatText:
		return formatText(w, segs)
	case FormatJSON:
		return formatJSON(w, segs, indent)
	case FormatYAML:
		return formatYAML(ctx, w, segs, indent)
	default:
		return fmt.Errorf("unknown segment format: %d", int(format))
	}
}

func formatText(w io.Writer, segs []Segment) error {
	for _, s := range segs {
		_, err := fmt.Fprintf(w, "%-7s %-10s %s\n",
			s.Pos, s.Kind, strconv.Quote(s.Text))
		if err != nil {
			return err
		}
	}

	return nil
}

func formatJSON(w io.Writer, segs []Segment, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(segs, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(segs)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

func formatYAML(ctx context.Context, w io.Writer, segs []Segment, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, segs, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
