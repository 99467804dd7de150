package tmpl

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

import (
	"log/slog"
	"strconv"
	"strings"
)

// Kind identifies the role of a [Segment] in the rendered output.
type Kind int

const (
	KindLiteral    Kind = iota // literal
	KindExpression             // expression
	KindStatement              // statement
)

// ParseKind returns the Kind named by s, or false if s names no Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindLiteral, KindExpression, KindStatement} {
		if strings.EqualFold(s, k.String()) {
			return k, true
		}
	}

	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, ok := ParseKind(string(text))
	if !ok {
		return ErrSyntax.With(slog.String("kind", string(text)))
	}

	*k = v

	return nil
}

// Position is a location in template text.
// Line and Column are 1-based; Column counts runes.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether p refers to a location in template text.
func (p Position) IsValid() bool { return p.Line > 0 }

// Segment is one element of a parsed template.
//
// For literal segments Text is the verbatim output text and Raw is empty.
// For code segments Raw holds the unclassified tag contents and Text holds
// the code left after classification.
type Segment struct {
	Text string   `json:"text"          yaml:"text"`
	Raw  string   `json:"raw,omitempty" yaml:"raw,omitempty"`
	Kind Kind     `json:"kind"          yaml:"kind"`
	Pos  Position `json:"pos"           yaml:"pos"`
}

// Literal returns a literal segment emitting text verbatim.
func Literal(text string) Segment {
	return Segment{Kind: KindLiteral, Text: text}
}

// Expression returns a segment whose value is appended to the output.
func Expression(code string) Segment {
	return Segment{Kind: KindExpression, Text: code}
}

// Statement returns a segment executed for effect.
func Statement(code string) Segment {
	return Segment{Kind: KindStatement, Text: code}
}

// IsCode reports whether s is an expression or statement segment.
func (s Segment) IsCode() bool { return s.Kind != KindLiteral }

// Source reconstructs the template text that produced s.
//
// Literal text is returned unchanged. Code segments are wrapped in the given
// delimiters around their raw contents. Escapes in the original template are
// not restored.
func (s Segment) Source(startTag, endTag string) string {
	if s.Kind == KindLiteral {
		return s.Text
	}

	return startTag + s.Raw + endTag
}

// String returns a short human-readable description of s.
func (s Segment) String() string {
	return s.Kind.String() + " " + strconv.Quote(s.Text)
}

// Reconstruct joins the source text of segs. For templates without escape
// sequences the result equals the text the segments were parsed from.
func Reconstruct(segs []Segment, startTag, endTag string) string {
	var b strings.Builder

	for _, s := range segs {
		b.WriteString(s.Source(startTag, endTag))
	}

	return b.String()
}
