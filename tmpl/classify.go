package tmpl

import (
	"strings"
	"unicode/utf8"
)

// Classifier turns the raw contents of a tag into a code segment.
type Classifier interface {
	Classify(raw string) Segment
}

// ClassifierFunc adapts an ordinary function to the [Classifier] interface.
type ClassifierFunc func(raw string) Segment

// Classify calls f(raw).
func (f ClassifierFunc) Classify(raw string) Segment { return f(raw) }

// ExpressionMarker is the marker rune that makes [DefaultClassifier] produce
// an expression segment, as in "<%= name %>".
const ExpressionMarker = '='

// DefaultClassifier inspects the first two runes of a tag body.
//
// When the first rune is not a space and the second is, the pair is a marker
// and is removed. The marker [ExpressionMarker] yields an expression of the
// trimmed remainder; any other marker yields a statement of the trimmed
// remainder. Without a marker the whole body, trimmed, is a statement.
var DefaultClassifier Classifier = ClassifierFunc(classifyMarker)

func classifyMarker(raw string) Segment {
	first, n := utf8.DecodeRuneInString(raw)
	if n == 0 {
		return withRaw(Statement(""), raw)
	}

	second, m := utf8.DecodeRuneInString(raw[n:])
	if m == 0 || first == ' ' || second != ' ' {
		return withRaw(Statement(strings.TrimSpace(raw)), raw)
	}

	code := strings.TrimSpace(raw[n+m:])
	if first == ExpressionMarker {
		return withRaw(Expression(code), raw)
	}

	return withRaw(Statement(code), raw)
}

func withRaw(s Segment, raw string) Segment {
	s.Raw = raw

	return s
}
