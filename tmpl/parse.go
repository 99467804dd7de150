package tmpl

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Escape is the rune that suppresses delimiter recognition, as in "\<%".
// A doubled escape produces a single literal escape rune.
const Escape = '\\'

// Default delimiters.
const (
	DefaultStartTag = "<%"
	DefaultEndTag   = "%>"
)

type scanMode int

const (
	inLiteral scanMode = iota
	inTag
)

// scanner is a forward-only cursor over template text that tracks the
// line and column of the current offset.
type scanner struct {
	src  string
	off  int
	line int
	col  int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1, col: 1}
}

func (s *scanner) eof() bool { return s.off >= len(s.src) }

func (s *scanner) rest() string { return s.src[s.off:] }

func (s *scanner) position() Position {
	return Position{Offset: s.off, Line: s.line, Column: s.col}
}

// at reports whether the remaining input begins with the complete token.
func (s *scanner) at(tok string) bool {
	return strings.HasPrefix(s.rest(), tok)
}

// advance consumes n bytes, updating the line and column.
func (s *scanner) advance(n int) {
	for _, r := range s.src[s.off : s.off+n] {
		if r == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
	}

	s.off += n
}

// next consumes one rune and returns the bytes it occupied. A byte that
// does not begin a valid UTF-8 sequence is consumed and returned on its own.
func (s *scanner) next() string {
	start := s.off
	_, n := utf8.DecodeRuneInString(s.rest())
	s.advance(n)

	return s.src[start:s.off]
}

// escape handles any escape sequences at the cursor, writing their literal
// expansion to buf. A doubled escape yields one escape rune, and an escape
// before delim yields delim. Any other escape is emitted as-is and leaves
// the cursor on the following rune.
func (s *scanner) escape(buf *strings.Builder, delim string) {
	const esc = string(Escape)

	for s.at(esc) {
		switch {
		case s.at(esc + esc):
			buf.WriteRune(Escape)
			s.advance(2 * len(esc))

		case strings.HasPrefix(s.rest()[len(esc):], delim):
			buf.WriteString(delim)
			s.advance(len(esc) + len(delim))

		default:
			buf.WriteRune(Escape)
			s.advance(len(esc))

			return
		}
	}
}

// Parse splits template into an ordered sequence of segments.
//
// Text outside the delimiters becomes literal segments. The contents of each
// startTag/endTag pair are passed to c, and the result is stamped with the
// raw contents and the position of the opening tag. Adjacent literal text is
// always merged, so no two literal segments are adjacent unless a code
// segment separates them.
func Parse(template, startTag, endTag string, c Classifier) ([]Segment, error) {
	if startTag == "" || endTag == "" {
		return nil, ErrInvalidDelimiter.With(
			slog.String("start_tag", startTag),
			slog.String("end_tag", endTag),
		)
	}

	if c == nil {
		return nil, ErrInvalidClassifier
	}

	var (
		segs     []Segment
		lit, tag strings.Builder
		litPos   Position
		tagPos   Position
		mode     = inLiteral
		s        = newScanner(template)
	)

	flush := func() {
		if lit.Len() == 0 {
			return
		}

		seg := Literal(lit.String())
		seg.Pos = litPos
		segs = append(segs, seg)
		lit.Reset()
	}

	for !s.eof() {
		switch mode {
		case inLiteral:
			if lit.Len() == 0 {
				litPos = s.position()
			}

			s.escape(&lit, startTag)

			if s.eof() {
				break
			}

			if s.at(startTag) {
				flush()

				tagPos = s.position()
				mode = inTag

				s.advance(len(startTag))

				continue
			}

			lit.WriteString(s.next())

		case inTag:
			s.escape(&tag, endTag)

			if s.eof() {
				break
			}

			if s.at(endTag) {
				s.advance(len(endTag))
				flush()

				raw := tag.String()
				seg := c.Classify(raw)
				seg.Raw = raw
				seg.Pos = tagPos
				segs = append(segs, seg)

				tag.Reset()

				mode = inLiteral

				continue
			}

			tag.WriteString(s.next())
		}
	}

	if mode == inTag {
		return nil, ErrUnterminatedTag.
			At(tagPos, tag.String()).
			With(slog.String("start_tag", startTag))
	}

	flush()

	return segs, nil
}
