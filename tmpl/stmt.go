package tmpl

import (
	"errors"
	"regexp"
	"strings"
)

var (
	errUnterminatedString = errors.New("unterminated string")
	errMissingBrace       = errors.New("missing { after block header")
	errMalformedFor       = errors.New("malformed for header")
	errMalformedDecl      = errors.New("malformed declaration")
	errAssignTarget       = errors.New("invalid assignment target")
	errEmptyCondition     = errors.New("missing condition")
)

// unitKind classifies a piece of statement text.
type unitKind int

const (
	unitSimple unitKind = iota // a simple statement
	unitOpen                   // a block header followed by {
	unitClose                  // a closing }
)

// unit is one piece of a statement segment.
type unit struct {
	text string
	kind unitKind
}

// Block header keywords.
const (
	kwIf    = "if"
	kwElse  = "else"
	kwFor   = "for"
	kwWhile = "while"
)

// headerKeyword returns the block keyword that s begins with, or "".
func headerKeyword(s string) string {
	for _, kw := range []string{kwIf, kwElse, kwFor, kwWhile} {
		if hasKeyword(s, kw) {
			return kw
		}
	}

	return ""
}

// hasKeyword reports whether s begins with the word kw.
func hasKeyword(s, kw string) bool {
	if !strings.HasPrefix(s, kw) {
		return false
	}

	return len(s) == len(kw) || !isIdentByte(s[len(kw)])
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		c >= 0x80
}

// skipString returns the index of the quote closing the string literal that
// opens at s[i], or -1 if it is not terminated.
func skipString(s string, i int) int {
	q := s[i]

	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if q != '`' {
				j++
			}
		case q:
			return j
		}
	}

	return -1
}

// splitUnits splits statement text into simple statements, block headers,
// and block closers.
//
// A { at the outer nesting level ends a header when the text before it
// starts with a block keyword; any other brace belongs to an expression.
// A } at the outer level closes a block. Semicolons at the outer level
// separate simple statements, except inside a for header.
func splitUnits(code string) ([]unit, error) {
	var (
		units []unit
		depth int
		start int
	)

	simple := func(end int) {
		if text := strings.TrimSpace(code[start:end]); text != "" {
			units = append(units, unit{kind: unitSimple, text: text})
		}
	}

	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"', '\'', '`':
			j := skipString(code, i)
			if j < 0 {
				return nil, errUnterminatedString
			}

			i = j

		case '(', '[':
			depth++

		case ')', ']':
			if depth > 0 {
				depth--
			}

		case '{':
			head := strings.TrimSpace(code[start:i])
			if depth == 0 && headerKeyword(head) != "" {
				units = append(units, unit{kind: unitOpen, text: head})
				start = i + 1
			} else {
				depth++
			}

		case '}':
			if depth > 0 {
				depth--

				break
			}

			simple(i)
			units = append(units, unit{kind: unitClose, text: "}"})
			start = i + 1

		case ';':
			if depth == 0 && !hasKeyword(strings.TrimSpace(code[start:i]), kwFor) {
				simple(i)
				start = i + 1
			}
		}
	}

	simple(len(code))

	return units, nil
}

// splitTop splits s at separators found outside strings and brackets.
func splitTop(s string, sep byte) []string {
	var (
		parts []string
		depth int
		start int
	)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			if j := skipString(s, i); j >= 0 {
				i = j
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, s[start:])
}

// unwrapParens removes one pair of parentheses enclosing all of s.
func unwrapParens(s string) string {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}

	depth := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\'', '`':
			if j := skipString(s, i); j >= 0 {
				i = j
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}

	return strings.TrimSpace(s[1 : len(s)-1])
}

const identPattern = `[A-Za-z_$][A-Za-z0-9_$]*`

var (
	declRE   = regexp.MustCompile(`(?s)^(var|let|const)\s+(` + identPattern + `)\s*(?:=(.*))?$`)
	pathRE   = regexp.MustCompile(`^` + identPattern + `(?:\s*\.\s*` + identPattern + `)*$`)
	incRE    = regexp.MustCompile(`^(?:(\+\+|--)\s*(.+)|(.+?)\s*(\+\+|--))$`)
	rangeRE  = regexp.MustCompile(`(?s)^(?:(?:var|let|const)\s+)?(` + identPattern + `)(?:\s*,\s*(?:(?:var|let|const)\s+)?(` + identPattern + `))?\s+(in|of)\s+(.+)$`)
	keywords = map[string]bool{"var": true, "let": true, "const": true}
)

// splitPath splits a dotted assignment target into its names.
func splitPath(s string) []string {
	parts := strings.Split(s, ".")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	return parts
}

// assignOp locates the assignment operator in s. It returns the index of
// the operator, its length, and the arithmetic operator of a compound
// assignment ("" for plain assignment). The index is -1 if s has no
// assignment at the outer nesting level.
func assignOp(s string) (at, size int, op string) {
	depth := 0

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			if j := skipString(s, i); j >= 0 {
				i = j
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}

			if i+1 < len(s) && s[i+1] == '=' {
				i++

				continue
			}

			if i > 0 {
				switch s[i-1] {
				case '=', '!', '<', '>':
					continue
				case '+', '-', '*', '/', '%':
					if i > 1 && s[i-2] == s[i-1] && s[i-1] == '*' {
						return i - 2, 3, "**"
					}

					return i - 1, 2, string(s[i-1])
				case '?':
					if i > 1 && s[i-2] == '?' {
						return i - 2, 3, "??"
					}
				}
			}

			return i, 1, ""
		}
	}

	return -1, 0, ""
}

// simpleNode compiles a simple statement located at pos.
func simpleNode(text string, pos Position) (node, error) {
	switch text {
	case "":
		return nil, nil
	case "break":
		return jumpNode(sigBreak), nil
	case "continue":
		return jumpNode(sigContinue), nil
	}

	if kw := headerKeyword(text); kw != "" {
		return nil, ErrSyntax.At(pos, text).Wrap(errMissingBrace)
	}

	if m := declRE.FindStringSubmatch(text); m != nil {
		return declStmt(m[1], m[2], strings.TrimSpace(m[3]), text, pos)
	}

	for _, kw := range []string{"var", "let", "const"} {
		if hasKeyword(text, kw) {
			return nil, ErrSyntax.At(pos, text).Wrap(errMalformedDecl)
		}
	}

	if m := incRE.FindStringSubmatch(text); m != nil {
		target, op := m[2], m[1]
		if target == "" {
			target, op = m[3], m[4]
		}

		return assignStmt(strings.TrimSpace(target), op[:1], "1", text, pos)
	}

	if at, size, op := assignOp(text); at >= 0 {
		return assignStmt(
			strings.TrimSpace(text[:at]), op,
			strings.TrimSpace(text[at+size:]), text, pos,
		)
	}

	p, err := compileProgram(text, pos)
	if err != nil {
		return nil, err
	}

	return effectNode{expr: p}, nil
}

func declStmt(kw, name, value, text string, pos Position) (node, error) {
	if keywords[name] {
		return nil, ErrSyntax.At(pos, text).Wrap(errMalformedDecl)
	}

	n := declNode{name: name, src: text, pos: pos, constant: kw == "const"}

	if value == "" {
		if n.constant || strings.Contains(text, "=") {
			return nil, ErrSyntax.At(pos, text).Wrap(errMalformedDecl)
		}

		return n, nil
	}

	p, err := compileProgram(value, pos)
	if err != nil {
		return nil, err
	}

	n.value = p

	return n, nil
}

// assignStmt compiles "target op= value". An empty op is plain assignment.
func assignStmt(target, op, value, text string, pos Position) (node, error) {
	if !pathRE.MatchString(target) || value == "" {
		return nil, ErrSyntax.At(pos, text).Wrap(errAssignTarget)
	}

	path := splitPath(target)
	if keywords[path[0]] {
		return nil, ErrSyntax.At(pos, text).Wrap(errAssignTarget)
	}

	src := value
	if op != "" {
		src = "(" + strings.Join(path, ".") + ") " + op + " (" + value + ")"
	}

	p, err := compileProgram(src, pos)
	if err != nil {
		return nil, err
	}

	return assignNode{value: p, src: text, path: path, pos: pos}, nil
}

// simpleBlock compiles the init or post clause of a for header.
func simpleBlock(text string, pos Position) (block, error) {
	n, err := simpleNode(strings.TrimSpace(text), pos)
	if err != nil || n == nil {
		return nil, err
	}

	if _, ok := n.(jumpNode); ok {
		return nil, ErrSyntax.At(pos, text).Wrap(errMalformedFor)
	}

	return block{n}, nil
}

// condition compiles the condition following a block keyword.
func condition(text string, pos Position) (*program, error) {
	if text == "" {
		return nil, ErrSyntax.At(pos, text).Wrap(errEmptyCondition)
	}

	return compileProgram(unwrapParens(text), pos)
}

// forNode compiles the header of a for statement. The forms are
//
//	for { }                      loop until break
//	for (init; cond; post) { }   three-clause loop
//	for x of coll { }            values of coll
//	for k, v in coll { }         keys and values of coll
//	for cond { }                 loop while cond holds
func forNode(header string, pos Position) (node, error) {
	clause := unwrapParens(strings.TrimSpace(strings.TrimPrefix(header, kwFor)))

	if clause == "" {
		return &loopNode{}, nil
	}

	if parts := splitTop(clause, ';'); len(parts) > 1 {
		if len(parts) != 3 {
			return nil, ErrSyntax.At(pos, header).Wrap(errMalformedFor)
		}

		init, err := simpleBlock(parts[0], pos)
		if err != nil {
			return nil, err
		}

		post, err := simpleBlock(parts[2], pos)
		if err != nil {
			return nil, err
		}

		n := &loopNode{init: init, post: post}

		if cond := strings.TrimSpace(parts[1]); cond != "" {
			if n.cond, err = compileProgram(cond, pos); err != nil {
				return nil, err
			}
		}

		return n, nil
	}

	if m := rangeRE.FindStringSubmatch(clause); m != nil && !keywords[m[1]] {
		src, err := compileProgram(strings.TrimSpace(m[4]), pos)
		if err != nil {
			return nil, err
		}

		n := &rangeNode{src: src, val: m[1]}
		if m[2] != "" {
			n.key, n.val = m[1], m[2]
		} else {
			n.keyed = m[3] == "in"
		}

		return n, nil
	}

	cond, err := compileProgram(clause, pos)
	if err != nil {
		return nil, err
	}

	return &loopNode{cond: cond}, nil
}
