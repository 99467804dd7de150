package repl

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/etmpl/data"
	"github.com/ardnew/etmpl/tmpl"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "set", "load", "edit", "clear", "quit"}

// exprBuiltinNames are the expression language's own functions.
var exprBuiltinNames = func() []string {
	names := slices.DeleteFunc(slices.Clone(builtin.Names), func(name string) bool {
		return strings.HasPrefix(name, "$")
	})

	slices.Sort(names)

	return slices.Compact(names)
}()

// isWordBoundary reports whether r ends a completion word. Besides
// whitespace and the member-access dot, this includes operator and
// punctuation characters of expressions and the tag delimiters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'', '`':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte offsets in input. The
// word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading to the word starting
// at wordStart. For "x + site.meta.ti" with word "ti" it is "site.meta".
// Top-level words have an empty parent.
func parentPath(input string, wordStart int) string {
	if wordStart == 0 || input[wordStart-1] != '.' {
		return ""
	}

	prefix := input[:wordStart-1]
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(prefix[pos:], ".")
}

// childCandidates returns the completions for members of parent. An empty
// parent yields the data keys, the builtin names, and the expression
// functions. Otherwise the parent is resolved in the data first and then
// among the builtins.
func childCandidates(env map[string]any, builtins bool, parent string) []string {
	if parent == "" {
		names := data.Keys(env, "")

		if builtins {
			names = append(names, tmpl.BuiltinNames()...)
		}

		return append(names, exprBuiltinNames...)
	}

	if v, ok := data.Lookup(env, parent); ok {
		return memberNames(v)
	}

	if builtins {
		if names := tmpl.BuiltinLookup(parent); names != nil {
			return names
		}

		if v, ok := tmpl.BuiltinValue(parent); ok {
			return memberNames(v)
		}
	}

	return nil
}

// memberNames returns the map keys or exported struct fields of v.
func memberNames(v any) []string {
	if m, ok := v.(map[string]any); ok {
		return data.Keys(m, "")
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	var names []string

	for _, f := range reflect.VisibleFields(rv.Type()) {
		if f.IsExported() && !f.Anonymous {
			names = append(names, f.Name)
		}
	}

	return names
}

// computeMatches ranks the candidates for the word at the cursor. An empty
// top-level word yields no matches, so the hint stays visible; an empty
// word after a dot lists every member.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	if m.mode == modeCtrl {
		if word == "" || strings.ContainsAny(input[:wordStart], " \t") {
			return nil, nil, wordStart, wordEnd
		}

		return fuzzy.Find(word, ctrlCommands), ctrlCommands, wordStart, wordEnd
	}

	parent := parentPath(input, wordStart)
	candidates = childCandidates(m.data, m.builtins, parent)

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		if parent == "" {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar renders the candidates on one line, ellipsized to
// width. Matched characters are highlighted, and the selected candidate is
// inverted while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += lipgloss.Width(sep)
		}

		last := i == len(matches)-1
		if i > 0 && (used+w > width || (!last && used+w+reserve > width)) {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Callable candidates get a "()" suffix.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		style := base
		if slices.Contains(match.MatchedIndexes, i) {
			style = highlight
		}

		b.WriteString(style.Render(string(r)))
	}

	if isFunction(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// isFunction reports whether a top-level name is callable.
func isFunction(name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	v, ok := tmpl.BuiltinValue(name)

	return ok && v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// formatPreview renders a short description of a data value.
func formatPreview(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return fmt.Sprintf("{ %d keys }", len(val))
	case []any:
		return fmt.Sprintf("[ %d items ]", len(val))
	case string:
		if len(val) > 40 {
			val = val[:37] + "..."
		}

		return fmt.Sprintf("%q", val)
	default:
		return tmpl.Stringify(val)
	}
}
