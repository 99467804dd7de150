package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/etmpl/tmpl"
)

// exprSignatures are the parameter names of common expression functions,
// which cannot be recovered by reflection.
var exprSignatures = map[string][]string{
	"len":           {"v"},
	"all":           {"array", "predicate"},
	"any":           {"array", "predicate"},
	"one":           {"array", "predicate"},
	"none":          {"array", "predicate"},
	"map":           {"array", "mapper"},
	"filter":        {"array", "predicate"},
	"find":          {"array", "predicate"},
	"findIndex":     {"array", "predicate"},
	"findLast":      {"array", "predicate"},
	"findLastIndex": {"array", "predicate"},
	"groupBy":       {"array", "mapper"},
	"sortBy":        {"array", "mapper", "order"},
	"count":         {"array", "predicate"},
	"sum":           {"array"},
	"mean":          {"array"},
	"median":        {"array"},
	"min":           {"...values"},
	"max":           {"...values"},
	"join":          {"array", "separator"},
	"split":         {"string", "separator"},
	"replace":       {"string", "old", "new"},
	"trim":          {"string", "chars"},
	"trimPrefix":    {"string", "prefix"},
	"trimSuffix":    {"string", "suffix"},
	"upper":         {"string"},
	"lower":         {"string"},
	"hasPrefix":     {"string", "prefix"},
	"hasSuffix":     {"string", "suffix"},
	"indexOf":       {"string", "substring"},
	"repeat":        {"string", "n"},
	"int":           {"v"},
	"float":         {"v"},
	"string":        {"v"},
	"type":          {"v"},
	"keys":          {"map"},
	"values":        {"map"},
	"toJSON":        {"v"},
	"fromJSON":      {"string"},
	"now":           nil,
	"date":          {"string", "...layout"},
	"duration":      {"string"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is a call whose argument list contains the cursor.
type functionCall struct {
	name     string // dotted name, such as "path.cat"
	argIndex int    // 0-based index of the argument at the cursor
	inCall   bool
}

// isNameRune reports whether r may appear in a dotted function name.
func isNameRune(r rune) bool {
	return r == '.' || r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectFunctionCall finds the innermost unclosed call before cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := strings.Trim(input[start:open], ".")
	if name == "" {
		return functionCall{}
	}

	arg := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				arg++
			}
		}
	}

	return functionCall{name: name, argIndex: arg, inCall: true}
}

// signature returns the parameter names of the named function. Builtins
// are described by their parameter types.
func signature(name string) (params []string, ok bool) {
	if params, ok := exprSignatures[name]; ok {
		return params, true
	}

	v, ok := tmpl.BuiltinValue(name)
	if !ok || v == nil {
		return nil, false
	}

	t := reflect.TypeOf(v)
	if t.Kind() != reflect.Func {
		return nil, false
	}

	params = make([]string, t.NumIn())

	for i := range params {
		in := t.In(i)

		if t.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + typeName(in.Elem())
		} else {
			params[i] = typeName(in)
		}
	}

	return params, true
}

// typeName is a short readable name for a parameter type.
func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Func, reflect.String, reflect.Bool, reflect.Slice, reflect.Map:
		return t.Kind().String()
	case reflect.Pointer:
		return typeName(t.Elem())
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// renderSignatureHint renders name(params...) with the parameter at arg
// highlighted. A variadic parameter stays highlighted for every later
// argument.
func renderSignatureHint(name string, params []string, arg int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		current := i == arg || (strings.HasPrefix(p, "...") && arg >= i)
		if current {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
