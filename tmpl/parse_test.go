package tmpl

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ignorePos compares segments by content only.
var ignorePos = cmpopts.IgnoreFields(Segment{}, "Pos", "Raw")

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "literal only",
			input: "hello world",
			want:  []Segment{Literal("hello world")},
		},
		{
			name:  "expression",
			input: "Hello <%= user.name %>!",
			want: []Segment{
				Literal("Hello "),
				Expression("user.name"),
				Literal("!"),
			},
		},
		{
			name:  "statement without marker",
			input: "<% x = 1 %>",
			want:  []Segment{Statement("x = 1")},
		},
		{
			name:  "statement with marker",
			input: "<%- x = 1 %>",
			want:  []Segment{Statement("x = 1")},
		},
		{
			name:  "adjacent tags",
			input: "<%= a %><%= b %>",
			want:  []Segment{Expression("a"), Expression("b")},
		},
		{
			name:  "escaped start tag",
			input: `a \<% b`,
			want:  []Segment{Literal("a <% b")},
		},
		{
			name:  "doubled escape",
			input: `a \\ b`,
			want:  []Segment{Literal(`a \ b`)},
		},
		{
			name:  "lone escape",
			input: `a \n b`,
			want:  []Segment{Literal(`a \n b`)},
		},
		{
			name:  "escaped end tag inside tag",
			input: `<%= "\%>" %>`,
			want:  []Segment{Expression(`"%>"`)},
		},
		{
			name:  "empty tag",
			input: "<%%>",
			want:  []Segment{Statement("")},
		},
		{
			name:  "partial start tag at end",
			input: "abc <",
			want:  []Segment{Literal("abc <")},
		},
		{
			name:  "multibyte literal",
			input: "héllo <%= x %> wörld",
			want: []Segment{
				Literal("héllo "),
				Expression("x"),
				Literal(" wörld"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, DefaultStartTag, DefaultEndTag, DefaultClassifier)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, got, ignorePos); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Positions(t *testing.T) {
	segs, err := Parse("ab\nc<%= x %>\n  <% y %>", "<%", "%>", DefaultClassifier)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 4, Line: 2, Column: 2},
		{Offset: 12, Line: 2, Column: 10},
		{Offset: 15, Line: 3, Column: 3},
	}

	got := make([]Position, len(segs))
	for i, s := range segs {
		got[i] = s.Pos
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_CustomDelims(t *testing.T) {
	segs, err := Parse("a {{= b }} c {{ d }}", "{{", "}}", DefaultClassifier)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Segment{
		Literal("a "),
		Expression("b"),
		Literal(" c "),
		Statement("d"),
	}

	if diff := cmp.Diff(want, segs, ignorePos); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Raw(t *testing.T) {
	segs, err := Parse("<%=  x  %>", "<%", "%>", DefaultClassifier)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}

	if segs[0].Raw != "=  x  " {
		t.Errorf("Raw = %q, want %q", segs[0].Raw, "=  x  ")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		start, end string
		classifier Classifier
		want       error
	}{
		{
			name:       "empty start tag",
			input:      "x",
			start:      "",
			end:        "%>",
			classifier: DefaultClassifier,
			want:       ErrInvalidDelimiter,
		},
		{
			name:       "empty end tag",
			input:      "x",
			start:      "<%",
			end:        "",
			classifier: DefaultClassifier,
			want:       ErrInvalidDelimiter,
		},
		{
			name:       "nil classifier",
			input:      "x",
			start:      "<%",
			end:        "%>",
			classifier: nil,
			want:       ErrInvalidClassifier,
		},
		{
			name:       "unterminated tag",
			input:      "abc <%= x",
			start:      "<%",
			end:        "%>",
			classifier: DefaultClassifier,
			want:       ErrUnterminatedTag,
		},
		{
			name:       "partial end tag at end",
			input:      "<% x %",
			start:      "<%",
			end:        "%>",
			classifier: DefaultClassifier,
			want:       ErrUnterminatedTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, tt.start, tt.end, tt.classifier)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_UnterminatedPosition(t *testing.T) {
	_, err := Parse("line one\n  <% oops", "<%", "%>", DefaultClassifier)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error %v is not *Error", err)
	}

	if got, want := e.Position().String(), "2:3"; got != want {
		t.Errorf("Position() = %s, want %s", got, want)
	}
}

func TestReconstruct(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a <%= b %> c",
		"<% for x of xs { %><%= x %><% } %>",
		"<%%><%x%>",
		"trailing <%- y %>",
		"caf\xe9 <%= 1 %> \xff",
		"<% \xc3 %>\xc3(",
	}

	for _, in := range inputs {
		segs, err := Parse(in, "<%", "%>", DefaultClassifier)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}

		if got := Reconstruct(segs, "<%", "%>"); got != in {
			t.Errorf("Reconstruct(Parse(%q)) = %q", in, got)
		}
	}
}

func TestParse_InvalidUTF8(t *testing.T) {
	in := "caf\xe9 \xff"
	if utf8.ValidString(in) {
		t.Fatal("input is valid UTF-8")
	}

	segs, err := Parse(in, "<%", "%>", DefaultClassifier)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if diff := cmp.Diff([]Segment{Literal(in)}, segs, ignorePos); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}

	got, err := MustCompile(in).Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if got != in {
		t.Errorf("Render() = %q, want %q", got, in)
	}
}

func TestParse_NoAdjacentLiterals(t *testing.T) {
	segs, err := Parse(`a\<%b\\c<%= x %>d\%>e`, "<%", "%>", DefaultClassifier)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for i := 1; i < len(segs); i++ {
		if segs[i].Kind == KindLiteral && segs[i-1].Kind == KindLiteral {
			t.Errorf("segments %d and %d are both literal", i-1, i)
		}
	}
}

// FuzzParse checks that parsing never panics and that escape-free input is
// reconstructed exactly.
func FuzzParse(f *testing.F) {
	f.Add("hello")
	f.Add("<%= x %>")
	f.Add("a <% if (x) { %>b<% } %>")
	f.Add(`\<% \\ \%>`)
	f.Add("<% unterminated")
	f.Add("<%%>")
	f.Add("caf\xe9 <%= 1 %> \xff")

	f.Fuzz(func(t *testing.T, input string) {
		segs, err := Parse(input, DefaultStartTag, DefaultEndTag, DefaultClassifier)
		if err != nil {
			if !errors.Is(err, ErrUnterminatedTag) {
				t.Fatalf("unexpected error: %v", err)
			}

			return
		}

		if strings.ContainsRune(input, Escape) {
			return
		}

		if got := Reconstruct(segs, DefaultStartTag, DefaultEndTag); got != input {
			t.Errorf("Reconstruct = %q, want %q", got, input)
		}
	})
}
