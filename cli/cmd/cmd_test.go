package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeFiles creates the named files under a temporary directory and
// returns the directory.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

func streams(ctx context.Context, in string) (context.Context, *bytes.Buffer) {
	var out bytes.Buffer

	return WithStreams(ctx, Streams{In: strings.NewReader(in), Out: &out, Err: &out}), &out
}

func TestExpandSources(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.tmpl":       "a",
		"b.tmpl":       "b",
		"sub/c.tmpl":   "c",
		"sub/d.txt":    "d",
		"other/e.tmpl": "e",
	})

	link := filepath.Join(dir, "link.tmpl")
	if err := os.Symlink(filepath.Join(dir, "a.tmpl"), link); err != nil {
		t.Fatal(err)
	}

	at := func(names ...string) []string {
		out := make([]string, len(names))
		for i, n := range names {
			if n == stdinSource {
				out[i] = n
			} else {
				out[i] = filepath.Join(dir, n)
			}
		}

		return out
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
		wantErr  error
	}{
		{
			name:     "plain_in_order",
			patterns: at("b.tmpl", "a.tmpl"),
			want:     at("b.tmpl", "a.tmpl"),
		},
		{
			name:     "duplicate_path",
			patterns: at("a.tmpl", "a.tmpl"),
			want:     at("a.tmpl"),
		},
		{
			name:     "symlink_to_same_file",
			patterns: at("a.tmpl", "link.tmpl"),
			want:     at("a.tmpl"),
		},
		{
			name:     "glob",
			patterns: at("sub/*.tmpl"),
			want:     at("sub/c.tmpl"),
		},
		{
			name:     "doublestar_glob",
			patterns: at("**/c.tmpl", "sub/c.tmpl"),
			want:     at("sub/c.tmpl"),
		},
		{
			name:     "stdin_once",
			patterns: []string{stdinSource, filepath.Join(dir, "a.tmpl"), stdinSource},
			want:     at(stdinSource, "a.tmpl"),
		},
		{
			name:     "glob_without_match",
			patterns: at("*.none"),
			wantErr:  ErrNoMatch,
		},
		{
			name:     "empty",
			patterns: nil,
			wantErr:  ErrNoTemplates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandSources(tt.patterns)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expandSources() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("expandSources() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("expandSources() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadSources(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.tmpl": "from file"})
	file := filepath.Join(dir, "a.tmpl")

	ctx, _ := streams(t.Context(), "from stdin")

	got, err := readSources(ctx, []string{stdinSource, file})
	if err != nil {
		t.Fatalf("readSources() error = %v", err)
	}

	want := []source{
		{name: stdinSource, text: "from stdin"},
		{name: file, text: "from file"},
	}

	if diff := cmp.Diff(want, got, cmp.AllowUnexported(source{})); diff != "" {
		t.Errorf("readSources() mismatch (-want +got):\n%s", diff)
	}

	_, err = readSources(ctx, []string{filepath.Join(dir, "missing.tmpl")})
	if !errors.Is(err, ErrReadTemplate) {
		t.Errorf("readSources(missing) error = %v, want %v", err, ErrReadTemplate)
	}
}

func defaultTags() templateFlags {
	return templateFlags{StartTag: "<%", EndTag: "%>"}
}

func TestRender(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"greet.tmpl": "Hello, <%= name %>!\n",
		"list.tmpl":  "<% for x of items { %>- <%= x %>\n<% } %>",
		"bad.tmpl":   "<%= nope %>",
		"data.yaml":  "name: Ann\nitems: [1, 2]\n",
		"more.json":  `{"name": "Bo", /* override */ }`,
	})

	path := func(name string) string { return filepath.Join(dir, name) }

	tests := []struct {
		name      string
		cmd       Render
		stdin     string
		want      string
		wantErr   error
		wantEmpty bool
	}{
		{
			name: "data_file",
			cmd: Render{
				Context:   dataFlags{Data: []string{path("data.yaml")}},
				Templates: []string{path("greet.tmpl"), path("list.tmpl")},
			},
			want: "Hello, Ann!\n- 1\n- 2\n",
		},
		{
			name: "merged_data_and_set",
			cmd: Render{
				Context: dataFlags{
					Data: []string{path("data.yaml"), path("more.json")},
					Set:  []string{"items=[3]"},
				},
				Templates: []string{path("greet.tmpl"), path("list.tmpl")},
			},
			want: "Hello, Bo!\n- 3\n",
		},
		{
			name: "stdin_template",
			cmd: Render{
				Context:   dataFlags{Set: []string{"name=Cy"}},
				Templates: []string{stdinSource},
			},
			stdin: "[<%= upper(name) %>]",
			want:  "[CY]",
		},
		{
			name: "custom_delims",
			cmd: Render{
				Tags:      templateFlags{StartTag: "{{", EndTag: "}}"},
				Context:   dataFlags{Set: []string{"n=2"}},
				Templates: []string{stdinSource},
			},
			stdin: "{{= n * 2 }}",
			want:  "4",
		},
		{
			name: "stdin_data",
			cmd: Render{
				Context:   dataFlags{Data: []string{stdinSource}},
				Templates: []string{path("greet.tmpl")},
			},
			stdin: "name: Di\n",
			want:  "Hello, Di!\n",
		},
		{
			name: "stdin_data_and_template",
			cmd: Render{
				Context:   dataFlags{Data: []string{stdinSource}},
				Templates: []string{stdinSource},
			},
			stdin:     "name: Di\n",
			wantErr:   ErrStdinConflict,
			wantEmpty: true,
		},
		{
			name: "render_error_writes_nothing",
			cmd: Render{
				Context:   dataFlags{Data: []string{path("data.yaml")}},
				Templates: []string{path("greet.tmpl"), path("bad.tmpl")},
			},
			wantErr:   ErrRender,
			wantEmpty: true,
		},
		{
			name: "bad_assignment",
			cmd: Render{
				Context:   dataFlags{Set: []string{"novalue"}},
				Templates: []string{path("greet.tmpl")},
			},
			wantErr:   ErrLoadData,
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cmd.Tags.StartTag == "" {
				tt.cmd.Tags = defaultTags()
			}

			ctx, out := streams(t.Context(), tt.stdin)

			err := tt.cmd.Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if tt.wantEmpty && out.Len() != 0 {
				t.Errorf("Run() wrote %q on failure", out.String())
			}

			if tt.want != "" && out.String() != tt.want {
				t.Errorf("Run() output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRender_OutFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"t.tmpl": "v=<%= v %>"})
	outPath := filepath.Join(dir, "out.txt")

	ctx, out := streams(t.Context(), "")

	cmd := Render{
		Tags:      defaultTags(),
		Context:   dataFlags{Set: []string{"v=1"}},
		Out:       outPath,
		Templates: []string{filepath.Join(dir, "t.tmpl")},
	}

	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}

	if string(got) != "v=1" {
		t.Errorf("output file = %q, want %q", got, "v=1")
	}
}

func TestCheck(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.tmpl":   "<% if x { %>y<% } %>",
		"open.tmpl":   "<% if x { %>y",
		"unterm.tmpl": "<%= x",
	})

	t.Run("all_ok", func(t *testing.T) {
		ctx, out := streams(t.Context(), "")

		cmd := Check{Tags: defaultTags(), Templates: []string{filepath.Join(dir, "good.tmpl")}}
		if err := cmd.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if !strings.HasPrefix(out.String(), "ok ") {
			t.Errorf("output = %q, want ok line", out.String())
		}
	})

	t.Run("failures", func(t *testing.T) {
		ctx, out := streams(t.Context(), "")

		cmd := Check{Tags: defaultTags(), Quiet: true, Templates: []string{filepath.Join(dir, "*.tmpl")}}

		err := cmd.Run(ctx)
		if !errors.Is(err, ErrCheckFailed) {
			t.Fatalf("Run() error = %v, want %v", err, ErrCheckFailed)
		}

		if !errors.Is(err, ErrCompile) {
			t.Errorf("Run() error = %v, want wrapped %v", err, ErrCompile)
		}

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("quiet output has %d lines, want 2:\n%s", len(lines), out.String())
		}

		for _, line := range lines {
			if !strings.HasPrefix(line, "FAIL ") {
				t.Errorf("unexpected line %q", line)
			}
		}
	})
}

func TestAST(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out string)
	}{
		{
			name:   "text",
			format: "text",
			check: func(t *testing.T, out string) {
				lines := strings.Split(strings.TrimSpace(out), "\n")
				if len(lines) != 3 {
					t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
				}

				if !strings.Contains(lines[1], "expression") || !strings.Contains(lines[1], `"name"`) {
					t.Errorf("second segment = %q", lines[1])
				}
			},
		},
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "[") || !strings.Contains(out, `"text": "name"`) {
					t.Errorf("json output = %q", out)
				}
			},
		},
		{
			name:   "yaml",
			format: "yaml",
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "text: name") {
					t.Errorf("yaml output = %q", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := streams(t.Context(), "Hi <%= name %>!")

			cmd := AST{StartTag: "<%", EndTag: "%>", Format: tt.format, Indent: 2, Template: stdinSource}
			if err := cmd.Run(ctx); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			tt.check(t, out.String())
		})
	}

	t.Run("glob_matches_one", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"only.tmpl": "<%= x %>"})
		ctx, out := streams(t.Context(), "")

		cmd := AST{StartTag: "<%", EndTag: "%>", Format: "text", Template: filepath.Join(dir, "*.tmpl")}
		if err := cmd.Run(ctx); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if !strings.Contains(out.String(), `"x"`) {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("glob_matches_many", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"a.tmpl": "a", "b.tmpl": "b"})
		ctx, out := streams(t.Context(), "")

		cmd := AST{StartTag: "<%", EndTag: "%>", Format: "text", Template: filepath.Join(dir, "*.tmpl")}
		if err := cmd.Run(ctx); !errors.Is(err, ErrOneTemplate) {
			t.Fatalf("Run() error = %v, want %v", err, ErrOneTemplate)
		}

		if out.Len() != 0 {
			t.Errorf("Run() wrote %q on failure", out.String())
		}
	})

	t.Run("unknown_format", func(t *testing.T) {
		ctx, _ := streams(t.Context(), "x")

		cmd := AST{StartTag: "<%", EndTag: "%>", Format: "xml", Template: stdinSource}
		if err := cmd.Run(ctx); err == nil {
			t.Error("Run() error = nil, want unknown format")
		}
	})
}
