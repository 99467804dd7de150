package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/etmpl/data"
)

// initCLI mimics the shape of the real command line: global flags with a
// prefix, and subcommands with defaulted flags.
type initCLI struct {
	LogLevel string `default:"info"`
	Verbose  bool

	Render struct {
		Name  string `default:"out"`
		Count int    `default:"3"`
		Empty string
		Tags  []string
	} `cmd:""`

	Check struct {
		Name  string `default:"out"`
		Quiet bool   `short:"q"`
	} `cmd:""`

	Init Init `cmd:""`
}

func initContext(t *testing.T, confPath string, args ...string) *kong.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append(args, "init"))
	if err != nil {
		t.Fatal(err)
	}

	return ktx
}

func TestInit_Run(t *testing.T) {
	tests := []struct {
		name     string
		force    bool
		existing bool
		wantErr  error
	}{
		{name: "create_new_config"},
		{name: "overwrite_with_force", force: true, existing: true},
		{name: "refuse_without_force", existing: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

			if tt.existing {
				if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
					t.Fatal(err)
				}

				if err := os.WriteFile(confPath, []byte("old: true\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := WithContext(t.Context(), initContext(t, confPath))

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			got, err := data.ReadFile(confPath)
			if err != nil {
				t.Fatalf("generated config does not parse: %v", err)
			}

			if _, ok := got["old"]; ok {
				t.Error("existing config was not replaced")
			}

			if got["log-level"] != "info" {
				t.Errorf("log-level = %v, want info", got["log-level"])
			}
		})
	}
}

func TestInit_BuildConfig(t *testing.T) {
	ktx := initContext(t, "unused", "--log-level=debug", "--verbose")
	ctx := WithContext(t.Context(), ktx)

	slice := (&Init{}).buildConfig(ctx)

	got := map[string]any{}
	var order []string

	for _, item := range slice {
		key, _ := item.Key.(string)
		got[key] = item.Value
		order = append(order, key)
	}

	want := map[string]any{
		"log-level": "debug",
		"verbose":   true,
		"name":      "out",
		"count":     3,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buildConfig() mismatch (-want +got):\n%s", diff)
	}

	if len(order) != len(want) {
		t.Errorf("buildConfig() keys = %v, want each once", order)
	}

	if order[0] != "log-level" && order[0] != "verbose" {
		t.Errorf("first key = %q, want a global flag first", order[0])
	}
}

func TestInit_FlagValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"empty_string", "", nil},
		{"string", "x", "x"},
		{"empty_slice", []string{}, nil},
		{"slice", []string{"a"}, []string{"a"}},
		{"false", false, false},
		{"int", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, (&Init{}).flagValue(tt.in)); diff != "" {
				t.Errorf("flagValue(%v) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
