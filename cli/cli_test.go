package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/etmpl/cli/cmd"
	"github.com/ardnew/etmpl/log"
)

func TestLogConfig_Scan(t *testing.T) {
	t.Cleanup(func() { log.Config(log.WithDefaults(os.Stderr)) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "assigned",
			args: []string{"--log-level=debug", "--log-format=json", "render"},
			want: logConfig{Level: "debug", Format: "json"},
		},
		{
			name: "separate_value",
			args: []string{"--log-time", "kitchen", "--log-level", "warn"},
			want: logConfig{Level: "warn", TimeLayout: "kitchen"},
		},
		{
			name: "booleans",
			args: []string{"--log-caller", "--no-log-pretty"},
			want: logConfig{Caller: true, Pretty: false},
		},
		{
			name: "explicit_boolean",
			args: []string{"--log-pretty=true", "--log-caller=false"},
			want: logConfig{Pretty: true},
		},
		{
			name: "stops_at_terminator",
			args: []string{"--", "--log-level=trace"},
			want: logConfig{},
		},
		{
			name: "ignores_others",
			args: []string{"-d", "data.yaml", "--set", "a=1"},
			want: logConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got logConfig

			got.scan(tt.args)

			if got != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

// TestRun drives the command line end to end. The configuration and cache
// directories are resolved once per process, so every case shares them.
func TestRun(t *testing.T) {
	t.Cleanup(func() { log.Config(log.WithDefaults(os.Stderr)) })

	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("HOME", root)

	work := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(work, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		return path
	}

	exit := func(code int) { t.Fatalf("exit(%d) called", code) }

	good := write("good.tmpl", "<% if x { %>y<% } %>")
	bad := write("bad.tmpl", "<% if x { %>")
	braces := write("braces.tmpl", "{{= x }}")
	out := filepath.Join(work, "out.txt")

	t.Run("check_ok", func(t *testing.T) {
		if err := Run(t.Context(), exit, "check", "-q", good); err != nil {
			t.Errorf("Run(check) error = %v", err)
		}
	})

	t.Run("check_fails", func(t *testing.T) {
		err := Run(t.Context(), exit, "check", "-q", good, bad)
		if !errors.Is(err, cmd.ErrCheckFailed) {
			t.Errorf("Run(check) error = %v, want %v", err, cmd.ErrCheckFailed)
		}
	})

	t.Run("default_render", func(t *testing.T) {
		tmpl := write("hello.tmpl", "Hello, <%= name %>!")

		if err := Run(t.Context(), exit, "-s", "name=Ann", "-o", out, tmpl); err != nil {
			t.Fatalf("Run(render) error = %v", err)
		}

		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}

		if string(got) != "Hello, Ann!" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("init_then_config_defaults", func(t *testing.T) {
		if err := Run(t.Context(), exit, "init", "--force"); err != nil {
			t.Fatalf("Run(init) error = %v", err)
		}

		conf := configPath(configFile)
		if _, err := os.Stat(conf); err != nil {
			t.Fatalf("config file: %v", err)
		}

		doc := "log:\n  level: error\nstart-tag: \"{{\"\nend-tag: \"}}\"\n"
		if err := os.WriteFile(conf, []byte(doc), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := Run(t.Context(), exit, "-s", "x=7", "-o", out, braces); err != nil {
			t.Fatalf("Run(render) with configured tags error = %v", err)
		}

		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}

		if string(got) != "7" {
			t.Errorf("output = %q, want %q", got, "7")
		}

		if err := os.Remove(conf); err != nil {
			t.Fatal(err)
		}
	})
}
