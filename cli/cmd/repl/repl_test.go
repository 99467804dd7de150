package repl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/etmpl/tmpl"
)

func testModel(t *testing.T, data map[string]any) model {
	t.Helper()

	cfg := Config{
		Data:     data,
		StartTag: tmpl.DefaultStartTag,
		EndTag:   tmpl.DefaultEndTag,
		Builtins: true,
	}

	return newModel(t.Context(), cfg, NewHistory(""))
}

func TestModel_Render(t *testing.T) {
	m := testModel(t, map[string]any{
		"name":  "Ann",
		"items": []any{1, 2, 3},
	})

	tests := []struct {
		name    string
		line    string
		want    string
		wantErr bool
	}{
		{"bare_expression", "name", "Ann", false},
		{"bare_call", "upper(name)", "ANN", false},
		{"template_line", "Hi <%= name %>!", "Hi Ann!", false},
		{"loop", "<% for i of items { %><%= i %><% } %>", "123", false},
		{"builtin", `path.cat("a", "b")`, filepath.Join("a", "b"), false},
		{"undefined", "missing", "", true},
		{"unterminated", "<%= name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.render(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("render(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestModel_Commands(t *testing.T) {
	original := map[string]any{"site": map[string]any{"title": "Home"}}

	m := testModel(t, original)
	m.mode = modeCtrl

	m, _ = m.executeCommand("set site.lang=en")
	m, _ = m.executeCommand("set count=3")

	want := map[string]any{
		"site":  map[string]any{"title": "Home", "lang": "en"},
		"count": 3,
	}

	if diff := cmp.Diff(want, m.data); diff != "" {
		t.Errorf("data after set mismatch (-want +got):\n%s", diff)
	}

	if _, ok := original["count"]; ok {
		t.Error("set modified the initial data map")
	}

	file := filepath.Join(t.TempDir(), "extra.json")
	if err := os.WriteFile(file, []byte(`{"site": {"title": "Docs"}, // comment
		"tags": ["a"],}`), 0o600); err != nil {
		t.Fatal(err)
	}

	m, _ = m.executeCommand("load " + file)

	want = map[string]any{
		"site":  map[string]any{"title": "Docs", "lang": "en"},
		"count": 3,
		"tags":  []any{"a"},
	}

	if diff := cmp.Diff(want, m.data); diff != "" {
		t.Errorf("data after load mismatch (-want +got):\n%s", diff)
	}

	vars, err := m.listVars("site")
	if err != nil {
		t.Fatalf("listVars(site) error = %v", err)
	}

	if !strings.Contains(vars, "lang") || !strings.Contains(vars, "title") {
		t.Errorf("listVars(site) = %q, want lang and title", vars)
	}

	if _, err := m.listVars("nope"); err == nil {
		t.Error("listVars(nope) error = nil")
	}

	m, cmd := m.executeCommand("quit")
	if !m.quitting || cmd == nil {
		t.Errorf("quit: quitting = %v, cmd = %v", m.quitting, cmd)
	}
}

func TestModel_ExecuteInputRecordsHistory(t *testing.T) {
	m := testModel(t, map[string]any{"x": 1})

	m.input.SetValue("x + 1")
	m, _ = m.executeInput()

	m = m.switchToMode(modeCtrl)
	m.input.SetValue("vars")
	m, _ = m.executeInput()

	want := []HistoryEntry{
		{Line: "x + 1", Mode: modeEval},
		{Line: "vars", Mode: modeCtrl},
	}

	if diff := cmp.Diff(want, m.history.Entries()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	if m.input.Value() != "" {
		t.Errorf("input after execute = %q, want empty", m.input.Value())
	}
}

func TestModel_HistoryStep(t *testing.T) {
	m := testModel(t, nil)

	for _, e := range []HistoryEntry{
		{Line: "a", Mode: modeEval},
		{Line: "help", Mode: modeCtrl},
		{Line: "b", Mode: modeEval},
	} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	m.historyIdx = m.history.Len()

	m = m.historyStep(-1, false)
	if m.input.Value() != "b" || m.mode != modeEval {
		t.Fatalf("step 1 = %q mode %d", m.input.Value(), m.mode)
	}

	m = m.historyStep(-1, false)
	if m.input.Value() != "help" || m.mode != modeCtrl {
		t.Fatalf("step 2 = %q mode %d", m.input.Value(), m.mode)
	}

	m = m.historyStep(1, false)
	m = m.historyStep(1, false)

	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("past newest = %q at %d", m.input.Value(), m.historyIdx)
	}

	m = m.historyStep(-1, true)
	m = m.historyStep(-1, true)

	if m.input.Value() != "a" || m.mode != modeEval {
		t.Errorf("same-mode step = %q mode %d, want a in eval mode", m.input.Value(), m.mode)
	}
}

func TestModel_SwitchModeKeepsInput(t *testing.T) {
	m := testModel(t, nil)

	m.input.SetValue("partial")
	m = m.switchToMode(modeCtrl)

	if m.input.Value() != "" {
		t.Errorf("command input = %q, want empty", m.input.Value())
	}

	m.input.SetValue("he")
	m = m.switchToMode(modeEval)

	if m.input.Value() != "partial" {
		t.Errorf("restored input = %q, want %q", m.input.Value(), "partial")
	}

	m = m.switchToMode(modeCtrl)
	if m.input.Value() != "he" {
		t.Errorf("restored command = %q, want %q", m.input.Value(), "he")
	}
}

func TestModel_TabCycle(t *testing.T) {
	m := testModel(t, map[string]any{
		"site": map[string]any{"title": "x", "tagline": "y"},
	})

	m.input.SetValue("site.t")
	m.input.SetCursor(6)
	refreshMatches(&m, true)

	if len(m.matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(m.matches))
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})
	first := m.input.Value()

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})
	second := m.input.Value()

	if first == second || !strings.HasPrefix(first, "site.t") || !strings.HasPrefix(second, "site.t") {
		t.Errorf("tab cycle produced %q then %q", first, second)
	}

	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.input.Value(); got != "site.t" {
		t.Errorf("escape restored %q, want %q", got, "site.t")
	}
}

func TestModel_EditMessages(t *testing.T) {
	m := testModel(t, nil)

	next, _ := m.Update(editDataMsg{data: map[string]any{"k": "v"}})
	if got := next.(model).data; got["k"] != "v" {
		t.Errorf("data after edit = %v", got)
	}

	next, cmd := m.Update(editDeclinedMsg{})
	if !next.(model).quitting || cmd == nil {
		t.Error("declined edit did not quit")
	}
}
