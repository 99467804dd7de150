package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}

	for _, e := range []HistoryEntry{
		{Line: "name", Mode: modeEval},
		{Line: "vars site", Mode: modeCtrl},
		{Line: "  upper(name)  ", Mode: modeEval},
		{Line: "   ", Mode: modeEval},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q) error = %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{Line: "name", Mode: modeEval},
		{Line: "vars site", Mode: modeCtrl},
		{Line: "upper(name)", Mode: modeEval},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got, wantFile := string(b), "E:name\nC:vars site\nE:upper(name)\n"; got != wantFile {
		t.Errorf("history file = %q, want %q", got, wantFile)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if diff := cmp.Diff(want, reloaded.Entries()); diff != "" {
		t.Errorf("reloaded Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_Dedup(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, line := range []string{"a", "b", "b", "c", "a"} {
		if err := h.Add(line, modeEval); err != nil {
			t.Fatalf("Add(%q) error = %v", line, err)
		}
	}

	// The same line in another mode is a distinct entry.
	if err := h.Add("c", modeCtrl); err != nil {
		t.Fatal(err)
	}

	want := []HistoryEntry{
		{Line: "b", Mode: modeEval},
		{Line: "c", Mode: modeEval},
		{Line: "a", Mode: modeEval},
		{Line: "c", Mode: modeCtrl},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, reloaded.Entries()); diff != "" {
		t.Errorf("reloaded Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory("")

	if err := h.Add("x", modeEval); err != nil {
		t.Fatal(err)
	}

	got, err := h.Entry(0)
	if err != nil || got.Line != "x" {
		t.Errorf("Entry(0) = %+v, %v", got, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d) error = %v, want %v", i, err, ErrOutOfBounds)
		}
	}
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		line string
		want HistoryEntry
	}{
		{"E:name", HistoryEntry{Line: "name", Mode: modeEval}},
		{"C:quit", HistoryEntry{Line: "quit", Mode: modeCtrl}},
		{"legacy line", HistoryEntry{Line: "legacy line", Mode: modeEval}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := decodeEntry(tt.line); got != tt.want {
				t.Errorf("decodeEntry(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}
