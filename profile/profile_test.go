package profile

import "testing"

func TestProfiler_Options(t *testing.T) {
	p := New(WithMode("cpu"), WithPath("/tmp/p"), WithQuiet(true), nil)

	if p.mode != "cpu" || p.path != "/tmp/p" || !p.quiet {
		t.Errorf("New() = %+v", p)
	}

	if p.Mode() != "cpu" {
		t.Errorf("Mode() = %q, want cpu", p.Mode())
	}
}

func TestProfiler_StartWithoutMode(t *testing.T) {
	s := New().Start()
	if _, ok := s.(ignore); !ok {
		t.Errorf("Start() = %T, want no-op", s)
	}

	s.Stop()
}

func TestProfiler_StartUnknownMode(t *testing.T) {
	s := New(WithMode("bogus")).Start()
	if _, ok := s.(ignore); !ok {
		t.Errorf("Start() = %T, want no-op", s)
	}

	s.Stop()
}
