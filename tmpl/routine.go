package tmpl

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
)

// Routine is a compiled template. It renders data contexts into text and is
// safe for concurrent use; each render has its own scope and output buffer.
type Routine struct {
	segs []Segment
	code block
	base map[string]any
	cfg  config
}

func newRoutine(segs []Segment, code block, cfg config) *Routine {
	base := make(map[string]any, len(cfg.funcs))

	if cfg.builtins {
		base = builtins(cfg.processEnv)
	}

	maps.Copy(base, cfg.funcs)

	return &Routine{
		segs: slices.Clone(segs),
		code: code,
		base: base,
		cfg:  cfg,
	}
}

// Render executes the routine against data and returns the output text.
//
// Data is nil, a map with string keys, or a struct (or pointer to one)
// whose exported fields become top-level names. Names from data shadow
// builtins and functions of the same name. The caller's top-level map is
// never modified.
func (r *Routine) Render(data any) (string, error) {
	return r.RenderContext(context.Background(), data)
}

// RenderContext is like [Routine.Render] but stops with [ErrCanceled] once
// ctx is done. Cancellation is observed at each loop iteration.
func (r *Routine) RenderContext(ctx context.Context, data any) (string, error) {
	names, err := contextNames(data)
	if err != nil {
		return "", err
	}

	env := cloneEnv(r.base, len(names))
	maps.Copy(env, names)

	x := &run{ctx: ctx, scope: newScope(env)}

	if err := x.checkpoint(); err != nil {
		return "", err
	}

	if _, err := r.code.exec(x); err != nil {
		r.cfg.logger.DebugContext(ctx, "render failed", slog.Any("error", err))

		return "", err
	}

	r.cfg.logger.TraceContext(ctx, "template rendered",
		slog.Int("bytes", x.out.Len()),
	)

	return x.out.String(), nil
}

// Execute renders data and writes the output to w. Nothing is written when
// rendering fails.
func (r *Routine) Execute(ctx context.Context, w io.Writer, data any) error {
	out, err := r.RenderContext(ctx, data)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, out)

	return err
}

// Segments returns a copy of the segments the routine was generated from.
func (r *Routine) Segments() []Segment { return slices.Clone(r.segs) }

// Source reconstructs the template text from the routine's segments using
// the delimiters it was compiled with.
func (r *Routine) Source() string {
	return Reconstruct(r.segs, r.cfg.startTag, r.cfg.endTag)
}
