package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"

	"github.com/ardnew/etmpl/log"
)

// Render compiles templates and renders them against a data context.
type Render struct {
	Tags    templateFlags `embed:""`
	Context dataFlags     `embed:""`

	Out string `help:"Write output atomically to FILE instead of stdout." placeholder:"FILE" short:"o" type:"path"`

	Templates []string `arg:"" default:"-" help:"Template files or doublestar globs, or '-' for stdin." name:"template"`
}

// Run executes the render command. Outputs of multiple templates are
// concatenated in order. Nothing is written unless every template renders.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if r.Context.stdin() && slices.Contains(r.Templates, stdinSource) {
		return ErrStdinConflict
	}

	env, err := r.Context.load(ctx)
	if err != nil {
		return err
	}

	srcs, err := readSources(ctx, r.Templates)
	if err != nil {
		return err
	}

	var out bytes.Buffer

	for _, src := range srcs {
		routine, err := r.Tags.compile(src)
		if err != nil {
			return err
		}

		began := time.Now()
		size := out.Len()

		if err := routine.Execute(ctx, &out, env); err != nil {
			return ErrRender.With(slog.String("template", src.name)).Wrap(err)
		}

		log.DebugContext(ctx, "rendered",
			slog.String("template", src.name),
			slog.String("in", humanize.Bytes(uint64(len(src.text)))),
			slog.String("out", humanize.Bytes(uint64(out.Len()-size))),
			slog.Duration("elapsed", time.Since(began)),
		)
	}

	if r.Out == "" || r.Out == stdinSource {
		if _, err := out.WriteTo(streamsFrom(ctx).Out); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	size := out.Len()

	if err := atomic.WriteFile(r.Out, &out); err != nil {
		return ErrWriteOutput.With(slog.String("file", r.Out)).Wrap(err)
	}

	log.InfoContext(ctx, "wrote output",
		slog.String("file", r.Out),
		slog.String("size", humanize.Bytes(uint64(size))),
		slog.Int("templates", len(srcs)),
	)

	return nil
}
