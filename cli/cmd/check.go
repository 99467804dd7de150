package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ardnew/etmpl/log"
)

// Check compiles templates without rendering them.
type Check struct {
	Tags templateFlags `embed:""`

	Quiet bool `help:"Print only failures." short:"q"`

	Templates []string `arg:"" default:"-" help:"Template files or doublestar globs, or '-' for stdin." name:"template"`
}

// Run executes the check command. Every template is compiled; each failure
// is reported, and the command fails if any template does.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := readSources(ctx, c.Templates)
	if err != nil {
		return err
	}

	out := streamsFrom(ctx).Out

	var failed []error

	for _, src := range srcs {
		if _, err := c.Tags.compile(src); err != nil {
			failed = append(failed, err)

			log.DebugContext(ctx, "check failed", slog.Any("error", err))
			fmt.Fprintf(out, "FAIL %s: %v\n", src.name, errors.Unwrap(err))

			continue
		}

		if !c.Quiet {
			fmt.Fprintf(out, "ok   %s\n", src.name)
		}
	}

	if len(failed) > 0 {
		return ErrCheckFailed.
			With(slog.Int("failed", len(failed)), slog.Int("total", len(srcs))).
			Wrap(errors.Join(failed...))
	}

	return nil
}
