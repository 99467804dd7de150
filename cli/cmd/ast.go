package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/etmpl/tmpl"
)

// AST prints the segment sequence of a template.
type AST struct {
	StartTag string `default:"${startTag}" help:"Opening tag delimiter." placeholder:"TAG"`
	EndTag   string `default:"${endTag}"   help:"Closing tag delimiter." placeholder:"TAG"`

	Format string `default:"text" enum:"${astFormatEnum}" help:"Output format (${enum})." short:"f"`
	Indent int    `default:"2"                            help:"Indent width for JSON and YAML; 0 is compact." short:"i"`

	Template string `arg:"" default:"-" help:"Template file or a glob matching one file, or '-' for stdin." name:"template"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := readSources(ctx, []string{a.Template})
	if err != nil {
		return err
	}

	if len(srcs) != 1 {
		return ErrOneTemplate.With(
			slog.String("pattern", a.Template),
			slog.Int("matches", len(srcs)),
		)
	}

	format, ok := tmpl.ParseFormat(a.Format)
	if !ok {
		return fmt.Errorf("unknown format %q", a.Format)
	}

	segs, err := tmpl.Parse(srcs[0].text, a.StartTag, a.EndTag, tmpl.DefaultClassifier)
	if err != nil {
		return tmpl.WrapError(err).With(slog.String("template", srcs[0].name))
	}

	return tmpl.FormatSegments(ctx, streamsFrom(ctx).Out, segs, format, a.Indent)
}
