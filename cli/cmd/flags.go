package cmd

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/etmpl/data"
	"github.com/ardnew/etmpl/log"
	"github.com/ardnew/etmpl/tmpl"
)

// Vars returns the kong variables referenced by command flags.
func Vars() kong.Vars {
	return kong.Vars{
		"startTag": tmpl.DefaultStartTag,
		"endTag":   tmpl.DefaultEndTag,

		"astFormatEnum": strings.Join(slices.Collect(tmpl.Formats()), ","),
	}
}

// templateFlags configure template compilation.
type templateFlags struct {
	StartTag   string `default:"${startTag}" help:"Opening tag delimiter."                         placeholder:"TAG"`
	EndTag     string `default:"${endTag}"   help:"Closing tag delimiter."                         placeholder:"TAG"`
	NoBuiltins bool   `                      help:"Disable builtin names (env, path, file, ...)."`
}

func (f templateFlags) options() []tmpl.Option {
	return []tmpl.Option{
		tmpl.WithDelims(f.StartTag, f.EndTag),
		tmpl.WithBuiltins(!f.NoBuiltins),
		tmpl.WithLogger(log.Default()),
	}
}

// compile compiles src, attaching the template name to any error.
func (f templateFlags) compile(src source) (*tmpl.Routine, error) {
	r, err := tmpl.Compile(src.text, f.options()...)
	if err != nil {
		return nil, ErrCompile.With(slog.String("template", src.name)).Wrap(err)
	}

	return r, nil
}

// dataFlags build the data context.
type dataFlags struct {
	Data []string `help:"Data file (JSON, JSONC, or YAML), or '-' for stdin. Repeatable; merged in order." placeholder:"FILE"      sep:"none" short:"d"`
	Set  []string `help:"Set a data value by dotted key. Repeatable; applied after data files."            placeholder:"KEY=VALUE" sep:"none" short:"s"`
}

// load merges the data files and then applies each assignment. The data
// file "-" is read from the input stream in ctx.
func (f dataFlags) load(ctx context.Context) (map[string]any, error) {
	env, err := data.Load(streamsFrom(ctx).In, f.Data...)
	if err != nil {
		return nil, ErrLoadData.Wrap(err)
	}

	for _, a := range f.Set {
		if err := data.Set(env, a); err != nil {
			return nil, ErrLoadData.With(slog.String("set", a)).Wrap(err)
		}
	}

	return env, nil
}

// stdin reports whether a data file is read from the input stream.
func (f dataFlags) stdin() bool {
	return slices.Contains(f.Data, data.Stdin)
}
