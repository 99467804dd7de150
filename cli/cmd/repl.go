package cmd

import (
	"context"

	"github.com/ardnew/etmpl/cli/cmd/repl"
	"github.com/ardnew/etmpl/log"
)

// Repl starts an interactive session that renders each input line against
// the data context.
type Repl struct {
	Tags    templateFlags `embed:""`
	Context dataFlags     `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env, err := r.Context.load(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, repl.Config{
		Data:     env,
		StartTag: r.Tags.StartTag,
		EndTag:   r.Tags.EndTag,
		Builtins: !r.Tags.NoBuiltins,
		CacheDir: cacheDir,
		Logger:   log.Default(),
	})
}
