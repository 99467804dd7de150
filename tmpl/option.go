package tmpl

import (
	"maps"

	"github.com/ardnew/etmpl/log"
)

// Option applies a configuration option to config.
type Option func(config) config

// config holds the settings shared by [Compile] and [Generate].
type config struct {
	classifier Classifier
	funcs      map[string]any
	logger     log.Logger
	startTag   string
	endTag     string
	processEnv []string
	builtins   bool
}

func makeConfig(opts ...Option) config {
	return apply(config{
		classifier: DefaultClassifier,
		startTag:   DefaultStartTag,
		endTag:     DefaultEndTag,
		builtins:   true,
	}, opts...)
}

// apply applies multiple options to a config.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	return cfg
}

// WithDelims sets the start and end tags recognized by [Compile].
// Empty tags are rejected when the template is parsed.
func WithDelims(startTag, endTag string) Option {
	return func(c config) config {
		c.startTag, c.endTag = startTag, endTag

		return c
	}
}

// WithClassifier sets the strategy that classifies tag contents.
func WithClassifier(cl Classifier) Option {
	return func(c config) config {
		c.classifier = cl

		return c
	}
}

// WithLogger sets the logger receiving trace events.
// The zero [log.Logger] discards everything.
func WithLogger(l log.Logger) Option {
	return func(c config) config {
		c.logger = l

		return c
	}
}

// WithBuiltins controls whether the builtin names (env, path, file, mung,
// and friends) are visible to template code. They are enabled by default.
func WithBuiltins(enable bool) Option {
	return func(c config) config {
		c.builtins = enable

		return c
	}
}

// WithFuncs adds named values, typically functions, visible to template
// code. They shadow builtins and are shadowed by the data context.
func WithFuncs(funcs map[string]any) Option {
	return func(c config) config {
		if c.funcs == nil {
			c.funcs = make(map[string]any, len(funcs))
		} else {
			c.funcs = maps.Clone(c.funcs)
		}

		maps.Copy(c.funcs, funcs)

		return c
	}
}

// WithProcessEnv replaces the "KEY=VALUE" list served by the env builtin.
// By default the environment of the current process is used.
func WithProcessEnv(env []string) Option {
	return func(c config) config {
		c.processEnv = make([]string, len(env))
		copy(c.processEnv, env)

		return c
	}
}
