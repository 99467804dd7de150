package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/ardnew/etmpl/data"
	"github.com/ardnew/etmpl/log"
	"github.com/ardnew/etmpl/profile"
)

// defaultConfigIndent is the YAML indent of the generated file.
const defaultConfigIndent = 2

// Init writes a configuration file holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// initIgnore lists flags never written to the configuration file.
var initIgnore = []string{"help", "force", "out", "quiet", profile.Tag}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	doc, err := yaml.MarshalWithOptions(i.buildConfig(ctx),
		yaml.Indent(defaultConfigIndent),
		yaml.IndentSequence(true),
	)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := atomic.WriteFile(confPath, bytes.NewReader(doc)); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.InfoContext(ctx, "initialized configuration file", slog.String("path", confPath))

	return nil
}

// buildConfig collects the global flags with their current values, then
// the flags of every command with their defaults. A flag name shared by
// several commands is written once.
func (i *Init) buildConfig(ctx context.Context) yaml.MapSlice {
	ktx := kongContextFrom(ctx)

	var (
		out  yaml.MapSlice
		seen = map[string]bool{}
	)

	keep := func(flag *kong.Flag) bool {
		if flag.Hidden || seen[flag.Name] {
			return false
		}

		return !slices.ContainsFunc(initIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		})
	}

	for _, flag := range ktx.Model.Flags {
		if !keep(flag) {
			continue
		}

		if v := i.flagValue(ktx.FlagValue(flag)); v != nil {
			seen[flag.Name] = true
			out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	for _, node := range ktx.Model.Leaves(true) {
		for _, flag := range node.Flags {
			if !keep(flag) || !flag.HasDefault {
				continue
			}

			if v := i.flagValue(data.Value(flag.Default)); v != nil {
				seen[flag.Name] = true
				out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
			}
		}
	}

	return out
}

// flagValue returns the configuration value for a flag, or nil when the
// value is empty and should be omitted.
func (i *Init) flagValue(val any) any {
	if val == nil {
		return nil
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.String:
		if rv.Len() == 0 {
			return nil
		}

		return rv.String()

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil
		}

		return val

	default:
		return val
	}
}
