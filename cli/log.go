package cli

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/ardnew/etmpl/log"
)

// logFormat configures the default logger as a side effect of parsing, so
// that errors reported while parsing later flags use the chosen format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the default logger as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevelDefault}"  enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"${logFormatDefault}" enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"${logTimeDefault}"                           help:"Set timestamp layout (e.g. RFC3339, kitchen, ms, none)." name:"time"`
	Caller     bool      `default:"false"                                       help:"Include caller information."                             negatable:""`
	Pretty     bool      `default:"${logPrettyDefault}"                         help:"Enable colorized pretty printing."                       negatable:""`
}

func (*logConfig) vars() kong.Vars {
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	return kong.Vars{
		"logLevelDefault":  log.DefaultLevel.String(),
		"logLevelEnum":     strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatDefault": log.DefaultFormat.String(),
		"logFormatEnum":    strings.Join(slices.Collect(log.Formats()), ","),
		"logTimeDefault":   "RFC3339",
		"logPrettyDefault": strconv.FormatBool(tty),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies every parsed setting to the default logger. The returned
// function logs the run time at trace level.
func (f *logConfig) start(ctx context.Context) (stop func()) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	began := time.Now()

	return func() {
		log.TraceContext(ctx, "exit", slog.Duration("elapsed", time.Since(began)))
	}
}

// scan applies logger flags found in args before kong parses them, so the
// logger is configured regardless of flag position. Boolean flags never
// reach a TextUnmarshaler, so they are only honored here and in start.
func (f *logConfig) scan(args []string) {
	boolean := func(dst *bool, opt func(bool) log.Option, negate bool) func(string, bool) {
		return func(value string, assigned bool) {
			v := true

			if assigned {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return
				}

				v = b
			}

			if negate {
				v = !v
			}

			*dst = v
			log.Config(opt(v))
		}
	}

	valued := map[string]func(string){
		"--log-level":  func(v string) { _ = f.Level.UnmarshalText([]byte(v)) },
		"--log-format": func(v string) { _ = f.Format.UnmarshalText([]byte(v)) },
		"--log-time": func(v string) {
			f.TimeLayout = v
			log.Config(log.WithTimeLayout(v))
		},
	}

	flags := map[string]func(string, bool){
		"--log-pretty":    boolean(&f.Pretty, log.WithPretty, false),
		"--no-log-pretty": boolean(&f.Pretty, log.WithPretty, true),
		"--log-caller":    boolean(&f.Caller, log.WithCaller, false),
		"--no-log-caller": boolean(&f.Caller, log.WithCaller, true),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		if !strings.HasPrefix(arg, "--log-") && !strings.HasPrefix(arg, "--no-log-") {
			continue
		}

		name, value, assigned := strings.Cut(arg, "=")

		if fn, ok := valued[name]; ok {
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			fn(value)

			continue
		}

		if fn, ok := flags[name]; ok {
			fn(value, assigned)
		}
	}
}
