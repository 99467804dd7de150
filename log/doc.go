// Package log provides a concurrency-safe structured logger built on
// [log/slog], with an additional [LevelTrace] below debug.
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("kitchen"))
//
// Each level has a method taking a context and one that uses
// [DefaultContextProvider]. Attributes are typed [slog.Attr] values:
//
//	logger.Info("template rendered", slog.Int("bytes", n))
//	logger.TraceContext(ctx, "segment", slog.String("kind", "expression"))
//
// The package-level functions log through a shared default logger that
// writes text to standard error; [Config] reconfigures it.
//
// When output is a terminal, records are colorized unless [WithPretty]
// disables it. Values implementing [slog.LogValuer], such as template
// errors, are expanded into dotted keys.
package log
