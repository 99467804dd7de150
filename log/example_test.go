package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/etmpl/log"
)

func Example() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"))
	logger.Info("template rendered", slog.Int("bytes", 42))
	// Output: level=INFO msg="template rendered" bytes=42
}

func Example_json() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithTimeLayout("none"),
		log.WithLevel(log.LevelTrace))

	logger.Trace("segment", slog.String("kind", "expression"))
	// Output: {"level":"TRACE","msg":"segment","kind":"expression"}
}

func ExampleLogger_With() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none")).
		With(slog.String("template", "motd.tmpl"))

	logger.Warn("undefined identifier", slog.String("name", "user"))
	// Output: level=WARN msg="undefined identifier" template=motd.tmpl name=user
}
