// Package cli contains the command line interface for etmpl.
//
// # Usage
//
//	etmpl [flags] [render] [TEMPLATE...]
//	etmpl check [TEMPLATE...]
//	etmpl ast [--format=text|json|yaml] [TEMPLATE]
//	etmpl repl
//	etmpl init [--force]
//
// render is the default command. Templates are files, doublestar globs, or
// "-" for standard input. The data context is built from --data files
// (JSON, JSONC, or YAML) merged in order, then --set assignments:
//
//	etmpl -d site.yaml -s site.title=Home 'pages/**/*.tmpl' -o out.html
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory. Keys are flag names; nested mappings join their keys with "-",
// so the two documents below are equivalent:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Run "etmpl init" to write the file with the current settings.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time: Set timestamp layout
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
// Flags:
//
//   - --pprof-mode: Enable a profile mode (cpu, heap, allocs, ...)
//   - --pprof-dir: Set profile output directory
package cli
