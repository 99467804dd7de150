// Package cmd implements the etmpl subcommands: render, check, ast, repl,
// and init.
//
// Commands receive a [context.Context] carrying the parsed [kong.Context]
// (see [WithContext]) and the standard streams (see [WithStreams]).
package cmd

var (
	// CacheIdentifier is the kong variable holding the path to the runtime
	// cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path to the
	// configuration file.
	ConfigIdentifier = "config"
)
