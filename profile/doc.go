// Package profile provides optional runtime profiling of template
// compilation and rendering.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof .
//	etmpl --pprof-mode cpu --pprof-dir ./prof render site.tmpl
//	go tool pprof -http=: ./prof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] does nothing.
//
// The tagged build also registers the [net/http/pprof] handlers on the
// default mux, for programs that embed package tmpl in a server.
package profile

// Tag is the build tag that enables profiling.
const Tag = `pprof`
