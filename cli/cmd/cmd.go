package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/bmatcuk/doublestar/v4"
)

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Streams are the standard input and output of a command. Nil fields
// default to the process streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type streamsKey struct{}

// WithStreams returns a new context.Context whose commands use s.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// stdinSource names standard input in a list of templates.
const stdinSource = "-"

// source is one template read from a file or standard input.
type source struct {
	name string
	text string
}

// fileKey identifies a file by device and inode, so the same file reached
// through different paths or symlinks is read once.
type fileKey struct {
	dev uint64
	ino uint64
}

// makeFileKey returns false when info carries no *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// isGlob reports whether pattern contains doublestar metacharacters.
func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandSources resolves patterns to template paths in command-line order.
// Globs are expanded with doublestar and must match at least one file.
// Duplicates are dropped, and "-" appears at most once.
func expandSources(patterns []string) ([]string, error) {
	var (
		paths  []string
		stdin  bool
		seen   = map[fileKey]struct{}{}
		byPath = map[string]struct{}{}
	)

	add := func(path string) {
		if abs, err := filepath.Abs(path); err == nil {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				abs = resolved
			}

			if info, err := os.Stat(abs); err == nil {
				if key, ok := makeFileKey(info); ok {
					if _, dup := seen[key]; dup {
						return
					}

					seen[key] = struct{}{}
				}
			}

			if _, dup := byPath[abs]; dup {
				return
			}

			byPath[abs] = struct{}{}
		}

		paths = append(paths, path)
	}

	for _, pattern := range patterns {
		switch {
		case pattern == stdinSource:
			if !stdin {
				stdin = true

				paths = append(paths, stdinSource)
			}

		case isGlob(pattern):
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, ErrNoMatch.With(slog.String("pattern", pattern)).Wrap(err)
			}

			if len(matches) == 0 {
				return nil, ErrNoMatch.With(slog.String("pattern", pattern))
			}

			for _, m := range matches {
				add(m)
			}

		default:
			add(pattern)
		}
	}

	if len(paths) == 0 {
		return nil, ErrNoTemplates
	}

	return paths, nil
}

// readSources expands patterns and reads every template.
func readSources(ctx context.Context, patterns []string) ([]source, error) {
	paths, err := expandSources(patterns)
	if err != nil {
		return nil, err
	}

	srcs := make([]source, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var b []byte

		if path == stdinSource {
			b, err = io.ReadAll(streamsFrom(ctx).In)
		} else {
			b, err = os.ReadFile(path)
		}

		if err != nil {
			return nil, ErrReadTemplate.With(slog.String("template", path)).Wrap(err)
		}

		srcs = append(srcs, source{name: path, text: string(b)})
	}

	return srcs, nil
}
