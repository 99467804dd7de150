package tmpl

// Builtins are the fallback names visible to template code. A name in the
// data context or a local variable hides the builtin of the same name.
//
// The table is built once per process and cloned for every routine so that
// callers may mutate the clone.

import (
	"bufio"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

// envBuiltin is the name of the process environment accessor.
const envBuiltin = "env"

var builtinTable = sync.OnceValue(func() map[string]any {
	return map[string]any{
		"target":   getTarget(),
		"platform": getPlatform(),
		"hostname": getHostname(),
		"sysuser":  getUser(),
		"shell":    getShell(),

		"cwd":   getCwd,
		"quote": strconv.Quote,

		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		"path": map[string]any{
			"abs":  pathAbs,
			"cat":  pathCat,
			"rel":  pathRel,
			"base": filepath.Base,
			"dir":  filepath.Dir,
			"ext":  filepath.Ext,
		},

		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},
	}
})

// builtins returns a fresh copy of the builtin table with the env accessor
// bound to processEnv (or the process environment when processEnv is nil).
func builtins(processEnv []string) map[string]any {
	env := maps.Clone(builtinTable())
	env[envBuiltin] = envFunc(buildProcessEnvMap(processEnv))

	return env
}

// BuiltinNames returns the sorted top-level builtin names.
func BuiltinNames() []string {
	names := slices.Collect(maps.Keys(builtinTable()))
	names = append(names, envBuiltin)
	slices.Sort(names)

	return names
}

// BuiltinValue returns the builtin at the dot-separated path, such as
// "path.cat" or "hostname". The process environment accessor "env" is
// bound to the current process environment.
func BuiltinValue(path string) (any, bool) {
	var cur any = builtinTable()

	if path == envBuiltin {
		return envFunc(buildProcessEnvMap(nil)), true
	}

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}

	return cur, true
}

// BuiltinLookup returns the sorted member names of the builtin namespace at
// the dot-separated path, such as "path" or "file". It returns nil when the
// path does not name a namespace.
func BuiltinLookup(path string) []string {
	if path == "" {
		return BuiltinNames()
	}

	if m, ok := BuiltinValue(path); ok {
		if m, ok := m.(map[string]any); ok {
			return slices.Sorted(maps.Keys(m))
		}
	}

	return nil
}

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// String returns "os/arch".
func (t target) String() string { return t.OS + "/" + t.Arch }

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		if arm, ok := os.LookupEnv("GOARM"); ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch arm = strings.TrimSpace(arm); arm {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	lookup := func(fallback string, keys ...string) string {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok {
				return v
			}
		}

		return fallback
	}

	return target{
		OS:   lookup(runtime.GOOS, "GOHOSTOS", "GOOS"),
		Arch: lookup(runtime.GOARCH, "GOHOSTARCH", "GOARCH"),
	}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUser() *user.User {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return u
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u := getUser()
	if u == nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// mungPrefix prepends items to the PATH-like list in key, removing
// duplicates.
func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// mungPrefixIf is like mungPrefix but keeps only the items accepted by
// predicate.
func mungPrefixIf(
	key string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// buildProcessEnvMap converts a "KEY=VALUE" list to a map.
// A nil list means the environment of the current process.
func buildProcessEnvMap(list []string) map[string]string {
	if list == nil {
		list = os.Environ()
	}

	result := make(map[string]string, len(list))

	for _, entry := range list {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}

func envFunc(processEnv map[string]string) func(string) string {
	return func(key string) string { return processEnv[key] }
}
