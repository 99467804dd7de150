package tmpl

import (
	"errors"
	"log/slog"
	"maps"
	"strings"
)

var (
	errUndeclared = errors.New("assignment to undeclared name")
	errConstant   = errors.New("assignment to constant")
	errNotMap     = errors.New("member assignment on non-map value")
)

// binding is the value a name had before a block shadowed it.
type binding struct {
	val any
	ok  bool
}

// frame records the names declared by one block.
type frame struct {
	saved  map[string]binding
	consts map[string]struct{}
}

// scope is the set of names visible to template code during one render.
//
// All names live in a single flat map that is handed to the expression
// machine. Declaring a name in a block saves the value it hides, and
// leaving the block restores it.
type scope struct {
	env    map[string]any
	frames []frame
}

func newScope(env map[string]any) *scope {
	return &scope{env: env, frames: []frame{{}}}
}

func (s *scope) push() { s.frames = append(s.frames, frame{}) }

func (s *scope) pop() {
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	for name, prev := range top.saved {
		if prev.ok {
			s.env[name] = prev.val
		} else {
			delete(s.env, name)
		}
	}
}

// declare binds name to v in the innermost block.
// Declaring a name twice in one block rebinds it unless it is constant.
func (s *scope) declare(name string, v any, constant bool) error {
	top := &s.frames[len(s.frames)-1]

	if _, ok := top.saved[name]; ok {
		if _, isConst := top.consts[name]; isConst {
			return ErrAssign.
				With(slog.String("name", name)).
				Wrap(errConstant)
		}
	} else {
		if top.saved == nil {
			top.saved = make(map[string]binding)
		}

		prev, ok := s.env[name]
		top.saved[name] = binding{val: prev, ok: ok}
	}

	if constant {
		if top.consts == nil {
			top.consts = make(map[string]struct{})
		}

		top.consts[name] = struct{}{}
	} else {
		delete(top.consts, name)
	}

	s.env[name] = v

	return nil
}

// isConst reports whether the nearest declaration of name is constant.
func (s *scope) isConst(name string) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if _, ok := s.frames[i].saved[name]; ok {
			_, isConst := s.frames[i].consts[name]

			return isConst
		}
	}

	return false
}

// assign rebinds the nearest visible binding of name.
func (s *scope) assign(name string, v any) error {
	if _, ok := s.env[name]; !ok {
		return ErrAssign.
			With(slog.String("name", name)).
			Wrap(errUndeclared)
	}

	if s.isConst(name) {
		return ErrAssign.
			With(slog.String("name", name)).
			Wrap(errConstant)
	}

	s.env[name] = v

	return nil
}

// assignPath assigns v to the member reached by path. A single-element path
// is a plain assignment; otherwise every value along the path must be a
// map[string]any, and the final key is created if absent.
func (s *scope) assignPath(path []string, v any) error {
	if len(path) == 1 {
		return s.assign(path[0], v)
	}

	cur, ok := s.env[path[0]]
	if !ok {
		return ErrAssign.
			With(slog.String("name", path[0])).
			Wrap(errUndeclared)
	}

	for i, key := range path[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return ErrAssign.
				With(slog.String("name", strings.Join(path[:i+1], "."))).
				Wrap(errNotMap)
		}

		if i == len(path)-2 {
			m[key] = v

			return nil
		}

		cur = m[key]
	}

	return nil
}

// cloneEnv copies base for a new render. Nested namespaces of string-keyed
// maps are copied one level deep so that member assignment cannot reach the
// shared builtin table.
func cloneEnv(base map[string]any, extra int) map[string]any {
	env := make(map[string]any, len(base)+extra)

	for k, v := range base {
		if m, ok := v.(map[string]any); ok {
			v = maps.Clone(m)
		}

		env[k] = v
	}

	return env
}
