package tmpl

import (
	"context"
	"strings"

	"github.com/expr-lang/expr/vm"
)

// signal is the control transfer requested by an executed node.
type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
)

// run is the state of one render.
type run struct {
	ctx   context.Context
	scope *scope
	out   strings.Builder
	vm    vm.VM
}

// checkpoint reports cancellation of the render context.
func (r *run) checkpoint() error {
	if r.ctx.Err() == nil {
		return nil
	}

	return ErrCanceled.Wrap(context.Cause(r.ctx))
}

// node is one instruction of a generated routine.
type node interface {
	exec(r *run) (signal, error)
}

// block is a sequence of nodes executed in order.
type block []node

func (b block) exec(r *run) (signal, error) {
	for _, n := range b {
		sig, err := n.exec(r)
		if err != nil || sig != sigNone {
			return sig, err
		}
	}

	return sigNone, nil
}

// scoped executes b inside a new block scope.
func (b block) scoped(r *run) (signal, error) {
	r.scope.push()
	defer r.scope.pop()

	return b.exec(r)
}

// textNode appends literal text.
type textNode string

func (n textNode) exec(r *run) (signal, error) {
	r.out.WriteString(string(n))

	return sigNone, nil
}

// outputNode appends the value of an expression.
type outputNode struct{ expr *program }

func (n outputNode) exec(r *run) (signal, error) {
	v, err := n.expr.eval(r)
	if err != nil {
		return sigNone, err
	}

	r.out.WriteString(Stringify(v))

	return sigNone, nil
}

// effectNode evaluates an expression and discards its value.
type effectNode struct{ expr *program }

func (n effectNode) exec(r *run) (signal, error) {
	_, err := n.expr.eval(r)

	return sigNone, err
}

// declNode declares a variable in the current block.
type declNode struct {
	value    *program
	name     string
	src      string
	pos      Position
	constant bool
}

func (n declNode) exec(r *run) (signal, error) {
	var v any

	if n.value != nil {
		var err error
		if v, err = n.value.eval(r); err != nil {
			return sigNone, err
		}
	}

	if err := r.scope.declare(n.name, v, n.constant); err != nil {
		return sigNone, locate(err, n.pos, n.src)
	}

	return sigNone, nil
}

// assignNode assigns to an existing variable or map member.
type assignNode struct {
	value *program
	src   string
	path  []string
	pos   Position
}

func (n assignNode) exec(r *run) (signal, error) {
	v, err := n.value.eval(r)
	if err != nil {
		return sigNone, err
	}

	if err := r.scope.assignPath(n.path, v); err != nil {
		return sigNone, locate(err, n.pos, n.src)
	}

	return sigNone, nil
}

// jumpNode is break or continue.
type jumpNode signal

func (n jumpNode) exec(*run) (signal, error) { return signal(n), nil }

// branch is one conditional arm of an ifNode.
type branch struct {
	cond *program
	body block
}

// ifNode runs the first branch whose condition holds, else the else block.
type ifNode struct {
	branches []*branch
	els      block
	hasElse  bool
}

func (n *ifNode) exec(r *run) (signal, error) {
	for _, br := range n.branches {
		ok, err := br.cond.truth(r)
		if err != nil {
			return sigNone, err
		}

		if ok {
			return br.body.scoped(r)
		}
	}

	if n.hasElse {
		return n.els.scoped(r)
	}

	return sigNone, nil
}

// loopNode is a conditional loop with optional init and post statements.
// A nil condition loops until break.
type loopNode struct {
	cond *program
	init block
	post block
	body block
}

func (n *loopNode) exec(r *run) (signal, error) {
	r.scope.push()
	defer r.scope.pop()

	if _, err := n.init.exec(r); err != nil {
		return sigNone, err
	}

	for {
		if err := r.checkpoint(); err != nil {
			return sigNone, err
		}

		if n.cond != nil {
			ok, err := n.cond.truth(r)
			if err != nil {
				return sigNone, err
			}

			if !ok {
				return sigNone, nil
			}
		}

		sig, err := n.body.scoped(r)
		if err != nil {
			return sigNone, err
		}

		if sig == sigBreak {
			return sigNone, nil
		}

		if _, err := n.post.exec(r); err != nil {
			return sigNone, err
		}
	}
}

// rangeNode iterates over the value of an expression.
//
// With two names both key and value are bound. With one name the value is
// bound, except that "in" over a map binds the key.
type rangeNode struct {
	src   *program
	key   string
	val   string
	body  block
	keyed bool
}

func (n *rangeNode) exec(r *run) (signal, error) {
	coll, err := n.src.eval(r)
	if err != nil {
		return sigNone, err
	}

	key, val := n.key, n.val
	if key == "" && n.keyed && isMap(coll) {
		key, val = val, ""
	}

	err = iterate(coll, func(k, v any) (bool, error) {
		if err := r.checkpoint(); err != nil {
			return false, err
		}

		r.scope.push()
		defer r.scope.pop()

		if key != "" {
			if err := r.scope.declare(key, k, false); err != nil {
				return false, err
			}
		}

		if val != "" {
			if err := r.scope.declare(val, v, false); err != nil {
				return false, err
			}
		}

		sig, err := n.body.exec(r)

		return sig != sigBreak, err
	})
	if err != nil {
		return sigNone, locate(err, n.src.pos, n.src.src)
	}

	return sigNone, nil
}

// locate attaches pos and fragment to err unless it already carries a
// position.
func locate(err error, pos Position, fragment string) error {
	e := WrapError(err)
	if e.Position().IsValid() {
		return e
	}

	return e.At(pos, fragment)
}
