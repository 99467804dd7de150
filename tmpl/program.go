package tmpl

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
)

// Names of the functions that rewritten expressions call.
const (
	lookupFunc = "$lookup"
	truthyFunc = "$truthy"
)

// program is one compiled expression fragment.
type program struct {
	prog *vm.Program
	src  string
	pos  Position
}

// compileProgram compiles src as an expr-lang expression.
//
// No environment type is given to the compiler. Each identifier that is not
// declared by the expression itself is replaced with a call that fetches the
// name from the render scope when, and only when, it is evaluated. A name
// missing from the scope is reported instead of silently evaluating to nil,
// while operands skipped by &&, ||, ?? and ?: are never looked up.
//
// The logical operators accept operands of any type and yield the operand
// that decided the result, so that name || "default" works as a fallback.
func compileProgram(src string, pos Position) (*program, error) {
	locals := make(localNames)

	prog, err := expr.Compile(src,
		expr.Function(lookupFunc, lookup),
		expr.Function(truthyFunc, func(params ...any) (any, error) {
			return truthy(params[0]), nil
		}),
		expr.Patch(locals),
		expr.Patch(freeIdents{locals: locals}),
		expr.Patch(&logicalOps{}),
	)
	if err != nil {
		return nil, ErrExprCompile.At(pos, src).Wrap(err)
	}

	return &program{
		prog: prog,
		src:  src,
		pos:  pos,
	}, nil
}

// eval runs p against the render scope.
func (p *program) eval(r *run) (any, error) {
	out, err := r.vm.Run(p.prog, r.scope.env)
	if err != nil {
		var name undefinedName
		if errors.As(err, &name) {
			return nil, ErrUndefined.
				At(p.pos, p.src).
				With(slog.String("name", string(name))).
				Wrap(name)
		}

		return nil, ErrExprEvaluate.At(p.pos, p.src).Wrap(err)
	}

	return out, nil
}

// truth evaluates p as a condition.
func (p *program) truth(r *run) (bool, error) {
	v, err := p.eval(r)
	if err != nil {
		return false, err
	}

	return truthy(v), nil
}

// undefinedName is the name a lookup could not resolve.
type undefinedName string

func (n undefinedName) Error() string {
	return strconv.Quote(string(n)) + " is not defined"
}

// lookup resolves a name in the render scope.
// It is called with the scope and the name.
func lookup(params ...any) (any, error) {
	env, _ := params[0].(map[string]any)
	name, _ := params[1].(string)

	v, ok := env[name]
	if !ok {
		return nil, undefinedName(name)
	}

	return v, nil
}

// localNames records every variable an expression declares with let.
type localNames map[string]struct{}

// Visit implements ast.Visitor. It never modifies the tree.
func (l localNames) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.VariableDeclaratorNode); ok {
		l[n.Name] = struct{}{}
	}
}

// freeIdents rewrites each free identifier into a call of [lookupFunc].
type freeIdents struct {
	locals localNames
}

// Visit implements ast.Visitor.
func (f freeIdents) Visit(node *ast.Node) {
	n, ok := (*node).(*ast.IdentifierNode)
	if !ok || n.Value == "$env" || n.Value == lookupFunc || n.Value == truthyFunc {
		return
	}

	if _, ok := f.locals[n.Value]; ok {
		return
	}

	call := &ast.CallNode{
		Callee: &ast.IdentifierNode{Value: lookupFunc},
		Arguments: []ast.Node{
			&ast.IdentifierNode{Value: "$env"},
			&ast.StringNode{Value: n.Value},
		},
	}

	ast.Patch(node, call)
}

// logicalOps rewrites a && b and a || b so that a is evaluated once and
// tested for truthiness instead of being required to be a bool:
//
//	a || b  =>  let t = a; $truthy(t) ? t : b
//	a && b  =>  let t = a; $truthy(t) ? b : t
type logicalOps struct {
	count int
}

// Visit implements ast.Visitor.
func (o *logicalOps) Visit(node *ast.Node) {
	n, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}

	var or bool

	switch n.Operator {
	case "||", "or":
		or = true
	case "&&", "and":
	default:
		return
	}

	name := "$t" + strconv.Itoa(o.count)
	o.count++

	ref := func() ast.Node { return &ast.IdentifierNode{Value: name} }

	cond := &ast.ConditionalNode{
		Ternary: true,
		Cond: &ast.CallNode{
			Callee:    &ast.IdentifierNode{Value: truthyFunc},
			Arguments: []ast.Node{ref()},
		},
		Exp1: n.Right,
		Exp2: ref(),
	}
	if or {
		cond.Exp1, cond.Exp2 = ref(), n.Right
	}

	ast.Patch(node, &ast.VariableDeclaratorNode{
		Name:  name,
		Value: n.Left,
		Expr:  cond,
	})
}
