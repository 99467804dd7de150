package tmpl

import (
	"errors"
	"log/slog"
	"strings"
)

var (
	errUnexpectedClose = errors.New("unexpected }")
	errElseWithoutIf   = errors.New("else without if")
	errDuplicateElse   = errors.New("else after else")
	errUnclosed        = errors.New("unclosed block")
	errJumpOutsideLoop = errors.New("outside of loop")
)

// openKind identifies the construct that an open block belongs to.
type openKind int

const (
	openIf openKind = iota
	openElse
	openLoop
)

// open is a block awaiting its closing brace.
type open struct {
	body *block
	ifn  *ifNode
	seg  Segment
	text string
	kind openKind
}

// builder assembles the node tree of a routine from classified segments.
type builder struct {
	root   block
	stack  []open
	closed *ifNode // the if statement closed by the previous unit, if any
}

// body returns the block receiving new nodes.
func (b *builder) body() *block {
	if len(b.stack) == 0 {
		return &b.root
	}

	return b.stack[len(b.stack)-1].body
}

// emit appends n to the current block.
func (b *builder) emit(n node) {
	b.closed = nil

	if n != nil {
		*b.body() = append(*b.body(), n)
	}
}

// inLoop reports whether any open block is a loop body.
func (b *builder) inLoop() bool {
	for _, o := range b.stack {
		if o.kind == openLoop {
			return true
		}
	}

	return false
}

func (b *builder) segment(seg Segment) error {
	switch seg.Kind {
	case KindLiteral:
		if seg.Text != "" {
			b.emit(textNode(seg.Text))
		}

		return nil

	case KindExpression:
		p, err := compileProgram(seg.Text, seg.Pos)
		if err != nil {
			return err
		}

		b.emit(outputNode{expr: p})

		return nil
	}

	units, err := splitUnits(seg.Text)
	if err != nil {
		return ErrSyntax.At(seg.Pos, seg.Text).Wrap(err)
	}

	for _, u := range units {
		if err := b.unit(seg, u); err != nil {
			return err
		}
	}

	return nil
}

func (b *builder) unit(seg Segment, u unit) error {
	switch u.kind {
	case unitClose:
		return b.close(seg)
	case unitOpen:
		return b.open(seg, u.text)
	}

	n, err := simpleNode(u.text, seg.Pos)
	if err != nil {
		return err
	}

	if _, ok := n.(jumpNode); ok && !b.inLoop() {
		return ErrMisplaced.At(seg.Pos, u.text).Wrap(errJumpOutsideLoop)
	}

	b.emit(n)

	return nil
}

func (b *builder) close(seg Segment) error {
	if len(b.stack) == 0 {
		return ErrUnbalanced.At(seg.Pos, seg.Text).Wrap(errUnexpectedClose)
	}

	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	b.closed = nil
	if top.kind == openIf {
		b.closed = top.ifn
	}

	return nil
}

func (b *builder) open(seg Segment, header string) error {
	switch kw := headerKeyword(header); kw {
	case kwIf:
		cond, err := condition(strings.TrimSpace(header[len(kwIf):]), seg.Pos)
		if err != nil {
			return err
		}

		ifn := &ifNode{branches: []*branch{{cond: cond}}}
		b.emit(ifn)
		b.push(open{
			kind: openIf, body: &ifn.branches[0].body, ifn: ifn, seg: seg, text: header,
		})

	case kwElse:
		return b.openElse(seg, header)

	case kwWhile:
		cond, err := condition(strings.TrimSpace(header[len(kwWhile):]), seg.Pos)
		if err != nil {
			return err
		}

		loop := &loopNode{cond: cond}
		b.emit(loop)
		b.push(open{kind: openLoop, body: &loop.body, seg: seg, text: header})

	case kwFor:
		n, err := forNode(header, seg.Pos)
		if err != nil {
			return err
		}

		b.emit(n)

		switch loop := n.(type) {
		case *loopNode:
			b.push(open{kind: openLoop, body: &loop.body, seg: seg, text: header})
		case *rangeNode:
			b.push(open{kind: openLoop, body: &loop.body, seg: seg, text: header})
		}
	}

	return nil
}

// openElse attaches an else or else-if arm to the if statement that was
// closed immediately before it.
func (b *builder) openElse(seg Segment, header string) error {
	ifn := b.closed
	if ifn == nil {
		return ErrUnbalanced.At(seg.Pos, header).Wrap(errElseWithoutIf)
	}

	if ifn.hasElse {
		return ErrUnbalanced.At(seg.Pos, header).Wrap(errDuplicateElse)
	}

	rest := strings.TrimSpace(header[len(kwElse):])
	if !hasKeyword(rest, kwIf) {
		if rest != "" {
			return ErrSyntax.At(seg.Pos, header).Wrap(errMissingBrace)
		}

		ifn.hasElse = true
		b.push(open{kind: openElse, body: &ifn.els, seg: seg, text: header})

		return nil
	}

	cond, err := condition(strings.TrimSpace(rest[len(kwIf):]), seg.Pos)
	if err != nil {
		return err
	}

	br := &branch{cond: cond}
	ifn.branches = append(ifn.branches, br)
	b.push(open{kind: openIf, body: &br.body, ifn: ifn, seg: seg, text: header})

	return nil
}

func (b *builder) push(o open) {
	b.closed = nil
	b.stack = append(b.stack, o)
}

// finish reports any block left open at the end of the template.
func (b *builder) finish() error {
	if len(b.stack) == 0 {
		return nil
	}

	top := b.stack[len(b.stack)-1]

	return ErrUnbalanced.
		At(top.seg.Pos, top.text).
		With(slog.Int("open", len(b.stack))).
		Wrap(errUnclosed)
}

// Generate builds an executable [Routine] from classified segments.
//
// Expressions are compiled and block structure is checked here, so a
// routine that generates without error renders any data context that
// supplies the names it reads.
func Generate(segs []Segment, opts ...Option) (*Routine, error) {
	cfg := makeConfig(opts...)

	var b builder

	for _, seg := range segs {
		if err := b.segment(seg); err != nil {
			cfg.logger.Debug("generate failed", slog.Any("error", err))

			return nil, err
		}
	}

	if err := b.finish(); err != nil {
		cfg.logger.Debug("generate failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.Trace("routine generated",
		slog.Int("segments", len(segs)),
		slog.Int("nodes", len(b.root)),
	)

	return newRoutine(segs, b.root, cfg), nil
}

// Compile parses template with the configured delimiters and classifier
// and generates its routine.
func Compile(template string, opts ...Option) (*Routine, error) {
	cfg := makeConfig(opts...)

	segs, err := Parse(template, cfg.startTag, cfg.endTag, cfg.classifier)
	if err != nil {
		cfg.logger.Debug("parse failed", slog.Any("error", err))

		return nil, err
	}

	cfg.logger.Trace("template parsed",
		slog.Int("bytes", len(template)),
		slog.Int("segments", len(segs)),
	)

	return Generate(segs, opts...)
}

// MustCompile is like [Compile] but panics if the template cannot be
// compiled.
func MustCompile(template string, opts ...Option) *Routine {
	r, err := Compile(template, opts...)
	if err != nil {
		panic(err)
	}

	return r
}
