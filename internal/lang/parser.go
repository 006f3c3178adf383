package lang

import (
	"strconv"
	"strings"

	"github.com/roach88/storylet/internal/ir"
)

// MaxDepth bounds block nesting.
const MaxDepth = 64

// ParseCondition parses a condition list. Blank source yields an empty,
// always-true condition.
func ParseCondition(src string) (*Condition, error) {
	cond := &Condition{Source: src}
	if isBlank(src) {
		return cond, nil
	}
	p, err := newParser(src, 0, len(src), 0)
	if err != nil {
		return nil, err
	}
	terms, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	cond.Terms = terms
	return cond, nil
}

// ParseTemplate parses prose with embedded blocks.
func ParseTemplate(src string) (*Template, error) {
	return parseTemplateRange(src, 0, len(src), 0)
}

// ParseBlock parses a single block. The outer braces are optional.
func ParseBlock(src string) (*Block, error) {
	start, end := trimSpan(src, 0, len(src))
	if start < end && src[start] == '{' {
		closeIdx, err := matchDelimiter(src, start, end, '{', '}')
		if err != nil {
			return nil, err
		}
		if closeIdx == end-1 {
			return parseBlockRange(src, start, end, 1)
		}
	}
	return parseBlockInner(src, start, end, 1, start)
}

// ParseEffects parses a comma-separated effect list. Statements that fail
// to parse are reported in the error slice; the rest are returned in order.
func ParseEffects(src string) ([]*Effect, []*ParseError) {
	var (
		effects []*Effect
		errs    []*ParseError
	)
	for _, sp := range splitTopLevel(src, ',') {
		start, end := trimSpan(src, sp.start, sp.end)
		if start == end {
			continue
		}
		eff, err := parseEffectRange(src, start, end)
		if err != nil {
			errs = append(errs, asParseError(src, start, err))
			continue
		}
		effects = append(effects, eff)
	}
	return effects, errs
}

func asParseError(src string, pos int, err error) *ParseError {
	if pe, ok := err.(*ParseError); ok {
		return pe
	}
	return newError(src, pos, "%s", err.Error())
}

type parser struct {
	src   string
	toks  []Token
	i     int
	depth int
}

func newParser(src string, start, end, depth int) (*parser, error) {
	toks, err := lexRange(src, start, end, ModeExpression)
	if err != nil {
		return nil, err
	}
	return &parser{src: src, toks: toks, depth: depth}, nil
}

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) next() Token {
	t := p.toks[p.i]
	if t.Kind != TokEOF {
		p.i++
	}
	return t
}

func (p *parser) atOperator(ops ...string) (string, bool) {
	t := p.peek()
	if t.Kind != TokOperator {
		return "", false
	}
	for _, op := range ops {
		if t.Value == op {
			return op, true
		}
	}
	return "", false
}

func (p *parser) expectEOF() error {
	t := p.peek()
	if t.Kind == TokEOF {
		return nil
	}
	return p.unexpected(t)
}

func (p *parser) unexpected(t Token) error {
	switch t.Kind {
	case TokEOF:
		return newError(p.src, t.Pos, "unexpected end of expression")
	case TokColon, TokPipe:
		return newError(p.src, t.Pos, "%s outside a block", t.Kind)
	default:
		return newError(p.src, t.Pos, "unexpected %s %q", t.Kind, t.Value)
	}
}

// parseList parses expr (',' expr)*.
func (p *parser) parseList() ([]Expr, error) {
	var terms []Expr
	for {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		terms = append(terms, e)
		if p.peek().Kind != TokComma {
			return terms, nil
		}
		p.next()
	}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.atOperator("||"); !ok {
			return left, nil
		}
		t := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "||", L: left, R: right, Pos: t.Pos}
	}
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.atOperator("&&"); !ok {
			return left, nil
		}
		t := p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "&&", L: left, R: right, Pos: t.Pos}
	}
}

func (p *parser) parseNot() (Expr, error) {
	if _, ok := p.atOperator("!"); ok {
		t := p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "!", X: x, Pos: t.Pos}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.atOperator("==", "!=", "<", "<=", ">", ">=", "=")
		if !ok {
			return left, nil
		}
		t := p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if op == "=" {
			op = "=="
		}
		left = &Binary{Op: op, L: left, R: right, Pos: t.Pos}
	}
}

func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.atOperator("+", "-")
		if !ok {
			return left, nil
		}
		t := p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, Pos: t.Pos}
	}
}

func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.atOperator("*", "/")
		if !ok {
			return left, nil
		}
		t := p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, Pos: t.Pos}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if _, ok := p.atOperator("-"); ok {
		t := p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "-", X: x, Pos: t.Pos}, nil
	}
	return p.parseRange()
}

func (p *parser) parseRange() (Expr, error) {
	lo, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != TokRange {
		return lo, nil
	}
	t := p.next()
	hi, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return &Range{Lo: lo, Hi: hi, Pos: t.Pos}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.Kind {
	case TokNumber:
		p.next()
		v, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, newError(p.src, t.Pos, "invalid number %q", t.Value)
		}
		return Number{Value: v, Pos: t.Pos}, nil
	case TokBool:
		p.next()
		return Bool{Value: t.Value == "true", Pos: t.Pos}, nil
	case TokString:
		p.next()
		return String{Value: t.Value, Pos: t.Pos}, nil
	case TokWord:
		return p.parseWords(), nil
	case TokQuality, TokAlias, TokWorld, TokSelf, TokDynamic:
		return p.parseRef()
	case TokLParen:
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().Kind != TokRParen {
			return nil, newError(p.src, p.peek().Pos, "expected ')'")
		}
		p.next()
		return e, nil
	case TokBlock:
		p.next()
		b, err := parseBlockRange(p.src, t.Pos, t.End+1, p.depth+1)
		if err != nil {
			return nil, err
		}
		return &BlockExpr{Block: b}, nil
	case TokMacro:
		p.next()
		return &Macro{Name: t.Value, Args: t.Args, Source: p.src[t.Pos:t.End], Pos: t.Pos}, nil
	default:
		return nil, p.unexpected(t)
	}
}

// parseWords joins consecutive bare words into one string literal.
func (p *parser) parseWords() Expr {
	first := p.next()
	words := []string{first.Value}
	for p.peek().Kind == TokWord || p.peek().Kind == TokBool {
		words = append(words, p.next().Value)
	}
	return String{Value: strings.Join(words, " "), Pos: first.Pos}
}

var refKinds = map[TokenKind]RefKind{
	TokQuality: RefQuality,
	TokAlias:   RefAlias,
	TokWorld:   RefWorld,
	TokSelf:    RefSelf,
	TokDynamic: RefDynamic,
}

// parseRef parses a reference, its property chain and trailing metadata.
func (p *parser) parseRef() (*Ref, error) {
	t := p.next()
	ref := &Ref{Kind: refKinds[t.Kind], Pos: t.Pos}
	switch t.Kind {
	case TokSelf:
	case TokDynamic:
		bt := p.next()
		if bt.Kind != TokBlock {
			return nil, newError(p.src, t.Pos, "expected block after '$'")
		}
		b, err := parseBlockRange(p.src, bt.Pos, bt.End+1, p.depth+1)
		if err != nil {
			return nil, err
		}
		ref.Dyn = b
	default:
		ref.Name = t.Value
	}
	for p.peek().Kind == TokProperty {
		ref.Props = append(ref.Props, p.next().Value)
	}
	for p.peek().Kind == TokMeta {
		m := p.next()
		if ref.Meta == nil {
			ref.Meta = make(map[string]string)
		}
		ref.Meta[m.Key] = m.Value
	}
	return ref, nil
}

// parseTemplateRange parses src[start:end] as a template.
func parseTemplateRange(src string, start, end, depth int) (*Template, error) {
	if depth > MaxDepth {
		return nil, newError(src, start, "blocks nested deeper than %d", MaxDepth)
	}
	toks, err := lexRange(src, start, end, ModeTemplate)
	if err != nil {
		return nil, err
	}
	tmpl := &Template{Source: src[start:end]}
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Kind {
		case TokText:
			tmpl.Segments = append(tmpl.Segments, Literal{Text: t.Value})
		case TokBlock:
			b, err := parseBlockRange(src, t.Pos, t.End+1, depth+1)
			if err != nil {
				return nil, err
			}
			tmpl.Segments = append(tmpl.Segments, b)
		case TokDynamic:
			i++
			bt := toks[i]
			dyn, err := parseBlockRange(src, bt.Pos, bt.End+1, depth+1)
			if err != nil {
				return nil, err
			}
			tmpl.Segments = append(tmpl.Segments, &Block{
				Expr:   &Ref{Kind: RefDynamic, Dyn: dyn, Pos: t.Pos},
				Source: src[t.Pos : bt.End+1],
				Pos:    t.Pos,
			})
		}
	}
	return tmpl, nil
}

// parseBlockRange parses the block spanning src[start:end], braces included.
func parseBlockRange(src string, start, end, depth int) (*Block, error) {
	b, err := parseBlockInner(src, start+1, end-1, depth, start)
	if err != nil {
		return nil, err
	}
	b.Source = src[start:end]
	return b, nil
}

// parseBlockInner parses block content src[start:end]; pos is reported as
// the block position.
func parseBlockInner(src string, start, end, depth, pos int) (*Block, error) {
	if depth > MaxDepth {
		return nil, newError(src, pos, "blocks nested deeper than %d", MaxDepth)
	}
	b := &Block{Source: src[start:end], Pos: pos}
	colon := indexTopLevelColon(src[start:end])
	if colon < 0 {
		cs, ce := trimSpan(src, start, end)
		if cs == ce {
			return b, nil
		}
		p, err := newParser(src, cs, ce, depth)
		if err != nil {
			return nil, err
		}
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectEOF(); err != nil {
			return nil, err
		}
		b.Expr = e
		return b, nil
	}

	colon += start
	cs, ce := trimSpan(src, start, colon)
	if cs == ce {
		return nil, newError(src, colon, "conditional block has an empty condition")
	}
	p, err := newParser(src, cs, ce, depth)
	if err != nil {
		return nil, err
	}
	terms, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	b.Conditional = true
	b.Expr = foldAnd(terms)

	thenEnd := end
	if pipe := indexBranchPipe(src[colon+1 : end]); pipe >= 0 {
		thenEnd = colon + 1 + pipe
		es, ee := trimSpan(src, thenEnd+1, end)
		if b.Else, err = parseTemplateRange(src, es, ee, depth); err != nil {
			return nil, err
		}
	}
	ts, te := trimSpan(src, colon+1, thenEnd)
	if b.Then, err = parseTemplateRange(src, ts, te, depth); err != nil {
		return nil, err
	}
	return b, nil
}

func foldAnd(terms []Expr) Expr {
	e := terms[0]
	for _, t := range terms[1:] {
		e = &Binary{Op: "&&", L: e, R: t, Pos: t.Offset()}
	}
	return e
}

// parseEffectRange parses one effect statement src[start:end].
func parseEffectRange(src string, start, end int) (*Effect, error) {
	p, err := newParser(src, start, end, 0)
	if err != nil {
		return nil, err
	}
	eff := &Effect{Source: src[start:end], Pos: start}

	t := p.peek()
	switch t.Kind {
	case TokMacro:
		p.next()
		eff.Macro = &Macro{Name: t.Value, Args: t.Args, Source: src[t.Pos:t.End], Pos: t.Pos}
		return eff, p.expectEOF()
	case TokQuality, TokSelf, TokDynamic:
		ref, err := p.parseRef()
		if err != nil {
			return nil, err
		}
		if len(ref.Props) > 0 {
			return nil, newError(src, ref.Pos, "effect target cannot have properties")
		}
		eff.Target = ref
		eff.Meta = ref.Meta
	default:
		return nil, newError(src, t.Pos, "effect must start with a quality reference or macro")
	}

	opTok := p.next()
	op := ir.Op(opTok.Value)
	if opTok.Kind != TokOperator || !ir.ValidOps[op] {
		return nil, newError(src, opTok.Pos, "expected one of = += -= ++ --")
	}
	eff.Op = op
	if op == ir.OpIncrement || op == ir.OpDecrement {
		return eff, p.expectEOF()
	}
	if p.peek().Kind == TokEOF {
		return nil, newError(src, opTok.Pos, "operator %s requires a value", op)
	}
	if eff.Value, err = p.parseOr(); err != nil {
		return nil, err
	}
	return eff, p.expectEOF()
}
