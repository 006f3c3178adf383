package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/lang"
	"github.com/roach88/storylet/internal/quality"
)

// maxRenderDepth bounds name/description templates rendering each other.
const maxRenderDepth = 8

// EvaluateCondition reports whether src holds. Blank conditions are true;
// conditions that fail to parse are false.
func (e *Engine) EvaluateCondition(src string) bool {
	if strings.TrimSpace(src) == "" {
		return true
	}
	cond, err := e.parseCondition(src)
	if err != nil {
		e.warnParse("condition failed to parse", src, err)
		return false
	}
	for _, term := range cond.Terms {
		if !Truthy(e.settle(e.eval(term))) {
			return false
		}
	}
	return true
}

// EvaluateConditions is the implicit AND of every condition in srcs.
func (e *Engine) EvaluateConditions(srcs []string) bool {
	for _, src := range srcs {
		if !e.EvaluateCondition(src) {
			return false
		}
	}
	return true
}

// EvaluateText renders a template. A template that fails to parse is
// returned unchanged.
func (e *Engine) EvaluateText(src string) string {
	tmpl, err := e.parseTemplate(src)
	if err != nil {
		e.warnParse("template failed to parse", src, err)
		return src
	}
	return e.renderTemplate(tmpl)
}

// EvaluateBlock evaluates one block, with or without its braces, and
// returns its string form. A block that fails to parse yields "".
func (e *Engine) EvaluateBlock(src string) string {
	b, err := e.parseBlock(src)
	if err != nil {
		e.warnParse("block failed to parse", src, err)
		return ""
	}
	return AsString(e.evalBlock(b))
}

func (e *Engine) warnParse(msg, src string, err error) {
	attrs := []any{"fragment", src, "error", err}
	var pe *lang.ParseError
	if errors.As(err, &pe) {
		attrs = append(attrs, "pos", pe.Pos)
	}
	e.log.Warn(msg, attrs...)
}

func (e *Engine) renderTemplate(t *lang.Template) string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for _, seg := range t.Segments {
		switch s := seg.(type) {
		case lang.Literal:
			sb.WriteString(s.Text)
		case *lang.Block:
			sb.WriteString(e.renderBlock(s))
		default:
			panic(fmt.Sprintf("engine: unknown segment type %T", seg))
		}
	}
	return sb.String()
}

// renderBlock prints a block inside a template. An unregistered macro
// prints its own source.
func (e *Engine) renderBlock(b *lang.Block) string {
	if b.Conditional {
		return e.renderBranch(b)
	}
	if b.Expr == nil {
		return ""
	}
	if m, ok := b.Expr.(*lang.Macro); ok {
		if _, registered := e.macros[m.Name]; !registered {
			return m.Source
		}
	}
	return AsString(e.settle(e.eval(b.Expr)))
}

func (e *Engine) renderBranch(b *lang.Block) string {
	if Truthy(e.settle(e.eval(b.Expr))) {
		return e.renderTemplate(b.Then)
	}
	return e.renderTemplate(b.Else)
}

// evalBlock evaluates a block as a value. Conditional blocks yield their
// rendered branch, read as a number when it looks like one.
func (e *Engine) evalBlock(b *lang.Block) Value {
	if b.Conditional {
		return textValue(e.renderBranch(b))
	}
	if b.Expr == nil {
		return Null{}
	}
	return e.settle(e.eval(b.Expr))
}

// settle rolls an unrolled range.
func (e *Engine) settle(v Value) Value {
	if r, ok := v.(Range); ok {
		return Number(e.Roll(r.Lo, r.Hi))
	}
	return v
}

func (e *Engine) eval(x lang.Expr) Value {
	switch n := x.(type) {
	case lang.Number:
		return Number(n.Value)
	case lang.Bool:
		return Bool(n.Value)
	case lang.String:
		return String(n.Value)
	case *lang.Ref:
		return e.resolveRef(n)
	case *lang.Unary:
		return e.evalUnary(n)
	case *lang.Binary:
		return e.evalBinary(n)
	case *lang.Range:
		lo, _ := AsNumber(e.settle(e.eval(n.Lo)))
		hi, _ := AsNumber(e.settle(e.eval(n.Hi)))
		r := Range{Lo: int(math.Trunc(lo)), Hi: int(math.Trunc(hi))}
		if r.Hi < r.Lo {
			r.Lo, r.Hi = r.Hi, r.Lo
		}
		return r
	case *lang.BlockExpr:
		return e.evalBlock(n.Block)
	case *lang.Macro:
		return e.callMacro(n.Name, n.Args)
	default:
		panic(fmt.Sprintf("engine: unknown expression type %T", x))
	}
}

func (e *Engine) evalUnary(n *lang.Unary) Value {
	v := e.settle(e.eval(n.X))
	switch n.Op {
	case "!":
		return Bool(!Truthy(v))
	case "-":
		f, _ := AsNumber(v)
		return Number(-f)
	default:
		panic(fmt.Sprintf("engine: unknown unary operator %q", n.Op))
	}
}

func (e *Engine) evalBinary(n *lang.Binary) Value {
	switch n.Op {
	case "&&":
		if !Truthy(e.settle(e.eval(n.L))) {
			return Bool(false)
		}
		return Bool(Truthy(e.settle(e.eval(n.R))))
	case "||":
		if Truthy(e.settle(e.eval(n.L))) {
			return Bool(true)
		}
		return Bool(Truthy(e.settle(e.eval(n.R))))
	}

	l, r := e.eval(n.L), e.eval(n.R)

	switch n.Op {
	case "==", "!=":
		eq := e.equal(l, r)
		if n.Op == "!=" {
			eq = !eq
		}
		return Bool(eq)
	}

	l, r = e.settle(l), e.settle(r)
	switch n.Op {
	case "<":
		return Bool(compare(l, r) < 0)
	case "<=":
		return Bool(compare(l, r) <= 0)
	case ">":
		return Bool(compare(l, r) > 0)
	case ">=":
		return Bool(compare(l, r) >= 0)
	}

	a, _ := AsNumber(l)
	b, _ := AsNumber(r)
	switch n.Op {
	case "+":
		return Number(a + b)
	case "-":
		return Number(a - b)
	case "*":
		return Number(a * b)
	case "/":
		if b == 0 {
			e.log.Warn("division by zero", "pos", n.Pos)
			return Null{}
		}
		return Number(a / b)
	default:
		panic(fmt.Sprintf("engine: unknown binary operator %q", n.Op))
	}
}

// equal compares by range membership when one side is a range.
func (e *Engine) equal(l, r Value) bool {
	if rng, ok := r.(Range); ok {
		return inRange(e.settle(l), rng)
	}
	if rng, ok := l.(Range); ok {
		return inRange(r, rng)
	}
	return compare(l, r) == 0
}

func inRange(v Value, r Range) bool {
	n, ok := AsNumber(v)
	return ok && n >= float64(r.Lo) && n <= float64(r.Hi)
}

func (e *Engine) resolveRef(r *lang.Ref) Value {
	switch r.Kind {
	case lang.RefQuality:
		return e.qualityValue(r.Name, r.Props)
	case lang.RefSelf:
		if e.self == "" {
			return Null{}
		}
		return e.qualityValue(e.self, r.Props)
	case lang.RefAlias:
		id := e.resolveAlias(r.Name)
		if id == "" {
			return Null{}
		}
		return e.qualityValue(id, r.Props)
	case lang.RefWorld:
		v, ok := e.world[r.Name]
		if !ok || len(r.Props) > 0 {
			return Null{}
		}
		return textValue(v)
	case lang.RefDynamic:
		id := e.dynamicID(r.Dyn)
		if id == "" {
			return Null{}
		}
		return e.qualityValue(id, r.Props)
	default:
		panic(fmt.Sprintf("engine: unknown reference kind %v", r.Kind))
	}
}

// resolveAlias maps @name through the alias table, then through the
// equipment slot of that name.
func (e *Engine) resolveAlias(name string) string {
	if id, ok := e.aliases[name]; ok {
		return id
	}
	return e.equip[name]
}

// dynamicID evaluates a ${...} block to a quality id.
func (e *Engine) dynamicID(b *lang.Block) string {
	if b == nil {
		return ""
	}
	id := strings.TrimSpace(AsString(e.evalBlock(b)))
	id = strings.TrimPrefix(id, "$")
	return norm.NFC.String(id)
}

// qualityValue resolves $id with an optional property. A bare reference is
// the effective level of a Pyramidal quality or the value of a String one.
func (e *Engine) qualityValue(id string, props []string) Value {
	st, owned := e.store.Get(id)
	def, defined := e.defs[id]

	if len(props) == 0 {
		if !owned {
			return Null{}
		}
		return e.stateValue(id, st)
	}
	if len(props) > 1 || (!owned && !defined) {
		return Null{}
	}

	switch prop := props[0]; prop {
	case "level":
		return Number(e.store.EffectiveLevel(id))
	case "cp":
		return Number(e.store.ChangePoints(id))
	case "cap":
		if c := e.store.Cap(id); c != nil {
			return Number(*c)
		}
		return Null{}
	case "value":
		if !owned {
			return Null{}
		}
		return e.stateValue(id, st)
	case "name":
		if def.Name == "" {
			return String(id)
		}
		return String(e.renderFor(id, def.Name))
	case "description":
		if def.Description == "" {
			return Null{}
		}
		return String(e.renderFor(id, def.Description))
	case "next":
		if _, isText := st.(ir.Text); isText || def.Kind == ir.KindString {
			return Null{}
		}
		return Number(quality.NextLevelCost(e.store.ChangePoints(id)))
	case "slot":
		if slot := e.equip.SlotOf(id); slot != "" {
			return String(slot)
		}
		return Null{}
	case "equipped":
		return Bool(e.equip.SlotOf(id) != "")
	default:
		if v, ok := def.Properties[prop]; ok {
			return textValue(v)
		}
		return Null{}
	}
}

func (e *Engine) stateValue(id string, st ir.QualityState) Value {
	switch s := st.(type) {
	case ir.Pyramidal:
		return Number(e.store.EffectiveLevel(id))
	case ir.Text:
		return String(s.Value)
	default:
		panic(fmt.Sprintf("engine: unknown state type %T", st))
	}
}

// renderFor renders src with $. bound to id.
func (e *Engine) renderFor(id, src string) string {
	if e.renderDepth >= maxRenderDepth {
		return src
	}
	prev := e.self
	e.self = id
	e.renderDepth++
	defer func() {
		e.self = prev
		e.renderDepth--
	}()
	return e.EvaluateText(src)
}
