package compiler

import "github.com/roach88/storylet/internal/lang"

// refVisitor is called for every reference found in a parsed tree.
type refVisitor func(r *lang.Ref)

func walkTemplate(t *lang.Template, visit refVisitor) {
	if t == nil {
		return
	}
	for _, seg := range t.Segments {
		switch s := seg.(type) {
		case lang.Literal:
		case *lang.Block:
			walkBlock(s, visit)
		default:
			panic("compiler: unknown segment type")
		}
	}
}

func walkBlock(b *lang.Block, visit refVisitor) {
	if b == nil {
		return
	}
	walkExpr(b.Expr, visit)
	walkTemplate(b.Then, visit)
	walkTemplate(b.Else, visit)
}

func walkExpr(x lang.Expr, visit refVisitor) {
	switch n := x.(type) {
	case nil:
	case lang.Number, lang.Bool, lang.String, *lang.Macro:
	case *lang.Ref:
		visit(n)
		walkBlock(n.Dyn, visit)
	case *lang.Unary:
		walkExpr(n.X, visit)
	case *lang.Binary:
		walkExpr(n.L, visit)
		walkExpr(n.R, visit)
	case *lang.Range:
		walkExpr(n.Lo, visit)
		walkExpr(n.Hi, visit)
	case *lang.BlockExpr:
		walkBlock(n.Block, visit)
	default:
		panic("compiler: unknown expression type")
	}
}

func walkCondition(c *lang.Condition, visit refVisitor) {
	if c == nil {
		return
	}
	for _, term := range c.Terms {
		walkExpr(term, visit)
	}
}
