package lang

import "github.com/roach88/storylet/internal/ir"

// Expr is a sealed interface for expression nodes.
//
// Implementations: Number, Bool, String, *Ref, *Unary, *Binary, *Range,
// *BlockExpr, *Macro.
type Expr interface {
	exprNode()
	// Offset is the byte position of the node in the parsed source.
	Offset() int
}

// Number is a numeric literal.
type Number struct {
	Value float64
	Pos   int
}

// Bool is a true/false literal.
type Bool struct {
	Value bool
	Pos   int
}

// String is a quoted string or a run of bare words.
type String struct {
	Value string
	Pos   int
}

// RefKind identifies which namespace a reference resolves against.
type RefKind int

const (
	RefQuality RefKind = iota // $id
	RefSelf                   // $.
	RefAlias                  // @id
	RefWorld                  // #id
	RefDynamic                // ${...}
)

func (k RefKind) String() string {
	switch k {
	case RefQuality:
		return "quality"
	case RefSelf:
		return "self"
	case RefAlias:
		return "alias"
	case RefWorld:
		return "world"
	case RefDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Ref is a reference with an optional property chain and metadata.
// Dyn holds the computed target for RefDynamic.
type Ref struct {
	Kind  RefKind
	Name  string
	Dyn   *Block
	Props []string
	Meta  map[string]string
	Pos   int
}

// Unary is "!" or unary "-".
type Unary struct {
	Op  string
	X   Expr
	Pos int
}

// Binary is a binary operator application.
type Binary struct {
	Op  string
	L   Expr
	R   Expr
	Pos int
}

// Range is an inclusive lo~hi range.
type Range struct {
	Lo  Expr
	Hi  Expr
	Pos int
}

// BlockExpr embeds a bracketed block in an expression.
type BlockExpr struct {
	Block *Block
}

// Macro is a %name[...] invocation. Source is its raw text.
type Macro struct {
	Name   string
	Args   []string
	Source string
	Pos    int
}

func (Number) exprNode()     {}
func (Bool) exprNode()       {}
func (String) exprNode()     {}
func (*Ref) exprNode()       {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Range) exprNode()     {}
func (*BlockExpr) exprNode() {}
func (*Macro) exprNode()     {}

func (n Number) Offset() int     { return n.Pos }
func (n Bool) Offset() int       { return n.Pos }
func (n String) Offset() int     { return n.Pos }
func (n *Ref) Offset() int       { return n.Pos }
func (n *Unary) Offset() int     { return n.Pos }
func (n *Binary) Offset() int    { return n.Pos }
func (n *Range) Offset() int     { return n.Pos }
func (n *BlockExpr) Offset() int { return n.Block.Pos }
func (n *Macro) Offset() int     { return n.Pos }

// Segment is a sealed interface for template parts: Literal or *Block.
type Segment interface {
	segmentNode()
}

// Literal is prose copied verbatim.
type Literal struct {
	Text string
}

// Block is a bracketed block.
//
// A conditional block ({cond : then | else}) has Conditional set, Expr holding
// the condition and Then/Else the branch templates (Else may be nil). An
// interpolation block has only Expr, which is nil when the block is empty.
type Block struct {
	Expr        Expr
	Conditional bool
	Then        *Template
	Else        *Template
	Source      string
	Pos         int
}

func (Literal) segmentNode() {}
func (*Block) segmentNode()  {}

// Template is an ordered sequence of segments.
type Template struct {
	Segments []Segment
	Source   string
}

// Condition is a comma-separated list of expressions joined by implicit AND.
// An empty Terms list is always true.
type Condition struct {
	Terms  []Expr
	Source string
}

// Effect is one statement of an effect list.
//
// Either Target is set (an assignment) or Macro is (a bare macro statement).
// Value is nil for "++" and "--".
type Effect struct {
	Target *Ref
	Meta   map[string]string
	Op     ir.Op
	Value  Expr
	Macro  *Macro
	Source string
	Pos    int
}
