package lang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
)

func TestParseCondition_Comparison(t *testing.T) {
	cond, err := ParseCondition("$hp > 0")
	require.NoError(t, err)
	require.Len(t, cond.Terms, 1)

	bin, ok := cond.Terms[0].(*Binary)
	require.True(t, ok)
	assert.Equal(t, ">", bin.Op)
	assert.Equal(t, &Ref{Kind: RefQuality, Name: "hp", Pos: 0}, bin.L)
	assert.Equal(t, Number{Value: 0, Pos: 6}, bin.R)
}

func TestParseCondition_Empty(t *testing.T) {
	cond, err := ParseCondition("   ")
	require.NoError(t, err)
	assert.Empty(t, cond.Terms)
}

func TestParseCondition_List(t *testing.T) {
	cond, err := ParseCondition("$a, $b > 1, !$c")
	require.NoError(t, err)
	assert.Len(t, cond.Terms, 3)
}

func TestParseCondition_Precedence(t *testing.T) {
	t.Run("and binds tighter than or", func(t *testing.T) {
		cond, err := ParseCondition("$a || $b && $c")
		require.NoError(t, err)
		or := cond.Terms[0].(*Binary)
		assert.Equal(t, "||", or.Op)
		assert.Equal(t, "&&", or.R.(*Binary).Op)
	})

	t.Run("not is looser than comparison", func(t *testing.T) {
		cond, err := ParseCondition("!$a == 1")
		require.NoError(t, err)
		not := cond.Terms[0].(*Unary)
		assert.Equal(t, "!", not.Op)
		assert.Equal(t, "==", not.X.(*Binary).Op)
	})

	t.Run("multiplication before addition", func(t *testing.T) {
		cond, err := ParseCondition("1 + 2 * 3 > 6")
		require.NoError(t, err)
		cmp := cond.Terms[0].(*Binary)
		add := cmp.L.(*Binary)
		assert.Equal(t, "+", add.Op)
		assert.Equal(t, "*", add.R.(*Binary).Op)
	})

	t.Run("parentheses group", func(t *testing.T) {
		cond, err := ParseCondition("($a || $b) && $c")
		require.NoError(t, err)
		and := cond.Terms[0].(*Binary)
		assert.Equal(t, "&&", and.Op)
		assert.Equal(t, "||", and.L.(*Binary).Op)
	})

	t.Run("unary minus", func(t *testing.T) {
		cond, err := ParseCondition("-$a < 0")
		require.NoError(t, err)
		cmp := cond.Terms[0].(*Binary)
		assert.Equal(t, "-", cmp.L.(*Unary).Op)
	})
}

func TestParseCondition_SingleEqualsIsEquality(t *testing.T) {
	cond, err := ParseCondition("$class = 2")
	require.NoError(t, err)
	assert.Equal(t, "==", cond.Terms[0].(*Binary).Op)
}

func TestParseCondition_Range(t *testing.T) {
	cond, err := ParseCondition("$x == 1~3")
	require.NoError(t, err)

	bin := cond.Terms[0].(*Binary)
	rng, ok := bin.R.(*Range)
	require.True(t, ok)
	assert.Equal(t, 1.0, rng.Lo.(Number).Value)
	assert.Equal(t, 3.0, rng.Hi.(Number).Value)
}

func TestParseCondition_BareWords(t *testing.T) {
	cond, err := ParseCondition("$name == Bob the Brave")
	require.NoError(t, err)
	assert.Equal(t, "Bob the Brave", cond.Terms[0].(*Binary).R.(String).Value)
}

func TestParseCondition_ReferenceShapes(t *testing.T) {
	cond, err := ParseCondition("$.level >= 2, @weapon.name == Sword, #weather == rain, ${$slot}.level > 0")
	require.NoError(t, err)
	require.Len(t, cond.Terms, 4)

	self := cond.Terms[0].(*Binary).L.(*Ref)
	assert.Equal(t, RefSelf, self.Kind)
	assert.Equal(t, []string{"level"}, self.Props)

	alias := cond.Terms[1].(*Binary).L.(*Ref)
	assert.Equal(t, RefAlias, alias.Kind)
	assert.Equal(t, "weapon", alias.Name)

	world := cond.Terms[2].(*Binary).L.(*Ref)
	assert.Equal(t, RefWorld, world.Kind)

	dyn := cond.Terms[3].(*Binary).L.(*Ref)
	assert.Equal(t, RefDynamic, dyn.Kind)
	require.NotNil(t, dyn.Dyn)
	assert.Equal(t, "slot", dyn.Dyn.Expr.(*Ref).Name)
	assert.Equal(t, []string{"level"}, dyn.Props)
}

func TestParseCondition_MacroAndBlock(t *testing.T) {
	cond, err := ParseCondition("%chance[50] && {$a : 1 | 0} == 1")
	require.NoError(t, err)

	and := cond.Terms[0].(*Binary)
	mac := and.L.(*Macro)
	assert.Equal(t, "chance", mac.Name)
	assert.Equal(t, []string{"50"}, mac.Args)
	assert.Equal(t, "%chance[50]", mac.Source)

	eq := and.R.(*Binary)
	blk := eq.L.(*BlockExpr)
	assert.True(t, blk.Block.Conditional)
}

func TestParseCondition_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		pos  int
		msg  string
	}{
		{"colon outside block", "$a : b", 3, "outside a block"},
		{"pipe outside block", "$a | b", 3, "outside a block"},
		{"dangling operator", "$a >", 4, "unexpected end"},
		{"unclosed paren", "($a", 3, "expected ')'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCondition(tt.src)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.pos, pe.Pos)
			assert.Contains(t, pe.Message, tt.msg)
			assert.Equal(t, tt.src, pe.Fragment)
		})
	}
}

func TestParseTemplate_Interpolation(t *testing.T) {
	tmpl, err := ParseTemplate("Hello {$name}, welcome")
	require.NoError(t, err)
	require.Len(t, tmpl.Segments, 3)

	assert.Equal(t, Literal{Text: "Hello "}, tmpl.Segments[0])
	blk := tmpl.Segments[1].(*Block)
	assert.False(t, blk.Conditional)
	assert.Equal(t, "{$name}", blk.Source)
	assert.Equal(t, 6, blk.Pos)
	assert.Equal(t, Literal{Text: ", welcome"}, tmpl.Segments[2])
}

func TestParseTemplate_Conditional(t *testing.T) {
	tmpl, err := ParseTemplate("{ $hp > 0 : Alive | Dead }")
	require.NoError(t, err)
	require.Len(t, tmpl.Segments, 1)

	blk := tmpl.Segments[0].(*Block)
	assert.True(t, blk.Conditional)
	assert.Equal(t, ">", blk.Expr.(*Binary).Op)
	assert.Equal(t, []Segment{Literal{Text: "Alive"}}, blk.Then.Segments)
	assert.Equal(t, []Segment{Literal{Text: "Dead"}}, blk.Else.Segments)
}

func TestParseTemplate_ConditionalWithoutElse(t *testing.T) {
	tmpl, err := ParseTemplate("{ $key : The door opens. }")
	require.NoError(t, err)

	blk := tmpl.Segments[0].(*Block)
	assert.Nil(t, blk.Else)
	assert.Equal(t, []Segment{Literal{Text: "The door opens."}}, blk.Then.Segments)
}

func TestParseTemplate_DoublePipeStaysInBranch(t *testing.T) {
	tmpl, err := ParseTemplate("{ $a : x || y | z }")
	require.NoError(t, err)

	blk := tmpl.Segments[0].(*Block)
	assert.Equal(t, []Segment{Literal{Text: "x || y"}}, blk.Then.Segments)
	assert.Equal(t, []Segment{Literal{Text: "z"}}, blk.Else.Segments)
}

func TestParseTemplate_QuotedPipeStaysInBranch(t *testing.T) {
	tmpl, err := ParseTemplate(`{ $b > 0 : say "a|b" | no }`)
	require.NoError(t, err)

	blk := tmpl.Segments[0].(*Block)
	assert.Equal(t, []Segment{Literal{Text: `say "a|b"`}}, blk.Then.Segments)
	assert.Equal(t, []Segment{Literal{Text: "no"}}, blk.Else.Segments)
}

func TestParseTemplate_LoneQuoteInBranch(t *testing.T) {
	tmpl, err := ParseTemplate(`{ $hp > 0 : a 6" blade | none } and a "quoted" word`)
	require.NoError(t, err)
	require.Len(t, tmpl.Segments, 2)

	blk := tmpl.Segments[0].(*Block)
	assert.Equal(t, []Segment{Literal{Text: `a 6" blade`}}, blk.Then.Segments)
	assert.Equal(t, []Segment{Literal{Text: "none"}}, blk.Else.Segments)
	assert.Equal(t, Literal{Text: ` and a "quoted" word`}, tmpl.Segments[1])
}

func TestParseTemplate_QuotedColonInBranch(t *testing.T) {
	tmpl, err := ParseTemplate(`{ $a : note "x:y" | z }`)
	require.NoError(t, err)

	blk := tmpl.Segments[0].(*Block)
	assert.Equal(t, []Segment{Literal{Text: `note "x:y"`}}, blk.Then.Segments)
}

func TestParseBlock_StringWithEscapedBrace(t *testing.T) {
	b, err := ParseBlock(`{ $name == "\}" : yes }`)
	require.NoError(t, err)

	cmp := b.Expr.(*Binary)
	assert.Equal(t, "==", cmp.Op)
	require.IsType(t, String{}, cmp.R)
	assert.Equal(t, "}", cmp.R.(String).Value)
}

func TestParseTemplate_ConditionList(t *testing.T) {
	tmpl, err := ParseTemplate("{ $a, $b : both | not both }")
	require.NoError(t, err)

	blk := tmpl.Segments[0].(*Block)
	assert.Equal(t, "&&", blk.Expr.(*Binary).Op)
}

func TestParseTemplate_ThreeDeepNesting(t *testing.T) {
	src := "{ $a : {$b : {$c : deep | c-no} | b-no} | a-no }"
	tmpl, err := ParseTemplate(src)
	require.NoError(t, err)

	outer := tmpl.Segments[0].(*Block)
	assert.Equal(t, []Segment{Literal{Text: "a-no"}}, outer.Else.Segments)

	middle := outer.Then.Segments[0].(*Block)
	assert.Equal(t, "b", middle.Expr.(*Ref).Name)
	assert.Equal(t, []Segment{Literal{Text: "b-no"}}, middle.Else.Segments)

	inner := middle.Then.Segments[0].(*Block)
	assert.Equal(t, "c", inner.Expr.(*Ref).Name)
	assert.Equal(t, []Segment{Literal{Text: "deep"}}, inner.Then.Segments)
	assert.Equal(t, []Segment{Literal{Text: "c-no"}}, inner.Else.Segments)
	assert.Equal(t, strings.Index(src, "{$c"), inner.Pos)
}

func TestParseTemplate_NestedErrorPosition(t *testing.T) {
	src := "Hi { $a : {$b.} | no }"
	_, err := ParseTemplate(src)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 13, pe.Pos)
	assert.Equal(t, src, pe.Fragment)
}

func TestParseTemplate_DepthLimit(t *testing.T) {
	n := MaxDepth + 5
	src := strings.Repeat("{ $a : ", n) + "x" + strings.Repeat(" }", n)

	_, err := ParseTemplate(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested deeper")
}

func TestParseTemplate_EmptyBlock(t *testing.T) {
	tmpl, err := ParseTemplate("a{}b")
	require.NoError(t, err)
	require.Len(t, tmpl.Segments, 3)
	assert.Nil(t, tmpl.Segments[1].(*Block).Expr)
}

func TestParseBlock(t *testing.T) {
	for _, src := range []string{"{ $a + 1 }", "$a + 1", "  { $a + 1 }  "} {
		t.Run(src, func(t *testing.T) {
			blk, err := ParseBlock(src)
			require.NoError(t, err)
			assert.Equal(t, "+", blk.Expr.(*Binary).Op)
		})
	}

	blk, err := ParseBlock("{}")
	require.NoError(t, err)
	assert.Nil(t, blk.Expr)

	_, err = ParseBlock("{ $a : }")
	require.NoError(t, err)

	_, err = ParseBlock("{ : x }")
	require.Error(t, err)
}

func TestParseEffects(t *testing.T) {
	effects, errs := ParseEffects("$gold += 5, $hp--, $name = Bob")
	require.Empty(t, errs)
	require.Len(t, effects, 3)

	assert.Equal(t, "gold", effects[0].Target.Name)
	assert.Equal(t, ir.OpAdd, effects[0].Op)
	assert.Equal(t, 5.0, effects[0].Value.(Number).Value)
	assert.Equal(t, "$gold += 5", effects[0].Source)

	assert.Equal(t, ir.OpDecrement, effects[1].Op)
	assert.Nil(t, effects[1].Value)
	assert.Equal(t, 12, effects[1].Pos)

	assert.Equal(t, ir.OpSet, effects[2].Op)
	assert.Equal(t, "Bob", effects[2].Value.(String).Value)
}

func TestParseEffects_DepthAwareCommas(t *testing.T) {
	effects, errs := ParseEffects("$gold[source: shop, quest] += {$a : 1 | 2}, $xp++")
	require.Empty(t, errs)
	require.Len(t, effects, 2)

	assert.Equal(t, map[string]string{"source": "shop, quest"}, effects[0].Meta)
	assert.IsType(t, &BlockExpr{}, effects[0].Value)
	assert.Equal(t, "xp", effects[1].Target.Name)
}

func TestParseEffects_Targets(t *testing.T) {
	effects, errs := ParseEffects("${ $weapon.name } += 1, $. ++, %grant[$gold += 1; $xp += 2]")
	require.Empty(t, errs)
	require.Len(t, effects, 3)

	dyn := effects[0].Target
	assert.Equal(t, RefDynamic, dyn.Kind)
	assert.Equal(t, []string{"name"}, dyn.Dyn.Expr.(*Ref).Props)

	assert.Equal(t, RefSelf, effects[1].Target.Kind)
	assert.Equal(t, ir.OpIncrement, effects[1].Op)

	require.NotNil(t, effects[2].Macro)
	assert.Nil(t, effects[2].Target)
	assert.Equal(t, []string{"$gold += 1", "$xp += 2"}, effects[2].Macro.Args)
}

func TestParseEffects_KeepsGoodStatements(t *testing.T) {
	src := "$gold +=, $xp++, 5 += 1, $hp ++ 3"
	effects, errs := ParseEffects(src)

	require.Len(t, effects, 1)
	assert.Equal(t, "xp", effects[0].Target.Name)

	require.Len(t, errs, 3)
	assert.Equal(t, 6, errs[0].Pos)
	assert.Contains(t, errs[0].Message, "requires a value")
	assert.Contains(t, errs[1].Message, "must start with")
	assert.Equal(t, src, errs[2].Fragment)
}

func TestParseEffects_RejectsPropertyTarget(t *testing.T) {
	_, errs := ParseEffects("$gold.level = 2")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "cannot have properties")
}

func TestParseEffects_Blank(t *testing.T) {
	effects, errs := ParseEffects("  ,  ")
	assert.Empty(t, effects)
	assert.Empty(t, errs)
}
