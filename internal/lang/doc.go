// Package lang implements the storylet rule language front-end: a tokenizer
// and parsers for the three grammars that share one token vocabulary.
//
// GRAMMARS:
//
// Condition: comma-separated boolean expressions joined by implicit AND.
//
//	$gold >= 5, $name == Bob, !#festival
//
// Text-template: literal prose interleaved with bracketed blocks.
//
//	You have {$gold} coins. { $hp > 0 : Alive | Dead }
//
// Effect-list: comma-separated mutation statements.
//
//	$gold[source: shop,inn] -= 5, $sword = 1, $visits++
//
// REFERENCE FORMS:
//
//	$id       quality
//	$id.attr  property access (chains)
//	$.        the quality being rendered
//	@id       alias or equipment slot
//	#id       world-state overlay
//	${...}    dynamic reference: the block's value names the quality
//
// Blocks are delimited by depth-counting braces. A block's content is split
// on its first top-level ':' into a condition and branches; the branches are
// split on the first top-level '|' and are themselves Text-templates.
// Separators inside a double-quoted run are ignored, but a quoted run never
// crosses a brace: a quote with no partner before the next brace is prose.
//
// Parsing is pure and never consults state. Every failure is a *ParseError
// carrying the offending fragment and a byte offset into it; callers decide
// how to degrade.
package lang
