package lang

import "fmt"

// Mode selects how text outside blocks is treated.
type Mode int

const (
	// ModeExpression lexes every character as a token (conditions, effects, block content).
	ModeExpression Mode = iota
	// ModeTemplate passes prose outside blocks through as TokText.
	ModeTemplate
)

// TokenKind classifies a token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokText
	TokQuality
	TokSelf
	TokAlias
	TokWorld
	TokProperty
	TokDynamic
	TokBlock
	TokMacro
	TokMeta
	TokOperator
	TokColon
	TokPipe
	TokRange
	TokLParen
	TokRParen
	TokComma
	TokNumber
	TokBool
	TokString
	TokWord
)

var tokenNames = map[TokenKind]string{
	TokEOF:      "EOF",
	TokText:     "text",
	TokQuality:  "quality",
	TokSelf:     "self",
	TokAlias:    "alias",
	TokWorld:    "world",
	TokProperty: "property",
	TokDynamic:  "dynamic",
	TokBlock:    "block",
	TokMacro:    "macro",
	TokMeta:     "meta",
	TokOperator: "operator",
	TokColon:    "':'",
	TokPipe:     "'|'",
	TokRange:    "'~'",
	TokLParen:   "'('",
	TokRParen:   "')'",
	TokComma:    "','",
	TokNumber:   "number",
	TokBool:     "bool",
	TokString:   "string",
	TokWord:     "word",
}

// String returns a readable token kind name.
func (k TokenKind) String() string {
	if n, ok := tokenNames[k]; ok {
		return n
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexed unit.
//
// Pos and End are byte offsets into the source handed to Lex. For TokBlock,
// Value is the inner text and [Pos+1, End) is its range; for TokMeta, Key is
// the metadata key; for TokMacro, Args holds the ';'-separated sub-statements.
type Token struct {
	Kind  TokenKind
	Value string
	Key   string
	Args  []string
	Pos   int
	End   int
}

// MetaKeys is the closed set of metadata block keys.
var MetaKeys = map[string]bool{
	"desc":   true,
	"source": true,
	"hidden": true,
}

// twoCharOps take priority over their single-character prefixes.
var twoCharOps = []string{"==", "!=", ">=", "<=", "+=", "-=", "++", "--", "&&", "||"}

const singleCharOps = "=<>+-*/!"
