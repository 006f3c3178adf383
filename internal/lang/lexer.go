package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Lex tokenizes a complete fragment.
func Lex(src string, mode Mode) ([]Token, error) {
	return lexRange(src, 0, len(src), mode)
}

// lexer scans src[start:end]. Token and error positions are offsets into src
// so nested fragments keep positions relative to the outermost text.
type lexer struct {
	src    string
	pos    int
	end    int
	mode   Mode
	tokens []Token
}

func lexRange(src string, start, end int, mode Mode) ([]Token, error) {
	lx := &lexer{src: src, pos: start, end: end, mode: mode}
	var err error
	if mode == ModeTemplate {
		err = lx.lexTemplate()
	} else {
		err = lx.lexExpression()
	}
	if err != nil {
		return nil, err
	}
	lx.emit(Token{Kind: TokEOF, Pos: lx.end, End: lx.end})
	return lx.tokens, nil
}

func (lx *lexer) emit(t Token) {
	lx.tokens = append(lx.tokens, t)
}

func (lx *lexer) peek(offset int) byte {
	if lx.pos+offset >= lx.end {
		return 0
	}
	return lx.src[lx.pos+offset]
}

// lexTemplate emits prose as TokText and hands blocks to lexBlock.
// A backslash before a brace escapes it; a stray '}' is literal prose.
func (lx *lexer) lexTemplate() error {
	var text strings.Builder
	textStart := lx.pos
	flush := func() {
		if text.Len() > 0 {
			lx.emit(Token{Kind: TokText, Value: text.String(), Pos: textStart, End: lx.pos})
			text.Reset()
		}
	}

	for lx.pos < lx.end {
		c := lx.src[lx.pos]
		switch {
		case c == '\\' && (lx.peek(1) == '{' || lx.peek(1) == '}'):
			if text.Len() == 0 {
				textStart = lx.pos
			}
			text.WriteByte(lx.peek(1))
			lx.pos += 2
		case c == '$' && lx.peek(1) == '{':
			flush()
			lx.emit(Token{Kind: TokDynamic, Value: "$", Pos: lx.pos, End: lx.pos + 1})
			lx.pos++
			if err := lx.lexBlock(); err != nil {
				return err
			}
			textStart = lx.pos
		case c == '{':
			flush()
			if err := lx.lexBlock(); err != nil {
				return err
			}
			textStart = lx.pos
		default:
			if text.Len() == 0 {
				textStart = lx.pos
			}
			text.WriteByte(c)
			lx.pos++
		}
	}
	flush()
	return nil
}

func (lx *lexer) lexExpression() error {
	for {
		lx.skipSpace()
		if lx.pos >= lx.end {
			return nil
		}
		if err := lx.lexOne(); err != nil {
			return err
		}
	}
}

func (lx *lexer) skipSpace() {
	for lx.pos < lx.end {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:lx.end])
		if !unicode.IsSpace(r) {
			return
		}
		lx.pos += size
	}
}

// lexOne scans a single token. Cases are ordered by match priority.
func (lx *lexer) lexOne() error {
	start := lx.pos
	c := lx.src[lx.pos]

	switch c {
	case '$':
		switch next := lx.peek(1); {
		case next == '{':
			lx.emit(Token{Kind: TokDynamic, Value: "$", Pos: start, End: start + 1})
			lx.pos++
			if err := lx.lexBlock(); err != nil {
				return err
			}
			lx.lexProperties()
			return nil
		case next == '.':
			lx.emit(Token{Kind: TokSelf, Value: "$.", Pos: start, End: start + 2})
			lx.pos += 2
			if lx.pos < lx.end && isIdentStart(lx.runeAt(lx.pos)) {
				name := lx.scanIdent()
				lx.emit(Token{Kind: TokProperty, Value: name, Pos: start + 2, End: lx.pos})
			}
			lx.lexProperties()
			return nil
		default:
			return lx.lexReference(TokQuality, "quality")
		}
	case '@':
		return lx.lexReference(TokAlias, "alias")
	case '#':
		return lx.lexReference(TokWorld, "world")
	case '{':
		return lx.lexBlock()
	case '}':
		return newError(lx.src, start, "unmatched '}'")
	case '%':
		return lx.lexMacro()
	case '[':
		return lx.lexMeta()
	case ']':
		return newError(lx.src, start, "unmatched ']'")
	case '"':
		return lx.lexString()
	case ':':
		lx.emitSimple(TokColon, 1)
		return nil
	case '|':
		if lx.peek(1) != '|' {
			lx.emitSimple(TokPipe, 1)
			return nil
		}
	case '~':
		lx.emitSimple(TokRange, 1)
		return nil
	case '(':
		lx.emitSimple(TokLParen, 1)
		return nil
	case ')':
		lx.emitSimple(TokRParen, 1)
		return nil
	case ',':
		lx.emitSimple(TokComma, 1)
		return nil
	}

	for _, op := range twoCharOps {
		if strings.HasPrefix(lx.src[lx.pos:lx.end], op) {
			lx.emitSimple(TokOperator, 2)
			return nil
		}
	}
	if strings.IndexByte(singleCharOps, c) >= 0 {
		lx.emitSimple(TokOperator, 1)
		return nil
	}
	if c == '&' {
		return newError(lx.src, start, "expected '&&'")
	}

	if c >= '0' && c <= '9' {
		lx.lexNumber()
		return nil
	}

	r := lx.runeAt(lx.pos)
	if isIdentStart(r) {
		word := lx.scanIdent()
		kind := TokWord
		if word == "true" || word == "false" {
			kind = TokBool
		}
		lx.emit(Token{Kind: kind, Value: word, Pos: start, End: lx.pos})
		return nil
	}

	return newError(lx.src, start, "unexpected character %q", r)
}

func (lx *lexer) emitSimple(kind TokenKind, width int) {
	lx.emit(Token{Kind: kind, Value: lx.src[lx.pos : lx.pos+width], Pos: lx.pos, End: lx.pos + width})
	lx.pos += width
}

// lexReference scans a sigil, a name, and any chained .attr properties.
func (lx *lexer) lexReference(kind TokenKind, what string) error {
	start := lx.pos
	lx.pos++ // sigil
	if lx.pos >= lx.end || !isIdentStart(lx.runeAt(lx.pos)) {
		return newError(lx.src, start, "expected %s name after %q", what, lx.src[start])
	}
	name := lx.scanIdent()
	lx.emit(Token{Kind: kind, Value: name, Pos: start, End: lx.pos})
	lx.lexProperties()
	return nil
}

// lexProperties emits a TokProperty for each ".attr" immediately following.
func (lx *lexer) lexProperties() {
	for lx.pos+1 < lx.end && lx.src[lx.pos] == '.' && isIdentStart(lx.runeAt(lx.pos+1)) {
		start := lx.pos
		lx.pos++
		name := lx.scanIdent()
		lx.emit(Token{Kind: TokProperty, Value: name, Pos: start, End: lx.pos})
	}
}

// lexBlock scans a brace-delimited block starting at '{'. Braces are
// depth-counted so blocks nest to arbitrary depth.
func (lx *lexer) lexBlock() error {
	start := lx.pos
	closeIdx, err := matchDelimiter(lx.src, start, lx.end, '{', '}')
	if err != nil {
		return err
	}
	lx.emit(Token{Kind: TokBlock, Value: lx.src[start+1 : closeIdx], Pos: start, End: closeIdx})
	lx.pos = closeIdx + 1
	return nil
}

// lexMacro scans %name[stmt; stmt].
func (lx *lexer) lexMacro() error {
	start := lx.pos
	lx.pos++
	if lx.pos >= lx.end || !isIdentStart(lx.runeAt(lx.pos)) {
		return newError(lx.src, start, "expected macro name after '%%'")
	}
	name := lx.scanIdent()
	if lx.pos >= lx.end || lx.src[lx.pos] != '[' {
		return newError(lx.src, start, "macro %q requires a [...] body", name)
	}
	closeIdx, err := matchDelimiter(lx.src, lx.pos, lx.end, '[', ']')
	if err != nil {
		return err
	}
	body := lx.src[lx.pos+1 : closeIdx]
	var args []string
	for _, r := range splitTopLevel(body, ';') {
		if arg := strings.TrimSpace(body[r.start:r.end]); arg != "" {
			args = append(args, arg)
		}
	}
	lx.emit(Token{Kind: TokMacro, Value: name, Args: args, Pos: start, End: closeIdx + 1})
	lx.pos = closeIdx + 1
	return nil
}

// lexMeta scans a [key: value] metadata block; key must be in MetaKeys.
func (lx *lexer) lexMeta() error {
	start := lx.pos
	closeIdx, err := matchDelimiter(lx.src, start, lx.end, '[', ']')
	if err != nil {
		return err
	}
	inner := lx.src[start+1 : closeIdx]
	colon := strings.IndexByte(inner, ':')
	if colon < 0 {
		return newError(lx.src, start, "metadata block requires key: value")
	}
	key := strings.TrimSpace(inner[:colon])
	if !MetaKeys[key] {
		return newError(lx.src, start, "unknown metadata key %q", key)
	}
	lx.emit(Token{
		Kind:  TokMeta,
		Key:   key,
		Value: strings.TrimSpace(inner[colon+1:]),
		Pos:   start,
		End:   closeIdx + 1,
	})
	lx.pos = closeIdx + 1
	return nil
}

// lexString scans a double-quoted string with backslash escapes.
func (lx *lexer) lexString() error {
	start := lx.pos
	var sb strings.Builder
	lx.pos++
	for lx.pos < lx.end {
		c := lx.src[lx.pos]
		switch c {
		case '\\':
			if lx.pos+1 < lx.end {
				sb.WriteByte(lx.src[lx.pos+1])
				lx.pos += 2
				continue
			}
		case '"':
			lx.pos++
			lx.emit(Token{Kind: TokString, Value: sb.String(), Pos: start, End: lx.pos})
			return nil
		}
		sb.WriteByte(c)
		lx.pos++
	}
	return newError(lx.src, start, "unterminated string")
}

func (lx *lexer) lexNumber() {
	start := lx.pos
	for lx.pos < lx.end && isDigit(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos+1 < lx.end && lx.src[lx.pos] == '.' && isDigit(lx.src[lx.pos+1]) {
		lx.pos++
		for lx.pos < lx.end && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
	}
	lx.emit(Token{Kind: TokNumber, Value: lx.src[start:lx.pos], Pos: start, End: lx.pos})
}

// scanIdent consumes an identifier and returns it NFC-normalized.
func (lx *lexer) scanIdent() string {
	start := lx.pos
	for lx.pos < lx.end {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:lx.end])
		if !isIdentPart(r) {
			break
		}
		lx.pos += size
	}
	return norm.NFC.String(lx.src[start:lx.pos])
}

func (lx *lexer) runeAt(i int) rune {
	r, _ := utf8.DecodeRuneInString(lx.src[i:lx.end])
	return r
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
