package engine

import "github.com/roach88/storylet/internal/lang"

type parseMode int

const (
	modeCondition parseMode = iota
	modeTemplate
	modeBlock
	modeEffects
)

type cacheKey struct {
	mode parseMode
	src  string
}

type cacheEntry struct {
	node any
	err  error
	errs []*lang.ParseError
}

// Parsed trees are cached per (mode, source) for the Engine's lifetime.
// Parsing is pure, so failures are cached too.

func (e *Engine) parseCondition(src string) (*lang.Condition, error) {
	k := cacheKey{modeCondition, src}
	if c, ok := e.cache[k]; ok {
		cond, _ := c.node.(*lang.Condition)
		return cond, c.err
	}
	cond, err := lang.ParseCondition(src)
	e.cache[k] = cacheEntry{node: cond, err: err}
	return cond, err
}

func (e *Engine) parseTemplate(src string) (*lang.Template, error) {
	k := cacheKey{modeTemplate, src}
	if c, ok := e.cache[k]; ok {
		tmpl, _ := c.node.(*lang.Template)
		return tmpl, c.err
	}
	tmpl, err := lang.ParseTemplate(src)
	e.cache[k] = cacheEntry{node: tmpl, err: err}
	return tmpl, err
}

func (e *Engine) parseBlock(src string) (*lang.Block, error) {
	k := cacheKey{modeBlock, src}
	if c, ok := e.cache[k]; ok {
		b, _ := c.node.(*lang.Block)
		return b, c.err
	}
	b, err := lang.ParseBlock(src)
	e.cache[k] = cacheEntry{node: b, err: err}
	return b, err
}

func (e *Engine) parseEffects(src string) ([]*lang.Effect, []*lang.ParseError) {
	k := cacheKey{modeEffects, src}
	if c, ok := e.cache[k]; ok {
		effects, _ := c.node.([]*lang.Effect)
		return effects, c.errs
	}
	effects, errs := lang.ParseEffects(src)
	e.cache[k] = cacheEntry{node: effects, errs: errs}
	return effects, errs
}
