package engine

import (
	"fmt"
	"strings"
)

// maxMacroDepth bounds macros expanding into further macros.
const maxMacroDepth = 8

// MacroFunc handles %name[arg; arg]. Args are the raw ';'-separated
// sub-statements; the handler decides how to evaluate them against e.
//
// A macro with no registered handler passes through: templates print its
// source, expressions read it as Null and effect lists skip it.
type MacroFunc func(e *Engine, args []string) (Value, error)

// Builtins returns the standard macro set:
//
//	%all[cond; cond]      true when every condition holds
//	%any[cond; cond]      true when some condition holds
//	%chance[pct]          true with probability pct/100, rolled on 1~100
//	%apply[fx; fx]        applies each effect list, yields the change count
func Builtins() map[string]MacroFunc {
	return map[string]MacroFunc{
		"all":    allMacro,
		"any":    anyMacro,
		"chance": chanceMacro,
		"apply":  applyMacro,
	}
}

func (e *Engine) callMacro(name string, args []string) Value {
	if _, ok := e.macros[name]; !ok {
		return Null{}
	}
	v, err := e.invokeMacro(name, args)
	if err != nil {
		e.log.Warn("macro failed", "macro", name, "error", err)
		return Null{}
	}
	return v
}

func (e *Engine) invokeMacro(name string, args []string) (Value, error) {
	if e.macroDepth >= maxMacroDepth {
		return nil, fmt.Errorf("%w: %%%s", ErrMacroDepth, name)
	}
	e.macroDepth++
	defer func() { e.macroDepth-- }()

	v, err := e.macros[name](e, args)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = Null{}
	}
	return v, nil
}

func allMacro(e *Engine, args []string) (Value, error) {
	return Bool(e.EvaluateConditions(args)), nil
}

func anyMacro(e *Engine, args []string) (Value, error) {
	for _, a := range args {
		if e.EvaluateCondition(a) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func chanceMacro(e *Engine, args []string) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("chance takes one argument, got %d", len(args))
	}
	pct, ok := AsNumber(textValue(e.EvaluateBlock(args[0])))
	if !ok {
		return nil, fmt.Errorf("chance: %q is not a number", strings.TrimSpace(args[0]))
	}
	return Bool(float64(e.Roll(1, 100)) <= pct), nil
}

func applyMacro(e *Engine, args []string) (Value, error) {
	changes, errs := e.ApplyEffects(args)
	if len(errs) > 0 && len(changes) == 0 {
		return nil, errs[0]
	}
	return Number(len(changes)), nil
}
