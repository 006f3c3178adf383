package engine

import (
	"fmt"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/lang"
)

// ApplyEffect runs a comma-separated effect list in source order.
//
// There is no rollback and no affordability check: each statement sees the
// mutations of the ones before it. Statements that fail to parse, target
// nothing, or mismatch the quality's kind are logged and skipped; they are
// returned as errors alongside the changes that did apply.
func (e *Engine) ApplyEffect(src string) ([]ir.Change, []error) {
	start := len(e.changes)
	errs := e.applyList(src)
	return e.changesSince(start), errs
}

// ApplyEffects runs several effect lists in order.
func (e *Engine) ApplyEffects(list []string) ([]ir.Change, []error) {
	start := len(e.changes)
	var errs []error
	for _, src := range list {
		errs = append(errs, e.applyList(src)...)
	}
	return e.changesSince(start), errs
}

// ChangeQuality applies one operator directly.
func (e *Engine) ChangeQuality(id string, op ir.Op, v Value, meta map[string]string) (ir.Change, error) {
	return e.change(id, op, e.settle(v), meta)
}

// CreateNewQuality instantiates id with value v. limit caps a quality that
// has no definition cap. An existing id is assigned instead of recreated.
func (e *Engine) CreateNewQuality(id string, v Value, limit *int, meta map[string]string) (ir.Change, error) {
	ch, err := e.store.Create(id, toOperand(e.settle(v)), limit, meta)
	if err != nil {
		return ir.Change{}, err
	}
	return e.record(ch), nil
}

func (e *Engine) changesSince(start int) []ir.Change {
	if start >= len(e.changes) {
		return nil
	}
	return append([]ir.Change(nil), e.changes[start:]...)
}

func (e *Engine) applyList(src string) []error {
	effects, perrs := e.parseEffects(src)

	var errs []error
	for _, pe := range perrs {
		e.log.Warn("effect failed to parse", "fragment", pe.Fragment, "pos", pe.Pos, "error", pe.Message)
		errs = append(errs, pe)
	}

	for _, eff := range effects {
		if err := e.applyOne(eff); err != nil {
			e.log.Warn("effect skipped", "fragment", eff.Source, "pos", eff.Pos, "error", err)
			errs = append(errs, &StatementError{Statement: eff.Source, Pos: eff.Pos, Err: err})
		}
	}
	return errs
}

func (e *Engine) applyOne(eff *lang.Effect) error {
	if eff.Macro != nil {
		if _, ok := e.macros[eff.Macro.Name]; !ok {
			return fmt.Errorf("%w %q", ErrUnknownMacro, eff.Macro.Name)
		}
		_, err := e.invokeMacro(eff.Macro.Name, eff.Macro.Args)
		return err
	}

	id := e.targetID(eff.Target)
	if id == "" {
		return ErrUnresolvedTarget
	}

	var v Value = Null{}
	if eff.Value != nil {
		v = e.settle(e.eval(eff.Value))
	}
	_, err := e.change(id, eff.Op, v, eff.Meta)
	return err
}

func (e *Engine) targetID(r *lang.Ref) string {
	switch r.Kind {
	case lang.RefQuality:
		return r.Name
	case lang.RefSelf:
		return e.self
	case lang.RefDynamic:
		return e.dynamicID(r.Dyn)
	default:
		return ""
	}
}

func (e *Engine) change(id string, op ir.Op, v Value, meta map[string]string) (ir.Change, error) {
	ch, err := e.store.Change(id, op, toOperand(v), meta)
	if err != nil {
		return ir.Change{}, err
	}
	return e.record(ch), nil
}

// record stamps ch with the next clock value and appends it to the log.
func (e *Engine) record(ch ir.Change) ir.Change {
	ch.Seq = e.clock.Next()
	e.changes = append(e.changes, ch)
	e.log.Debug("quality changed",
		"quality", ch.QualityID,
		"op", string(ch.Op),
		"seq", ch.Seq,
		"new", ir.FormatState(ch.New),
		"created", ch.Created,
	)
	return ch
}
