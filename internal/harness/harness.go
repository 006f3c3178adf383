package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/storylet/internal/compiler"
	"github.com/roach88/storylet/internal/engine"
	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/quality"
	"github.com/roach88/storylet/internal/store"
	"github.com/roach88/storylet/internal/testutil"
)

// Harness executes one scenario against a real engine.
type Harness struct {
	store     *store.Store
	engine    *engine.Engine
	character store.Character
	logger    *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Range expressions draw
// from the scenario's rolls and seqs start at 1, so traces are identical
// across runs.
//
// Execution flow:
// 1. Compile the scenario content
// 2. Create the character from the starting qualities and equipment
// 3. Execute steps, checking expect clauses
// 4. Commit the final state with its change log and verify it replays
// 5. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	content, err := loadContent(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	quals, err := convertQualities(scenario.Qualities)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	char, err := st.CreateCharacter(ctx, scenario.Name, quals, ir.Equipment(scenario.Equipment))
	if err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}

	h := &Harness{
		store:     st,
		character: char,
		logger:    testutil.DiscardLogger(),
	}
	h.engine = engine.New(engine.Context{
		Definitions: content.Qualities,
		Qualities:   quals,
		Equipment:   ir.Equipment(scenario.Equipment),
		World:       ir.WorldState(scenario.World),
		Aliases:     scenario.Aliases,
	},
		engine.WithLogger(h.logger),
		engine.WithRoller(testutil.NewSequenceRoller(scenario.Rolls...)),
		engine.WithMacros(engine.Builtins()),
		engine.WithClock(engine.NewClockAt(char.LastSeq)),
	)

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	if err := h.commit(ctx, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Engine: h.engine}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func loadContent(s *Scenario) (*ir.Content, error) {
	switch {
	case s.ContentDir != "":
		return compiler.LoadDir(s.ContentDir)
	case s.Content != "":
		return compiler.CompileSource(s.Name+".cue", s.Content)
	default:
		return ir.NewContent(), nil
	}
}

// executeStep runs one step, records it in the trace and checks its
// expect clause. Changes a step causes are reconciled against equipment
// straight away, the way a caller would after each action.
func (h *Harness) executeStep(i int, step Step, result *Result) {
	kind, _ := step.kind()
	ev := TraceEvent{Step: i + 1, Kind: kind}
	before := len(h.engine.Changes())

	var code string
	switch kind {
	case StepApply:
		ev.Input = step.Apply
		_, errs := h.engine.ApplyEffect(step.Apply)
		if len(errs) > 0 {
			msgs := make([]string, len(errs))
			for j, err := range errs {
				msgs[j] = err.Error()
			}
			ev.Error = strings.Join(msgs, "; ")
		}
	case StepCondition:
		ev.Input = step.Condition
		ev.Output = strconv.FormatBool(h.engine.EvaluateCondition(step.Condition))
	case StepText:
		ev.Input = step.Text
		ev.Output = h.engine.EvaluateText(step.Text)
	case StepBlock:
		ev.Input = step.Block
		ev.Output = h.engine.EvaluateBlock(step.Block)
	case StepEquip:
		ev.Input = step.Equip.Slot + " " + step.Equip.Quality
		code = equipCode(h.engine.Equip(step.Equip.Slot, step.Equip.Quality), &ev)
	case StepUnequip:
		ev.Input = step.Unequip
		code = equipCode(h.engine.Unequip(step.Unequip), &ev)
	default:
		panic(fmt.Sprintf("harness: unknown step kind %q", kind))
	}

	changes := h.engine.Changes()[before:]
	for _, ch := range changes {
		ev.Changes = append(ev.Changes, ch.String())
	}
	if len(changes) > 0 {
		ev.Cleared = h.engine.ReconcileEquipment(changes)
	}
	result.AddTrace(ev)

	if step.Expect != nil {
		for _, msg := range checkExpect(ev, code, len(changes), step.Expect) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", ev.Step, kind, msg))
		}
	}

	h.logger.Info("step completed",
		"step", ev.Step,
		"kind", kind,
		"changes", len(changes),
		"error", ev.Error,
	)
}

func equipCode(err error, ev *TraceEvent) string {
	if err == nil {
		return ""
	}
	ev.Error = err.Error()
	var ee *engine.EquipError
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return ExpectAnyError
}

func checkExpect(ev TraceEvent, code string, changes int, want *Expect) []string {
	var msgs []string
	if want.Output != nil && ev.Output != *want.Output {
		msgs = append(msgs, fmt.Sprintf("output: expected %q, got %q", *want.Output, ev.Output))
	}
	if want.Changes != nil && changes != *want.Changes {
		msgs = append(msgs, fmt.Sprintf("changes: expected %d, got %d", *want.Changes, changes))
	}
	switch {
	case want.Error == "" && ev.Error != "":
		msgs = append(msgs, fmt.Sprintf("unexpected error: %s", ev.Error))
	case want.Error == ExpectAnyError && ev.Error == "":
		msgs = append(msgs, "expected an error, got none")
	case want.Error != "" && want.Error != ExpectAnyError && code != want.Error:
		msgs = append(msgs, fmt.Sprintf("error: expected %s, got %q", want.Error, code))
	}
	return msgs
}

// commit saves the final state with the change log, then checks that the
// log replays to the same snapshot.
func (h *Harness) commit(ctx context.Context, result *Result) error {
	result.Changes = h.engine.Changes()
	result.Qualities = h.engine.Qualities()
	result.Equipment = h.engine.Equipment()

	c := h.character
	c.Qualities = result.Qualities
	c.Equipment = result.Equipment
	if _, err := h.store.Commit(ctx, c, c.Version, result.Changes); err != nil {
		return fmt.Errorf("failed to commit character: %w", err)
	}

	replay, err := h.store.VerifyReplay(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to replay character: %w", err)
	}
	if !replay.Match {
		result.AddError(fmt.Sprintf("replay mismatch: digest %s, stored %s, breaks at %v",
			replay.Digest, replay.StoredDigest, replay.Breaks))
	}
	return nil
}

func convertQualities(in map[string]any) (ir.PlayerQualities, error) {
	out := make(ir.PlayerQualities, len(in))
	for id, v := range in {
		st, err := convertState(v)
		if err != nil {
			return nil, fmt.Errorf("quality %q: %w", id, err)
		}
		out[id] = st
	}
	return out, nil
}

// convertState converts a YAML-parsed starting value to a quality state.
func convertState(v any) (ir.QualityState, error) {
	switch val := v.(type) {
	case int:
		if val < 0 || val > quality.MaxLevel {
			return nil, fmt.Errorf("level must be within 0..%d, got %d", quality.MaxLevel, val)
		}
		return ir.Pyramidal{Level: val, ChangePoints: quality.Triangular(val)}, nil
	case string:
		return ir.Text{Value: val}, nil
	case map[string]any:
		raw, ok := val["cp"]
		if !ok || len(val) != 1 {
			return nil, fmt.Errorf("object form must be {cp: N}")
		}
		cp, ok := raw.(int)
		if !ok || cp < 0 || cp > quality.MaxChangePoints {
			return nil, fmt.Errorf("cp must be an integer within 0..%d, got %v", quality.MaxChangePoints, raw)
		}
		return ir.Pyramidal{Level: quality.LevelFor(cp), ChangePoints: cp}, nil
	default:
		return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
