package engine

import (
	"log/slog"
	"maps"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/quality"
)

// Context is everything one evaluation needs. It is built per request by the
// caller; the engine never reaches for shared content state.
type Context struct {
	// Definitions is the content's quality definitions.
	Definitions ir.Definitions

	// Qualities is the character's state. The engine works on a copy.
	Qualities ir.PlayerQualities

	// Equipment maps slot to equipped quality id ("" for empty). Its keys
	// are the character's known slots.
	Equipment ir.Equipment

	// World is the shared overlay addressed with #id.
	World ir.WorldState

	// Aliases maps @alias names to quality ids.
	Aliases map[string]string

	// Self is the quality $. refers to outside RenderQuality.
	Self string
}

// Engine evaluates conditions, templates and effects against one Context.
//
// An Engine is request scoped and not safe for concurrent use. Mutations are
// applied in memory only; callers persist Qualities() and Changes().
type Engine struct {
	defs    ir.Definitions
	store   *quality.Store
	equip   ir.Equipment
	world   ir.WorldState
	aliases map[string]string
	self    string

	log    *slog.Logger
	roller dice.Roller
	clock  *Clock
	macros map[string]MacroFunc

	cache   map[cacheKey]cacheEntry
	changes []ir.Change

	macroDepth  int
	renderDepth int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for skipped statements and parse failures.
//
// Default: slog.Default()
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRoller sets the roller used for lo~hi ranges.
//
// Default: dice.DefaultRoller
func WithRoller(r dice.Roller) EngineOption {
	return func(e *Engine) {
		e.roller = r
	}
}

// WithMacro registers a handler for %name[...].
func WithMacro(name string, fn MacroFunc) EngineOption {
	return func(e *Engine) {
		e.macros[name] = fn
	}
}

// WithMacros registers several macro handlers at once.
func WithMacros(m map[string]MacroFunc) EngineOption {
	return func(e *Engine) {
		maps.Copy(e.macros, m)
	}
}

// WithClock sets the logical clock that stamps Change.Seq. Use NewClockAt to
// continue a character's existing change log.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over a copy of c's mutable state.
func New(c Context, opts ...EngineOption) *Engine {
	defs := c.Definitions
	if defs == nil {
		defs = ir.Definitions{}
	}
	e := &Engine{
		defs:    defs,
		store:   quality.NewStore(defs, c.Qualities),
		equip:   c.Equipment.Clone(),
		world:   c.World.Clone(),
		aliases: maps.Clone(c.Aliases),
		self:    c.Self,
		log:     slog.Default(),
		roller:  dice.DefaultRoller,
		clock:   NewClock(),
		macros:  make(map[string]MacroFunc),
		cache:   make(map[cacheKey]cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Qualities returns a snapshot of the current quality state.
func (e *Engine) Qualities() ir.PlayerQualities {
	return e.store.Snapshot()
}

// Equipment returns a snapshot of the current equipment.
func (e *Engine) Equipment() ir.Equipment {
	return e.equip.Clone()
}

// EffectiveLevel returns the capped pyramidal level of id (0 if missing or String).
func (e *Engine) EffectiveLevel(id string) int {
	return e.store.EffectiveLevel(id)
}

// Changes returns every change applied by this engine, in order.
func (e *Engine) Changes() []ir.Change {
	return append([]ir.Change(nil), e.changes...)
}

// Dynamic returns the sorted ids of qualities created without a definition.
func (e *Engine) Dynamic() []string {
	return e.store.Dynamic()
}

// Roll returns a uniform integer in [lo, hi] from the configured roller.
func (e *Engine) Roll(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	size := hi - lo + 1
	if size == 1 {
		return lo
	}
	r, err := e.roller.Roll(size)
	if err != nil {
		e.log.Warn("range roll failed", "lo", lo, "hi", hi, "error", err)
		return lo
	}
	return lo + r - 1
}
