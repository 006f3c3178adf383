package harness

import (
	"github.com/roach88/storylet/internal/ir"
)

// Step kinds recorded in the trace.
const (
	StepApply     = "apply"
	StepCondition = "condition"
	StepText      = "text"
	StepBlock     = "block"
	StepEquip     = "equip"
	StepUnequip   = "unequip"
)

// TraceEvent is one executed step.
type TraceEvent struct {
	Step    int      `json:"step"`
	Kind    string   `json:"kind"`
	Input   string   `json:"input"`
	Output  string   `json:"output,omitempty"`
	Changes []string `json:"changes,omitempty"`
	Cleared []string `json:"cleared,omitempty"` // slots emptied by reconciliation
	Error   string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Changes is every change the scenario produced, in seq order.
	Changes []ir.Change `json:"changes"`

	// Qualities and Equipment are the final character state.
	Qualities ir.PlayerQualities `json:"qualities"`
	Equipment ir.Equipment       `json:"equipment"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		Changes:   []ir.Change{},
		Qualities: ir.PlayerQualities{},
		Equipment: ir.Equipment{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
