package harness

import (
	"time"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Stage names the step of a case that failed.
type Stage string

const (
	StageGenerate  Stage = "generate"
	StageEngine    Stage = "engine"
	StageParse     Stage = "parse"
	StageReconcile Stage = "reconcile"
	StageDump      Stage = "dump"
	StageEvaluate  Stage = "evaluate"
	StageCompare   Stage = "compare"
)

// CaseResult is the verdict for one (mode, device, structure) case.
type CaseResult struct {
	Mode      string `json:"mode"`
	Device    string `json:"device"`
	Structure string `json:"structure"`
	Pass      bool   `json:"pass"`

	// Stage, Kind and Error describe the first failure. Empty when Pass.
	Stage Stage   `json:"stage,omitempty"`
	Kind  ir.Kind `json:"kind,omitempty"`
	Error string  `json:"error,omitempty"`

	// Err is the failure itself, for errors.As inspection.
	Err error `json:"-"`

	// Edges and Digest describe the reference neighbor list.
	Edges  int    `json:"edges"`
	Digest string `json:"digest,omitempty"`

	Duration time.Duration `json:"-"`
}

// Name formats the case as "mode/device/structure".
func (c CaseResult) Name() string {
	return c.Mode + "/" + c.Device + "/" + c.Structure
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario  string       `json:"scenario"`
	Tolerance ir.Tolerance `json:"tolerance"`

	// Pass is true when every case passed. A run with no cases passes.
	Pass bool `json:"pass"`

	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
}

// NewResult creates an empty passing result.
func NewResult(scenario string, tol ir.Tolerance) *Result {
	return &Result{Scenario: scenario, Tolerance: tol, Pass: true, Cases: []CaseResult{}}
}

// Add records a case verdict.
func (r *Result) Add(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if c.Pass {
		r.Passed++
	} else {
		r.Failed++
		r.Pass = false
	}
}
