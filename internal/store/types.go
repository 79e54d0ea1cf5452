package store

import (
	"time"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// Run is the recorded verdict of one scenario execution.
type Run struct {
	ID         string       `json:"id"`
	Seq        int64        `json:"seq"`
	Scenario   string       `json:"scenario"`
	RecordedAt time.Time    `json:"recorded_at"`
	Tolerance  ir.Tolerance `json:"tolerance"`
	Pass       bool         `json:"pass"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
}

// Case is the recorded verdict of one (mode, device, structure) case.
// Stage, Kind and Error are empty for passing cases.
type Case struct {
	RunID     string  `json:"run_id"`
	Index     int     `json:"index"`
	Mode      string  `json:"mode"`
	Device    string  `json:"device"`
	Structure string  `json:"structure"`
	Pass      bool    `json:"pass"`
	Stage     string  `json:"stage,omitempty"`
	Kind      ir.Kind `json:"kind,omitempty"`
	Error     string  `json:"error,omitempty"`
	Edges     int     `json:"edges"`
	Digest    string  `json:"digest,omitempty"`
}
