package lammps

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

//go:embed deck.tmpl
var deckSource string

var deckTemplate = template.Must(template.New("deck").Funcs(template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}).Parse(deckSource))

// Deck is the control script for one engine run.
type Deck struct {
	// PBC selects a periodic ("p") or shrink-wrapped ("s") boundary per axis.
	PBC [3]bool

	// PairStyle defaults to DefaultPairStyle.
	PairStyle string

	// ModelPath is the deployed model file handed to pair_coeff.
	ModelPath string

	// Symbols are the model's chemical symbols in type order.
	Symbols []string

	// PrecisionScale multiplies every printed scalar.
	PrecisionScale float64
}

type deckView struct {
	Boundary              string
	DataFile              string
	PairStyle             string
	ModelPath             string
	Symbols               []string
	Precision             string
	StressExpr            string
	StressFile            string
	PEFile                string
	TotalAtomicEnergyFile string
	DumpFile              string
}

// Render writes the deck to w.
func (d Deck) Render(w io.Writer) error {
	if d.ModelPath == "" {
		return ir.NewConfigurationError("model", "model path is required")
	}
	if len(d.Symbols) == 0 {
		return ir.NewConfigurationError("chemical_symbols", "at least one chemical symbol is required")
	}
	if !(d.PrecisionScale > 0) {
		return ir.NewConfigurationError("precision_scale", "must be positive, got %g", d.PrecisionScale)
	}
	pairStyle := d.PairStyle
	if pairStyle == "" {
		pairStyle = DefaultPairStyle
	}

	precision := strconv.FormatFloat(d.PrecisionScale, 'f', -1, 64)
	terms := make([]string, 6)
	for n := range terms {
		terms[n] = fmt.Sprintf("$(%s * c_stress[%d])", precision, n+1)
	}

	view := deckView{
		Boundary:              boundary(d.PBC),
		DataFile:              DataFile,
		PairStyle:             pairStyle,
		ModelPath:             d.ModelPath,
		Symbols:               d.Symbols,
		Precision:             precision,
		StressExpr:            strings.Join(terms, " "),
		StressFile:            StressFile,
		PEFile:                PEFile,
		TotalAtomicEnergyFile: TotalAtomicEnergyFile,
		DumpFile:              DumpFile,
	}
	if err := deckTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render deck: %w", err)
	}
	return nil
}

func boundary(pbc [3]bool) string {
	flags := make([]string, 3)
	for k, p := range pbc {
		if p {
			flags[k] = "p"
		} else {
			flags[k] = "s"
		}
	}
	return strings.Join(flags, " ")
}
