package structure

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

var symbolCaser = cases.Title(language.Und)

// CanonicalSymbol normalizes a chemical symbol to its conventional
// capitalization ("FE", "fe" -> "Fe").
func CanonicalSymbol(sym string) string {
	return symbolCaser.String(strings.TrimSpace(sym))
}

// TypeMap maps chemical symbols to 1-based engine atom types.
//
// Types are assigned in alphabetical order of the canonical symbols, which is
// the order the engine's data file and pair_coeff line use.
type TypeMap struct {
	symbols []string
	index   map[string]int
}

// NewTypeMap builds a TypeMap from the model's chemical symbols.
// Duplicates are collapsed; an empty list is a ConfigurationError.
func NewTypeMap(symbols []string) (*TypeMap, error) {
	seen := make(map[string]bool)
	var uniq []string
	for _, s := range symbols {
		c := CanonicalSymbol(s)
		if c == "" {
			return nil, ir.NewConfigurationError("chemical_symbols", "empty chemical symbol")
		}
		if !seen[c] {
			seen[c] = true
			uniq = append(uniq, c)
		}
	}
	if len(uniq) == 0 {
		return nil, ir.NewConfigurationError("chemical_symbols", "at least one chemical symbol is required")
	}
	sort.Strings(uniq)

	index := make(map[string]int, len(uniq))
	for i, s := range uniq {
		index[s] = i + 1
	}
	return &TypeMap{symbols: uniq, index: index}, nil
}

// Symbols returns the canonical symbols in type order.
func (m *TypeMap) Symbols() []string {
	out := make([]string, len(m.symbols))
	copy(out, m.symbols)
	return out
}

// Len returns the number of types.
func (m *TypeMap) Len() int {
	return len(m.symbols)
}

// TypeOf returns the 1-based type of sym.
// Returns a ConfigurationError for symbols the model does not know.
func (m *TypeMap) TypeOf(sym string) (int, error) {
	t, ok := m.index[CanonicalSymbol(sym)]
	if !ok {
		return 0, ir.NewConfigurationError("chemical_symbols", "symbol %q is not in the model's type map %v", sym, m.symbols)
	}
	return t, nil
}

// Types returns the 1-based type of every atom in s.
func (m *TypeMap) Types(s *Structure) ([]int, error) {
	out := make([]int, len(s.Symbols))
	for i, sym := range s.Symbols {
		t, err := m.TypeOf(sym)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
