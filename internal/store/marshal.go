package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// timeLayout keeps fractional seconds so round trips are exact.
const timeLayout = time.RFC3339Nano

func marshalTolerance(t ir.Tolerance) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal tolerance: %w", err)
	}
	return string(data), nil
}

func unmarshalTolerance(data string) (ir.Tolerance, error) {
	var t ir.Tolerance
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return ir.Tolerance{}, fmt.Errorf("unmarshal tolerance: %w", err)
	}
	return t, nil
}

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal recorded_at: %w", err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
