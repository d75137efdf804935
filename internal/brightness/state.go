package brightness

import (
	"fmt"
	"math"
)

const (
	MinLevel = 0
	MaxLevel = 100
)

// State is the brightness the host surface currently displays. Level is kept
// across unavailable polls so the slider reappears where it left off.
type State struct {
	Level   int
	Known   bool
	Visible bool
}

func (st State) String() string {
	if !st.Known {
		return "brightness unknown hidden"
	}
	if st.Visible {
		return fmt.Sprintf("brightness %d visible", st.Level)
	}
	return fmt.Sprintf("brightness %d hidden", st.Level)
}

// Result is the outcome of one external tool invocation.
type Result struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

// Outcome describes what a single poll cycle did.
type Outcome int

const (
	Skipped Outcome = iota
	Visible
	Hidden
)

func (o Outcome) String() string {
	switch o {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	default:
		return "skipped"
	}
}

// PercentFromFraction converts a slider position in [0, 1] to a whole
// percentage. It always floors. Values outside the range are clamped before
// conversion and NaN maps to MinLevel.
func PercentFromFraction(v float64) int {
	if math.IsNaN(v) {
		return MinLevel
	}
	v = math.Min(math.Max(v, 0), 1)
	return ClampLevel(int(math.Floor(v * 100)))
}

func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}
