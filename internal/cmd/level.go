package cmd

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hoppxi/brightsync/internal/brightness"
	"github.com/knetic/govaluate"
)

var (
	errUnknownLevel    = errors.New("current brightness is unknown")
	errFractionalLevel = errors.New("brightness is a whole percentage (0-100)")
)

var levelFunctions = map[string]govaluate.ExpressionFunction{
	"round": func(args ...any) (any, error) { return math.Round(toFloat64(args[0])), nil },
	"floor": func(args ...any) (any, error) { return math.Floor(toFloat64(args[0])), nil },
	"ceil":  func(args ...any) (any, error) { return math.Ceil(toFloat64(args[0])), nil },
	"min": func(args ...any) (any, error) {
		return math.Min(toFloat64(args[0]), toFloat64(args[1])), nil
	},
	"max": func(args ...any) (any, error) {
		return math.Max(toFloat64(args[0]), toFloat64(args[1])), nil
	},
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// absoluteLevel returns the level for a plain "40" or "40%" argument.
func absoluteLevel(expr string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(expr), "%"))
	if err != nil {
		return 0, false
	}
	return brightness.ClampLevel(n), true
}

// checkLiteral rejects numeric literals that are not whole percentages.
func checkLiteral(expr string) error {
	expr = strings.TrimSuffix(strings.TrimSpace(expr), "%")
	if _, err := strconv.ParseFloat(expr, 64); err != nil {
		return nil
	}
	if _, ok := absoluteLevel(expr); !ok {
		return fmt.Errorf("%w: got %q", errFractionalLevel, expr)
	}
	return nil
}

// resolveLevel turns a set argument into a whole percentage. Besides plain
// numbers it accepts relative steps ("+10", "-5") and expressions over the
// current level ("level * 0.8"). Fractional literals such as "0.5" are
// rejected so they are not mistaken for slider positions.
func resolveLevel(expr string, current int, known bool) (int, error) {
	expr = strings.TrimSuffix(strings.TrimSpace(expr), "%")
	if expr == "" {
		return 0, errors.New("empty brightness value")
	}
	if level, ok := absoluteLevel(expr); ok && expr[0] != '+' && expr[0] != '-' {
		return level, nil
	}
	if err := checkLiteral(expr); err != nil {
		return 0, err
	}

	if expr[0] == '+' || expr[0] == '-' {
		expr = "level " + expr
	}

	expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, levelFunctions)
	if err != nil {
		return 0, fmt.Errorf("invalid brightness expression %q: %w", expr, err)
	}

	params := map[string]any{}
	for _, v := range expression.Vars() {
		if v != "level" {
			return 0, fmt.Errorf("unknown variable %q in brightness expression", v)
		}
		if !known {
			return 0, errUnknownLevel
		}
		params["level"] = float64(current)
	}

	result, err := expression.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate %q: %w", expr, err)
	}
	f, ok := result.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("brightness expression %q did not yield a number", expr)
	}
	return brightness.ClampLevel(int(math.Round(f))), nil
}

// parseStateReply reads the level out of an "OK: brightness 42 visible" reply.
func parseStateReply(reply string) (int, bool, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(reply), "OK:"))
	if len(fields) < 2 || fields[0] != "brightness" {
		return 0, false, fmt.Errorf("unexpected daemon reply %q", reply)
	}
	if fields[1] == "unknown" {
		return 0, false, nil
	}
	level, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false, fmt.Errorf("unexpected daemon reply %q", reply)
	}
	return level, true, nil
}
