package brightness

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const reportKeyword = "brightness"

var (
	ErrMalformedReport = errors.New("malformed brightness report")
	ErrUnavailable     = errors.New("brightness unavailable")
)

// ParseReport reads the "brightness <level>" line printed by the get mode of
// the brightness tool.
func ParseReport(out string) (int, error) {
	fields := strings.Fields(out)
	if len(fields) != 2 || fields[0] != reportKeyword {
		return 0, fmt.Errorf("%w: %q", ErrMalformedReport, strings.TrimSpace(out))
	}

	level, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: level %q is not an integer", ErrMalformedReport, fields[1])
	}
	if level < MinLevel || level > MaxLevel {
		return 0, fmt.Errorf("%w: level %d out of range", ErrMalformedReport, level)
	}
	return level, nil
}

// FormatReport is the inverse of ParseReport.
func FormatReport(level int) string {
	return fmt.Sprintf("%s %d", reportKeyword, level)
}
