package effort

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Palette is the fixed workstream color cycle, assigned by parse order.
var Palette = [8]string{
	"#3b82f6", // blue
	"#10b981", // green
	"#f59e0b", // amber
	"#ef4444", // red
	"#8b5cf6", // purple
	"#ec4899", // pink
	"#06b6d4", // cyan
	"#f97316", // orange
}

// MaxWorkstreams is the hard cap on workstreams per graph.
const MaxWorkstreams = 10

// ParseResult holds the outcome of parsing free-text workstream input.
// Errors are collected per line; any non-empty Errors blocks persistence.
type ParseResult struct {
	Workstreams []Workstream
	Errors      []string
}

// ParseWorkstreams parses modal input, one workstream per line in the form
// "name, number". Lines with no comma or more than one are rejected as
// malformed, so names may not contain commas. Parsed magnitudes are
// normalized so the stored values sum to 100 (values entered through the
// interactive editor are stored raw instead).
func ParseWorkstreams(text string) ParseResult {
	var result ParseResult

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}

	if len(lines) == 0 {
		result.Errors = append(result.Errors, "At least one workstream is required")
		return result
	}
	if len(lines) > MaxWorkstreams {
		result.Errors = append(result.Errors, fmt.Sprintf("Maximum %d workstreams allowed", MaxWorkstreams))
		return result
	}

	for i, line := range lines {
		name, effortStr, found := strings.Cut(line, ",")
		name = strings.TrimSpace(name)
		effortStr = strings.TrimSpace(effortStr)

		if !found || strings.Contains(effortStr, ",") {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: Invalid format. Expected \"name, percentage\"", i+1))
			continue
		}
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: Workstream name is required", i+1))
			continue
		}

		magnitude, err := strconv.ParseFloat(effortStr, 64)
		if err != nil || math.IsInf(magnitude, 0) || math.IsNaN(magnitude) || magnitude <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Line %d: Invalid percentage %q", i+1, effortStr))
			continue
		}

		result.Workstreams = append(result.Workstreams, Workstream{
			Name:   name,
			Effort: magnitude,
			Color:  Palette[i%len(Palette)],
		})
	}

	if len(result.Workstreams) > 0 {
		normalized := Percentages(result.Workstreams)
		for i := range result.Workstreams {
			result.Workstreams[i].Effort = normalized[i]
		}
	}

	return result
}
