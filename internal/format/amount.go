package format

import "fmt"

// UnitStyle selects the family of magnitude prefixes used when rendering a
// byte count or rate.
type UnitStyle int

const (
	// UnitsSI scales by 1000 (k, M, G, T, P).
	UnitsSI UnitStyle = iota
	// UnitsIEC scales by 1024 (Ki, Mi, Gi, Ti, Pi).
	UnitsIEC
)

var siPrefixes = [...]string{"", "k", "M", "G", "T", "P"}
var iecPrefixes = [...]string{"", "Ki", "Mi", "Gi", "Ti", "Pi"}

const (
	lowPrecisionBound  = 10.0
	midPrecisionBound  = 100.0
	siScale            = 1000.0
	iecScale           = 1024.0
)

// FormatAmount renders value (bytes, or bits when the caller has already
// multiplied by 8) to 3 significant digits with a magnitude prefix, e.g.
// "4.21M" or "998k". Values under one unit of the base are rendered with no
// prefix.
func FormatAmount(value float64, style UnitStyle) string {
	scale := siScale
	prefixes := siPrefixes[:]

	if style == UnitsIEC {
		scale = iecScale
		prefixes = iecPrefixes[:]
	}

	if value < 0 {
		value = 0
	}

	idx := 0
	for value >= scale && idx < len(prefixes)-1 {
		value /= scale
		idx++
	}

	var formatted string

	switch {
	case value < lowPrecisionBound:
		formatted = fmt.Sprintf("%.2f", value)
	case value < midPrecisionBound:
		formatted = fmt.Sprintf("%.1f", value)
	default:
		formatted = fmt.Sprintf("%.0f", value)
	}

	return formatted + prefixes[idx]
}

// FormatRate renders the current transfer rate as "[N.NNNuB/s]", or
// "[N.NNNub/s]" when bits is set.
func FormatRate(bytesPerSecond float64, bits bool, style UnitStyle) string {
	suffix := "B/s"

	value := bytesPerSecond
	if bits {
		value *= 8
		suffix = "b/s"
	}

	return fmt.Sprintf("[%s%s]", FormatAmount(value, style), suffix)
}

// FormatAverageRate renders the windowed mean rate as "(N.NNNuB/s)".
func FormatAverageRate(bytesPerSecond float64, bits bool, style UnitStyle) string {
	suffix := "B/s"

	value := bytesPerSecond
	if bits {
		value *= 8
		suffix = "b/s"
	}

	return fmt.Sprintf("(%s%s)", FormatAmount(value, style), suffix)
}

// FormatBytes renders a cumulative byte or line count.
func FormatBytes(count int64, bits bool, style UnitStyle) string {
	value := float64(count)
	suffix := "B"

	if bits {
		value *= 8
		suffix = "b"
	}

	return FormatAmount(value, style) + suffix
}
