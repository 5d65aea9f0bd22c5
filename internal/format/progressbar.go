package format

import (
	"fmt"
	"strings"
)

// BarStyle selects the glyphs used to render a progress bar.
type BarStyle int

const (
	// BarPlain uses '=' fill and '>' tip, in square brackets.
	BarPlain BarStyle = iota
	// BarBlock uses Unicode block-drawing characters for a smoother fill.
	BarBlock
	// BarGranular uses eighth-block characters for sub-character precision.
	BarGranular
	// BarShaded uses a light/medium/dark shade progression.
	BarShaded
)

const (
	minWideBarWidth    = 3 // minimum width to show fill before the tip
	arrowSpaceReserved = 2 // space reserved for the tip and trailing gap
)

// RenderBar renders a progress bar of the given style and width for a
// fraction in [0,1]. The returned string does not include the trailing
// percentage or rate text; callers append that separately so it can
// participate in the same dynamic-width budget.
func RenderBar(style BarStyle, fraction float64, width int) string {
	if width <= 0 {
		return ""
	}

	if fraction < 0 {
		fraction = 0
	}

	if fraction > 1 {
		fraction = 1
	}

	switch style {
	case BarBlock:
		return renderBlockBar(fraction, width)
	case BarGranular:
		return renderGranularBar(fraction, width)
	case BarShaded:
		return renderShadedBar(fraction, width)
	case BarPlain:
		fallthrough
	default:
		return renderPlainBar(fraction, width)
	}
}

// renderPlainBar reproduces the teacher's ASCII bar geometry: '='-filled,
// single '>' tip (omitted at 100%), space padding, inside square brackets.
func renderPlainBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))

	var bar strings.Builder

	bar.WriteString("[")

	switch {
	case filled >= width:
		bar.WriteString(strings.Repeat("=", width))
	case fraction > 0:
		var equalsCount int
		if filled >= minWideBarWidth {
			equalsCount = filled - arrowSpaceReserved
		} else {
			equalsCount = max(0, filled-1)
		}

		spacesCount := width - equalsCount - 1

		bar.WriteString(strings.Repeat("=", equalsCount))
		bar.WriteString(">")
		bar.WriteString(strings.Repeat(" ", spacesCount))
	default:
		bar.WriteString(strings.Repeat(" ", width))
	}

	bar.WriteString("]")

	return bar.String()
}

const blockFull = '█'

func renderBlockBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}

	var bar strings.Builder

	bar.WriteString("[")
	bar.WriteString(strings.Repeat(string(blockFull), filled))
	bar.WriteString(strings.Repeat(" ", width-filled))
	bar.WriteString("]")

	return bar.String()
}

// eighthBlocks are the Unicode eighth-block glyphs used to render
// sub-character fill precision; index 0 is an empty cell, index 8 is full.
var eighthBlocks = []rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

func renderGranularBar(fraction float64, width int) string {
	totalEighths := int(fraction * float64(width) * 8)

	var bar strings.Builder

	bar.WriteString("[")

	for column := 0; column < width; column++ {
		remaining := totalEighths - column*8

		switch {
		case remaining >= 8:
			bar.WriteRune(eighthBlocks[8])
		case remaining > 0:
			bar.WriteRune(eighthBlocks[remaining])
		default:
			bar.WriteRune(eighthBlocks[0])
		}
	}

	bar.WriteString("]")

	return bar.String()
}

var shades = []rune{' ', '░', '▒', '▓', '█'}

func renderShadedBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}

	var bar strings.Builder

	bar.WriteString("[")
	bar.WriteString(strings.Repeat(string(shades[len(shades)-1]), filled))

	if filled < width {
		bar.WriteRune(shades[2])
		bar.WriteString(strings.Repeat(" ", width-filled-1))
	}

	bar.WriteString("]")

	return bar.String()
}

// RenderProgressAmount renders the trailing text after a progress bar: the
// current rate (e.g. "4.20k/s") when gaugeMode is on and a maximum rate has
// been seen, otherwise the percentage.
func RenderProgressAmount(percentage int, gaugeMode bool, rate, maxRate float64, style UnitStyle) string {
	if gaugeMode && maxRate > 0 {
		return fmt.Sprintf("%s/s", FormatAmount(rate, style))
	}

	return fmt.Sprintf("%3d%%", percentage)
}

// DynamicSegmentCount returns width split evenly across n dynamic segments
// using integer division, matching the renderer's second-pass rule.
func DynamicSegmentCount(remaining, n int) int {
	if n <= 0 {
		return remaining
	}

	return remaining / n
}
