package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// State is the transfer snapshot a Renderer composes into a display string
// on each tick.
type State struct {
	Name string

	Bits  bool
	Units UnitStyle

	SizeKnown    bool
	Size         int64
	Transferred  int64
	Percentage   int
	GaugeMode    bool
	MaxRateSeen  float64

	TransferRate float64
	AverageRate  float64

	ElapsedSeconds float64
	ETASeconds     float64
	FinalUpdate    bool
	Now            time.Time

	BufferPercentKnown bool
	BufferPercent      int

	LastWritten  []byte
	PreviousLine []byte

	ColorsEnabled bool

	BarStyle BarStyle

	// PreviousWidth is the visible width of the last rendered line; the
	// final render pads with trailing spaces up to this width (capped)
	// so a shorter new line overwrites stale characters.
	PreviousWidth int
}

// maxTrailingPad bounds how many stale trailing columns a shrinking line
// will blank out, so a wildly different previous width does not leave a
// huge run of spaces.
const maxTrailingPad = 15

// Render composes the display string for the given terminal width, using
// the two-pass fixed/dynamic width algorithm: fixed segments render first
// and their widths are summed, then the remaining space is split evenly
// across dynamic segments (typically the progress bar). %{sgr:...}
// components carry no width of their own; they accumulate into a running
// lipgloss.Style that wraps every segment rendered after them, up to the
// next reset.
func (r *Renderer) Render(state State, width int) string {
	rendered := make([]string, len(r.segments))

	staticWidth := 0
	dynamicCount := 0

	for i, seg := range r.segments {
		if seg.kind == tagSGR {
			continue
		}

		if seg.dynamic {
			dynamicCount++

			continue
		}

		text := r.renderFixed(seg, state)
		rendered[i] = text
		staticWidth += VisibleWidth(text)
	}

	remaining := width - staticWidth
	if remaining < 0 {
		remaining = 0
	}

	perSegment := DynamicSegmentCount(remaining, dynamicCount)
	totalWidth := staticWidth

	for i, seg := range r.segments {
		if !seg.dynamic {
			continue
		}

		text := r.renderDynamic(seg, state, perSegment)
		rendered[i] = text
		totalWidth += VisibleWidth(text)
	}

	var out strings.Builder

	activeStyle := lipgloss.NewStyle()
	styled := false

	for i, seg := range r.segments {
		if seg.kind == tagSGR {
			codes := ParseSGRCodes(seg.text)
			activeStyle = applySGRStyle(activeStyle, codes)
			styled = styled || len(codes) > 0

			continue
		}

		text := rendered[i]
		if state.ColorsEnabled && styled && text != "" {
			text = activeStyle.Render(text)
		}

		out.WriteString(text)
	}

	result := out.String()

	if totalWidth < state.PreviousWidth {
		pad := state.PreviousWidth - totalWidth
		if pad > maxTrailingPad {
			pad = maxTrailingPad
		}

		result += strings.Repeat(" ", pad)
	}

	return result
}

// RenderNumeric composes the --numeric mode line: a bare number, optionally
// prefixed with the elapsed time, with no unit suffixes or padding. When the
// format includes a timer component the elapsed seconds are prefixed; when
// it includes a bytes component the raw transferred count is printed
// (multiplied by eight for --bits); otherwise the bare percentage is printed. Any rate
// or progress-bar components in the format are ignored in numeric mode, the
// same way the upstream numeric branch never looks at them.
func (r *Renderer) RenderNumeric(state State) string {
	var out strings.Builder

	if r.hasKind(tagTimer) {
		fmt.Fprintf(&out, "%.4f ", state.ElapsedSeconds)
	}

	if r.hasKind(tagBytes) {
		value := state.Transferred
		if state.Bits {
			value *= 8
		}

		fmt.Fprintf(&out, "%d", value)
	} else {
		fmt.Fprintf(&out, "%d", state.Percentage)
	}

	return out.String()
}

func (r *Renderer) renderFixed(seg segment, state State) string {
	switch seg.kind {
	case tagLiteral:
		return seg.text
	case tagTimer:
		return FormatTimer(state.ElapsedSeconds)
	case tagETA:
		if !state.SizeKnown {
			return ""
		}

		return FormatETA(state.ETASeconds, state.FinalUpdate)
	case tagFinalETA:
		if !state.SizeKnown {
			return ""
		}

		now := state.Now
		if now.IsZero() {
			now = time.Now()
		}

		return FormatFinalETA(state.ETASeconds, now)
	case tagRate:
		return FormatRate(state.TransferRate, state.Bits, state.Units)
	case tagAverageRate:
		return FormatAverageRate(state.AverageRate, state.Bits, state.Units)
	case tagBytes:
		return FormatBytes(state.Transferred, state.Bits, state.Units)
	case tagBufferPercent:
		return FormatBufferPercent(state.BufferPercent, state.BufferPercentKnown)
	case tagLastWritten:
		return FormatLastWritten(state.LastWritten, seg.size)
	case tagPreviousLine:
		return FormatPreviousLine(state.PreviousLine, seg.size)
	case tagName:
		return FormatName(state.Name, seg.size)
	case tagProgressAmountOnly:
		return RenderProgressAmount(state.Percentage, state.GaugeMode, state.TransferRate, state.MaxRateSeen, state.Units)
	default:
		return ""
	}
}

func (r *Renderer) renderDynamic(seg segment, state State, width int) string {
	switch seg.kind {
	case tagProgress:
		bar := RenderBar(state.BarStyle, progressFraction(state), width)

		return fmt.Sprintf("%s %s", bar, RenderProgressAmount(state.Percentage, state.GaugeMode, state.TransferRate, state.MaxRateSeen, state.Units))
	case tagProgressBarOnly:
		return RenderBar(state.BarStyle, progressFraction(state), width)
	case tagBarPlain:
		return RenderBar(BarPlain, progressFraction(state), width)
	case tagBarBlock:
		return RenderBar(BarBlock, progressFraction(state), width)
	case tagBarGranular:
		return RenderBar(BarGranular, progressFraction(state), width)
	case tagBarShaded:
		return RenderBar(BarShaded, progressFraction(state), width)
	case tagPreviousLine:
		return FormatPreviousLine(state.PreviousLine, width)
	default:
		return ""
	}
}

func progressFraction(state State) float64 {
	if state.GaugeMode && state.MaxRateSeen > 0 {
		return state.TransferRate / state.MaxRateSeen
	}

	if !state.SizeKnown || state.Size <= 0 {
		// Oscillator: the percentage counter sweeps 0->200; fold it back
		// into a 0..1..0 triangle wave across the bar.
		p := state.Percentage
		if p > 100 {
			p = 200 - p
		}

		return float64(p) / 100
	}

	return float64(state.Percentage) / 100
}

// DefaultFormat is the format string used when the user supplies none: a
// name prefix, timer, progress bar, timer-less rate, and ETA.
const DefaultFormat = "%N%t %p %r %e"

// NumericDefaultFormat is the format string used in --numeric mode when the
// user supplies no explicit format: timer, bytes, rate, percentage.
const NumericDefaultFormat = "%t %b %r %p"
