package format

import (
	"strings"
	"testing"
	"time"
)

func TestFormatAmountScalesByStyle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value float64
		style UnitStyle
		want  string
	}{
		{"bytes under scale", 512, UnitsSI, "512"},
		{"si kilo", 4200, UnitsSI, "4.20k"},
		{"iec kibi", 2048, UnitsIEC, "2.00Ki"},
		{"negative clamps to zero", -5, UnitsSI, "0.00"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := FormatAmount(tc.value, tc.style)
			if got != tc.want {
				t.Errorf("FormatAmount(%v, %v) = %q, want %q", tc.value, tc.style, got, tc.want)
			}
		})
	}
}

func TestFormatRateAndAverageRate(t *testing.T) {
	t.Parallel()

	if got := FormatRate(1024, false, UnitsIEC); got != "[1.00KiB/s]" {
		t.Errorf("FormatRate = %q", got)
	}

	if got := FormatRate(1024, true, UnitsIEC); got != "[8.00Kib/s]" {
		t.Errorf("FormatRate bits = %q", got)
	}

	if got := FormatAverageRate(1000, false, UnitsSI); got != "(1.00kB/s)" {
		t.Errorf("FormatAverageRate = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	if got := FormatBytes(500, false, UnitsSI); got != "500B" {
		t.Errorf("FormatBytes = %q", got)
	}

	if got := FormatBytes(500, true, UnitsSI); got != "4.00kb" {
		t.Errorf("FormatBytes bits = %q", got)
	}
}

func TestFormatTimerUnderAndOverADay(t *testing.T) {
	t.Parallel()

	if got := FormatTimer(5); got != "0:00:05" {
		t.Errorf("FormatTimer(5) = %q", got)
	}

	if got := FormatTimer(3661); got != "1:01:01" {
		t.Errorf("FormatTimer(3661) = %q", got)
	}

	oneDayPlusHour := float64(secondsPerDay + 3600)
	if got := FormatTimer(oneDayPlusHour); got != "1:01:00:00" {
		t.Errorf("FormatTimer(%v) = %q", oneDayPlusHour, got)
	}

	if got := FormatTimer(-1); got != "0:00:00" {
		t.Errorf("FormatTimer(-1) = %q, want clamped to zero", got)
	}

	if got := FormatTimer(MaxElapsedSeconds + 1); got != FormatTimer(MaxElapsedSeconds) {
		t.Errorf("FormatTimer should clamp at MaxElapsedSeconds")
	}
}

func TestFormatETABlanksWhenFinal(t *testing.T) {
	t.Parallel()

	got := FormatETA(90, false)
	if got == "" || strings.TrimSpace(got) == "" {
		t.Errorf("expected non-blank ETA, got %q", got)
	}

	blanked := FormatETA(90, true)
	if strings.TrimSpace(blanked) != "" {
		t.Errorf("expected blanked ETA on final update, got %q", blanked)
	}

	if len(blanked) != len(got) {
		t.Errorf("blanked ETA should match width of normal ETA: got %d vs %d", len(blanked), len(got))
	}
}

func TestFormatFinalETAIncludesDateBeyondSixHours(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	near := FormatFinalETA(3600, now)
	far := FormatFinalETA(sixHoursInSeconds+3600, now)

	if strings.Contains(near, "-") && strings.Count(near, "-") >= 2 {
		t.Errorf("near ETA should not carry a date, got %q", near)
	}

	if !strings.ContainsAny(far, "0123456789") {
		t.Errorf("expected far ETA to contain digits, got %q", far)
	}
}

func TestFormatBufferPercentKnownAndUnknown(t *testing.T) {
	t.Parallel()

	if got := FormatBufferPercent(42, true); got != "{ 42%}" {
		t.Errorf("FormatBufferPercent known = %q", got)
	}

	if got := FormatBufferPercent(0, false); got != "{----}" {
		t.Errorf("FormatBufferPercent unknown = %q", got)
	}
}

func TestFormatNameDefaultWidth(t *testing.T) {
	t.Parallel()

	got := FormatName("in", 0)
	if got != "       in:" {
		t.Errorf("FormatName default width = %q", got)
	}

	got = FormatName("in", 4)
	if got != "  in:" {
		t.Errorf("FormatName explicit width = %q", got)
	}
}

func TestFormatLastWrittenMasksNonPrintable(t *testing.T) {
	t.Parallel()

	buf := []byte{'a', 'b', 0x01, 'c'}

	got := FormatLastWritten(buf, 4)
	if got != "ab.c" {
		t.Errorf("FormatLastWritten = %q", got)
	}

	if got := FormatLastWritten(buf, 0); got != "" {
		t.Errorf("FormatLastWritten with n=0 should be empty, got %q", got)
	}
}

func TestFormatPreviousLineTruncates(t *testing.T) {
	t.Parallel()

	line := []byte("hello world")

	got := FormatPreviousLine(line, 5)
	if got != "hello" {
		t.Errorf("FormatPreviousLine truncated = %q", got)
	}

	got = FormatPreviousLine(line, 0)
	if got != "hello world" {
		t.Errorf("FormatPreviousLine with n=0 should return full line, got %q", got)
	}
}

func TestRenderBarPlainGeometry(t *testing.T) {
	t.Parallel()

	empty := RenderBar(BarPlain, 0, 10)
	if empty != "[          ]" {
		t.Errorf("empty bar = %q", empty)
	}

	full := RenderBar(BarPlain, 1, 10)
	if full != "[==========]" {
		t.Errorf("full bar = %q", full)
	}

	half := RenderBar(BarPlain, 0.5, 10)
	if VisibleWidth(half) != 12 {
		t.Errorf("half bar width = %d, want 12 (10 + brackets): %q", VisibleWidth(half), half)
	}

	if !strings.Contains(half, ">") {
		t.Errorf("partial bar should contain a tip, got %q", half)
	}
}

func TestRenderBarStylesProduceCorrectWidth(t *testing.T) {
	t.Parallel()

	for _, style := range []BarStyle{BarPlain, BarBlock, BarGranular, BarShaded} {
		got := RenderBar(style, 0.3, 20)
		if VisibleWidth(got) != 22 {
			t.Errorf("style %v: width = %d, want 22: %q", style, VisibleWidth(got), got)
		}
	}
}

func TestVisibleWidthAndTruncate(t *testing.T) {
	t.Parallel()

	if VisibleWidth("hello") != 5 {
		t.Errorf("VisibleWidth(hello) != 5")
	}

	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestColorsEnabledRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if ColorsEnabled(false) {
		t.Errorf("expected colors disabled when NO_COLOR is set")
	}

	if !ColorsEnabled(true) {
		t.Errorf("expected force to override NO_COLOR")
	}
}

func TestParseSGRCodesResolvesKeywordsAndNumbers(t *testing.T) {
	t.Parallel()

	codes := ParseSGRCodes("bold;31,unknown-keyword,42")
	want := []int{1, 31, 42}

	if len(codes) != len(want) {
		t.Fatalf("got codes %v, want %v", codes, want)
	}

	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("codes[%d] = %d, want %d", i, codes[i], want[i])
		}
	}
}
