package format

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// lipgloss probes os.Stdout itself to pick a color profile, which would
// silently strip every attribute when output isn't a TTY (piped to a file,
// or under `go test`). ColorsEnabled already makes that call once, so
// lipgloss's own detection is forced to ANSI here; Renderer.Render only
// applies a style when state.ColorsEnabled said yes.
func init() {
	lipgloss.SetColorProfile(termenv.ANSI)
}

// sgrKeywords maps the keywords accepted inside %{sgr:...} to ECMA-48 SGR
// code numbers.
var sgrKeywords = map[string]int{
	"reset": 0, "none": 0,
	"bold": 1, "dim": 2, "italic": 3,
	"underscore": 4, "underline": 4,
	"blink": 5, "reverse": 7,
	"no-bold": 22, "no-dim": 22,
	"no-italic":     23,
	"no-underscore": 24, "no-underline": 24,
	"no-blink": 25, "no-reverse": 27,
	"black": 30, "red": 31, "green": 32, "brown": 33, "yellow": 33,
	"blue": 34, "magenta": 35, "cyan": 36, "white": 37,
	"fg-black": 30, "fg-red": 31, "fg-green": 32, "fg-brown": 33, "fg-yellow": 33,
	"fg-blue": 34, "fg-magenta": 35, "fg-cyan": 36, "fg-white": 37, "fg-default": 39,
	"bg-black": 40, "bg-red": 41, "bg-green": 42, "bg-brown": 43, "bg-yellow": 43,
	"bg-blue": 44, "bg-magenta": 45, "bg-cyan": 46, "bg-white": 47, "bg-default": 49,
}

// ParseSGRCodes resolves a comma/semicolon separated %{sgr:...} parameter
// into its ECMA-48 code numbers. A token that parses as a bare integer in
// [0,255) is used directly; otherwise it is looked up in sgrKeywords and
// silently dropped if unrecognised.
func ParseSGRCodes(spec string) []int {
	var codes []int

	for _, token := range strings.FieldsFunc(spec, func(r rune) bool { return r == ',' || r == ';' }) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if n, err := strconv.Atoi(token); err == nil && n >= 0 && n < 255 {
			codes = append(codes, n)

			continue
		}

		if code, ok := sgrKeywords[token]; ok {
			codes = append(codes, code)
		}
	}

	return codes
}

// applySGRStyle folds a resolved code list into a running lipgloss.Style,
// the same way successive %{sgr:...} components accumulate state across a
// format string until a "reset"/"none" (code 0) clears it.
func applySGRStyle(style lipgloss.Style, codes []int) lipgloss.Style {
	for _, code := range codes {
		switch {
		case code == 0:
			style = lipgloss.NewStyle()
		case code == 1:
			style = style.Bold(true)
		case code == 2:
			style = style.Faint(true)
		case code == 3:
			style = style.Italic(true)
		case code == 4:
			style = style.Underline(true)
		case code == 5:
			style = style.Blink(true)
		case code == 7:
			style = style.Reverse(true)
		case code == 22:
			style = style.Bold(false).Faint(false)
		case code == 23:
			style = style.Italic(false)
		case code == 24:
			style = style.Underline(false)
		case code == 25:
			style = style.Blink(false)
		case code == 27:
			style = style.Reverse(false)
		case code >= 30 && code <= 37:
			style = style.Foreground(lipgloss.Color(strconv.Itoa(code - 30)))
		case code == 39:
			style = style.UnsetForeground()
		case code >= 40 && code <= 47:
			style = style.Background(lipgloss.Color(strconv.Itoa(code - 40)))
		case code == 49:
			style = style.UnsetBackground()
		}
	}

	return style
}
