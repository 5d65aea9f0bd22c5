package format

import "fmt"

// FormatBufferPercent renders the %T component: "{NNN%}" normally, or
// "{----}" when the transfer is using the zero-copy splice path and no
// buffer-fill percentage is available.
func FormatBufferPercent(percent int, known bool) string {
	if !known {
		return "{----}"
	}

	return fmt.Sprintf("{%3d%%}", percent)
}

// FormatName renders the %N component: the configured name, left-padded
// with spaces to width (9 unless a size prefix overrides it), followed by
// a colon.
func FormatName(name string, width int) string {
	if width <= 0 {
		width = 9
	}

	return fmt.Sprintf("%*s:", width, name)
}
