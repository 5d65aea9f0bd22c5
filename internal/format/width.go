package format

import "github.com/mattn/go-runewidth"

// VisibleWidth returns the number of terminal columns s occupies, honouring
// wide (e.g. CJK) runes and zero-width combining characters.
func VisibleWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to at most width visible columns.
func Truncate(s string, width int) string {
	if VisibleWidth(s) <= width {
		return s
	}

	return runewidth.Truncate(s, width, "")
}
