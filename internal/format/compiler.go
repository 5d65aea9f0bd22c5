package format

import (
	"strconv"
	"strings"
)

type tagKind int

const (
	tagLiteral tagKind = iota
	tagProgress
	tagProgressBarOnly
	tagProgressAmountOnly
	tagBarPlain
	tagBarBlock
	tagBarGranular
	tagBarShaded
	tagTimer
	tagETA
	tagFinalETA
	tagRate
	tagAverageRate
	tagBytes
	tagBufferPercent
	tagLastWritten
	tagPreviousLine
	tagName
	tagSGR
)

// dynamicKinds lists the tags whose rendered width depends on the
// remaining-space second pass rather than being fixed at compile time.
var dynamicKinds = map[tagKind]bool{
	tagProgress:        true,
	tagProgressBarOnly: true,
	tagBarPlain:        true,
	tagBarBlock:        true,
	tagBarGranular:     true,
	tagBarShaded:       true,
}

// segment is one compiled piece of a format string.
type segment struct {
	kind tagKind
	// text holds literal text for tagLiteral, and the raw keyword spec
	// for tagSGR.
	text string
	// size is the numeric prefix preceding a component tag (0 means the
	// component's own default applies). For tagPreviousLine with no
	// explicit size, the segment is dynamic instead.
	size    int
	dynamic bool
}

// Renderer holds a compiled format string, ready to be rendered against a
// State on every display tick.
type Renderer struct {
	segments []segment
}

// defaultTailCap is the fallback byte cap applied to an %A/%L component
// that carries no explicit size prefix.
const defaultTailCap = 256

// LastWrittenCap reports whether the compiled format includes a
// last-bytes-written component (%A) and the byte cap it requests.
func (r *Renderer) LastWrittenCap() (capBytes int, used bool) {
	return r.tailCap(tagLastWritten)
}

// PreviousLineCap reports whether the compiled format includes a
// previous-line component (%L) and the byte cap it requests.
func (r *Renderer) PreviousLineCap() (capBytes int, used bool) {
	return r.tailCap(tagPreviousLine)
}

func (r *Renderer) tailCap(kind tagKind) (capBytes int, used bool) {
	for _, seg := range r.segments {
		if seg.kind != kind {
			continue
		}

		used = true

		size := seg.size
		if size == 0 {
			size = defaultTailCap
		}

		if size > capBytes {
			capBytes = size
		}
	}

	return capBytes, used
}

// hasKind reports whether the compiled format includes at least one
// component of the given kind.
func (r *Renderer) hasKind(kind tagKind) bool {
	for _, seg := range r.segments {
		if seg.kind == kind {
			return true
		}
	}

	return false
}

// UsesBufferPercent reports whether the compiled format includes a
// buffer-percentage component (%T), which disables the zero-copy splice
// path since buffer occupancy is meaningless under it.
func (r *Renderer) UsesBufferPercent() bool {
	return r.hasKind(tagBufferPercent)
}

// Compile parses a pv-style format string into a Renderer. Unknown %
// sequences and a trailing unmatched % are passed through as literal text,
// matching the upstream behaviour of never failing to display something.
func Compile(formatString string) (*Renderer, error) {
	var segments []segment

	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{kind: tagLiteral, text: literal.String()})
			literal.Reset()
		}
	}

	runes := []rune(formatString)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '%' {
			literal.WriteRune(r)

			continue
		}

		// Trailing '%' with nothing after it is a literal percent.
		if i+1 >= len(runes) {
			literal.WriteRune('%')

			break
		}

		size, next := parseSize(runes, i+1)

		if runes[next] == '{' {
			end := indexRune(runes, next, '}')
			if end < 0 {
				// Unterminated brace group: pass through verbatim.
				literal.WriteRune('%')

				continue
			}

			flushLiteral()

			seg, ok := braceSegment(string(runes[next+1:end]), size)
			if ok {
				segments = append(segments, seg)
			} else {
				segments = append(segments, segment{kind: tagLiteral, text: "%" + string(runes[i+1:end+1])})
			}

			i = end

			continue
		}

		seg, consumed, ok := letterSegment(runes[next], size)
		if !ok {
			// Unknown sequence: pass it through verbatim (e.g. "%q").
			literal.WriteRune('%')
			literal.WriteRune(runes[next])
			i = next

			continue
		}

		if seg.kind == tagLiteral {
			// "%%" joins the surrounding literal text.
			literal.WriteString(seg.text)
			i = next + consumed - 1

			continue
		}

		flushLiteral()
		segments = append(segments, seg)
		i = next + consumed - 1
	}

	flushLiteral()

	return &Renderer{segments: segments}, nil
}

// parseSize reads an optional positive decimal integer starting at
// position pos, returning its value (0 if absent) and the index of the
// first rune after it.
func parseSize(runes []rune, pos int) (int, int) {
	start := pos
	for pos < len(runes) && runes[pos] >= '0' && runes[pos] <= '9' {
		pos++
	}

	if pos == start {
		return 0, pos
	}

	n, _ := strconv.Atoi(string(runes[start:pos]))

	return n, pos
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}

	return -1
}

func letterSegment(letter rune, size int) (segment, int, bool) {
	switch letter {
	case '%':
		return segment{kind: tagLiteral, text: "%"}, 1, true
	case 'p':
		return segment{kind: tagProgress, size: size, dynamic: true}, 1, true
	case 't':
		return segment{kind: tagTimer}, 1, true
	case 'e':
		return segment{kind: tagETA}, 1, true
	case 'I':
		return segment{kind: tagFinalETA}, 1, true
	case 'r':
		return segment{kind: tagRate}, 1, true
	case 'a':
		return segment{kind: tagAverageRate}, 1, true
	case 'b':
		return segment{kind: tagBytes}, 1, true
	case 'T':
		return segment{kind: tagBufferPercent}, 1, true
	case 'A':
		return segment{kind: tagLastWritten, size: size}, 1, true
	case 'L':
		return segment{kind: tagPreviousLine, size: size, dynamic: size == 0}, 1, true
	case 'N':
		return segment{kind: tagName, size: size}, 1, true
	default:
		return segment{}, 0, false
	}
}

func braceSegment(tag string, size int) (segment, bool) {
	if strings.HasPrefix(tag, "sgr:") {
		return segment{kind: tagSGR, text: strings.TrimPrefix(tag, "sgr:")}, true
	}

	switch tag {
	case "progress":
		return segment{kind: tagProgress, size: size, dynamic: true}, true
	case "progress-bar-only":
		return segment{kind: tagProgressBarOnly, size: size, dynamic: true}, true
	case "progress-amount-only":
		return segment{kind: tagProgressAmountOnly, size: size}, true
	case "bar-plain":
		return segment{kind: tagBarPlain, size: size, dynamic: true}, true
	case "bar-block":
		return segment{kind: tagBarBlock, size: size, dynamic: true}, true
	case "bar-granular":
		return segment{kind: tagBarGranular, size: size, dynamic: true}, true
	case "bar-shaded":
		return segment{kind: tagBarShaded, size: size, dynamic: true}, true
	case "timer":
		return segment{kind: tagTimer}, true
	case "eta":
		return segment{kind: tagETA}, true
	case "fineta":
		return segment{kind: tagFinalETA}, true
	case "rate":
		return segment{kind: tagRate}, true
	case "average-rate":
		return segment{kind: tagAverageRate}, true
	case "bytes":
		return segment{kind: tagBytes}, true
	case "buffer-percent":
		return segment{kind: tagBufferPercent}, true
	case "name":
		return segment{kind: tagName, size: size}, true
	default:
		return segment{}, false
	}
}
