package transfer

import (
	"errors"
	"io"
)

// skipPolicy implements the --skip-errors read-error recovery policy: the
// first error on an input produces one warning, then either an adaptive
// doubling skip (1, 2, 4, ... up to 512 bytes) or a fixed block-aligned
// seek, depending on whether a fixed skip block size was configured.
type skipPolicy struct {
	enabled     bool
	quiet       bool // --skip-errors given twice: suppress all warnings
	blockSize   int64
	warned      bool
	adaptiveLen int64
}

const maxAdaptiveSkip = 512

func newSkipPolicy(count int, blockSize int64) *skipPolicy {
	return &skipPolicy{
		enabled:   count > 0,
		quiet:     count > 1,
		blockSize: blockSize,
	}
}

// skipResult describes how the caller should recover from a read error.
type skipResult struct {
	warn      bool
	skipBytes int64
	seekTo    int64
	canSeek   bool
}

// Recover decides the recovery action for a read error at the given
// cumulative input offset on a seekable (or not) input. It never returns an
// error itself; a disabled policy reports !enabled so the caller treats the
// error as fatal instead.
func (p *skipPolicy) Recover(offset int64, seekable bool) (skipResult, bool) {
	if !p.enabled {
		return skipResult{}, false
	}

	res := skipResult{warn: !p.warned && !p.quiet}
	p.warned = true

	if p.blockSize > 0 {
		next := ((offset / p.blockSize) + 1) * p.blockSize
		res.skipBytes = next - offset
		res.seekTo = next
		res.canSeek = seekable

		return res, true
	}

	if p.adaptiveLen == 0 {
		p.adaptiveLen = 1
	} else if p.adaptiveLen < maxAdaptiveSkip {
		p.adaptiveLen *= 2
	}

	res.skipBytes = p.adaptiveLen
	res.seekTo = offset + p.adaptiveLen
	res.canSeek = seekable

	return res, true
}

// Reset clears the adaptive skip length, called when a read succeeds again.
// The warned flag is kept, so a later error does not warn a second time.
func (p *skipPolicy) Reset() {
	p.adaptiveLen = 0
}

// isTransient reports whether err is the kind of error the skip-errors
// policy is meant to recover from, as opposed to end-of-input.
func isTransient(err error) bool {
	return err != nil && !errors.Is(err, io.EOF)
}
