// Package clock provides a monotonic, non-decreasing time source with the
// arithmetic the transfer engine needs (elapsed-time subtraction, stopped-time
// accumulation, ETA addition) without ever going through floating-point
// wall-clock time directly.
package clock

import (
	"fmt"
	"os"
	"time"
)

// Time is a monotonic timestamp, normalised so that Nsec always lies in
// [0, 1e9). It carries no relation to wall-clock time; only differences
// between two Time values are meaningful.
type Time struct {
	Sec  int64
	Nsec int64
}

const nanosPerSecond = 1_000_000_000

// Source reads the current monotonic time. The default Source is Read, which
// cannot practically fail on a modern kernel; it is a variable so tests can
// substitute a fake clock and so failure handling (spec: a read failure is
// fatal, exit status 16) has somewhere to live.
var Source = Read

// processStart anchors Read. time.Since measures against the monotonic
// reading carried by a time.Time, so a wall-clock step never moves Read.
var processStart = time.Now()

// Read returns the current monotonic time, measured from process start. A
// read failure aborts the process with exit status 16, mirroring
// clock_gettime(2) error handling: there is no sane way to run a transfer
// whose elapsed time cannot be measured.
func Read() Time {
	mono := int64(time.Since(processStart))
	if mono < 0 {
		fmt.Fprintln(os.Stderr, "pipeview: clock: failed to read monotonic time")
		os.Exit(16)
	}

	return Time{Sec: mono / nanosPerSecond, Nsec: mono % nanosPerSecond}
}

// Zero returns the zero Time.
func Zero() Time {
	return Time{}
}

// IsZero reports whether t is the zero Time.
func (t Time) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// Compare returns -1, 0, or 1 depending on whether t is earlier than, equal
// to, or later than other.
func (t Time) Compare(other Time) int {
	switch {
	case t.Sec < other.Sec:
		return -1
	case t.Sec > other.Sec:
		return 1
	case t.Nsec < other.Nsec:
		return -1
	case t.Nsec > other.Nsec:
		return 1
	default:
		return 0
	}
}

// Add returns t + other, with nanoseconds normalised into [0, 1e9).
func (t Time) Add(other Time) Time {
	return normalize(t.Sec+other.Sec, t.Nsec+other.Nsec)
}

// AddNanoseconds returns t plus the given number of nanoseconds.
func (t Time) AddNanoseconds(nanoseconds int64) Time {
	return normalize(t.Sec, t.Nsec+nanoseconds)
}

// Subtract returns t - other, with nanoseconds normalised into [0, 1e9). If
// other is later than t the result is a negative duration expressed as a
// normalised Time (Sec may be negative).
func (t Time) Subtract(other Time) Time {
	return normalize(t.Sec-other.Sec, t.Nsec-other.Nsec)
}

// Seconds converts t to a floating-point number of seconds.
func (t Time) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nsec)/nanosPerSecond
}

func normalize(seconds, nanoseconds int64) Time {
	seconds += nanoseconds / nanosPerSecond
	nanoseconds %= nanosPerSecond

	if nanoseconds < 0 {
		seconds--
		nanoseconds += nanosPerSecond
	}

	return Time{Sec: seconds, Nsec: nanoseconds}
}
