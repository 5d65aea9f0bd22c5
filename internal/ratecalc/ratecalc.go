// Package ratecalc turns a stream of (elapsed, total-written) samples into
// the current transfer rate, a windowed average rate, and a completion
// percentage, matching the accumulation rules of the upstream pv's
// calc.c: sub-10ms updates accumulate into a pending-bytes counter instead
// of producing a noisy instantaneous rate, and a bounded history ring feeds
// the average used for ETA.
package ratecalc

import "github.com/HdrHistogram/hdrhistogram-go"

// minUpdateInterval is the shortest gap between two elapsed-time readings
// that is trusted to compute an instantaneous rate; below it, bytes are
// folded into the next update instead of risking a division by a
// near-zero duration.
const minUpdateInterval = 0.01

// percentageWrapLimit is the ceiling percentage oscillates up to, when the
// total size is unknown, before resetting to zero.
const percentageWrapLimit = 199

const percentageStep = 2

// historyEntry is one sample in the rolling average-rate window.
type historyEntry struct {
	elapsedSeconds float64
	totalWritten   int64
}

// Config configures a Calculator for the lifetime of one transfer.
type Config struct {
	// Bits reports rates in bits/s instead of bytes/s.
	Bits bool
	// Size is the known total transfer size in bytes; zero or negative
	// means unknown, switching the percentage into oscillation mode.
	Size int64
	// HistoryInterval is the minimum spacing, in seconds, between two
	// consecutive entries kept in the average-rate history ring.
	HistoryInterval float64
	// HistoryLength is the capacity of the average-rate history ring.
	HistoryLength int
	// InitialOffset is subtracted from total bytes written when computing
	// the final whole-transfer average rate (bytes already present before
	// this invocation started, e.g. when resuming store-and-forward).
	InitialOffset int64
	// Histogram, when true, additionally records every instantaneous rate
	// sample into an HDR histogram so --show-stats can report percentiles
	// alongside the running min/max/mean the calculator already tracks.
	Histogram bool
}

// Result is a snapshot of calculated transfer state, produced by each call
// to Update.
type Result struct {
	TransferRate float64
	AverageRate  float64
	Percentage   int
}

// Calculator accumulates transfer samples and derives rate, average rate,
// and percentage completion.
type Calculator struct {
	cfg Config

	history      []historyEntry
	historyFirst int
	historyLast  int
	historyCount int
	currentAvg   float64

	prevTotalWritten  int64
	prevElapsedSec    float64
	prevRate          float64
	prevTrans         int64
	measurementsTaken int64

	rateMin       float64
	rateMax       float64
	rateSum       float64
	rateSumSq     float64
	percentage    int
	transferRate  float64
	averageRate   float64

	hist *hdrhistogram.Histogram
}

// histMinValue, histMaxValue, and histSigFigs bound the HDR histogram's
// tracked range: 1 byte/s to 100 GiB/s at 3 significant figures, wide
// enough for anything from a dial-up link to local NVMe.
const (
	histMinValue = 1
	histMaxValue = 100 * 1024 * 1024 * 1024
	histSigFigs  = 3
)

// HistorySizing derives the average-rate history ring's length and minimum
// sample interval from the configured averaging window, in seconds: windows
// under 20s keep one entry per second, longer windows sample every 5s.
func HistorySizing(windowSeconds float64) (length int, interval float64) {
	if windowSeconds < 20 {
		return int(windowSeconds) + 1, 1
	}

	return int(windowSeconds/5) + 1, 5
}

// MaxETASeconds is the ceiling applied to any computed ETA (~100,000 hours),
// beyond which the estimate is considered meaningless rather than precise.
const MaxETASeconds = 360000000

// ETASeconds computes the estimated remaining seconds for a transfer of the
// given total size, given bytes already transferred and the current average
// rate, clamped to [0, MaxETASeconds].
func ETASeconds(size, transferred int64, averageRate float64) float64 {
	if averageRate <= 0 {
		return MaxETASeconds
	}

	eta := float64(size-transferred) / averageRate
	if eta < 0 {
		eta = 0
	}

	if eta > MaxETASeconds {
		eta = MaxETASeconds
	}

	return eta
}

// New creates a Calculator. A HistoryLength of zero disables average-rate
// history tracking (current-rate sampling still works).
func New(cfg Config) *Calculator {
	c := &Calculator{cfg: cfg}

	if cfg.HistoryLength > 0 {
		c.history = make([]historyEntry, cfg.HistoryLength)
	}

	if cfg.Histogram {
		c.hist = hdrhistogram.New(histMinValue, histMaxValue, histSigFigs)
	}

	return c
}

// Update advances the calculator with a new (elapsedSeconds, totalWritten)
// sample and returns the resulting rate/percentage snapshot. When final is
// true, TransferRate and AverageRate are recomputed as the rate across the
// whole transfer rather than the current instantaneous/windowed rate.
func (c *Calculator) Update(elapsedSeconds float64, totalWritten int64, final bool) Result {
	var bytesSinceLast int64
	if totalWritten >= 0 {
		bytesSinceLast = totalWritten - c.prevTotalWritten
		c.prevTotalWritten = totalWritten
	}

	timeSinceLast := elapsedSeconds - c.prevElapsedSec

	var transferRate float64

	if timeSinceLast <= minUpdateInterval {
		transferRate = c.prevRate
		c.prevTrans += bytesSinceLast
	} else {
		transferRate = (float64(bytesSinceLast) + float64(c.prevTrans)) / timeSinceLast

		c.prevElapsedSec = elapsedSeconds
		c.prevTrans = 0

		measuredRate := transferRate
		if c.cfg.Bits {
			measuredRate *= 8
		}

		c.recordMeasurement(measuredRate)
	}

	c.prevRate = transferRate

	c.updateHistory(elapsedSeconds, totalWritten, transferRate)
	averageRate := c.currentAvg

	if final {
		if elapsedSeconds < 0.000001 {
			elapsedSeconds = 0.000001
		}

		averageRate = (float64(totalWritten) - float64(c.cfg.InitialOffset)) / elapsedSeconds
		transferRate = averageRate
	}

	c.transferRate = transferRate
	c.averageRate = averageRate

	c.updatePercentage(totalWritten, transferRate)

	return Result{
		TransferRate: c.transferRate,
		AverageRate:  c.averageRate,
		Percentage:   c.percentage,
	}
}

func (c *Calculator) recordMeasurement(measuredRate float64) {
	if c.measurementsTaken < 1 || measuredRate < c.rateMin {
		c.rateMin = measuredRate
	}

	if measuredRate > c.rateMax {
		c.rateMax = measuredRate
	}

	c.rateSum += measuredRate
	c.rateSumSq += measuredRate * measuredRate
	c.measurementsTaken++

	if c.hist != nil && measuredRate >= 0 {
		_ = c.hist.RecordValue(int64(measuredRate))
	}
}

func (c *Calculator) updateHistory(elapsedSeconds float64, totalWritten int64, rate float64) {
	if len(c.history) == 0 {
		c.currentAvg = rate

		return
	}

	lastElapsed := c.history[c.historyLast].elapsedSeconds

	if lastElapsed > 0 && elapsedSeconds < lastElapsed+c.cfg.HistoryInterval {
		return
	}

	first := c.historyFirst
	last := c.historyLast

	if lastElapsed > 0 {
		length := len(c.history)
		last = (last + 1) % length
		c.historyLast = last

		if last == first {
			first = (first + 1) % length
			c.historyFirst = first
		}
	}

	c.history[last] = historyEntry{elapsedSeconds: elapsedSeconds, totalWritten: totalWritten}

	if first == last {
		c.currentAvg = rate

		return
	}

	bytes := c.history[last].totalWritten - c.history[first].totalWritten
	seconds := c.history[last].elapsedSeconds - c.history[first].elapsedSeconds

	if seconds != 0 {
		c.currentAvg = float64(bytes) / seconds
	}
}

func (c *Calculator) updatePercentage(totalWritten int64, transferRate float64) {
	if c.cfg.Size <= 0 {
		if transferRate > 0 {
			c.percentage += percentageStep
		}

		if c.percentage > percentageWrapLimit {
			c.percentage = 0
		}
	} else {
		c.percentage = percentage(totalWritten, c.cfg.Size)
	}

	if c.percentage < 0 {
		c.percentage = 0
	}

	const percentageCeiling = 100000
	if c.percentage > percentageCeiling {
		c.percentage = percentageCeiling
	}
}

func percentage(written, size int64) int {
	if size <= 0 {
		return 0
	}

	const full = 100

	return int((written * full) / size)
}

// Stats summarises the rate samples taken so far, for --show-stats. P50/P95
// are zero unless the Calculator was configured with Histogram: true.
type Stats struct {
	Min   float64
	Max   float64
	Mean  float64
	Count int64
	P50   float64
	P95   float64
}

// Snapshot returns the running rate statistics, including histogram-derived
// percentiles when the calculator was configured with Histogram: true.
func (c *Calculator) Snapshot() Stats {
	stats := Stats{
		Min:  c.rateMin,
		Max:  c.rateMax,
		Count: c.measurementsTaken,
	}

	if c.measurementsTaken > 0 {
		stats.Mean = c.rateSum / float64(c.measurementsTaken)
	}

	if c.hist != nil {
		stats.P50 = float64(c.hist.ValueAtQuantile(50))
		stats.P95 = float64(c.hist.ValueAtQuantile(95))
	}

	return stats
}
