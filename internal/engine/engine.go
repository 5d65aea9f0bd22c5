// Package engine implements the main loop that composes the clock, signal
// supervisor, rate calculator, format renderer, display driver, transfer
// core, and remote receiver into one running transfer.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/joe/pipeview/internal/clock"
	"github.com/joe/pipeview/internal/config"
	"github.com/joe/pipeview/internal/display"
	"github.com/joe/pipeview/internal/format"
	"github.com/joe/pipeview/internal/ratecalc"
	"github.com/joe/pipeview/internal/remote"
	"github.com/joe/pipeview/internal/sigterm"
	"github.com/joe/pipeview/internal/transfer"
)

// Exit status bits, combined by bitwise-or into Run's return value.
const (
	ExitAccessError   = 1 << 1
	ExitSameFile      = 1 << 2
	ExitCloseError    = 1 << 3
	ExitTransferError = 1 << 4
	ExitSignalled     = 1 << 5
	ExitAllocFailure  = 1 << 6
)

// remoteCheckInterval is the cadence at which the loop drains a pending
// remote-control message, shorter than any sane display interval.
const remoteCheckInterval = 100 * time.Millisecond

// rateBurstWindow sizes the token bucket's burst allowance as a multiple
// of the per-second rate limit.
const rateBurstWindow = 5.0

// pipeDrainSleep bounds the busy-spin while waiting for a slow consumer to
// drain the last bytes sitting in the output pipe.
const pipeDrainSleep = 50 * time.Millisecond

const defaultTerminalWidth = 80

// Engine pumps one transfer to completion, driving the transfer core, rate
// calculator, and display on the cadence section 4.1 describes.
type Engine struct {
	cfg *config.Config

	sup     *sigterm.Supervisor
	recv    *remote.Receiver
	calc    *ratecalc.Calculator
	render  *format.Renderer
	driver  *display.Driver
	xfer    *transfer.Transfer
	output  transfer.OutputSink

	// saf is non-nil only during the swallow phase; startStoreAndForwardReplay
	// clears it once replay begins so EOF is never mistaken for "swallow
	// again". safCleanup stays set for the whole run so teardown can always
	// remove the swallow file.
	saf        *transfer.StoreAndForward
	safCleanup *transfer.StoreAndForward

	files   []string
	fileIdx int
	input   transfer.InputSource

	outputIsPipe bool

	name string

	width       int
	height      int
	widthManual bool

	bits  bool
	units format.UnitStyle

	sizeBytes  int64
	stopAtSize bool
	quiet      bool
	numeric    bool
	wait       bool
	delayStart float64

	rateLimit int64
	burstCap  float64
	target    float64
	lastTopUp clock.Time

	start          time.Time
	startMono      clock.Time
	nextUpdate     clock.Time
	nextRemoteCheck clock.Time

	writtenStarted bool

	maxRateSeen float64
	gaugeMode   bool

	previousWidth int

	showStats bool
	verbose   bool

	accessError  bool
	closeError   bool
	sameFileHit  bool

	metrics *prometheusMetrics
}

// New constructs an Engine from a fully resolved configuration. It opens
// the first input and the output, builds the format renderer from either
// the explicit format string or the display switches given, and wires the
// signal supervisor, remote receiver, rate calculator, and display driver.
func New(cfg *config.Config) (*Engine, error) {
	formatString := composeFormat(cfg)

	renderer, err := format.Compile(formatString)
	if err != nil {
		return nil, fmt.Errorf("failed to compile format string %q: %w", formatString, err)
	}

	files := cfg.Files
	if len(files) == 0 {
		files = []string{"-"}
	}

	e := &Engine{
		cfg:        cfg,
		render:     renderer,
		files:      files,
		name:       displayName(cfg, files[0]),
		bits:       cfg.Bits,
		sizeBytes:  cfg.SizeBytes,
		stopAtSize: cfg.StopAtSize,
		quiet:      cfg.Quiet,
		wait:       cfg.Wait,
		delayStart: cfg.DelayStart,
		rateLimit:  cfg.RateLimitBytes,
		gaugeMode:  cfg.RateGauge,
		showStats:  cfg.ShowStats,
		verbose:    cfg.Verbose,
	}

	switch cfg.Units {
	case config.UnitsIEC:
		e.units = format.UnitsIEC
	case config.UnitsBits:
		e.units = format.UnitsSI
		e.bits = true
	default:
		e.units = format.UnitsSI
	}

	if e.rateLimit > 0 {
		e.burstCap = float64(e.rateLimit) * rateBurstWindow
	}

	input, err := e.openNextInput()
	if err != nil {
		return nil, err
	}

	e.input = input

	output, outputIsPipe, err := openOutput()
	if err != nil {
		_ = input.Close()

		return nil, err
	}

	e.output = output
	e.outputIsPipe = outputIsPipe

	if cfg.StoreAndForward != "" {
		safSink, saf, err := transfer.OpenStoreAndForward(cfg.StoreAndForward)
		if err != nil {
			_ = input.Close()

			return nil, err
		}

		e.saf = saf
		e.safCleanup = saf
		e.output = safSink
		e.outputIsPipe = false
	}

	historyLen, historyInterval := ratecalc.HistorySizing(cfg.AverageWindow)

	e.calc = ratecalc.New(ratecalc.Config{
		Bits:            e.bits,
		Size:            e.sizeBytes,
		HistoryInterval: historyInterval,
		HistoryLength:   historyLen,
		Histogram:       cfg.ShowStats || cfg.Verbose,
	})

	e.xfer = transfer.New(transferConfig(cfg, renderer))

	e.width, e.height, e.widthManual = resolveDimensions(cfg)

	recv, err := remote.NewReceiver()
	if err != nil {
		return nil, err
	}

	e.recv = recv

	mode := display.ModeDefault

	switch {
	case cfg.Numeric:
		mode = display.ModeNumeric
		e.numeric = true
	case cfg.Cursor:
		mode = display.ModeCursor
	}

	e.driver = display.New(display.Config{
		Mode:  mode,
		Extra: parseExtraDisplay(cfg.ExtraDisplay),
		Force: cfg.Force,
		Suspended: func() bool {
			return e.sup != nil && e.sup.SuspendStderr()
		},
		Foreground: func() bool {
			return isForeground(os.Stderr.Fd())
		},
	})

	if cfg.PrometheusAddr != "" {
		e.metrics = newPrometheusMetrics()
		e.metrics.serve(cfg.PrometheusAddr)
	}

	return e, nil
}

// parseExtraDisplay turns a comma-separated --extra-display value into the
// display package's bitmask.
func parseExtraDisplay(spec string) display.ExtraDisplay {
	var mask display.ExtraDisplay

	for _, part := range strings.Split(spec, ",") {
		switch strings.TrimSpace(part) {
		case "window-title":
			mask |= display.ExtraWindowTitle
		case "process-title":
			mask |= display.ExtraProcessTitle
		case "both":
			mask |= display.ExtraWindowTitle | display.ExtraProcessTitle
		}
	}

	return mask
}

// Run pumps the transfer to completion and returns the exit-status bitmask
// described in section 7.
func (e *Engine) Run() int {
	e.start = time.Now()
	e.startMono = clock.Source()
	e.sup = sigterm.New(e.start)

	defer e.sup.Close()

	delay := e.delayStart
	if e.cfg.Interval > delay {
		delay = e.cfg.Interval
	}

	e.nextUpdate = e.startMono.AddNanoseconds(int64(delay * float64(time.Second)))
	e.nextRemoteCheck = e.startMono

	status := e.pump()

	e.teardown()

	if e.accessError {
		status |= ExitAccessError
	}

	if e.sameFileHit {
		status |= ExitSameFile
	}

	if e.closeError {
		status |= ExitCloseError
	}

	return status
}

func (e *Engine) pump() int {
	eofIn := false
	eofOut := false
	final := false

	for {
		now := clock.Source()

		if now.Compare(e.nextRemoteCheck) >= 0 {
			e.applyRemote()
			e.nextRemoteCheck = now.AddNanoseconds(int64(remoteCheckInterval))
		}

		if e.sup.TriggerExit() {
			return ExitSignalled
		}

		cansend := int64(-1)

		if e.rateLimit > 0 {
			elapsedTop := now.Subtract(e.lastTopUp).Seconds()
			e.lastTopUp = now
			e.target += float64(e.rateLimit) * elapsedTop

			if e.target > e.burstCap {
				e.target = e.burstCap
			}

			cansend = int64(e.target)
			if cansend < 0 {
				cansend = 0
			}
		}

		if e.stopAtSize && e.sizeBytes > 0 {
			remaining := e.sizeBytes - e.xfer.TotalWritten()
			if remaining < 0 {
				remaining = 0
			}

			if cansend < 0 || cansend > remaining {
				cansend = remaining
			}

			if cansend == 0 {
				eofIn = true
				eofOut = true
			}
		}

		if !eofIn || !eofOut {
			result, err := e.xfer.Step(e.input, e.output, cansend)
			if err != nil {
				if e.sup.PipeClosed() || errors.Is(err, os.ErrClosed) {
					eofOut = true
				} else {
					return ExitTransferError
				}
			}

			if result.Warning != "" {
				fmt.Fprintln(os.Stderr, result.Warning)
			}

			if e.rateLimit > 0 {
				e.target -= float64(result.BytesWritten)
			}

			if result.EOFIn {
				eofIn = true
			}

			if result.EOFOut {
				eofOut = true
			}
		}

		inPipeBytes := int64(0)

		if e.outputIsPipe {
			if fd, ok := e.output.Fd(); ok {
				if n, ok := pipeUnreadBytes(fd); ok {
					inPipeBytes = n
				} else {
					e.sup.SetPipeClosed()
				}
			}
		}

		e.xfer.SetWrittenNotConsumed(inPipeBytes)

		if eofIn && eofOut {
			if advanced := e.advanceInput(); advanced {
				eofIn = false
				eofOut = false

				continue
			}

			if replayed := e.startStoreAndForwardReplay(); replayed {
				eofIn = false
				eofOut = false

				continue
			}

			if e.xfer.Transferred() >= e.xfer.TotalWritten() {
				final = true
				e.nextUpdate = now
			} else {
				time.Sleep(pipeDrainSleep)

				continue
			}
		}

		if e.wait && !e.writtenStarted {
			if e.xfer.TotalWritten() > 0 {
				e.writtenStarted = true
				e.start = time.Now()
				e.startMono = now
				e.sup = restartSupervisor(e.sup, e.start)
			} else {
				if final {
					return e.finalStatus()
				}

				continue
			}
		}

		if now.Compare(e.nextUpdate) < 0 {
			if final {
				e.tick(now, true)

				return e.finalStatus()
			}

			continue
		}

		e.nextUpdate = e.nextUpdate.AddNanoseconds(int64(e.cfg.Interval * float64(time.Second)))
		if e.nextUpdate.Compare(now) < 0 {
			e.nextUpdate = now
		}

		if e.sup.ConsumeResize() {
			e.refreshDimensions()
		}

		e.tick(now, final)

		if final {
			return e.finalStatus()
		}
	}
}

func (e *Engine) finalStatus() int {
	if e.sup.TriggerExit() {
		return ExitSignalled
	}

	return 0
}

func (e *Engine) tick(now clock.Time, final bool) {
	elapsed := e.sup.ElapsedSeconds(time.Now())

	result := e.calc.Update(elapsed, e.xfer.Transferred(), final)

	if result.TransferRate > e.maxRateSeen {
		e.maxRateSeen = result.TransferRate
	}

	if e.metrics != nil {
		e.metrics.update(e.xfer.Transferred(), result.TransferRate, result.AverageRate, result.Percentage, e.sizeBytes > 0)
	}

	if e.quiet {
		return
	}

	if e.sup.ConsumeCursorReinit() {
		e.driver.Reinit()
	}

	pct, known := e.xfer.BufferPercent()

	state := format.State{
		Name:               e.name,
		Bits:               e.bits,
		Units:              e.units,
		SizeKnown:          e.sizeBytes > 0,
		Size:               e.sizeBytes,
		Transferred:        e.xfer.Transferred(),
		Percentage:         result.Percentage,
		GaugeMode:          e.gaugeMode,
		MaxRateSeen:        e.maxRateSeen,
		TransferRate:       result.TransferRate,
		AverageRate:        result.AverageRate,
		ElapsedSeconds:     elapsed,
		ETASeconds:         ratecalc.ETASeconds(e.sizeBytes, e.xfer.Transferred(), result.AverageRate),
		FinalUpdate:        final,
		Now:                time.Now(),
		BufferPercentKnown: known,
		BufferPercent:      pct,
		LastWritten:        e.xfer.LastWritten(),
		PreviousLine:       e.xfer.PreviousLine(),
		ColorsEnabled:      format.ColorsEnabled(e.cfg.Force),
		PreviousWidth:      e.previousWidth,
	}

	var line string
	if e.numeric {
		line = e.render.RenderNumeric(state)
	} else {
		line = e.render.Render(state, e.width)
	}

	e.previousWidth = format.VisibleWidth(line)

	if err := e.driver.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "pipeview: display: %v\n", err)
	}
}

func (e *Engine) applyRemote() {
	msg, ok, err := e.recv.Poll()
	if err != nil || !ok {
		return
	}

	e.applyRemoteMessage(msg)
}

func (e *Engine) applyRemoteMessage(msg remote.Message) {
	formatChanged := false

	if msg.FormatSet {
		formatString := msg.Format
		if formatString == "" {
			formatString = format.DefaultFormat
		}

		if renderer, err := format.Compile(formatString); err == nil {
			e.render = renderer
			formatChanged = true
		}
	}

	if msg.NameSet {
		e.name = msg.Name
	}

	if !formatChanged && anyRemoteDisplaySwitch(msg) {
		e.render, _ = format.Compile(composeFormatFromMessage(msg))
	}

	if msg.RateLimit > 0 {
		e.rateLimit = int64(msg.RateLimit)
		e.burstCap = float64(e.rateLimit) * rateBurstWindow
	}

	if msg.Size > 0 {
		e.sizeBytes = int64(msg.Size)
	}

	if msg.Interval > 0 {
		e.cfg.Interval = msg.Interval
	}

	if msg.WidthManual {
		e.width = clampInt(msg.Width, 1, 999999)
		e.widthManual = true
	}

	if msg.HeightManual {
		e.height = clampInt(msg.Height, 1, 999999)
	}
}

func (e *Engine) teardown() {
	if e.driver != nil && e.driver.WroteOnce() {
		fmt.Fprintln(os.Stderr)
	}

	if e.showStats || e.verbose {
		stats := e.calc.Snapshot()
		if e.bits {
			// The calculator records samples in bits/s under --bits, and
			// FormatRate takes bytes/s and applies the factor itself.
			stats.Min /= 8
			stats.Mean /= 8
			stats.Max /= 8
			stats.P50 /= 8
			stats.P95 /= 8
		}

		if stats.Count > 0 {
			fmt.Fprintf(os.Stderr, "rate min/avg/max %s/%s/%s\n",
				format.FormatRate(stats.Min, e.bits, e.units),
				format.FormatRate(stats.Mean, e.bits, e.units),
				format.FormatRate(stats.Max, e.bits, e.units))

			if e.verbose {
				fmt.Fprintf(os.Stderr, "rate p50/p95 %s/%s\n",
					format.FormatRate(stats.P50, e.bits, e.units),
					format.FormatRate(stats.P95, e.bits, e.units))
			}
		}
	}

	if e.verbose {
		fmt.Fprintf(os.Stderr, "total transferred: %s\n", format.FormatBytes(e.xfer.TotalWritten(), e.bits, e.units))
	}

	if e.input != nil {
		if err := e.input.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "pipeview: %v\n", err)
			e.closeError = true
		}
	}

	if e.output != nil {
		if err := e.output.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "pipeview: %v\n", err)
			e.closeError = true
		}
	}

	if e.safCleanup != nil {
		_ = e.safCleanup.Cleanup()
	}
}

// openNextInput opens the next readable file in e.files, or returns a
// "no readable input" error when the list is exhausted.
func (e *Engine) openNextInput() (transfer.InputSource, error) {
	for e.fileIdx < len(e.files) {
		name := e.files[e.fileIdx]
		e.fileIdx++

		if name != "-" && isSameFileAsStdout(name) {
			fmt.Fprintf(os.Stderr, "pipeview: %s: same file as output\n", name)
			e.sameFileHit = true

			continue
		}

		src, err := transfer.OpenFileSource(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeview: %v\n", err)
			e.accessError = true

			continue
		}

		return src, nil
	}

	return nil, fmt.Errorf("no readable input")
}

// advanceInput closes the exhausted input and opens the next one in the
// list, reporting whether one was available.
func (e *Engine) advanceInput() bool {
	if e.fileIdx >= len(e.files) {
		return false
	}

	_ = e.input.Close()

	next, err := e.openNextInput()
	if err != nil {
		return false
	}

	e.input = next

	return true
}

// startStoreAndForwardReplay switches from the swallow phase to the replay
// phase once the real input has been fully consumed into the swallow file.
func (e *Engine) startStoreAndForwardReplay() bool {
	if e.saf == nil {
		return false
	}

	saf := e.saf
	e.saf = nil

	_ = e.output.Close()

	replaySource, err := saf.ReopenForReplay()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeview: %v\n", err)

		return false
	}

	_ = e.input.Close()
	e.input = replaySource

	output, outputIsPipe, err := openOutput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeview: %v\n", err)

		return false
	}

	e.output = output
	e.outputIsPipe = outputIsPipe

	return true
}

func (e *Engine) refreshDimensions() {
	if e.widthManual {
		return
	}

	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err == nil && width > 0 {
		e.width = width
	}
}

// resolveDimensions picks the engine's initial terminal width, preferring
// an explicit --width override, falling back to the actual terminal size
// or a sane default when standard error isn't a terminal.
func resolveDimensions(cfg *config.Config) (width, height int, manual bool) {
	if cfg.Width > 0 {
		return cfg.Width, cfg.Height, true
	}

	w, h, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return defaultTerminalWidth, cfg.Height, false
	}

	return w, h, false
}

// isSameFileAsStdout reports whether name names the same file standard
// output is currently connected to, to reject a transfer that would read
// and write the same regular file.
func isSameFileAsStdout(name string) bool {
	in, err := os.Stat(name)
	if err != nil {
		return false
	}

	out, err := os.Stdout.Stat()
	if err != nil {
		return false
	}

	return os.SameFile(in, out)
}

func openOutput() (transfer.OutputSink, bool, error) {
	sink := transfer.NewStdoutSink()

	info, err := os.Stdout.Stat()
	if err != nil {
		return sink, false, nil
	}

	return sink, info.Mode()&os.ModeNamedPipe != 0, nil
}

func transferConfig(cfg *config.Config, renderer *format.Renderer) transfer.Config {
	lastCap, usesLast := renderer.LastWrittenCap()
	if cfg.LastWritten > lastCap {
		lastCap = cfg.LastWritten
		usesLast = usesLast || cfg.LastWritten > 0
	}

	prevCap, usesPrev := renderer.PreviousLineCap()

	tc := transfer.Config{
		BufferSize:          cfg.BufferSizeBytes,
		LineMode:            cfg.LineMode,
		NullDelimited:       cfg.NullDelimited,
		Discard:             cfg.Discard,
		Sync:                cfg.Sync,
		DirectIO:            cfg.DirectIO,
		NoSplice:            cfg.NoSplice || renderer.UsesBufferPercent(),
		SkipErrorsCount:     cfg.SkipErrorsCount,
		ErrorSkipBlockBytes: cfg.ErrorSkipBlockBytes,
	}

	if usesLast {
		tc.LastWrittenCap = lastCap
	}

	if usesPrev {
		tc.PreviousLineCap = prevCap
	}

	return tc
}

func displayName(cfg *config.Config, firstFile string) string {
	if cfg.Name != "" {
		return cfg.Name
	}

	if firstFile == "-" {
		return ""
	}

	return firstFile
}

// composeFormat builds the format string the renderer compiles from,
// honouring an explicit --format override first, then the individual
// display switches, and falling back to the mode-appropriate default when
// none were given.
func composeFormat(cfg *config.Config) string {
	if cfg.Format != "" {
		return cfg.Format
	}

	if !anyDisplaySwitch(cfg.Progress, cfg.Timer, cfg.ETA, cfg.FinalETA, cfg.Rate,
		cfg.AverageRate, cfg.Bytes, cfg.BufferPercent, cfg.LastWritten > 0) {
		if cfg.Numeric {
			return format.NumericDefaultFormat
		}

		return format.DefaultFormat
	}

	var b strings.Builder

	if cfg.Name != "" {
		b.WriteString("%N")
	}

	if cfg.Timer {
		b.WriteString("%t ")
	}

	if cfg.Bytes {
		b.WriteString("%b ")
	}

	if cfg.BufferPercent {
		b.WriteString("%T ")
	}

	if cfg.LastWritten > 0 {
		fmt.Fprintf(&b, "%%%dA ", cfg.LastWritten)
	}

	if cfg.Rate {
		b.WriteString("%r ")
	}

	if cfg.AverageRate {
		b.WriteString("%a ")
	}

	if cfg.Progress {
		b.WriteString("%p ")
	}

	if cfg.ETA {
		b.WriteString("%e ")
	}

	if cfg.FinalETA {
		b.WriteString("%I ")
	}

	return strings.TrimSpace(b.String())
}

func anyDisplaySwitch(switches ...bool) bool {
	for _, s := range switches {
		if s {
			return true
		}
	}

	return false
}

func anyRemoteDisplaySwitch(msg remote.Message) bool {
	return msg.Progress || msg.Timer || msg.ETA || msg.FinalETA || msg.Rate ||
		msg.AverageRate || msg.Bytes || msg.BufferPercent || msg.LastWritten > 0
}

func composeFormatFromMessage(msg remote.Message) string {
	var b strings.Builder

	if msg.Timer {
		b.WriteString("%t ")
	}

	if msg.Bytes {
		b.WriteString("%b ")
	}

	if msg.BufferPercent {
		b.WriteString("%T ")
	}

	if msg.LastWritten > 0 {
		fmt.Fprintf(&b, "%%%dA ", msg.LastWritten)
	}

	if msg.Rate {
		b.WriteString("%r ")
	}

	if msg.AverageRate {
		b.WriteString("%a ")
	}

	if msg.Progress {
		b.WriteString("%p ")
	}

	if msg.ETA {
		b.WriteString("%e ")
	}

	if msg.FinalETA {
		b.WriteString("%I ")
	}

	return strings.TrimSpace(b.String())
}

func clampInt(n, lo, hi int) int {
	switch {
	case n < lo:
		return lo
	case n > hi:
		return hi
	default:
		return n
	}
}

// restartSupervisor tears down the old supervisor and installs a fresh one
// anchored at the new start time, used by --wait once the first byte
// arrives: elapsed time must be measured from that moment, not process
// start.
func restartSupervisor(old *sigterm.Supervisor, start time.Time) *sigterm.Supervisor {
	old.Close()

	return sigterm.New(start)
}
