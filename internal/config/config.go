// Package config handles application configuration and command-line argument parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
)

// SizeUnitStyle represents the family of byte-count units used when rendering
// the %b and %r format components.
type SizeUnitStyle int

const (
	// UnitsSI renders powers of 1000 (k, M, G, ...).
	UnitsSI SizeUnitStyle = iota
	// UnitsIEC renders powers of 1024 (Ki, Mi, Gi, ...).
	UnitsIEC
	// UnitsBits renders values in bits rather than bytes.
	UnitsBits
)

// String returns the string representation of SizeUnitStyle.
func (u SizeUnitStyle) String() string {
	switch u {
	case UnitsSI:
		return "si"
	case UnitsIEC:
		return "iec"
	case UnitsBits:
		return "bits"
	default:
		return "unknown"
	}
}

// ParseSizeUnitStyle parses a string into a SizeUnitStyle.
func ParseSizeUnitStyle(s string) (SizeUnitStyle, error) {
	switch strings.ToLower(s) {
	case "si", "":
		return UnitsSI, nil
	case "iec":
		return UnitsIEC, nil
	case "bits":
		return UnitsBits, nil
	default:
		return UnitsSI, fmt.Errorf("invalid unit style: %s (valid: si, iec, bits)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg.
func (u *SizeUnitStyle) UnmarshalText(text []byte) error {
	parsed, err := ParseSizeUnitStyle(string(text))
	if err != nil {
		return err
	}

	*u = parsed

	return nil
}

// Config holds the fully parsed command-line surface for a single pipeview
// invocation. Field groupings mirror spec.md section 6: display switches,
// output modifiers, transfer modifiers, and modes.
type Config struct {
	// Display switches.
	Progress       bool   `arg:"-p,--progress" help:"show a progress bar"`
	Timer          bool   `arg:"-t,--timer" help:"show elapsed time"`
	ETA            bool   `arg:"-e,--eta" help:"show estimated time to completion"`
	FinalETA       bool   `arg:"-I,--fineta" help:"show estimated completion time of day"`
	Rate           bool   `arg:"-r,--rate" help:"show current transfer rate"`
	AverageRate    bool   `arg:"-a,--average-rate" help:"show average transfer rate"`
	Bytes          bool   `arg:"-b,--bytes" help:"show number of bytes (or lines) transferred"`
	BufferPercent  bool   `arg:"-T,--buffer-percent" help:"show percentage of the buffer in use"`
	LastWritten    int    `arg:"-A,--last-written" help:"show last N bytes written"`
	Format         string `arg:"-F,--format" help:"custom format string"`
	Numeric        bool   `arg:"-n,--numeric" help:"emit numeric output instead of a visual display"`
	Quiet          bool   `arg:"-q,--quiet" help:"suppress the default display entirely"`

	// Output modifiers.
	Bits          bool          `arg:"-8,--bits" help:"count and display bits instead of bytes"`
	LineMode      bool          `arg:"-l,--line-mode" help:"count lines instead of bytes"`
	NullDelimited bool          `arg:"-0,--null" help:"lines are delimited by null bytes, not newlines"`
	Wait          bool          `arg:"-W,--wait" help:"wait until the first byte is transferred before starting the timer"`
	DelayStart    float64       `arg:"-D,--delay-start" help:"do not display until this many seconds have elapsed"`
	SizeSpec      string        `arg:"-s,--size" help:"assume the total size, in bytes (suffixes K/M/G/T allowed; '@file' reads a file's size)"`
	Interval      float64       `arg:"-i,--interval" default:"1" help:"output interval, in seconds"`
	AverageWindow float64       `arg:"-m,--average-rate-window" default:"30" help:"number of seconds over which to compute the average rate"`
	Width         int           `arg:"-w,--width" help:"assume terminal width"`
	Height        int           `arg:"-H,--height" help:"assume terminal height"`
	Name          string        `arg:"-N,--name" help:"prefix the display with this name"`
	Units         SizeUnitStyle `arg:"-u,--units" default:"si" help:"unit style for rendered sizes: si|iec|bits"`
	Cursor        bool          `arg:"-c,--cursor" help:"use cursor positioning instead of carriage returns"`
	Verbose       bool          `arg:"-v,--verbose" help:"show verbose diagnostic output"`
	Force         bool          `arg:"-f,--force" help:"output the display even when not a terminal foreground"`
	ShowStats     bool          `arg:"--show-stats" help:"print min/avg/max rate statistics to stderr on exit (no standard deviation is reported)"`
	ExtraDisplay  string        `arg:"-x,--extra-display" help:"also mirror the display to: window-title, process-title, or both (comma-separated)"`

	// Transfer modifiers.
	StoreAndForward string  `arg:"-o,--store-and-forward" help:"buffer all input to this file before replaying it to the output"`
	RateLimit       string  `arg:"-L,--rate-limit" help:"limit transfer to this many bytes per second (suffixes K/M/G/T allowed)"`
	BufferSize      string  `arg:"-B,--buffer-size" help:"use a buffer of this size (suffixes K/M/G/T allowed)"`
	NoSplice        bool    `arg:"-C,--no-splice" help:"never use the zero-copy splice path"`
	SkipErrorsCount int     `arg:"-E,--skip-errors,counter" help:"skip read errors; repeat to suppress all but the first warning per file"`
	ErrorSkipBlock  string  `arg:"-Z,--error-skip-block" help:"round to this block size when skipping a read error (suffixes K/M/G/T allowed)"`
	StopAtSize      bool    `arg:"-S,--stop-at-size" help:"stop at the size given by --size, even if more input is available"`
	Sync            bool    `arg:"-Y,--sync" help:"fsync after every write"`
	Discard         bool    `arg:"-X,--discard" help:"discard output instead of writing it (counters still advance)"`
	DirectIO        bool    `arg:"-K,--direct-io" help:"attempt to toggle O_DIRECT on input and output"`
	RateGauge       bool    `arg:"-g,--rate-gauge" help:"show rate as a percentage of the highest rate seen, for unknown-size transfers"`

	// Modes.
	RemotePID    int    `arg:"-R,--remote" help:"send display options to the pipeview process with this pid"`
	PIDFile      string `arg:"-P,--pidfile" help:"write our own pid to this file"`
	PrometheusAddr string `arg:"--prometheus-addr" help:"serve Prometheus metrics on this address while the transfer runs"`

	// Positional input files; empty means read from stdin.
	Files []string `arg:"positional" help:"input files to transfer (default: standard input)"`

	// Resolved numeric values, filled in by PostProcessConfig from the raw
	// suffixed strings above. Zero means "not set" for each.
	SizeBytes           int64
	RateLimitBytes      int64
	BufferSizeBytes     int64
	ErrorSkipBlockBytes int64
}

// Description returns the program description for go-arg.
func (Config) Description() string {
	return "Monitor the progress of data through a pipe"
}

// Version returns the version string for go-arg.
func (Config) Version() string {
	return "pipeview 1.0.0"
}

// ParseFlags parses command-line flags and returns configuration.
func ParseFlags() (*Config, error) {
	cfg := &Config{
		Interval:      1,
		AverageWindow: 30,
		Units:         UnitsSI,
	}

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// PostProcessConfig applies post-processing logic to a parsed config.
func PostProcessConfig(cfg *Config) (*Config, error) {
	if cfg.RemotePID != 0 {
		// Sender mode: display switches describe what to change remotely,
		// there is nothing local to validate beyond the pid itself.
		if cfg.RemotePID < 0 {
			return nil, fmt.Errorf("invalid remote pid: %d", cfg.RemotePID)
		}

		return cfg, nil
	}

	if err := cfg.ValidateInputs(); err != nil {
		return nil, err
	}

	if err := cfg.resolveSizes(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveSizes parses the suffixed size/rate strings into the numeric
// fields the rest of the program uses.
func (cfg *Config) resolveSizes() error {
	if cfg.SizeSpec != "" {
		if after, ok := strings.CutPrefix(cfg.SizeSpec, "@"); ok {
			info, err := os.Stat(after)
			if err != nil {
				return fmt.Errorf("failed to stat size reference file: %w", err)
			}

			cfg.SizeBytes = info.Size()
		} else {
			n, err := ParseByteSize(cfg.SizeSpec)
			if err != nil {
				return fmt.Errorf("invalid --size: %w", err)
			}

			cfg.SizeBytes = n
		}
	}

	if cfg.RateLimit != "" {
		n, err := ParseByteSize(cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("invalid --rate-limit: %w", err)
		}

		cfg.RateLimitBytes = n
	}

	if cfg.BufferSize != "" {
		n, err := ParseByteSize(cfg.BufferSize)
		if err != nil {
			return fmt.Errorf("invalid --buffer-size: %w", err)
		}

		cfg.BufferSizeBytes = n
	}

	if cfg.ErrorSkipBlock != "" {
		n, err := ParseByteSize(cfg.ErrorSkipBlock)
		if err != nil {
			return fmt.Errorf("invalid --error-skip-block: %w", err)
		}

		cfg.ErrorSkipBlockBytes = n
	}

	return nil
}

// ParseByteSize parses a decimal number, optionally with a fractional part
// and a K/M/G/T (binary, *1024) suffix, the way pv's number parser does.
// Leading non-digit characters are skipped and trailing garbage after the
// suffix is ignored, matching the upstream lenient parser.
func ParseByteSize(s string) (int64, error) {
	runes := []rune(strings.TrimSpace(s))

	i := 0
	for i < len(runes) && (runes[i] < '0' || runes[i] > '9') {
		i++
	}

	if i >= len(runes) {
		return 0, fmt.Errorf("no numeric value found in %q", s)
	}

	whole := int64(0)
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		whole = whole*10 + int64(runes[i]-'0')
		i++
	}

	frac := 0.0
	if i < len(runes) && (runes[i] == '.' || runes[i] == ',') {
		i++

		div := 1.0
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			frac = frac*10 + float64(runes[i]-'0')
			div *= 10
			i++
		}

		if div > 1 {
			frac /= div
		}
	}

	for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t') {
		i++
	}

	shift := 0

	if i < len(runes) {
		switch runes[i] {
		case 'k', 'K':
			shift = 10
		case 'm', 'M':
			shift = 20
		case 'g', 'G':
			shift = 30
		case 't', 'T':
			shift = 40
		}
	}

	result := whole << uint(shift)
	result += int64(frac * float64(int64(1)<<uint(shift)))

	return result, nil
}

// ValidateInputs validates that any explicitly named input files exist and
// are not directories. An empty file list (read from stdin) is always valid.
func (cfg *Config) ValidateInputs() error {
	for _, path := range cfg.Files {
		if path == "-" {
			continue
		}

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return fmt.Errorf("input path does not exist: %s", path)
		}

		if err != nil {
			return fmt.Errorf("cannot access input path: %w", err)
		}

		if info.IsDir() {
			return fmt.Errorf("input path is a directory: %s", path)
		}
	}

	return nil
}
