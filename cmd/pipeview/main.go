// Package main is the entry point for pipeview.
package main

import (
	"fmt"
	"os"

	"github.com/joe/pipeview/internal/config"
	"github.com/joe/pipeview/internal/engine"
	"github.com/joe/pipeview/internal/remote"
	pverrors "github.com/joe/pipeview/pkg/errors"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.RemotePID != 0 {
		os.Exit(runSender(cfg))
	}

	os.Exit(run(cfg))
}

// run drives a normal (non-sender) transfer to completion, writing the pid
// file if requested.
func run(cfg *config.Config) int {
	if cfg.PIDFile != "" {
		if err := writePIDFile(cfg.PIDFile); err != nil {
			reportError(err, cfg.PIDFile)

			return engine.ExitAccessError
		}

		defer os.Remove(cfg.PIDFile)
	}

	e, err := engine.New(cfg)
	if err != nil {
		reportError(err, "")

		return engine.ExitAccessError
	}

	return e.Run()
}

// runSender implements the `-R pid` / `-P file` sender mode: it builds a
// remote-control message from the locally parsed display options and
// enqueues it for the target process, using exit code 1 for its own
// failures per section 7.
func runSender(cfg *config.Config) int {
	pid := cfg.RemotePID
	if cfg.PIDFile != "" {
		readPID, err := readPIDFile(cfg.PIDFile)
		if err != nil {
			reportError(err, cfg.PIDFile)

			return 1
		}

		pid = readPID
	}

	msg := senderMessage(cfg)

	if err := remote.Send(pid, msg); err != nil {
		reportError(err, "")

		return 1
	}

	return 0
}

func senderMessage(cfg *config.Config) remote.Message {
	return remote.Message{
		Progress:      cfg.Progress,
		Timer:         cfg.Timer,
		ETA:           cfg.ETA,
		FinalETA:      cfg.FinalETA,
		Rate:          cfg.Rate,
		AverageRate:   cfg.AverageRate,
		Bytes:         cfg.Bytes,
		BufferPercent: cfg.BufferPercent,
		LastWritten:   cfg.LastWritten,
		RateLimit:     uint64(cfg.RateLimitBytes),
		BufferSize:    uint64(cfg.BufferSizeBytes),
		Size:          uint64(cfg.SizeBytes),
		Interval:      cfg.Interval,
		Width:         cfg.Width,
		Height:        cfg.Height,
		WidthManual:   cfg.Width > 0,
		HeightManual:  cfg.Height > 0,
		Name:          cfg.Name,
		NameSet:       cfg.Name != "",
		Format:        cfg.Format,
		FormatSet:     cfg.Format != "",
	}
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o600) //nolint:gosec // deliberately operator-readable
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-specified pidfile path
	if err != nil {
		return 0, fmt.Errorf("failed to read pidfile %s: %w", path, err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("failed to parse pidfile %s: %w", path, err)
	}

	return pid, nil
}

func reportError(err error, path string) {
	enriched := pverrors.NewEnricher().Enrich(err, path)
	fmt.Fprintln(os.Stderr, enriched.Error())

	if suggestions := pverrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprintln(os.Stderr, suggestions)
	}
}
