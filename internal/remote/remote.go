// Package remote lets one pipeview instance change another running
// instance's display options, via a small per-pid mailbox file under
// $XDG_RUNTIME_DIR (or $HOME/.pv as a fallback).
package remote

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Message is the subset of control config a remote sender can change on a
// running instance. Zero-value bools/numbers mean "leave unchanged"; Name
// and Format use the Set flags below to distinguish "leave unchanged" from
// "reset to empty", since an empty string is itself a valid explicit value.
type Message struct {
	Progress      bool
	Timer         bool
	ETA           bool
	FinalETA      bool
	Rate          bool
	AverageRate   bool
	Bytes         bool
	BufferPercent bool

	LastWritten int

	RateLimit  uint64
	BufferSize uint64
	Size       uint64
	Interval   float64

	Width        int
	Height       int
	WidthManual  bool
	HeightManual bool

	Name       string
	NameSet    bool
	Format     string
	FormatSet  bool
}

// maxNameLen and maxFormatLen mirror the upstream's 255-byte (plus
// terminator) limits on the name and format fields of the wire message.
const (
	maxNameLen   = 255
	maxFormatLen = 255
)

// clampInterval bounds a sender-supplied interval to the range the
// receiver accepts.
func clampInterval(interval float64) float64 {
	switch {
	case interval < 0.1:
		return 0.1
	case interval > 600:
		return 600
	default:
		return interval
	}
}

// clampDimension bounds a sender-supplied width/height.
func clampDimension(n int) int {
	switch {
	case n < 1:
		return 1
	case n > 999999:
		return 999999
	default:
		return n
	}
}

// queueDir returns the directory mailbox files live in: $XDG_RUNTIME_DIR if
// set, else $HOME/.pv.
func queueDir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve remote-control queue directory: %w", err)
	}

	dir := filepath.Join(home, ".pv")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create remote-control queue directory: %w", err)
	}

	return dir, nil
}

func mailboxPath(dir string, pid int) string {
	return filepath.Join(dir, fmt.Sprintf("pipeview-%d.msg", pid))
}

func encode(msg Message) ([]byte, error) {
	if len(msg.Name) > maxNameLen {
		msg.Name = msg.Name[:maxNameLen]
	}

	if len(msg.Format) > maxFormatLen {
		msg.Format = msg.Format[:maxFormatLen]
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, fmt.Errorf("failed to encode remote-control message: %w", err)
	}

	return buf.Bytes(), nil
}

func decode(data []byte) (Message, error) {
	var msg Message
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&msg); err != nil {
		return Message{}, fmt.Errorf("failed to decode remote-control message: %w", err)
	}

	return msg, nil
}

// pollInterval and pollTimeout match the upstream's 10ms/1.1s drain wait.
const (
	pollInterval = 10 * time.Millisecond
	pollTimeout  = 1100 * time.Millisecond
)

// Send enqueues msg for the process identified by pid, waiting for it to be
// drained (deleted by the receiver) for up to 1.1s before withdrawing the
// message and reporting failure. It first checks the target process
// exists.
func Send(pid int, msg Message) error {
	if err := checkProcessExists(pid); err != nil {
		return err
	}

	msg.Interval = clampInterval(msg.Interval)
	if msg.WidthManual {
		msg.Width = clampDimension(msg.Width)
	}

	if msg.HeightManual {
		msg.Height = clampDimension(msg.Height)
	}

	dir, err := queueDir()
	if err != nil {
		return err
	}

	path := mailboxPath(dir, pid)

	data, err := encode(msg)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write remote-control message: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to enqueue remote-control message: %w", err)
	}

	deadline := time.Now().Add(pollTimeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}

		time.Sleep(pollInterval)
	}

	_ = os.Remove(path)

	return fmt.Errorf("target process %d did not drain the remote-control message in time", pid)
}

// Receiver is the non-blocking dequeue side, polled once per main-loop
// iteration at the cadence described in section 4.1.
type Receiver struct {
	path string
}

// NewReceiver opens the mailbox for the current process.
func NewReceiver() (*Receiver, error) {
	dir, err := queueDir()
	if err != nil {
		return nil, err
	}

	return &Receiver{path: mailboxPath(dir, os.Getpid())}, nil
}

// Poll performs a non-blocking check for a pending message, removing it from
// the mailbox if one is found so the sender's drain-wait succeeds.
func (r *Receiver) Poll() (Message, bool, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return Message{}, false, nil
	}

	if err != nil {
		// Terminal queue errors reopen the queue: stat/read failures other
		// than "not found" are treated as transient and simply retried
		// next poll, rather than propagated as fatal.
		return Message{}, false, nil //nolint:nilerr
	}

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Message{}, false, fmt.Errorf("failed to dequeue remote-control message: %w", err)
	}

	msg, err := decode(data)
	if err != nil {
		return Message{}, false, err
	}

	return msg, true, nil
}
