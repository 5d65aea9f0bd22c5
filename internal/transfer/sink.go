package transfer

import (
	"fmt"
	"os"
)

// OutputSink is the external collaborator the transfer core writes to.
type OutputSink interface {
	Write(buf []byte) (int, error)
	Fd() (uintptr, bool)
	Sync() error
	Close() error
}

// FileSink wraps an *os.File (including stdout) as an OutputSink.
type FileSink struct {
	file *os.File
}

// NewStdoutSink wraps standard output.
func NewStdoutSink() *FileSink { return &FileSink{file: os.Stdout} }

// CreateFileSink creates (or truncates) name for output.
func CreateFileSink(name string) (*FileSink, error) {
	f, err := os.Create(name) // #nosec G304 -- operator-specified output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output %s: %w", name, err)
	}

	return &FileSink{file: f}, nil
}

func (s *FileSink) Write(buf []byte) (int, error) { return s.file.Write(buf) }

func (s *FileSink) Fd() (uintptr, bool) { return s.file.Fd(), true }

func (s *FileSink) Sync() error { return s.file.Sync() }

func (s *FileSink) Close() error {
	if s.file == os.Stdout {
		return nil
	}

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	return nil
}

// DiscardSink accepts writes without doing anything, for --discard: counters
// still advance as though the write happened.
type DiscardSink struct{}

func (DiscardSink) Write(buf []byte) (int, error) { return len(buf), nil }
func (DiscardSink) Fd() (uintptr, bool)            { return 0, false }
func (DiscardSink) Sync() error                    { return nil }
func (DiscardSink) Close() error                   { return nil }
