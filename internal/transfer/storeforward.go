package transfer

import (
	"fmt"
	"os"
)

// StoreAndForward opens the swallow file used by --store-and-forward. An
// empty path gets an auto-removed temporary file; a named path is created
// and kept. The engine runs a first phase writing all input to the
// returned sink, then (after input EOF) opens it as a FileSource via
// ReopenForReplay to feed the real output.
type StoreAndForward struct {
	path      string
	temporary bool
}

// OpenStoreAndForward creates the swallow file for the first phase.
func OpenStoreAndForward(path string) (*FileSink, *StoreAndForward, error) {
	temporary := path == ""
	if temporary {
		f, err := os.CreateTemp("", "pipeview-saf-*")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create store-and-forward temp file: %w", err)
		}

		return &FileSink{file: f}, &StoreAndForward{path: f.Name(), temporary: true}, nil
	}

	sink, err := CreateFileSink(path)
	if err != nil {
		return nil, nil, err
	}

	return sink, &StoreAndForward{path: path}, nil
}

// ReopenForReplay opens the swallowed file as the input for the second
// phase, once the first phase has reached end-of-input.
func (s *StoreAndForward) ReopenForReplay() (*FileSource, error) {
	return OpenFileSource(s.path)
}

// Cleanup removes the swallow file if it was a temporary one.
func (s *StoreAndForward) Cleanup() error {
	if !s.temporary {
		return nil
	}

	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("failed to remove store-and-forward temp file: %w", err)
	}

	return nil
}
