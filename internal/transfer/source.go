package transfer

import (
	"fmt"
	"os"
)

// InputSource is the external collaborator the transfer core reads from.
// Locating and opening the next input is outside the transfer core's
// responsibility; the engine supplies one InputSource at a time.
type InputSource interface {
	Read(buf []byte) (int, error)
	// Fd returns the underlying file descriptor and whether one exists
	// (pipes and regular files do; a pure io.Reader wrapper would not).
	Fd() (uintptr, bool)
	Name() string
	Close() error
}

// FileSource opens a named file, or standard input when the name is "-",
// and advises the OS that reads will be sequential.
type FileSource struct {
	name string
	file *os.File
}

// OpenFileSource opens name (or stdin for "-") and applies a sequential
// read hint where the platform supports it.
func OpenFileSource(name string) (*FileSource, error) {
	if name == "-" || name == "" {
		adviseSequential(os.Stdin.Fd())

		return &FileSource{name: "-", file: os.Stdin}, nil
	}

	f, err := os.Open(name) // #nosec G304 -- operator-specified input path
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", name, err)
	}

	adviseSequential(f.Fd())

	return &FileSource{name: name, file: f}, nil
}

func (s *FileSource) Read(buf []byte) (int, error) { return s.file.Read(buf) }

func (s *FileSource) Fd() (uintptr, bool) { return s.file.Fd(), true }

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) Close() error {
	if s.file == os.Stdin {
		return nil
	}

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close input %s: %w", s.name, err)
	}

	return nil
}
