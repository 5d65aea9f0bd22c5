package transfer_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/joe/pipeview/internal/transfer"
)

// bufSource is a minimal InputSource backed by an in-memory byte slice, with
// no descriptor, so every test exercises the buffered path regardless of
// platform splice support.
type bufSource struct {
	r *bytes.Reader
}

func newBufSource(data []byte) *bufSource { return &bufSource{r: bytes.NewReader(data)} }

func (s *bufSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *bufSource) Fd() (uintptr, bool)         { return 0, false }
func (s *bufSource) Name() string                { return "test" }
func (s *bufSource) Close() error                { return nil }

type bufSink struct {
	buf bytes.Buffer
}

func (s *bufSink) Write(p []byte) (int, error) { return s.buf.Write(p) }
func (s *bufSink) Fd() (uintptr, bool)          { return 0, false }
func (s *bufSink) Sync() error                  { return nil }
func (s *bufSink) Close() error                 { return nil }

func TestStepCopiesBytesUnlimited(t *testing.T) {
	t.Parallel()

	in := newBufSource([]byte("hello world"))
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024})

	var total int64

	for {
		res, err := tr.Step(in, out, -1)
		if err != nil {
			t.Fatalf("Step error: %v", err)
		}

		total += res.BytesWritten
		if res.EOFIn && res.BytesRead == 0 {
			break
		}
	}

	if out.buf.String() != "hello world" {
		t.Errorf("output = %q, want %q", out.buf.String(), "hello world")
	}

	if tr.TotalWritten() != int64(len("hello world")) {
		t.Errorf("TotalWritten = %d, want %d", tr.TotalWritten(), len("hello world"))
	}
}

func TestStepRespectsCansendLimit(t *testing.T) {
	t.Parallel()

	in := newBufSource([]byte("0123456789"))
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024})

	res, err := tr.Step(in, out, 3)
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}

	if res.BytesWritten != 3 {
		t.Errorf("BytesWritten = %d, want 3", res.BytesWritten)
	}

	if out.buf.String() != "012" {
		t.Errorf("output = %q, want %q", out.buf.String(), "012")
	}
}

func TestStepDiscardAdvancesCountersWithoutWriting(t *testing.T) {
	t.Parallel()

	in := newBufSource([]byte("data"))
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024, Discard: true})

	_, err := tr.Step(in, out, -1)
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}

	if out.buf.Len() != 0 {
		t.Errorf("expected no bytes written under --discard, got %q", out.buf.String())
	}

	if tr.TotalWritten() != 4 {
		t.Errorf("TotalWritten = %d, want 4 even though discarded", tr.TotalWritten())
	}
}

func TestStepLineModeCountsDelimiters(t *testing.T) {
	t.Parallel()

	in := newBufSource([]byte("a\nb\nc"))
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024, LineMode: true})

	_, err := tr.Step(in, out, -1)
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}

	if tr.TotalWritten() != 2 {
		t.Errorf("TotalWritten (lines) = %d, want 2", tr.TotalWritten())
	}
}

func TestLastWrittenAndPreviousLineTracking(t *testing.T) {
	t.Parallel()

	in := newBufSource([]byte("first\nsecond\n"))
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024, LastWrittenCap: 8, PreviousLineCap: 64})

	_, err := tr.Step(in, out, -1)
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}

	if got := string(tr.LastWritten()); got != "\nsecond\n" {
		t.Errorf("LastWritten = %q, want suffix %q", got, "\nsecond\n")
	}

	if got := string(tr.PreviousLine()); got != "second" {
		t.Errorf("PreviousLine = %q, want %q", got, "second")
	}
}

func TestTransferredSubtractsWrittenNotConsumed(t *testing.T) {
	t.Parallel()

	in := newBufSource([]byte("0123456789"))
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024})

	if _, err := tr.Step(in, out, -1); err != nil {
		t.Fatalf("Step error: %v", err)
	}

	tr.SetWrittenNotConsumed(4)

	if got := tr.Transferred(); got != 6 {
		t.Errorf("Transferred = %d, want 6", got)
	}
}

// failingOnceSource returns one transient error, then EOF.
type failingOnceSource struct {
	failed bool
}

func (s *failingOnceSource) Read(p []byte) (int, error) {
	if !s.failed {
		s.failed = true

		return 0, errors.New("device not ready")
	}

	return 0, io.EOF
}

func (s *failingOnceSource) Fd() (uintptr, bool) { return 0, false }
func (s *failingOnceSource) Name() string        { return "flaky" }
func (s *failingOnceSource) Close() error        { return nil }

func TestStepSkipErrorsRecoversFromTransientReadError(t *testing.T) {
	t.Parallel()

	in := &failingOnceSource{}
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024, SkipErrorsCount: 1})

	res, err := tr.Step(in, out, -1)
	if err != nil {
		t.Fatalf("expected skip-errors to recover, got: %v", err)
	}

	if res.Warning == "" {
		t.Errorf("expected a warning on first skipped error")
	}
}

func TestStepWithoutSkipErrorsPropagatesReadError(t *testing.T) {
	t.Parallel()

	in := &failingOnceSource{}
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024})

	_, err := tr.Step(in, out, -1)
	if err == nil {
		t.Fatal("expected a fatal error without --skip-errors")
	}
}

// TestStepDirectIOWithoutDescriptorsIsANoOp exercises --direct-io against
// descriptor-less fakes (Fd() returns false, as a non-file InputSource/
// OutputSink always does): there is nothing to toggle O_DIRECT on, so the
// step must proceed exactly as it would without the flag.
func TestStepDirectIOWithoutDescriptorsIsANoOp(t *testing.T) {
	t.Parallel()

	in := newBufSource([]byte("hello"))
	out := &bufSink{}

	tr := transfer.New(transfer.Config{BufferSize: 1024, DirectIO: true})

	res, err := tr.Step(in, out, -1)
	if err != nil {
		t.Fatalf("Step error: %v", err)
	}

	if res.Warning != "" {
		t.Errorf("expected no warning when neither end has a descriptor, got %q", res.Warning)
	}

	if out.buf.String() != "hello" {
		t.Errorf("output = %q, want %q", out.buf.String(), "hello")
	}
}
