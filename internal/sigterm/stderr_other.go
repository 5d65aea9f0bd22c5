//go:build !unix

package sigterm

func (s *Supervisor) redirectStderrToNull() {}

func (s *Supervisor) restoreStderr() bool { return false }
