// Package trace provides a per-turn diagnostic sink. Each chat turn gets
// its own Sink so concurrent turns never share mutable output state.
package trace

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Sink accumulates verbose diagnostic output for one turn in memory.
// It is safe for concurrent use.
type Sink struct {
	mu  sync.Mutex
	buf strings.Builder
}

// NewSink creates an empty trace sink.
func NewSink() *Sink {
	return &Sink{}
}

// Printf appends a timestamped line to the sink.
func (s *Sink) Printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.WriteString(time.Now().UTC().Format("15:04:05.000 "))
	fmt.Fprintf(&s.buf, format, args...)
	s.buf.WriteByte('\n')
}

// Write implements io.Writer so the sink can capture raw output.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// String returns everything captured so far.
func (s *Sink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
