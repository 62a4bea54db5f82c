package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// logSink fans log lines out to its writers from a single goroutine so the
// slog handler never blocks a conversation turn on file IO. The queue is
// deliberately small: this bot emits a handful of lines per update, not a
// stream.
type logSink struct {
	lines   chan []byte
	flushes chan chan error
	closed  chan struct{}
	stop    sync.Once

	mu   sync.Mutex
	outs []*bufio.Writer
	err  error // first write failure, sticky
}

func newLogSink(writers []io.Writer) *logSink {
	s := &logSink{
		lines:   make(chan []byte, 128),
		flushes: make(chan chan error),
		closed:  make(chan struct{}),
	}
	for _, w := range writers {
		if w != nil {
			s.outs = append(s.outs, bufio.NewWriterSize(w, 32*1024))
		}
	}
	go s.run()
	return s
}

func (s *logSink) run() {
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.flushAll()
				close(s.closed)
				return
			}
			s.write(line)
		case ack := <-s.flushes:
			ack <- s.flushAll()
		}
	}
}

// Write queues one formatted line. A full queue blocks instead of dropping:
// losing an audit line about a payment request is worse than a slow turn.
func (s *logSink) Write(p []byte) error {
	if err := s.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	s.lines <- append([]byte(nil), p...)
	return nil
}

// Flush blocks until every queued line reached the underlying writers.
func (s *logSink) Flush() error {
	if err := s.firstErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	s.flushes <- ack
	return <-ack
}

// Close drains the queue, flushes, and reports the first write failure.
func (s *logSink) Close() error {
	s.stop.Do(func() { close(s.lines) })
	<-s.closed
	return s.firstErr()
}

func (s *logSink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.outs {
		if _, err := out.Write(line); err != nil {
			s.keepErr(err)
			return
		}
		if err := out.Flush(); err != nil {
			s.keepErr(err)
			return
		}
	}
}

func (s *logSink) flushAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, out := range s.outs {
		if err := out.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// keepErr records the first failure; callers hold mu.
func (s *logSink) keepErr(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *logSink) firstErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
