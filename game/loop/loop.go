// Package loop runs the read-eval-respond cycle of a session.
//
// Each input line is answered with exactly one output line, in input order:
// the canonical form of the parsed JSON document, or ErrorResponse when the
// line does not parse. The line "quit" ends the loop without output, and so
// does end of input.
package loop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wricardo/gamesession/game/document"
	"github.com/wricardo/gamesession/game/session"
)

const (
	// Sentinel is the line that terminates the loop.
	Sentinel = "quit"

	// ErrorResponse is written for a line that is not valid JSON.
	ErrorResponse = `{"error":"JSON parse failed"}`
)

// State of the loop
type State int32

const (
	StateRunning State = iota
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Stats counts what the loop has handled so far
type Stats struct {
	LinesRead   int64 `json:"lines_read"`
	Responses   int64 `json:"responses"`
	ParseErrors int64 `json:"parse_errors"`
}

// Loop reads commands from in and writes responses to out
type Loop struct {
	session  *session.Session
	in       *bufio.Reader
	out      *bufio.Writer
	observer Observer
	logger   *zap.Logger

	state       atomic.Int32
	linesRead   atomic.Int64
	responses   atomic.Int64
	parseErrors atomic.Int64
}

// Option configures New
type Option func(*Loop)

// WithObserver sets the receiver of loop events
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		l.observer = o
	}
}

// WithLogger overrides the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a loop bound to sess
func New(sess *session.Session, in io.Reader, out io.Writer, opts ...Option) *Loop {
	l := &Loop{
		session:  sess,
		in:       bufio.NewReader(in),
		out:      bufio.NewWriter(out),
		observer: nopObserver{},
		logger:   sess.Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current loop state
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Stats returns the counters
func (l *Loop) Stats() Stats {
	return Stats{
		LinesRead:   l.linesRead.Load(),
		Responses:   l.responses.Load(),
		ParseErrors: l.parseErrors.Load(),
	}
}

// Run processes lines until the sentinel, end of input, a cancelled
// context or an I/O error. Only the last two return an error.
func (l *Loop) Run(ctx context.Context) error {
	if l.State() == StateTerminated {
		return nil
	}
	defer l.terminate()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := l.in.ReadString('\n')
		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			return fmt.Errorf("failed to read command: %w", err)
		}
		if atEOF && line == "" {
			l.logger.Debug("input closed")
			return nil
		}
		line = trimNewline(line)

		l.linesRead.Add(1)
		if line == Sentinel {
			l.logger.Debug("sentinel received")
			return nil
		}

		if err := l.handle(line); err != nil {
			return err
		}
		if atEOF {
			l.logger.Debug("input closed")
			return nil
		}
	}
}

// handle answers one line
func (l *Loop) handle(line string) error {
	doc, err := document.Parse(line)
	if err != nil {
		l.parseErrors.Add(1)
		l.logger.Debug("command rejected", zap.Error(err))
		if err := l.respond([]byte(ErrorResponse)); err != nil {
			return err
		}
		l.observer.Observe(Event{
			Kind:    EventParseError,
			Session: l.session.Snapshot(),
			Error:   err.Error(),
		})
		return nil
	}

	if err := l.respond(doc.Canonical()); err != nil {
		return err
	}
	l.observer.Observe(Event{
		Kind:     EventResponse,
		Session:  l.session.Snapshot(),
		Document: doc.Canonical(),
		DocKind:  doc.Kind(),
	})
	return nil
}

func (l *Loop) respond(payload []byte) error {
	if _, err := l.out.Write(payload); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := l.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := l.out.Flush(); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	l.responses.Add(1)
	return nil
}

func (l *Loop) terminate() {
	l.state.Store(int32(StateTerminated))
	stats := l.Stats()
	l.logger.Info("command loop terminated",
		zap.Int64("lines_read", stats.LinesRead),
		zap.Int64("responses", stats.Responses),
		zap.Int64("parse_errors", stats.ParseErrors))
	l.observer.Observe(Event{
		Kind:    EventTerminated,
		Session: l.session.Snapshot(),
	})
}

func trimNewline(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		return line[:n-1]
	}
	return line
}
