package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/gamesession/game/identity"
	"github.com/wricardo/gamesession/game/logging"
)

// Session is the single game-state holder of a process run
type Session struct {
	identity.Identity

	testMode  bool
	createdAt time.Time
	sink      *logging.Sink

	mu     sync.RWMutex
	phase  Phase
	closed bool
}

// Snapshot is a point-in-time copy of the session's public state
type Snapshot struct {
	ID        identity.ID `json:"id"`
	Phase     Phase       `json:"phase"`
	TestMode  bool        `json:"test_mode"`
	CreatedAt time.Time   `json:"created_at"`
}

type options struct {
	generator *identity.Generator
	logDir    string
	clock     func() time.Time
}

// Option configures New
type Option func(*options)

// WithGenerator sets the identifier generator
func WithGenerator(gen *identity.Generator) Option {
	return func(o *options) {
		o.generator = gen
	}
}

// WithLogDir sets the directory for production log files
func WithLogDir(dir string) Option {
	return func(o *options) {
		o.logDir = dir
	}
}

// WithClock sets the time source
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// New creates a session in the lobby phase. In production mode a failure to
// open the log sink is returned and the caller is expected to abort.
func New(testMode bool, opts ...Option) (*Session, error) {
	o := options{
		logDir: logging.DefaultDir,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.generator == nil {
		o.generator = identity.NewGenerator(nil)
	}

	id, err := o.generator.New()
	if err != nil {
		return nil, fmt.Errorf("failed to mint session ID: %w", err)
	}

	createdAt := o.clock()
	sink, err := logging.New(id, testMode,
		logging.WithDir(o.logDir),
		logging.WithClock(func() time.Time { return createdAt }))
	if err != nil {
		return nil, fmt.Errorf("failed to create log sink for session %s: %w", id, err)
	}

	sink.Logger().Info("session created", zap.String("session_id", id.String()))
	if err := sink.Flush(); err != nil {
		sink.Close()
		return nil, fmt.Errorf("failed to flush log sink for session %s: %w", id, err)
	}

	return &Session{
		Identity:  identity.NewIdentity(id),
		testMode:  testMode,
		createdAt: createdAt,
		sink:      sink,
		phase:     PhaseLobby,
	}, nil
}

// Phase returns the current lifecycle phase
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// TestMode reports whether the session discards its logs
func (s *Session) TestMode() bool {
	return s.testMode
}

// CreatedAt returns the construction time
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Logger returns the session's logger, tagged with its ID
func (s *Session) Logger() *zap.Logger {
	return s.sink.Logger().With(zap.String("session_id", s.ID().String()))
}

// LogPath returns the session log file, empty in test mode
func (s *Session) LogPath() string {
	return s.sink.Path()
}

// Snapshot copies the public state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:        s.ID(),
		Phase:     s.phase,
		TestMode:  s.testMode,
		CreatedAt: s.createdAt,
	}
}

// Advance moves the session to phase to if the move is legal.
// A closed session rejects every transition with ErrClosed.
func (s *Session) Advance(to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	from := s.phase
	if !CanAdvance(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.phase = to

	s.sink.Logger().Info("phase changed",
		zap.String("session_id", s.ID().String()),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
	return nil
}

// Close records the end of the session and releases its sink.
// Calling it again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.sink.Logger().Info("session closed",
		zap.String("session_id", s.ID().String()),
		zap.Stringer("phase", s.phase))
	return s.sink.Close()
}
