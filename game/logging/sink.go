// Package logging builds the per-session diagnostic sink.
//
// In test mode the sink discards every record. Otherwise records are written
// as JSON lines to <dir>/<unix-seconds>_<id-prefix>_game-info.log. The
// directory must already exist.
package logging

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wricardo/gamesession/game/identity"
)

const (
	// DefaultDir is the log directory relative to the working directory.
	DefaultDir = "logs"

	// LoggerName names the session logger.
	LoggerName = "game"

	fileSuffix = "_game-info.log"
	prefixLen  = 4
)

var (
	ErrSinkUnavailable = errors.New("log sink unavailable")
	ErrBadFileName     = errors.New("not a session log file name")
)

// Sink is a session-owned log channel
type Sink struct {
	logger *zap.Logger
	path   string

	file   *os.File
	buffer *fileBuffer

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	dir   string
	clock func() time.Time
}

// Option configures New
type Option func(*options)

// WithDir sets the log directory
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithClock sets the time source used for the file name
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// New creates the sink for a session
func New(id identity.ID, testMode bool, opts ...Option) (*Sink, error) {
	if testMode {
		return &Sink{logger: zap.NewNop()}, nil
	}

	o := options{dir: DefaultDir, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	path := filepath.Join(o.dir, FileName(o.clock(), id))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}

	buffer := &fileBuffer{file: file, w: bufio.NewWriter(file)}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buffer, zapcore.InfoLevel)

	return &Sink{
		logger: zap.New(core).Named(LoggerName),
		path:   path,
		file:   file,
		buffer: buffer,
	}, nil
}

// Logger returns the session logger
func (s *Sink) Logger() *zap.Logger {
	return s.logger
}

// Path returns the log file path, empty for a discarding sink
func (s *Sink) Path() string {
	return s.path
}

// Flush writes buffered records to the file
func (s *Sink) Flush() error {
	if s.buffer == nil {
		return nil
	}
	return s.logger.Sync()
}

// Close flushes and releases the file. Calling it again is a no-op.
func (s *Sink) Close() error {
	s.closeOnce.Do(func() {
		if s.buffer == nil {
			return
		}
		s.closeErr = multierr.Combine(
			s.buffer.Sync(),
			s.file.Close(),
		)
	})
	return s.closeErr
}

// FileName builds the log file name for a session created at ts
func FileName(ts time.Time, id identity.ID) string {
	return strconv.FormatInt(ts.Unix(), 10) + "_" + id.Prefix(prefixLen) + fileSuffix
}

// FileInfo is what a log file name encodes
type FileInfo struct {
	CreatedAt time.Time
	IDPrefix  string
}

// ParseFileName is the inverse of FileName
func ParseFileName(name string) (FileInfo, error) {
	base := filepath.Base(name)
	rest, ok := strings.CutSuffix(base, fileSuffix)
	if !ok {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrBadFileName, base)
	}

	ts, prefix, ok := strings.Cut(rest, "_")
	if !ok || prefix == "" {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrBadFileName, base)
	}

	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrBadFileName, base)
	}

	return FileInfo{CreatedAt: time.Unix(secs, 0), IDPrefix: prefix}, nil
}

// fileBuffer holds records in memory until Sync. Flushing happens only on
// the caller's goroutine.
type fileBuffer struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

func (b *fileBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w.Write(p)
}

func (b *fileBuffer) Sync() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.w.Flush(); err != nil {
		return err
	}
	return b.file.Sync()
}
