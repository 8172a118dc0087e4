package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/wricardo/gamesession/game/logging"
)

// TestModeArg is the positional argument that selects test mode
const TestModeArg = "test"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config controls how the server process starts
type Config struct {
	// TestMode discards session logs and touches no files.
	TestMode bool

	// LogDir holds production log files. It must already exist.
	LogDir string

	// SpectateAddr enables the spectator HTTP API when non-empty.
	SpectateAddr string

	// Debug lowers the process log level to debug.
	Debug bool
}

// Default returns the production defaults
func Default() Config {
	return Config{
		LogDir: logging.DefaultDir,
	}
}

// IsTestMode reports whether the positional arguments select test mode:
// the first argument must be exactly "test".
func IsTestMode(args []string) bool {
	return len(args) > 0 && args[0] == TestModeArg
}

// Validate checks the configuration before anything is started
func (c Config) Validate() error {
	if !c.TestMode && c.LogDir == "" {
		return fmt.Errorf("%w: log directory required in production mode", ErrInvalidConfig)
	}
	if c.SpectateAddr != "" {
		if _, _, err := net.SplitHostPort(c.SpectateAddr); err != nil {
			return fmt.Errorf("%w: spectator address %q: %v", ErrInvalidConfig, c.SpectateAddr, err)
		}
	}
	return nil
}
