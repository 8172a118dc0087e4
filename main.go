// Command gamesession runs one game session over standard input and output.
//
// Each line on stdin is a JSON command. Each command is answered with one
// line on stdout: the command in canonical JSON form, or
// {"error":"JSON parse failed"}. The line "quit" ends the session.
//
// The first positional argument "test" selects test mode, where session logs
// are discarded. Otherwise the session logs to
// <log-dir>/<unix-seconds>_<id-prefix>_game-info.log and the log directory
// must exist. Flags control the log directory, an optional read-only
// spectator API and debug logging.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wricardo/gamesession/api"
	"github.com/wricardo/gamesession/game/config"
	"github.com/wricardo/gamesession/game/logging"
	"github.com/wricardo/gamesession/game/loop"
	"github.com/wricardo/gamesession/game/session"
	"github.com/wricardo/gamesession/transport/websocket"
)

// Version information
const (
	Version = "0.1.0"
	AppName = "gamesession"
)

const shutdownTimeout = 5 * time.Second

// newCommand builds the CLI. Commands are read from stdin and answered on
// stdout; everything else, help included, goes to stderr.
func newCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      AppName,
		Usage:     "run a game session over line-delimited JSON on stdin/stdout",
		Version:   Version,
		ArgsUsage: "[test]",
		Reader:    stdin,
		Writer:    stderr,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-dir",
				Value:   logging.DefaultDir,
				Usage:   "directory for session log files (must exist)",
				Sources: cli.EnvVars("GAME_LOG_DIR"),
			},
			&cli.StringFlag{
				Name:    "spectate",
				Usage:   "host:port for the read-only spectator API (disabled when empty)",
				Sources: cli.EnvVars("GAME_SPECTATE_ADDR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("GAME_DEBUG"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Default()
			cfg.TestMode = config.IsTestMode(cmd.Args().Slice())
			if dir := cmd.String("log-dir"); dir != "" {
				cfg.LogDir = dir
			}
			cfg.SpectateAddr = cmd.String("spectate")
			cfg.Debug = cmd.Bool("debug")
			return run(ctx, cfg, stdin, stdout, stderr)
		},
	}
}

// main loads .env, runs the command and maps failure to exit status 1.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	cmd := newCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newProcessLogger writes process diagnostics to w, never to stdout
func newProcessLogger(debug bool, w io.Writer) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core).Named("server")
}

// run starts the session, serves the command loop until it terminates and
// releases everything on the way out.
func run(ctx context.Context, cfg config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := newProcessLogger(cfg.Debug, stderr)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	sess, err := session.New(cfg.TestMode, session.WithLogDir(cfg.LogDir))
	if err != nil {
		logger.Error("failed to start session", zap.Error(err))
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("failed to close session log", zap.Error(err))
		}
	}()

	logger.Info("session started",
		zap.String("session_id", sess.ID().String()),
		zap.Bool("test_mode", sess.TestMode()),
		zap.String("log_file", sess.LogPath()))

	var opts []loop.Option
	var hub *websocket.Hub
	if cfg.SpectateAddr != "" {
		hub = websocket.NewHub(logger.Named("spectator"))
		opts = append(opts, loop.WithObserver(hub))
	}
	commandLoop := loop.New(sess, stdin, stdout, opts...)

	if hub != nil {
		stop, err := startSpectator(ctx, cfg.SpectateAddr, sess, commandLoop, hub, logger)
		if err != nil {
			logger.Error("failed to start spectator API", zap.Error(err))
			return err
		}
		defer stop()
	}

	if err := commandLoop.Run(ctx); err != nil {
		logger.Error("command loop failed", zap.Error(err))
		return err
	}

	logger.Info("session finished", zap.String("session_id", sess.ID().String()))
	return nil
}

// startSpectator serves the spectator API on addr. The returned function
// shuts the server and the hub down and waits for both.
func startSpectator(ctx context.Context, addr string, sess *session.Session, commandLoop *loop.Loop, hub *websocket.Hub, logger *zap.Logger) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	hubCtx, cancelHub := context.WithCancel(ctx)

	httpServer := &http.Server{
		Handler:      api.NewServer(sess, commandLoop, hub, logger.Named("api")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Run(hubCtx)
	}()
	go func() {
		defer wg.Done()
		logger.Info("spectator API listening", zap.String("addr", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("spectator API failed", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("spectator API shutdown error", zap.Error(err))
		}
		cancelHub()
		wg.Wait()
	}, nil
}
