// Command analyze prints a per-session summary of the log files in a log
// directory. For each <unix-seconds>_<id-prefix>_game-info.log it reports
// when the session was created, its full identifier, how many records were
// written, the last phase seen, whether the session closed cleanly and the
// command loop counters.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/gamesession/game/identity"
	"github.com/wricardo/gamesession/game/logging"
	"github.com/wricardo/gamesession/game/session"
)

// maxRecordSize bounds one log line
const maxRecordSize = 1 << 20

// SessionSummary is what one log file says about its session
type SessionSummary struct {
	File      string
	CreatedAt time.Time
	IDPrefix  string
	SessionID string
	Records   int
	LastPhase session.Phase
	Closed    bool

	LinesRead   int64
	Responses   int64
	ParseErrors int64
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "summarize game session log files",
		ArgsUsage: "[log-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := logging.DefaultDir
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}

			summaries, err := analyzeDir(dir)
			if err != nil {
				return err
			}
			printSummaries(os.Stdout, summaries)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

// analyzeDir summarizes every session log file in dir, oldest first.
// Files that do not follow the naming scheme are skipped.
func analyzeDir(dir string) ([]SessionSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var summaries []SessionSummary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := logging.ParseFileName(entry.Name())
		if err != nil {
			continue
		}

		summary, err := analyzeFile(filepath.Join(dir, entry.Name()), info)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func analyzeFile(path string, info logging.FileInfo) (SessionSummary, error) {
	summary := SessionSummary{
		File:      filepath.Base(path),
		CreatedAt: info.CreatedAt,
		IDPrefix:  info.IDPrefix,
		LastPhase: session.PhaseLobby,
	}

	f, err := os.Open(path)
	if err != nil {
		return summary, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !gjson.ValidBytes(line) {
			continue
		}
		summary.Records++
		applyRecord(&summary, gjson.ParseBytes(line))
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return summary, nil
}

func applyRecord(summary *SessionSummary, rec gjson.Result) {
	switch rec.Get("msg").String() {
	case "session created":
		if id, err := identity.Parse(rec.Get("session_id").String()); err == nil {
			summary.SessionID = id.String()
		}
	case "phase changed":
		if p, err := session.ParsePhase(rec.Get("to").String()); err == nil {
			summary.LastPhase = p
		}
	case "command loop terminated":
		summary.LinesRead = rec.Get("lines_read").Int()
		summary.Responses = rec.Get("responses").Int()
		summary.ParseErrors = rec.Get("parse_errors").Int()
	case "session closed":
		summary.Closed = true
		if p, err := session.ParsePhase(rec.Get("phase").String()); err == nil {
			summary.LastPhase = p
		}
	}
}

func printSummaries(w io.Writer, summaries []SessionSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No session logs found")
		return
	}

	for _, s := range summaries {
		fmt.Fprintf(w, "\n=== %s ===\n", s.File)
		fmt.Fprintf(w, "Created: %s\n", s.CreatedAt.UTC().Format(time.RFC3339))
		if s.SessionID != "" {
			fmt.Fprintf(w, "Session: %s\n", s.SessionID)
		} else {
			fmt.Fprintf(w, "Session: %s… (creation record missing)\n", s.IDPrefix)
		}
		fmt.Fprintf(w, "Records: %d\n", s.Records)
		fmt.Fprintf(w, "Last phase: %s\n", s.LastPhase)
		fmt.Fprintf(w, "Lines: %d read, %d answered, %d parse errors\n", s.LinesRead, s.Responses, s.ParseErrors)
		if s.Closed {
			fmt.Fprintln(w, "✅ Closed cleanly")
		} else {
			fmt.Fprintln(w, "⚠️  No close record: the process ended abruptly or is still running")
		}
	}
}
