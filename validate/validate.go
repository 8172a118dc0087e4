// Command validate checks command scripts before they are piped into the
// game session server. A script is a text file with one command per line,
// exactly what the server reads on stdin. It checks:
//   - every line before the sentinel parses as JSON
//   - the script ends with the "quit" sentinel
//   - no lines follow the sentinel (the server would never read them)
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/gamesession/game/document"
	"github.com/wricardo/gamesession/game/loop"
)

// ValidationResult captures the outcome of validating a single script.
// Errors make the script invalid; Warnings do not.
type ValidationResult struct {
	File       string
	Valid      bool
	Commands   int
	Terminated bool
	Errors     []string
	Warnings   []string
}

// validateScript reads a script the same way the command loop does and
// reports every line the server would answer with a parse error.
func validateScript(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	f, err := os.Open(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNo := 0
	ignored := 0
	for {
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		lineNo++
		line = strings.TrimSuffix(line, "\n")

		if result.Terminated {
			ignored++
			continue
		}
		if line == loop.Sentinel {
			result.Terminated = true
			continue
		}

		result.Commands++
		if _, perr := document.Parse(line); perr != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v: %s", lineNo, perr, preview(line)))
		}
		if err != nil {
			break
		}
	}

	if !result.Terminated {
		result.Warnings = append(result.Warnings, "no quit line: the session ends at end of input")
	}
	if ignored > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d line(s) after quit are never read", ignored))
	}
	return result
}

func preview(line string) string {
	const limit = 40
	if len(line) > limit {
		return fmt.Sprintf("%q…", line[:limit])
	}
	return fmt.Sprintf("%q", line)
}

// main validates the scripts named on the command line, or every *.jsonl
// file in ./scripts, and exits with non-zero status if any are invalid.
func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join("scripts", "*.jsonl"))
		if err != nil {
			fmt.Printf("Error finding scripts: %v\n", err)
			os.Exit(1)
		}
	}
	if len(files) == 0 {
		fmt.Println("No scripts to validate")
		return
	}

	allValid := true
	for _, file := range files {
		result := validateScript(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Printf("✅ VALID (%d commands)\n", result.Commands)
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Println("  ⚠️  " + warning)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scripts are valid!")
	} else {
		fmt.Println("❌ Some scripts have errors")
		os.Exit(1)
	}
}
