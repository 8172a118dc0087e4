package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

func containsAny(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func TestValidateScript_Valid(t *testing.T) {
	path := writeScript(t, "{\"a\":1}\n[1, 2]\n\"text\"\nquit\n")

	result := validateScript(path)
	if !result.Valid {
		t.Errorf("Expected valid script, got errors: %v", result.Errors)
	}
	if result.Commands != 3 {
		t.Errorf("Expected 3 commands, got %d", result.Commands)
	}
	if !result.Terminated {
		t.Error("Expected script to be terminated")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
	if result.File != "script.jsonl" {
		t.Errorf("Expected file name script.jsonl, got %s", result.File)
	}
}

func TestValidateScript_InvalidLines(t *testing.T) {
	path := writeScript(t, "{\"a\":1}\nnot json\n\n{\"b\":2}\nquit\n")

	result := validateScript(path)
	if result.Valid {
		t.Error("Expected invalid script")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "line 2: JSON parse failed") {
		t.Errorf("Unexpected first error: %s", result.Errors[0])
	}
	if !strings.HasPrefix(result.Errors[1], "line 3:") {
		t.Errorf("Unexpected second error: %s", result.Errors[1])
	}
}

func TestValidateScript_MissingSentinel(t *testing.T) {
	path := writeScript(t, "{\"a\":1}")

	result := validateScript(path)
	if !result.Valid {
		t.Errorf("Missing sentinel should only warn, got errors: %v", result.Errors)
	}
	if result.Terminated {
		t.Error("Expected unterminated script")
	}
	if !containsAny(result.Warnings, "no quit line") {
		t.Errorf("Expected missing quit warning, got %v", result.Warnings)
	}
}

func TestValidateScript_LinesAfterSentinel(t *testing.T) {
	path := writeScript(t, "quit\nnot json\n{}\n")

	result := validateScript(path)
	if !result.Valid {
		t.Errorf("Lines after quit are never parsed, got errors: %v", result.Errors)
	}
	if result.Commands != 0 {
		t.Errorf("Expected 0 commands, got %d", result.Commands)
	}
	if !containsAny(result.Warnings, "2 line(s) after quit") {
		t.Errorf("Expected ignored lines warning, got %v", result.Warnings)
	}
}

func TestValidateScript_SentinelIsExact(t *testing.T) {
	path := writeScript(t, "quit \nquit\n")

	result := validateScript(path)
	if result.Valid {
		t.Error("Expected 'quit ' to be a parse error")
	}
	if !result.Terminated {
		t.Error("Expected second line to terminate")
	}
}

func TestValidateScript_MissingFile(t *testing.T) {
	result := validateScript("/non/existent/file.jsonl")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !containsAny(result.Errors, "Failed to read file") {
		t.Error("Expected 'Failed to read file' error")
	}
}

func TestPreview(t *testing.T) {
	if got := preview("abc"); got != `"abc"` {
		t.Errorf("Unexpected preview %s", got)
	}
	long := strings.Repeat("x", 100)
	if got := preview(long); !strings.HasSuffix(got, "…") || len(got) > 50 {
		t.Errorf("Expected truncated preview, got %s", got)
	}
}
