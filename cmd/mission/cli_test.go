package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath = filepath.Join(tmpDir, ".mission", "mission.db")
	rulesPath = ""
	return tmpDir
}

func captureOutput(t *testing.T, fn func() error) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := fn()
	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

// addTask runs the add command and returns the new task's id.
func addTask(t *testing.T, args []string) string {
	t.Helper()

	output := captureOutput(t, func() error { return runAdd(args) })
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "id: ") {
			return strings.TrimPrefix(line, "id: ")
		}
	}
	t.Fatalf("add output missing id: %s", output)
	return ""
}

func TestAddAndList(t *testing.T) {
	setupTestEnv(t)

	addTask(t, []string{"call", "the", "dentist"})

	output := captureOutput(t, func() error { return runList([]string{}) })
	if !strings.Contains(output, "call the dentist") {
		t.Errorf("output missing task title: %s", output)
	}
	if !strings.Contains(output, "Easy") {
		t.Errorf("output missing derived difficulty: %s", output)
	}
}

func TestAddEmptyTitle(t *testing.T) {
	setupTestEnv(t)

	if err := runAdd([]string{"  "}); err == nil {
		t.Error("expected error for empty title")
	}
}

func TestListFilter(t *testing.T) {
	setupTestEnv(t)

	id := addTask(t, []string{"finished", "one"})
	addTask(t, []string{"open", "one"})
	captureOutput(t, func() error { return runDone([]string{id}) })

	output := captureOutput(t, func() error { return runList([]string{"-filter", "pending"}) })
	if !strings.Contains(output, "open one") {
		t.Errorf("output missing pending task: %s", output)
	}
	if strings.Contains(output, "finished one") {
		t.Errorf("pending list should not include completed task: %s", output)
	}

	if err := runList([]string{"-filter", "bogus"}); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestShow(t *testing.T) {
	setupTestEnv(t)

	id := addTask(t, []string{"-desc", "one chapter a night", "read", "a", "book"})

	output := captureOutput(t, func() error { return runShow([]string{id}) })
	if !strings.Contains(output, "read a book") {
		t.Errorf("output missing title: %s", output)
	}
	if !strings.Contains(output, "one chapter a night") {
		t.Errorf("output missing description: %s", output)
	}

	if err := runShow([]string{"no-such-id"}); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestDoneAndRm(t *testing.T) {
	setupTestEnv(t)

	id := addTask(t, []string{"throwaway"})

	output := captureOutput(t, func() error { return runDone([]string{id}) })
	if !strings.Contains(output, "Completed") {
		t.Errorf("output missing completion notice: %s", output)
	}

	output = captureOutput(t, func() error { return runDone([]string{id}) })
	if !strings.Contains(output, "Reopened") {
		t.Errorf("output missing reopen notice: %s", output)
	}

	captureOutput(t, func() error { return runRm([]string{id}) })
	if err := runShow([]string{id}); err == nil {
		t.Error("expected error after rm")
	}
}

func TestDue(t *testing.T) {
	setupTestEnv(t)

	id := addTask(t, []string{"file", "taxes"})
	date := time.Now().AddDate(0, 1, 0).Format("2006-01-02")

	output := captureOutput(t, func() error { return runDue([]string{id, date}) })
	if !strings.Contains(output, "due") {
		t.Errorf("output missing due notice: %s", output)
	}

	output = captureOutput(t, func() error { return runDue([]string{id, "clear"}) })
	if !strings.Contains(output, "Cleared") {
		t.Errorf("output missing clear notice: %s", output)
	}

	if err := runDue([]string{id, "next tuesday"}); err == nil {
		t.Error("expected error for malformed date")
	}

	// Completed tasks refuse due date edits.
	captureOutput(t, func() error { return runDone([]string{id}) })
	if err := runDue([]string{id, date}); err == nil {
		t.Error("expected error editing a completed task's due date")
	}
}

func TestExportImport(t *testing.T) {
	tmpDir := setupTestEnv(t)

	addTask(t, []string{"write", "report"})
	addTask(t, []string{"buy", "milk"})

	output := captureOutput(t, func() error { return runExport([]string{"-dir", tmpDir}) })
	if !strings.Contains(output, "tasks.json") {
		t.Errorf("output missing export path: %s", output)
	}

	exportPath := filepath.Join(tmpDir, "tasks.json")
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// Import into a fresh database.
	dbPath = filepath.Join(tmpDir, "fresh", "mission.db")
	output = captureOutput(t, func() error { return runImport([]string{exportPath}) })
	if !strings.Contains(output, "Imported 2 tasks") {
		t.Errorf("output missing import count: %s", output)
	}

	output = captureOutput(t, func() error { return runList([]string{}) })
	if !strings.Contains(output, "write report") || !strings.Contains(output, "buy milk") {
		t.Errorf("imported tasks missing from list: %s", output)
	}
}

func TestExportSingleTask(t *testing.T) {
	tmpDir := setupTestEnv(t)

	id := addTask(t, []string{"review", "quarterly", "report"})

	captureOutput(t, func() error { return runExport([]string{"-dir", tmpDir, "-id", id}) })
	if _, err := os.Stat(filepath.Join(tmpDir, "review_quarterly_report.json")); err != nil {
		t.Fatalf("single-task export file missing: %v", err)
	}
}

func TestStatusCommand(t *testing.T) {
	setupTestEnv(t)

	id := addTask(t, []string{"finished", "one"})
	addTask(t, []string{"open", "one"})
	captureOutput(t, func() error { return runDone([]string{id}) })

	output := captureOutput(t, func() error { return runStatus([]string{}) })
	if !strings.Contains(output, "Total:     2") {
		t.Errorf("output missing total count: %s", output)
	}
	if !strings.Contains(output, "Completed: 1") {
		t.Errorf("output missing completed count: %s", output)
	}
	if !strings.Contains(output, "✓ finished one") {
		t.Errorf("output missing board entry: %s", output)
	}
}

func TestInit(t *testing.T) {
	tmpDir := setupTestEnv(t)

	output := captureOutput(t, func() error { return runInit([]string{tmpDir}) })
	if !strings.Contains(output, "initialized successfully") {
		t.Errorf("output missing success notice: %s", output)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, ".mission", ".gitignore")); err != nil {
		t.Errorf(".gitignore missing: %v", err)
	}
}

func TestParseDue(t *testing.T) {
	due, err := parseDue("2026-03-14")
	if err != nil {
		t.Fatalf("parseDue failed: %v", err)
	}
	if due.Year() != 2026 || due.Month() != 3 || due.Day() != 14 {
		t.Errorf("unexpected date: %v", due)
	}

	due, err = parseDue("2026-03-14T09:00:00Z")
	if err != nil {
		t.Fatalf("parseDue failed: %v", err)
	}
	if due.Hour() != 9 {
		t.Errorf("unexpected hour: %v", due)
	}

	if _, err := parseDue("next tuesday"); err == nil {
		t.Error("expected error for malformed date")
	}

	due, err = parseDue("")
	if err != nil || due != nil {
		t.Errorf("expected nil due for empty input, got %v, %v", due, err)
	}
}
