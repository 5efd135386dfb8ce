package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ldi/mission/internal/lifecycle"
	"github.com/ldi/mission/internal/mcp"
	"github.com/ldi/mission/internal/rules"
	"github.com/ldi/mission/internal/server"
	"github.com/ldi/mission/internal/store"
	"github.com/ldi/mission/internal/tracker"
	"github.com/ldi/mission/internal/ui"
	"github.com/ldi/mission/internal/ui/components"
	"github.com/ldi/mission/pkg/models"
)

var (
	dbPath    string
	rulesPath string
)

func main() {
	flag.StringVar(&dbPath, "db-path", ".mission/mission.db", "Path to database file")
	flag.StringVar(&rulesPath, "rules", "", "Path to a rules TOML file overriding the built-in defaults")
	flag.Parse()

	var command string
	var args []string

	if flag.NArg() == 0 {
		selected, err := ui.RunMenu()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running menu: %v\n", err)
			os.Exit(1)
		}
		if selected == "" {
			os.Exit(0)
		}
		command = selected
		args = []string{}
	} else {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	var err error
	switch command {
	case "init":
		err = runInit(args)
	case "add":
		err = runAdd(args)
	case "list":
		err = runList(args)
	case "show":
		err = runShow(args)
	case "done":
		err = runDone(args)
	case "due":
		err = runDue(args)
	case "rm":
		err = runRm(args)
	case "import":
		err = runImport(args)
	case "export":
		err = runExport(args)
	case "status":
		err = runStatus(args)
	case "dashboard":
		err = runDashboard(args)
	case "web":
		err = runWeb(args)
	case "mcp":
		err = runMCP(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openTracker(ctx context.Context) (*tracker.Tracker, func(), error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	if err := st.Init(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	rs, err := rules.Load(rulesPath)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	tr := tracker.New(st, rs)
	if err := tr.Load(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	return tr, func() { st.Close() }, nil
}

// parseDue accepts RFC 3339 or a bare date, which lands at local midnight.
func parseDue(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to parse due date %q (want RFC 3339 or YYYY-MM-DD)", raw)
	}
	return &t, nil
}

func runInit(args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	missionDir := filepath.Join(targetDir, ".mission")
	if err := os.MkdirAll(missionDir, 0755); err != nil {
		return fmt.Errorf("failed to create .mission directory: %w", err)
	}
	fmt.Println("✓ Created .mission/ directory")

	gitignorePath := filepath.Join(missionDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("mission.db*\n"), 0644); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	fmt.Println("✓ Created .mission/.gitignore")

	finalDBPath := dbPath
	if dbPath == ".mission/mission.db" {
		finalDBPath = filepath.Join(missionDir, "mission.db")
	}

	st, err := store.Open(finalDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Printf("✓ Initialized database at %s\n", finalDBPath)

	// Pick up a previous export if one sits next to the database.
	exportPath := filepath.Join(missionDir, models.TasksExportName)
	if data, err := os.ReadFile(exportPath); err == nil {
		rs, err := rules.Load(rulesPath)
		if err != nil {
			return err
		}
		tr := tracker.New(st, rs)
		if err := tr.Load(ctx); err != nil {
			return err
		}
		n, err := tr.ImportAll(ctx, data)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", exportPath, err)
		}
		fmt.Printf("✓ Imported %d tasks from %s\n", n, exportPath)
	}

	fmt.Println("✓ Mission initialized successfully")
	return nil
}

func runAdd(args []string) error {
	addFlags := flag.NewFlagSet("add", flag.ContinueOnError)
	desc := addFlags.String("desc", "", "Task description")
	dueRaw := addFlags.String("due", "", "Due date (RFC 3339 or YYYY-MM-DD)")
	if err := addFlags.Parse(args); err != nil {
		return err
	}

	title := strings.Join(addFlags.Args(), " ")
	due, err := parseDue(*dueRaw)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := tr.Add(ctx, title, *desc, due)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Added %q (%s, %s)\n", t.Text, t.Difficulty, t.Icon)
	fmt.Printf("  id: %s\n", t.ID)
	return nil
}

func runList(args []string) error {
	listFlags := flag.NewFlagSet("list", flag.ContinueOnError)
	filterRaw := listFlags.String("filter", "all", "Lifecycle filter (all, pending, active, completed, missed)")
	if err := listFlags.Parse(args); err != nil {
		return err
	}

	filter := lifecycle.Filter(*filterRaw)
	if !filter.Valid() {
		return fmt.Errorf("unknown filter: %s", filter)
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	tasks := tr.List(filter)

	fmt.Printf("%-36s %-4s %-40s %-10s %-20s\n", "ID", "DONE", "TITLE", "DIFFICULTY", "DUE")
	fmt.Println(strings.Repeat("-", 114))
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%-36s %-4s %-40s %-10s %-20s\n", t.ID, done, t.Text, t.Difficulty, due)
	}
	return nil
}

func runShow(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mission show <id>")
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := tr.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Title:      %s\n", t.Text)
	fmt.Printf("ID:         %s\n", t.ID)
	fmt.Printf("Difficulty: %s\n", t.Difficulty)
	fmt.Printf("Icon:       %s\n", t.Icon)
	fmt.Printf("Completed:  %v\n", t.Completed)
	if t.DueDate != nil {
		fmt.Printf("Due:        %s\n", t.DueDate.Local().Format(time.RFC1123))
	} else {
		fmt.Printf("Due:        none\n")
	}
	if t.Description != "" {
		fmt.Printf("\n%s\n", t.Description)
	}
	return nil
}

func runDone(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mission done <id>")
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := tr.Toggle(ctx, args[0])
	if err != nil {
		return err
	}

	if t.Completed {
		fmt.Printf("✓ Completed %q\n", t.Text)
	} else {
		fmt.Printf("✓ Reopened %q\n", t.Text)
	}
	return nil
}

func runDue(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mission due <id> <date|clear>")
	}

	var due *time.Time
	if args[1] != "clear" {
		parsed, err := parseDue(args[1])
		if err != nil {
			return err
		}
		due = parsed
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := tr.SetDueDate(ctx, args[0], due)
	if err != nil {
		return err
	}

	if t.DueDate != nil {
		fmt.Printf("✓ %q due %s\n", t.Text, t.DueDate.Local().Format(time.RFC1123))
	} else {
		fmt.Printf("✓ Cleared due date on %q\n", t.Text)
	}
	return nil
}

func runRm(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mission rm <id>")
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := tr.Delete(ctx, args[0]); err != nil {
		return err
	}

	fmt.Println("✓ Task deleted")
	return nil
}

func runImport(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: mission import <file>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	trimmed := strings.TrimLeft(string(data), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		n, err := tr.ImportAll(ctx, data)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Imported %d tasks\n", n)
		return nil
	}

	t, err := tr.ImportOne(ctx, data)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Imported %q\n", t.Text)
	return nil
}

func runExport(args []string) error {
	exportFlags := flag.NewFlagSet("export", flag.ContinueOnError)
	dir := exportFlags.String("dir", ".", "Directory to write the export into")
	id := exportFlags.String("id", "", "Export a single task instead of the whole list")
	if err := exportFlags.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var path string
	if *id != "" {
		path, err = tr.ExportTask(*id, *dir)
	} else {
		path, err = tr.ExportAll(*dir)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Exported to %s\n", path)
	return nil
}

func runStatus(args []string) error {
	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	counts := tr.Counts()

	fmt.Println("Mission Status")
	fmt.Println("==============")
	fmt.Printf("Total:     %d\n", counts.Total)
	fmt.Printf("Pending:   %d\n", counts.Pending)
	fmt.Printf("Active:    %d\n", counts.Active)
	fmt.Printf("Completed: %d\n", counts.Completed)
	fmt.Printf("Missed:    %d\n", counts.Missed)

	board := components.NewTaskBoard(60)
	board.Title = ""
	now := time.Now()
	for _, t := range tr.List(lifecycle.FilterAll) {
		switch {
		case t.Completed:
			board.Add(components.BoardEntry{Title: t.Text}, 10)
		case lifecycle.IsMissed(t, now):
			board.Add(components.BoardEntry{Title: t.Text, Missed: true}, 10)
		}
	}
	if len(board.Done) > 0 || len(board.Missed) > 0 {
		fmt.Println()
		fmt.Println(board.View())
	}

	return nil
}

func runDashboard(args []string) error {
	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	return ui.RunDashboard(tr)
}

func runWeb(args []string) error {
	webFlags := flag.NewFlagSet("web", flag.ContinueOnError)
	port := webFlags.String("port", "8000", "Port to listen on")
	if err := webFlags.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.NewServer(tr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Listening on http://localhost:%s\n", *port)
	if err := srv.Start(fmt.Sprintf(":%s", *port)); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runMCP(args []string) error {
	ctx := context.Background()
	tr, closeStore, err := openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	s := mcp.NewServer(tr)
	return mcp.Serve(s)
}
