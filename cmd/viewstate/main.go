// Command viewstate inspects and manipulates the per-document view-mode
// state through the reference terminal host.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"viewstate/internal/clihost"
	"viewstate/pkg/config"
	"viewstate/pkg/docid"
	"viewstate/pkg/host"
	"viewstate/pkg/metrics"
	"viewstate/pkg/mode"
	"viewstate/pkg/presentation"
	"viewstate/pkg/store"
	"viewstate/pkg/tracker"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "status", "toggle", "list", "cleanup":
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}

	flagSet := flag.NewFlagSet("viewstate "+command, flag.ExitOnError)
	settingsPath := flagSet.String("settings", "", "Settings file path (default: per-user config dir)")
	dbPath := flagSet.String("db", "", "Durable store path (default: from settings)")
	yes := flagSet.Bool("yes", false, "Skip the cleanup confirmation prompt")
	flagSet.Usage = printUsage

	if err := flagSet.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if err := run(command, flagSet.Args(), *settingsPath, *dbPath, *yes); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, settingsPath, dbPath string, yes bool) error {
	cfg, err := loadSettings(settingsPath)
	if err != nil {
		return err
	}

	database := cfg.DatabasePath()
	if dbPath != "" {
		database = dbPath
	}
	if err := os.MkdirAll(filepath.Dir(database), 0755); err != nil {
		return fmt.Errorf("cannot create store directory: %w", err)
	}

	st, err := store.OpenSQLite(database)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	h := clihost.New(os.Stdout, os.Stderr)
	tr := tracker.New(st, h, host.FSProbe{}, cfg,
		tracker.WithRecorder(metrics.NewPrometheusRecorder()))

	ctx := context.Background()

	// The explicit cleanup command replaces the automatic startup pass;
	// everything else gets the once-per-start reconciliation.
	if command != "cleanup" {
		tr.StartupCleanup(ctx)
	}

	switch command {
	case "status":
		return runStatus(tr, h, args)
	case "toggle":
		return runToggle(ctx, tr, h, args)
	case "list":
		return runList(st)
	case "cleanup":
		return runCleanup(ctx, tr, st, yes)
	}
	return nil
}

func loadSettings(path string) (*config.Config, error) {
	if path == "" {
		defaultPath, err := config.DefaultSettingsPath()
		if err != nil {
			return config.Default(), nil
		}
		path = defaultPath
	}
	return config.Load(path)
}

// focusFile points the host at the given file and returns its identity.
func focusFile(h *clihost.Host, path string) (docid.Identity, error) {
	id, err := docid.FromPath(path)
	if err != nil {
		return docid.Identity{}, err
	}
	h.Focus(id, clihost.DetectKind(path))
	return id, nil
}

func runStatus(tr *tracker.Tracker, h *clihost.Host, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: viewstate status <file>")
	}

	id, err := focusFile(h, args[0])
	if err != nil {
		return err
	}

	m := tr.Resolve(id)
	status := presentation.Status(m)
	fmt.Printf("%s\t%s\t%s\n", id, m, status.Label)
	return nil
}

func runToggle(ctx context.Context, tr *tracker.Tracker, h *clihost.Host, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: viewstate toggle <file>")
	}

	if _, err := focusFile(h, args[0]); err != nil {
		return err
	}

	m, err := tr.Toggle(ctx)
	if err != nil {
		// The host already notified the user; the exit code is the only
		// thing left to set.
		return err
	}

	label, _ := h.Status()
	fmt.Fprintf(os.Stderr, "Now showing %s (%s)\n", m, label)
	return nil
}

func runList(st *store.SQLiteStore) error {
	keys, err := st.ListKeys()
	if err != nil {
		return err
	}

	count := 0
	for _, key := range keys {
		raw, ok := store.RawIdentity(key)
		if !ok {
			continue
		}
		value, present, getErr := st.Get(key)
		if getErr != nil || !present {
			continue
		}
		if _, parseErr := mode.Parse(value); parseErr != nil {
			value += " (corrupt)"
		}
		fmt.Printf("%s\t%s\n", raw, value)
		count++
	}

	if count == 0 {
		fmt.Println("No view-mode entries.")
	}
	return nil
}

func runCleanup(ctx context.Context, tr *tracker.Tracker, st *store.SQLiteStore, yes bool) error {
	if !yes && !confirmCleanup(st) {
		fmt.Println("Aborted.")
		return nil
	}

	removed, err := tr.Cleanup(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d stale entr%s.\n", removed, entrySuffix(removed))
	return nil
}

// confirmCleanup asks before deleting when attached to a terminal.
// Non-interactive invocations (pipes, cron) proceed without prompting.
func confirmCleanup(st *store.SQLiteStore) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}

	total := 0
	if keys, err := st.ListKeys(); err == nil {
		for _, key := range keys {
			if _, ok := store.RawIdentity(key); ok {
				total++
			}
		}
	}

	fmt.Printf("Scan %d entr%s for stale documents and delete them? [y/N] ", total, entrySuffix(total))
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func entrySuffix(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `viewstate - track and toggle document view modes

Usage:
  viewstate status <file>   Show the resolved view mode for a document
  viewstate toggle <file>   Toggle between source and rendered preview
  viewstate list            List durable view-mode entries
  viewstate cleanup         Remove entries for documents that no longer exist

Flags:
  -settings <path>  Settings file (default: per-user config dir)
  -db <path>        Durable store database (default: from settings)
  -yes              Skip the cleanup confirmation prompt
`)
}
