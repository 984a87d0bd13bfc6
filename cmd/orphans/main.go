package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"library-converter/internal/catalog"
	"library-converter/internal/database"
)

const (
	// Default timeout for the whole command
	defaultTimeout = 10 * time.Minute
	// Default work directory holding the ledger
	defaultWorkDir = "/work"

	resolutionDeleted = "deleted"
	resolutionKept    = "kept"
)

// orphanStore is the part of the ledger the command needs.
type orphanStore interface {
	GetRun(ctx context.Context, runID string) (*database.Run, error)
	ListOrphans(ctx context.Context) ([]database.Orphan, error)
	ResolveOrphan(ctx context.Context, id int64, resolution string) error
}

// assetRemover is the part of the catalog client the command needs.
type assetRemover interface {
	Exists(ctx context.Context, assetID string) (bool, error)
	Delete(ctx context.Context, ids ...string) error
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
	}

	if code := run(ctx, os.Args[1], os.Args[2:]); code != 0 {
		cancel()
		stop()
		os.Exit(code)
	}
}

func run(ctx context.Context, command string, args []string) int {
	switch command {
	case "list", "resolve":
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(os.Stderr)
		return 1
	}

	path := ledgerPath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: ledger not found at %s: %v\n", path, err)
		fmt.Fprintln(os.Stderr, "Set LEDGER_PATH or WORKDIR to the converter's work directory")
		return 1
	}

	db, err := database.New(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open ledger: %v\n", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close ledger: %v\n", err)
		}
	}()

	if command == "list" {
		if err := listOrphans(ctx, db, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	opts, err := parseResolveArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var remover assetRemover
	if !opts.Keep {
		client, err := catalog.NewHTTPClient(catalog.Options{
			BaseURL: os.Getenv("IMMICH_API_BASE"),
			APIKey:  os.Getenv("IMMICH_API_KEY"),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		remover = client
	}

	confirm := terminalConfirm(os.Stdin, os.Stdout)
	if opts.Yes {
		confirm = func(string) bool { return true }
	}

	report, err := resolveOrphans(ctx, db, remover, opts, confirm, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if report.Failed > 0 {
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Library Converter Orphan Management")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: orphans <command> [flags] [id...]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list     - List unresolved partial successes")
	fmt.Fprintln(w, "  resolve  - Delete originals of partial successes and mark them resolved")
	fmt.Fprintln(w, "             -yes   skip confirmation")
	fmt.Fprintln(w, "             -keep  mark resolved without deleting")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  LEDGER_PATH - Path to the ledger (default: %s)\n", filepath.Join(defaultWorkDir, "ledger.db"))
	fmt.Fprintln(w, "  IMMICH_API_BASE, IMMICH_API_KEY - Catalog credentials for resolve")
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func ledgerPath() string {
	if path := getEnv("LEDGER_PATH", ""); path != "" {
		return path
	}
	return filepath.Join(getEnv("WORKDIR", defaultWorkDir), "ledger.db")
}

func listOrphans(ctx context.Context, store orphanStore, w io.Writer) error {
	orphans, err := store.ListOrphans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orphans: %w", err)
	}
	if len(orphans) == 0 {
		fmt.Fprintln(w, "No unresolved orphans.")
		return nil
	}

	printRunHeaders(ctx, store, orphans, w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECORDED\tORIGINAL\tREPLACEMENT\tFILE\tERROR")
	for _, o := range orphans {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.CreatedAt.Format(time.DateTime), o.AssetID, o.NewAssetID, o.FileName, o.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d unresolved orphan(s)\n", len(orphans))
	return nil
}

// printRunHeaders prints one line per run that left orphans behind, in the
// order the runs first appear.
func printRunHeaders(ctx context.Context, store orphanStore, orphans []database.Orphan, w io.Writer) {
	seen := make(map[string]bool)
	for _, o := range orphans {
		if seen[o.RunID] {
			continue
		}
		seen[o.RunID] = true

		run, err := store.GetRun(ctx, o.RunID)
		if err != nil {
			fmt.Fprintf(w, "Run %s: details unavailable (%v)\n", o.RunID, err)
			continue
		}
		state := "unfinished"
		if run.FinishedAt != nil {
			state = "finished " + run.FinishedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "Run %s: started %s, %s, %d/%d assets\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), state, run.Completed, run.TotalAssets)
		if run.Error != "" {
			fmt.Fprintf(w, "  stopped by: %s\n", run.Error)
		}
	}
	fmt.Fprintln(w)
}

type resolveOptions struct {
	Yes  bool
	Keep bool
	IDs  []int64
}

func parseResolveArgs(args []string) (resolveOptions, error) {
	var opts resolveOptions

	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.Yes, "yes", false, "skip confirmation")
	fs.BoolVar(&opts.Keep, "keep", false, "mark resolved without deleting originals")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	for _, arg := range fs.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return opts, fmt.Errorf("invalid orphan id %q", arg)
		}
		opts.IDs = append(opts.IDs, id)
	}
	return opts, nil
}

// resolveReport counts what resolveOrphans did.
type resolveReport struct {
	Resolved int
	Skipped  int
	Failed   int
}

// resolveOrphans deletes the originals of the selected orphans, or only
// marks them when opts.Keep is set. An original is deleted only while its
// replacement still exists.
func resolveOrphans(ctx context.Context, store orphanStore, remover assetRemover, opts resolveOptions, confirm func(prompt string) bool, w io.Writer) (resolveReport, error) {
	var report resolveReport

	orphans, err := store.ListOrphans(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list orphans: %w", err)
	}
	orphans, missing := selectOrphans(orphans, opts.IDs)
	for _, id := range missing {
		fmt.Fprintf(w, "Orphan %d not found or already resolved\n", id)
	}
	if len(orphans) == 0 {
		fmt.Fprintln(w, "Nothing to resolve.")
		return report, nil
	}

	prompt := fmt.Sprintf("Delete the originals of %d orphan(s) from the catalog? [y/N] ", len(orphans))
	if opts.Keep {
		prompt = fmt.Sprintf("Mark %d orphan(s) as kept without deleting anything? [y/N] ", len(orphans))
	}
	if !confirm(prompt) {
		fmt.Fprintln(w, "Aborted, nothing changed.")
		return report, nil
	}

	for _, o := range orphans {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if opts.Keep {
			if err := store.ResolveOrphan(ctx, o.ID, resolutionKept); err != nil {
				fmt.Fprintf(w, "  [FAIL] %d %s: %v\n", o.ID, o.AssetID, err)
				report.Failed++
				continue
			}
			fmt.Fprintf(w, "  [KEPT] %d %s\n", o.ID, o.AssetID)
			report.Resolved++
			continue
		}

		exists, err := remover.Exists(ctx, o.NewAssetID)
		if err != nil {
			if catalog.IsFatal(err) {
				return report, err
			}
			fmt.Fprintf(w, "  [FAIL] %d %s: cannot verify replacement %s: %v\n", o.ID, o.AssetID, o.NewAssetID, err)
			report.Failed++
			continue
		}
		if !exists {
			fmt.Fprintf(w, "  [SKIP] %d %s: replacement %s no longer exists, original kept\n", o.ID, o.AssetID, o.NewAssetID)
			report.Skipped++
			continue
		}

		if err := remover.Delete(ctx, o.AssetID); err != nil && !catalog.IsNotFound(err) {
			if catalog.IsFatal(err) {
				return report, err
			}
			fmt.Fprintf(w, "  [FAIL] %d %s: %v\n", o.ID, o.AssetID, err)
			report.Failed++
			continue
		}

		if err := store.ResolveOrphan(ctx, o.ID, resolutionDeleted); err != nil {
			fmt.Fprintf(w, "  [FAIL] %d %s: original deleted but ledger not updated: %v\n", o.ID, o.AssetID, err)
			report.Failed++
			continue
		}
		fmt.Fprintf(w, "  [OK] %d %s deleted, replaced by %s\n", o.ID, o.AssetID, o.NewAssetID)
		report.Resolved++
	}

	fmt.Fprintf(w, "\nResolved: %d, skipped: %d, failed: %d\n", report.Resolved, report.Skipped, report.Failed)
	return report, nil
}

// selectOrphans filters orphans to ids, keeping ledger order. It returns
// the requested ids that matched nothing. No ids selects everything.
func selectOrphans(orphans []database.Orphan, ids []int64) ([]database.Orphan, []int64) {
	if len(ids) == 0 {
		return orphans, nil
	}

	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var selected []database.Orphan
	for _, o := range orphans {
		if wanted[o.ID] {
			selected = append(selected, o)
			delete(wanted, o.ID)
		}
	}

	var missing []int64
	for _, id := range ids {
		if wanted[id] {
			missing = append(missing, id)
			delete(wanted, id)
		}
	}
	return selected, missing
}

// terminalConfirm asks on the terminal. It refuses when in is not a
// terminal so that scripts must pass -yes explicitly.
func terminalConfirm(in *os.File, out io.Writer) func(string) bool {
	return func(prompt string) bool {
		if !term.IsTerminal(int(in.Fd())) {
			fmt.Fprintln(out, "Error: stdin is not a terminal, pass -yes to confirm non-interactively")
			return false
		}
		fmt.Fprint(out, prompt)
		return readYes(in)
	}
}

func readYes(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
