package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/othala/internal"
	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/chain"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/mcpserver"
	"github.com/starford/othala/internal/store"
	pkgconfig "github.com/starford/othala/pkg/config"
)

// Exit codes: 0 success, 1 chain broken or general failure, 2 store not
// initialized.
const (
	exitFailure        = 1
	exitNotInitialized = 2
)

func main() {
	cmd := &cli.Command{
		Name:  "othala",
		Usage: "Persistent, tamper-evident memory for AI coding agents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "Path to the worklog store directory",
				Value:   store.DefaultDir,
				Sources: cli.EnvVars("OTHALA_STORE"),
			},
		},
		Commands: []*cli.Command{
			initCommand(),
			commitCommand(),
			verifyCommand(),
			statusCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, apperr.ErrNotInitialized) {
			fmt.Fprintln(os.Stderr, "Error: worklog store not initialized. Run 'othala init' first.")
			os.Exit(exitNotInitialized)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize the worklog store in the current directory",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "warp", Usage: "Create or append to WARP.md with the protocol directive"},
			&cli.BoolFlag{Name: "junie", Usage: "Create or append to .junie/guidelines.md with the protocol directive"},
			&cli.BoolFlag{Name: "agents", Usage: "Create or append to AGENTS.md with the protocol directive"},
			&cli.BoolFlag{Name: "all", Usage: "Apply all directive options"},
		},
		Action: runInit,
	}
}

func runInit(_ context.Context, cmd *cli.Command) error {
	res, err := store.Init(cmd.String("store"), store.InitOptions{
		Warp:   cmd.Bool("warp"),
		Junie:  cmd.Bool("junie"),
		Agents: cmd.Bool("agents"),
		All:    cmd.Bool("all"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Initialized Othala in %s\n", filepath.Dir(res.Root))
	for _, p := range res.Created {
		fmt.Printf("Created: %s\n", p)
	}
	for _, p := range res.Updated {
		fmt.Printf("Updated: %s\n", p)
	}
	for _, p := range res.Skipped {
		fmt.Printf("Skipped: %s (already contains directive)\n", p)
	}
	return nil
}

func commitCommand() *cli.Command {
	return &cli.Command{
		Name:   "commit",
		Usage:  "Commit the current draft to the hash-linked worklog",
		Action: runCommit,
	}
}

func runCommit(ctx context.Context, cmd *cli.Command) error {
	st, err := store.Open(cmd.String("store"))
	if err != nil {
		return err
	}
	res, err := chain.New(st).Commit(ctx)
	if err != nil {
		return err
	}

	prevDisplay := res.Previous
	if prevDisplay != chain.NoPrevious {
		prevDisplay = prevDisplay[:8] + "..."
	}
	fmt.Printf("Committed: %s\n", res.Filename)
	fmt.Printf("Summary: %s\n", res.Summary)
	fmt.Printf("Previous: %s\n", prevDisplay)
	return nil
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:   "verify",
		Usage:  "Verify the integrity of the hash chain",
		Action: runVerify,
	}
}

func runVerify(ctx context.Context, cmd *cli.Command) error {
	st, err := store.Open(cmd.String("store"))
	if err != nil {
		return err
	}
	rep, err := chain.New(st).Verify(ctx)
	if err != nil {
		return renderVerifyFailure(err)
	}

	fmt.Printf("✓ Chain verified: %d entries\n", rep.Entries)
	if rep.First != nil {
		fmt.Printf("  First: %s (%s)\n", rep.First.Filename, datePart(rep.First.Date))
	}
	if rep.Latest != nil {
		fmt.Printf("  Latest: %s (%s)\n", rep.Latest.Filename, datePart(rep.Latest.Date))
	}
	return nil
}

// renderVerifyFailure prints the corruption diagnostic block for chain
// breaks and converts them to a bare exit code; the block already tells the
// whole story. Other errors pass through to the generic handler.
func renderVerifyFailure(err error) error {
	var (
		linkErr *chain.LinkError
		hashErr *chain.HashError
	)
	switch {
	case errors.As(err, &linkErr):
		fmt.Fprintf(os.Stderr, "✗ Chain broken at entry %s\n\n", linkErr.Filename)
		fmt.Fprintf(os.Stderr, "Expected Previous: %s\n", linkErr.Expected)
		fmt.Fprintf(os.Stderr, "Found Previous:    %s\n\n", linkErr.Found)
		fmt.Fprintln(os.Stderr, "The history has been tampered with or corrupted.")
		return cli.Exit("", exitFailure)
	case errors.As(err, &hashErr):
		fmt.Fprintf(os.Stderr, "✗ Hash mismatch at %s\n\n", hashErr.Filename)
		fmt.Fprintf(os.Stderr, "Content hashes to: %s\n", hashErr.Computed)
		fmt.Fprintf(os.Stderr, "Filename claims:   %s\n\n", hashErr.Claimed)
		fmt.Fprintln(os.Stderr, "The history has been tampered with or corrupted.")
		return cli.Exit("", exitFailure)
	}
	return err
}

// datePart trims an ISO-8601 timestamp to its calendar date.
func datePart(date string) string {
	if i := strings.Index(date, "T"); i >= 0 {
		return date[:i]
	}
	return date
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Display current worklog state",
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	st, err := store.Open(cmd.String("store"))
	if err != nil {
		return err
	}
	status, err := chain.New(st).Status(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Othala Status")
	fmt.Println("─────────────")
	fmt.Printf("History: %d entries\n", status.Entries)
	if status.Latest != nil {
		fmt.Printf("Latest:  %s (%s)\n", status.Latest.Filename, status.Latest.Date)
		fmt.Printf("         %q\n", status.Latest.Summary)
	}
	fmt.Println()

	switch status.Draft {
	case chain.DraftPopulated:
		fmt.Println("Draft:   Has content (uncommitted work)")
		fmt.Printf("         Summary: %q\n", status.DraftSummary)
	case chain.DraftEmpty:
		fmt.Println("Draft:   Empty (ready for new work)")
	case chain.DraftMissing:
		fmt.Println("Draft:   Not found")
	}
	fmt.Println()

	if status.ChainErr != nil {
		fmt.Printf("Chain:   ✗ %v\n", status.ChainErr)
	} else {
		fmt.Println("Chain:   ✓ Verified")
	}
	return nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the read-only inspection API with live updates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("OTHALA_CONFIG_FILE"),
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{internal.WithConfig(cfg)}
	if cmd.IsSet("store") {
		opts = append(opts, internal.WithStorePath(cmd.String("store")))
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Run the MCP stdio server exposing worklog tools",
		Action: runMCP,
	}
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	st, err := store.Open(cmd.String("store"))
	if err != nil {
		return err
	}
	engine := chain.New(st)

	db, err := index.Open(filepath.Join(st.Root(), "index.db"))
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Stdout carries the MCP protocol; logs must go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := index.Sync(db, st, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(engine, db).ServeStdio()
}
