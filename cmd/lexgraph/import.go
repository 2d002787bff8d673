package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/lexgraph"
	"github.com/jward/lexgraph/scripts"
)

var (
	flagForce      bool
	flagScriptsDir string
	flagParallel   bool
	flagQuiet      bool
	flagScript     string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import lexical resources into the database",
	Long:  "Imports a WordNet dict directory or lexicon files. Unchanged inputs are skipped; sources with relations into a changed input are re-imported.",
}

func init() {
	importCmd.PersistentFlags().BoolVar(&flagForce, "force", false, "delete database and import from scratch")
	importCmd.PersistentFlags().StringVar(&flagScriptsDir, "scripts-dir", "", "load loader scripts from disk path instead of embedded")
	importCmd.PersistentFlags().BoolVar(&flagParallel, "parallel", true, "run loader scripts on a worker pool")
	importCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress output")

	importFilesCmd.Flags().StringVar(&flagScript, "script", "", "loader script name (default: chosen by file extension)")

	importCmd.AddCommand(importWordNetCmd)
	importCmd.AddCommand(importFilesCmd)
}

var importWordNetCmd = &cobra.Command{
	Use:   "wordnet <dict-dir>",
	Short: "Import a WordNet 3.x dict directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0], func(ctx context.Context, e *lexgraph.Engine) error {
			return e.ImportWordNet(ctx, args[0])
		})
	},
}

var importFilesCmd = &cobra.Command{
	Use:   "files <glob>...",
	Short: "Import lexicon files with a loader script",
	Long:  "Imports every file matching the glob patterns (** matches any depth). The loader script is picked by extension unless --script names one.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, fmt.Sprintf("%d pattern(s)", len(args)), func(ctx context.Context, e *lexgraph.Engine) error {
			return e.ImportFiles(ctx, flagScript, args)
		})
	},
}

func runImport(cmd *cobra.Command, what string, run func(context.Context, *lexgraph.Engine) error) error {
	start := time.Now()
	dbPath := resolveDBPath(projectRoot)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	// Handle --force: delete the DB file entirely.
	if flagForce {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing database for --force: %w", err)
			}
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	engine, err := lexgraph.New(dbPath, engineOptions(cmd)...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	if err := run(cmd.Context(), engine); err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	stats, err := engine.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Imported %s in %s (%d sources, %d senses, %d lemmas, %d relations)\n",
		what, time.Since(start).Round(time.Millisecond),
		stats.Sources, stats.Senses, stats.Lemmas, stats.Relations)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

// engineOptions builds Engine options from flags, falling back to the
// config file.
func engineOptions(cmd *cobra.Command) []lexgraph.Option {
	var opts []lexgraph.Option

	// Script source: --scripts-dir (or import.scripts_dir) overrides the
	// embedded FS.
	scriptsDir := flagScriptsDir
	if scriptsDir == "" {
		scriptsDir = cfg.Import.ScriptsDir
	}
	if scriptsDir == "" {
		opts = append(opts, lexgraph.WithScriptsFS(scripts.FS))
	} else {
		opts = append(opts, lexgraph.WithScriptsDir(scriptsDir))
	}

	parallel := cfg.ParallelImport()
	if cmd.Flags().Changed("parallel") {
		parallel = flagParallel
	}
	opts = append(opts, lexgraph.WithParallel(parallel))

	if !flagQuiet {
		opts = append(opts, lexgraph.WithLogger(log.New(os.Stderr, "", 0)))
	}
	return opts
}
