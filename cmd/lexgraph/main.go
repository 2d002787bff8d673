package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/lexgraph/internal/config"
)

var (
	flagDB     string
	flagFormat string
	flagConfig string
)

// cfg is the loaded config file, or the defaults. Set by PersistentPreRunE.
var cfg = config.Default()

// projectRoot is where relative database paths are resolved.
var projectRoot string

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lexgraph",
	Short:         "Lexical semantic graph: synonyms, hypernyms, distance and similarity",
	Long:          "Lexgraph imports lexical resources into a SQLite database and answers synonym, hierarchy, distance and similarity queries over the word-sense taxonomy.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: "+config.DefaultDB+" relative to project root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", config.DefaultFormat, "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.FileName+" in project root)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(queryCmd)
}

// setup finds the project root, loads the config file and applies it to
// any flag the user did not set.
func setup(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}
	projectRoot = findProjectRoot(cwd)

	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadOptional(filepath.Join(projectRoot, config.FileName))
	}
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("format") {
		flagFormat = cfg.Format
	}
	return validateFormat(flagFormat)
}

// findProjectRoot walks up from startDir looking for a config file or a
// .git directory. Returns startDir if neither is found.
func findProjectRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
			return dir
		}
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, the config
// file or the default, relative paths taken from root.
func resolveDBPath(root string) string {
	db := flagDB
	if db == "" {
		db = cfg.DB
	}
	if filepath.IsAbs(db) {
		return db
	}
	return filepath.Join(root, db)
}
