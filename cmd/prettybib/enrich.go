// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/delanoflipse/pretty-bib/internal/bib"
	"github.com/delanoflipse/pretty-bib/internal/cache"
	"github.com/delanoflipse/pretty-bib/internal/enrich"
	"github.com/delanoflipse/pretty-bib/internal/filter"
	"github.com/delanoflipse/pretty-bib/internal/resolve"
	"github.com/delanoflipse/pretty-bib/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <file.bib>",
	Short: "Resolve, merge and tidy every entry of a BibTeX file",
	Long: `Enrich looks up each entry's DOI with the configured resolvers (DBLP, doi.org,
Crossref, in that order by default), merges the canonical record into the
entry and removes unwanted fields. Entries that cannot be resolved are kept as
written. The result goes to <file>.out.bib.

An input file that cannot be parsed aborts the run without writing output.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringP("output", "o", "", "output file (default: <file>.out.bib)")
	enrichCmd.Flags().String("report", "", "write a YAML report of per-entry outcomes to this path")
	enrichCmd.Flags().Int("workers", 0, "entries resolved concurrently (default from config, 1)")
	enrichCmd.Flags().StringSlice("resolvers", nil, "resolver order, e.g. dblp,doi,crossref")
	enrichCmd.Flags().Bool("no-cache", false, "bypass the resolution cache")
	enrichCmd.Flags().Bool("summary", false, "print a per-entry summary table")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	input := args[0]

	names, _ := cmd.Flags().GetStringSlice("resolvers")
	if len(names) == 0 {
		names = cfg.Resolve.Order
	}
	opts := resolveOptions(cfg)
	resolvers, err := resolve.FromNames(names, opts)
	if err != nil {
		return err
	}

	entries, err := readBib(input)
	if err != nil {
		return err
	}

	noCache, _ := cmd.Flags().GetBool("no-cache")
	if cfg.Cache.Enabled && !noCache {
		store, err := cache.Open(cfg.Cache)
		if err != nil {
			return err
		}
		defer store.Close()
		for i, r := range resolvers {
			resolvers[i] = resolve.WithCache(r, store, logger)
		}
	}

	workers, _ := cmd.Flags().GetInt("workers")
	if workers == 0 {
		workers = cfg.Enrich.Workers
	}

	report, err := enrich.Run(cmd.Context(), entries, enrich.Options{
		Chain:   resolve.NewChain(logger, resolvers...),
		Filter:  filter.New(cfg.Filter),
		Logger:  logger,
		Workers: workers,
	})
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = bib.OutputPath(input)
	}
	if err := bib.WriteFile(output, report.Entries, bib.DefaultFormat); err != nil {
		return err
	}
	logger.Info("wrote", "file", output, "resolved", report.Resolved, "kept", report.Kept)

	reportPath, _ := cmd.Flags().GetString("report")
	if reportPath == "" {
		reportPath = cfg.Enrich.ReportPath
	}
	if reportPath != "" {
		if err := enrich.WriteReport(report, reportPath); err != nil {
			return err
		}
		logger.Info("wrote report", "file", reportPath)
	}

	if summary, _ := cmd.Flags().GetBool("summary"); summary {
		enrich.FormatSummary(os.Stdout, report)
	}
	return nil
}

// readBib parses a BibTeX file. Any parse error is returned as is; callers
// treat it as fatal.
func readBib(path string) ([]types.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	entries, err := bib.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}
