// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/delanoflipse/pretty-bib/internal/bib"
	"github.com/delanoflipse/pretty-bib/internal/snowball"
)

var snowballCmd = &cobra.Command{
	Use:   "snowball <file.bib>",
	Short: "Collect the works cited by each entry",
	Long: `Snowball reads the Crossref reference list of every entry that has a DOI.
References without a DOI are looked up by title. The distinct references are
written as JSON to <file>.json and as BibTeX to <file>.snowball.bib.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnowball,
}

func init() {
	rootCmd.AddCommand(snowballCmd)
}

func runSnowball(cmd *cobra.Command, args []string) error {
	input := args[0]
	entries, err := readBib(input)
	if err != nil {
		return err
	}

	res, err := snowball.New(resolveOptions(cfg), logger).Run(cmd.Context(), entries)
	if err != nil {
		return err
	}
	if err := snowball.WriteOutputs(res, input, bib.DefaultFormat); err != nil {
		return err
	}
	logger.Info("snowballed", "references", len(res.References), "entries", len(res.Entries), "failed", res.Failed)
	return nil
}
