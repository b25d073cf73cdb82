package main

import (
	"github.com/spf13/cobra"
)

var serializeRefresh bool

var serializeCmd = &cobra.Command{
	Use:   "serialize",
	Short: "Process and cache every entry not cached yet",
	Long: `Extracts, segments and validates the text of every bibliography entry whose
title is not in the cache index yet, then records it. Entries that fail to
extract are recorded as invalid; interrupted ones are retried next time.`,
	Args: cobra.NoArgs,
	RunE: runSerialize,
}

func init() {
	serializeCmd.Flags().BoolVar(&serializeRefresh, "refresh", false, "forget cached entries and process them again")
	rootCmd.AddCommand(serializeCmd)
}

func runSerialize(cmd *cobra.Command, _ []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.pipeline.Serialize(cmd.Context(), serializeRefresh)
	cmd.Printf("%d entries: %d already cached, %d recorded (%d invalid), %d to retry\n",
		stats.Entries, stats.Cached, stats.Recorded, stats.Invalid, stats.Failed)
	return err
}
