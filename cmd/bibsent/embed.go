package main

import (
	"github.com/spf13/cobra"

	"bibsent/internal/domain"
)

var embedOverwrite bool

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Compute and save the embedding batch of the cached documents",
	Long: `Builds the lemma corpus of the valid cached documents and embeds it with the
configured backend. Embedding is expensive, so nothing is computed or written
unless --overwrite is given.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().BoolVar(&embedOverwrite, "overwrite", false, "compute embeddings and replace any saved batch")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if !embedOverwrite {
		// no file is touched without confirmation
		cmd.Printf("nothing done: %v; pass --overwrite to compute embeddings\n", domain.ErrOverwriteGuard)
		return nil
	}
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.pipeline.Deserialize(cmd.Context()); err != nil {
		return err
	}
	batch, err := a.pipeline.Embed(cmd.Context(), true)
	if err != nil {
		return err
	}
	cmd.Printf("run %s: %d vectors from %s\n", batch.RunID, batch.Len(), batch.Model)
	return nil
}
