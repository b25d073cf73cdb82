package main

import (
	"github.com/spf13/cobra"
)

var deserializeCmd = &cobra.Command{
	Use:   "deserialize",
	Short: "Load cached documents and report on them",
	Args:  cobra.NoArgs,
	RunE:  runDeserialize,
}

func init() {
	rootCmd.AddCommand(deserializeCmd)
}

func runDeserialize(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.pipeline.Deserialize(cmd.Context())
	if err != nil {
		return err
	}
	sentences := 0
	for _, d := range a.pipeline.Documents() {
		sentences += len(d.Sentences)
	}
	cmd.Printf("%d entries: %d loaded (%d invalid), %d not serialized, %d unreadable; %d valid sentences\n",
		stats.Entries, stats.Cached, stats.Invalid, stats.Missing, stats.Failed, sentences)
	return nil
}
