package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"bibsent/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse cached documents, their summaries and similar documents",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.pipeline.Deserialize(cmd.Context()); err != nil {
		return err
	}
	_, err = tea.NewProgram(tui.New(a.pipeline), tea.WithAltScreen()).Run()
	return err
}
