package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
)

// taskCommand describes a subcommand that runs one task.
type taskCommand struct {
	name  string
	short string
}

var taskCommands = []taskCommand{
	{name: app.TaskBuild, short: "Bundle the entry module"},
	{name: app.TaskCleanBuild, short: "Empty the output directory, copy static assets and bundle"},
	{name: app.TaskRemoveAllFiles, short: "Empty the output directory"},
	{name: app.TaskCopyStatic, short: "Empty the output directory and copy static assets"},
	{name: app.TaskWatchJS, short: "Bundle and reload connected browsers"},
	{name: app.TaskWatchStatic, short: "Copy static assets and reload connected browsers"},
}

func (c *CLI) newTaskCmd(tc taskCommand) *cobra.Command {
	return &cobra.Command{
		Use:   tc.name,
		Short: tc.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Run(cmd.Context(), tc.name, c.runOptions(cmd))
		},
	}
}

func (c *CLI) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   app.TaskServe,
		Short: "Clean build, then serve the output with live reload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := c.runOptions(cmd)
			opts.Port, _ = cmd.Flags().GetInt("port")
			opts.NoOpen, _ = cmd.Flags().GetBool("no-open")
			return c.app.Run(cmd.Context(), app.TaskServe, opts)
		},
	}
	cmd.Flags().Int("port", 0, "Port to listen on (overrides the configuration)")
	cmd.Flags().Bool("no-open", false, "Do not open a browser tab")
	return cmd
}
