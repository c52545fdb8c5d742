// Package commands implements the CLI commands for forge.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/build"
	"go.trai.ch/forge/internal/core/domain"
)

// CLI represents the command line interface for forge.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, target string, opts app.RunOptions) error
	Tasks(opts app.RunOptions) ([]domain.Task, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:   "forge [task]",
		Short: "Bundle, copy and serve a static front-end project",
		Long: "forge builds a static front-end project: it bundles the JavaScript entry module,\n" +
			"mirrors static assets into the output directory and serves the result with live reload.\n" +
			"Without a task, forge runs serve.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := app.TaskServe
			if len(args) == 1 {
				target = args[0]
			}
			return c.app.Run(cmd.Context(), target, c.runOptions(cmd))
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.BoolP("production", "p", false, "Minify the bundle and omit source maps")
	flags.StringP("config", "c", "", "Path to the configuration file (default forge.yaml if present)")
	flags.Bool("json", false, "Emit logs as JSON")

	c.rootCmd = rootCmd

	for _, tc := range taskCommands {
		rootCmd.AddCommand(c.newTaskCmd(tc))
	}
	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newTasksCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// runOptions reads the persistent flags shared by every command.
func (c *CLI) runOptions(cmd *cobra.Command) app.RunOptions {
	production, _ := cmd.Flags().GetBool("production")
	configPath, _ := cmd.Flags().GetString("config")
	jsonLogs, _ := cmd.Flags().GetBool("json")

	return app.RunOptions{
		ConfigPath: configPath,
		Production: production,
		JSONLogs:   jsonLogs,
	}
}
