package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.trai.ch/forge/internal/ui/style"
)

func (c *CLI) newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the available tasks and their dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := c.app.Tasks(c.runOptions(cmd))
			if err != nil {
				return err
			}

			width := 0
			for _, task := range tasks {
				width = max(width, len(task.Name))
			}
			name := lipgloss.NewStyle().Foreground(style.Ember).Width(width + 2)
			deps := lipgloss.NewStyle().Foreground(style.Slate)

			out := cmd.OutOrStdout()
			for _, task := range tasks {
				line := name.Render(task.Name) + task.Description
				if len(task.Dependencies) > 0 {
					line += " " + deps.Render(fmt.Sprintf("%s %s", style.Arrow, strings.Join(task.Dependencies, ", ")))
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
