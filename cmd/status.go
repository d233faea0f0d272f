package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show resolution and working-tree status",
	Long: `For every locked package: report whether it's missing, clean, or has
modified/untracked files, and whether a fresh resolve (without
downloading) would choose a different revision than what's locked.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	report, err := ws.Status()
	if err != nil {
		return err
	}

	l := log()
	for _, pkg := range report.Packages {
		switch {
		case pkg.Missing:
			l.Output(fmt.Sprintf("%-24s missing", pkg.Name))
		default:
			state := "clean"
			switch {
			case pkg.ModifiedManifest:
				state = "modified manifest"
			case pkg.Modified:
				state = "modified"
			case pkg.Untracked:
				state = "untracked files"
			case pkg.NewCommits:
				state = "new commits"
			}
			line := fmt.Sprintf("%-24s %-20s %s", pkg.Name, state, pkg.LockRevision)
			if pkg.OutOfDate {
				line += fmt.Sprintf(" (would resolve to %s)", pkg.WouldResolve)
			}
			if pkg.NewCommits && state != "new commits" {
				line += " (new commits; manifest's committed revision still wins on resolve)"
			}
			l.Output(line)
		}
	}
	return nil
}
