package cmd

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-resolve and check out the whole workspace",
	Long: `Resolve the workspace manifest with downloads enabled. If resolution
reports no errors, check out every resolved package and rewrite the
lock; otherwise print the errors and exit 1.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	if err := ws.Update(); err != nil {
		return err
	}
	log().Info("workspace up to date (%d packages)", ws.Lock.Len())
	return nil
}
