package cmd

import (
	"github.com/spf13/cobra"
)

var updatePkgMessage string

var updatePkgCmd = &cobra.Command{
	Use:   "update-pkg <repo[::rev]>",
	Short: "Change a direct dependency's source or revision",
	Long: `Repoint an existing direct dependency at a new source and/or
revision in the workspace manifest. Like add-pkg, this only writes
wit-workspace.json — it never touches wit-lock.json or any checkout.
Run 'wit update' afterward to pick up the change.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdatePkg,
}

func init() {
	updatePkgCmd.Flags().StringVar(&updatePkgMessage, "comment", "", "free-text message recorded alongside the manifest entry")
}

func runUpdatePkg(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	return ws.UpdateDependency(args[0], updatePkgMessage)
}
