package cmd

import (
	"github.com/spf13/cobra"
)

var updateDepMessage string

var updateDepCmd = &cobra.Command{
	Use:   "update-dep <pkg[::rev]>",
	Short: "Change a dependency edge from inside one package",
	Long: `Repoint an existing dependency edge in the manifest of the package
whose directory the command is run from (or -C points at).`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateDep,
}

func init() {
	updateDepCmd.Flags().StringVar(&updateDepMessage, "comment", "", "free-text message recorded alongside the manifest entry")
}

func runUpdateDep(cmd *cobra.Command, args []string) error {
	ws, name, err := openWorkspaceAndPackage()
	if err != nil {
		return err
	}
	if err := ws.UpdateDep(name, args[0], updateDepMessage); err != nil {
		return err
	}
	log().Info("updated %s in %s", args[0], name)
	return nil
}
