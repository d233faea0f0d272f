package cmd

import (
	"github.com/spf13/cobra"
)

var addPkgMessage string

var addPkgCmd = &cobra.Command{
	Use:   "add-pkg <repo[::rev]>",
	Short: "Add a direct dependency to the workspace",
	Long: `Add a new direct dependency to the workspace manifest. This only
writes wit-workspace.json; it never touches wit-lock.json or any
checkout. Run 'wit update' afterward to resolve and check it out.

<repo> is a source (a URL, a filesystem path, or the name of a package
already present in the workspace or cached under .wit); an optional
"::<rev>" suffix pins a branch, tag, or commit (default HEAD).`,
	Args: cobra.ExactArgs(1),
	RunE: runAddPkg,
}

func init() {
	addPkgCmd.Flags().StringVar(&addPkgMessage, "comment", "", "free-text message recorded alongside the manifest entry")
}

func runAddPkg(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	return ws.AddDependency(args[0], addPkgMessage)
}
