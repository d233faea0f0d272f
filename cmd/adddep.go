package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yejune/wit/internal/workspace"
)

var addDepMessage string

var addDepCmd = &cobra.Command{
	Use:   "add-dep <pkg[::rev]>",
	Short: "Add a dependency edge from inside one package",
	Long: `Add a new dependency edge to the manifest of the package whose
directory the command is run from (or -C points at). Only edits that
package's own working-tree wit-manifest.json; run 'wit update' afterward
to pick the new edge up.`,
	Args: cobra.ExactArgs(1),
	RunE: runAddDep,
}

func init() {
	addDepCmd.Flags().StringVar(&addDepMessage, "comment", "", "free-text message recorded alongside the manifest entry")
}

func runAddDep(cmd *cobra.Command, args []string) error {
	ws, name, err := openWorkspaceAndPackage()
	if err != nil {
		return err
	}
	if err := ws.AddDep(name, args[0], addDepMessage); err != nil {
		return err
	}
	log().Info("added %s to %s", args[0], name)
	return nil
}

// openWorkspaceAndPackage finds the enclosing workspace and requires
// the start directory be exactly one level below its root — the
// "currently inside a package" precondition add-dep/update-dep share.
// Grounded on main.py's add_dep/update_dep cwd validation.
func openWorkspaceAndPackage() (*workspace.Workspace, string, error) {
	ws, err := openWorkspace()
	if err != nil {
		return nil, "", err
	}
	dir, err := startDir()
	if err != nil {
		return nil, "", err
	}
	rel, err := filepath.Rel(ws.Root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return nil, "", fmt.Errorf("not inside a package directory directly under the workspace root")
	}
	return ws, rel, nil
}
