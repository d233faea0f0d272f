package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/yejune/wit/internal/config"
	"github.com/yejune/wit/internal/lock"
	"github.com/yejune/wit/internal/workspace"
)

var (
	restoreFromWorkspace string
	restoreForce         bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore [name]",
	Short: "Rebuild a workspace from its lock file alone",
	Long: `Clone and check out every package recorded in an existing
wit-lock.json, ignoring the workspace manifest entirely. With [name],
creates a fresh workspace directory first; if a directory of that name
already exists it asks for confirmation (skipped with --force), and it
fails if that directory already holds a wit-workspace.json. With
--from-workspace <path>, copies that workspace's lock file in as the
starting point.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreFromWorkspace, "from-workspace", "", "copy the lock file from an existing workspace at <path>")
	restoreCmd.Flags().BoolVarP(&restoreForce, "force", "f", false, "create the workspace in an existing directory without asking")
}

func runRestore(cmd *cobra.Command, args []string) error {
	dir, err := startDir()
	if err != nil {
		return err
	}

	var ws *workspace.Workspace
	if len(args) == 1 {
		ws, err = createRestoreTarget(dir, args[0])
	} else {
		ws, err = openWorkspace()
	}
	if err != nil {
		return err
	}

	if restoreFromWorkspace != "" {
		if err := copyLockFrom(restoreFromWorkspace, ws); err != nil {
			return err
		}
	}

	if err := ws.Restore(); err != nil {
		return err
	}
	log().Info("restored %d packages", ws.Lock.Len())
	return nil
}

func createRestoreTarget(parentDir, name string) (*workspace.Workspace, error) {
	target := filepath.Join(parentDir, name)
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		if !restoreForce {
			confirmed := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("%s already exists; create the workspace in it?", target),
			}
			if err := survey.AskOne(prompt, &confirmed); err != nil {
				return nil, err
			}
			if !confirmed {
				return nil, fmt.Errorf("restore cancelled")
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	jobs := cfg.EffectiveJobs(jobsFlag, runtime.NumCPU())
	paths := cfg.EffectiveRepoPaths(explicitRepoPaths())

	ws, err := workspace.Create(parentDir, name, paths, jobs, log())
	if err != nil {
		return nil, err
	}
	opts, err := buildCloneOptions()
	if err != nil {
		return nil, err
	}
	ws.CloneOptions = opts
	return ws, nil
}

func copyLockFrom(sourceWorkspace string, ws *workspace.Workspace) error {
	source, err := workspace.Find(sourceWorkspace, nil, 1, log())
	if err != nil {
		return fmt.Errorf("reading source workspace %s: %w", sourceWorkspace, err)
	}
	ws.Lock = lock.FromPackages(ws.Lock.Path(), source.Lock.Packages())
	return ws.Lock.Save()
}
