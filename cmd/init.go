package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yejune/wit/internal/config"
	"github.com/yejune/wit/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new, empty workspace",
	Long: `Create a new workspace directory named <name> with an empty
wit-workspace.json and wit-lock.json, ready for 'wit add-pkg'.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	name := args[0]

	dir, err := startDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	jobs := cfg.EffectiveJobs(jobsFlag, runtime.NumCPU())
	paths := cfg.EffectiveRepoPaths(explicitRepoPaths())

	ws, err := workspace.Create(dir, name, paths, jobs, log())
	if err != nil {
		return err
	}

	opts, err := buildCloneOptions()
	if err != nil {
		return err
	}
	ws.CloneOptions = opts

	log().Info("initialized an empty workspace at %s", ws.Root)
	return nil
}
