package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yejune/wit/internal/depgraph"
)

var foreachContinueOnFail bool

// foreachCmd disables cobra's flag parsing: everything after "foreach"
// is the command to run in each package, including anything that looks
// like a flag (e.g. "wit foreach ls -la"). --continue-on-fail is
// recognized only as the literal first argument, matching the
// original's argparse.REMAINDER-style handling of the wrapped command.
var foreachCmd = &cobra.Command{
	Use:   "foreach [--continue-on-fail] <cmd> [args...]",
	Short: "Run a command in every checked-out package",
	Long: `Run <cmd> with [args...] once per locked package, with its working
directory set to that package's checkout. Each invocation sees
WIT_REPO_NAME, WIT_REPO_PATH, WIT_LOCK_SOURCE, WIT_LOCK_COMMIT, and
WIT_WORKSPACE in its environment. By default the first failing
invocation stops the loop; --continue-on-fail runs every package
regardless and exits 1 if any failed.`,
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE:               runForeach,
}

func runForeach(cmd *cobra.Command, args []string) error {
	foreachContinueOnFail = false
	if len(args) > 0 && args[0] == "--continue-on-fail" {
		foreachContinueOnFail = true
		args = args[1:]
	}
	if len(args) == 0 {
		return fmt.Errorf("foreach requires a command to run")
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	names := make([]string, 0, ws.Lock.Len())
	for name := range ws.Lock.Packages() {
		names = append(names, name)
	}

	var failures []string
	for _, name := range names {
		pkg, _ := ws.Lock.Get(name)
		if err := runForeachOne(ws.Root, pkg, args); err != nil {
			log().Warn("%s: %v", name, err)
			failures = append(failures, name)
			if !foreachContinueOnFail {
				break
			}
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("foreach failed in %d package(s): %v", len(failures), failures)
	}
	return nil
}

func runForeachOne(wsRoot string, pkg *depgraph.Package, args []string) error {
	dir := filepath.Join(wsRoot, pkg.Name)

	c := exec.Command(args[0], args[1:]...)
	c.Dir = dir
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Stdin = os.Stdin
	c.Env = append(os.Environ(),
		"WIT_REPO_NAME="+pkg.Name,
		"WIT_REPO_PATH="+dir,
		"WIT_LOCK_SOURCE="+pkg.Source,
		"WIT_LOCK_COMMIT="+pkg.Revision,
		"WIT_WORKSPACE="+wsRoot,
	)
	return c.Run()
}
