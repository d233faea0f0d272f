// Package cmd implements wit's command-line surface: one cobra command
// per verb, each a thin RunE over internal/workspace.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yejune/wit/internal/config"
	"github.com/yejune/wit/internal/gitrepo"
	"github.com/yejune/wit/internal/witlog"
	"github.com/yejune/wit/internal/workspace"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

var (
	verboseCount    int
	repoPathFlag    []string
	prependRepoPath []string
	chdir           string
	jobsFlag        int
)

var rootCmd = &cobra.Command{
	Use:   "wit",
	Short: "Manage a workspace of interdependent git repositories",
	Long: `wit resolves, clones, and checks out a tree of git repositories whose
manifests declare dependencies on each other by name, source, and revision.

Commands (workflow order):
  init        Create a new, empty workspace
  add-pkg     Add a direct dependency to the workspace
  update-pkg  Change a direct dependency's source or revision
  update      Re-resolve and check out the whole workspace
  status      Show resolution and working-tree status
  add-dep     Add a dependency edge from inside one package
  update-dep  Change a dependency edge from inside one package
  restore     Rebuild a workspace from its lock file alone
  foreach     Run a command in every checked-out package
  inspect     Print the resolved dependency graph`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().CountVarP(&verboseCount, "verbose", "v", "increase verbosity (repeatable up to 4 times)")
	rootCmd.PersistentFlags().StringArrayVar(&repoPathFlag, "repo-path", nil, "local search path tried before any remote source (repeatable)")
	rootCmd.PersistentFlags().StringArrayVar(&prependRepoPath, "prepend-repo-path", nil, "like --repo-path, but searched first (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&chdir, "chdir", "C", "", "run as if wit had been started in <path>")
	rootCmd.PersistentFlags().IntVarP(&jobsFlag, "jobs", "j", 0, "number of concurrent clone workers")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addPkgCmd)
	rootCmd.AddCommand(updatePkgCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(addDepCmd)
	rootCmd.AddCommand(updateDepCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(foreachCmd)
	rootCmd.AddCommand(inspectCmd)

	rootCmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`)
}

// log returns a logger at the verbosity the global -v flags requested,
// falling back to the config file's default verbosity when -v was never
// passed.
func log() witlog.Logger {
	level := verboseCount
	if level == 0 {
		if cfg, err := config.Load(); err == nil {
			level = cfg.Verbosity
		}
	}
	return witlog.New(witlog.FromVerbosity(level))
}

// startDir is the directory wit should treat as "here": -C's argument,
// or the real working directory.
func startDir() (string, error) {
	if chdir != "" {
		return chdir, nil
	}
	return os.Getwd()
}

// explicitRepoPaths combines --prepend-repo-path and --repo-path into one
// ordered search list, prepend-repo-path entries first.
func explicitRepoPaths() []string {
	if len(prependRepoPath) == 0 && len(repoPathFlag) == 0 {
		return nil
	}
	out := make([]string, 0, len(prependRepoPath)+len(repoPathFlag))
	out = append(out, prependRepoPath...)
	out = append(out, repoPathFlag...)
	return out
}

// buildCloneOptions validates WIT_WORKSPACE_REFERENCE per spec.md §6:
// "must be absolute or the process refuses to start." The config file's
// reference_workspace is the fallback when the env var is unset.
func buildCloneOptions() (gitrepo.CloneOptions, error) {
	ref := os.Getenv("WIT_WORKSPACE_REFERENCE")
	if ref == "" {
		cfg, err := config.Load()
		if err != nil {
			return gitrepo.CloneOptions{}, fmt.Errorf("loading config: %w", err)
		}
		ref = cfg.ReferenceWorkspace
	}
	if ref == "" {
		return gitrepo.CloneOptions{}, nil
	}
	if !filepath.IsAbs(ref) {
		return gitrepo.CloneOptions{}, fmt.Errorf("WIT_WORKSPACE_REFERENCE must be an absolute path, got %q", ref)
	}
	return gitrepo.CloneOptions{ReferenceWorkspace: ref}, nil
}

// openWorkspace finds the workspace rooted above startDir(), wired up
// with the effective repo-path search list, job count, logger, and
// clone options every command needs.
func openWorkspace() (*workspace.Workspace, error) {
	dir, err := startDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	jobs := cfg.EffectiveJobs(jobsFlag, runtime.NumCPU())
	paths := cfg.EffectiveRepoPaths(explicitRepoPaths())

	ws, err := workspace.Find(dir, paths, jobs, log())
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

// osExit is overridable in tests.
var osExit = os.Exit

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}
