package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yejune/wit/internal/depgraph"
)

var (
	inspectTree bool
	inspectDot  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the resolved dependency graph",
	Long: `Print the currently locked dependency graph, either as an indented
tree (--tree, the default) or as Graphviz dot source (--dot).`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectTree, "tree", false, "print an indented dependency tree")
	inspectCmd.Flags().BoolVar(&inspectDot, "dot", false, "print Graphviz dot source")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	packages := ws.Lock.Packages()
	for _, pkg := range packages {
		pkg.Load(ws.Root, false, pkg.Source, pkg.Revision, ws.CloneOptions)
	}

	if inspectDot {
		printDot(packages)
		return nil
	}
	printTree(ws.Manifest.Entries(), packages, map[string]bool{}, 0)
	return nil
}

func printDot(packages map[string]*depgraph.Package) {
	l := log()
	l.Output("digraph wit {")
	names := sortedNames(packages)
	for _, name := range names {
		pkg := packages[name]
		deps, err := pkg.GetDependencies()
		if err != nil {
			continue
		}
		for _, dep := range deps {
			l.Output(fmt.Sprintf("  %q -> %q;", name, dep.Name))
		}
	}
	l.Output("}")
}

func printTree(entries []*depgraph.Dependency, packages map[string]*depgraph.Package, seen map[string]bool, depth int) {
	l := log()
	for _, dep := range entries {
		pkg, ok := packages[dep.Name]
		if !ok {
			continue
		}
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "  "
		}
		l.Output(fmt.Sprintf("%s%s", indent, pkg.Tag()))
		if seen[dep.Name] {
			continue
		}
		seen[dep.Name] = true

		children, err := pkg.GetDependencies()
		if err != nil {
			continue
		}
		printTree(children, packages, seen, depth+1)
	}
}

func sortedNames(packages map[string]*depgraph.Package) []string {
	names := make([]string, 0, len(packages))
	for name := range packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
