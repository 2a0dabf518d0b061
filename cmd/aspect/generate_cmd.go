package main

import (
	"strings"

	"github.com/go-park/weave/pkg/gen"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type generateCmd struct {
	tags      string
	recursive bool
	deps      string
	dir       string
}

func (g *generateCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [patterns]",
		Short: "write <name>_proxy.gen.go for every //@Proxy interface",
	}
	cmd.Flags().StringVar(&g.tags, "tags", "", "comma-separated list of build tags to apply")
	cmd.Flags().BoolVarP(&g.recursive, "recursive", "r", true, "load packages below the patterns too")
	cmd.Flags().StringVar(&g.deps, "deps", "", "comma-separated list of dependency path prefixes to scan")
	cmd.Flags().StringVar(&g.dir, "dir", "", "directory packages are loaded from")
	return cmd
}

func (g *generateCmd) run(c *cli, _ *cobra.Command, args []string) error {
	return gen.Do(
		gen.WithDir(g.dir),
		gen.WithPatterns(args...),
		gen.WithRecursive(g.recursive),
		gen.WithDeps(strings.Split(g.deps, ",")...),
		gen.WithTags(strings.Split(g.tags, ",")...),
		gen.WithLogger(logrus.StandardLogger()),
	)
}
