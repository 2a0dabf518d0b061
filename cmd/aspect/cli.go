package main

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type cli struct {
	rootCmd *cobra.Command
	out     io.Writer
	verbose bool
}

type command interface {
	registerFlags() *cobra.Command
	run(c *cli, cmd *cobra.Command, args []string) error
}

func newCLI(out io.Writer) *cli {
	c := &cli{out: out}
	c.rootCmd = &cobra.Command{
		Use:           "aspect",
		Short:         "aspect generates interface proxies and checks advisor definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if c.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output")
	c.rootCmd.SetOutput(out)

	c.addCmd(&generateCmd{})
	c.addCmd(&checkCmd{})
	return c
}

func (c *cli) Exec() error {
	return c.rootCmd.Execute()
}

func (c *cli) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}
