package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/go-park/weave/pkg/aspect"
	"github.com/go-park/weave/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type checkCmd struct{}

func (*checkCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.yaml>",
		Short: "load an advisor definition and print its advisors in chain order",
	}
}

func (*checkCmd) run(c *cli, _ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("a definition file must be provided")
	}
	def, err := config.LoadFile(args[0])
	if err != nil {
		return err
	}
	advisors, err := def.Build(config.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tNAME\tADVICE")
	for _, a := range aspect.SortAdvisors(advisors) {
		fmt.Fprintf(w, "%s\t%s\t%T\n", order(a.Order()), a.Name(), a.Advice())
	}
	if len(def.Interfaces) > 0 {
		fmt.Fprintf(w, "\ninterfaces: %v\n", def.Interfaces)
	}
	return w.Flush()
}

func order(o int) string {
	switch o {
	case aspect.HighestPrecedence:
		return "highest"
	case aspect.LowestPrecedence:
		return "lowest"
	}
	return fmt.Sprint(o)
}
