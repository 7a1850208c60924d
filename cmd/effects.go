package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEffectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "effects",
		Short: "list the effect menu with its feedback classification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, lib, err := setup(cfg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODE\tSTATE\tCPU\tSOURCE")
			for _, name := range lib.Names() {
				e, _ := lib.Get(name)
				mode, state := "single-pass", "-"
				if e.Meta.UsesFeedback {
					mode, state = "feedback", e.Meta.StateChannels.String()
				}
				cpu := "no"
				if e.Kernel != nil {
					cpu = "yes"
				}
				src := "built-in"
				if e.Path != "" {
					src = e.Path
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, mode, state, cpu, src)
			}
			return w.Flush()
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "write every effect source and the metadata manifest to dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, lib, err := setup(cfg)
			if err != nil {
				return err
			}
			if err := lib.Export(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d effects to %s\n", len(lib.Names()), args[0])
			return nil
		},
	}
}
