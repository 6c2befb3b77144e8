package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tsukikage7/cronkit/config"
)

func newValidateCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and parse every task expression",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDaemon(cfgFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range cfg.Tasks {
				fmt.Fprintf(out, "ok  %-24s %s\n", t.Name, t.Cron)
			}
			fmt.Fprintf(out, "%d task(s) valid\n", len(cfg.Tasks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "cronkit.yaml", "config file")
	return cmd
}
