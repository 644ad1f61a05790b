package main

import (
	"github.com/spf13/cobra"

	"parsenumber/internal/config"
	"parsenumber/internal/logging"
	"parsenumber/internal/probe"
)

func newProbeCmd() *cobra.Command {
	var (
		configPath string
		maxRows    int
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Sample the configured input and report which columns parse as numbers",
		Long: `probe reads the source and parser sections of a pipeline file, samples up to
--rows rows, and prints for every column how many values parse as Int and as
Double, with a suggested target type. Operator and storage are ignored.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.SetLogger(logging.New(cmd.ErrOrStderr(), verbose))
			p, err := config.Load(configPath)
			if err != nil {
				return err
			}
			rep, err := probe.Run(cmd.Context(), p, maxRows)
			if err != nil {
				return err
			}
			return rep.Render(cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&configPath, FlagNameConfig, "c", "pipeline.json", "pipeline config JSON path")
	f.IntVar(&maxRows, "rows", probe.DefaultMaxRows, "maximum rows to sample")
	f.BoolVarP(&verbose, FlagNameVerbose, "v", false, "enable debug logs")
	return cmd
}
