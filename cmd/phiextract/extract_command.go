package main

import (
	"github.com/spf13/cobra"

	"phiextract/internal/extraction"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [archive]",
		Short: "Extract the game data tables from an archive",
		Long: "Extract reads the archive given as an argument, the configured source.archive_path,\n" +
			"or the installed package when running on the device, and writes the tables to the\n" +
			"output directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			var archive string
			if len(args) == 1 {
				archive = args[0]
			}
			report, err := extraction.New(cfg, logger).Run(cmd.Context(), archive)
			writeReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}
