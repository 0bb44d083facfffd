package main

import (
	"github.com/spf13/cobra"

	"phiextract/internal/extraction"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download the game package and extract it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			report, err := extraction.New(cfg, logger).FetchAndRun(cmd.Context(), url)
			writeReport(cmd.OutOrStdout(), report)
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Download URL (defaults to source.download_url or APK_DOWNLOAD_URL)")
	return cmd
}
