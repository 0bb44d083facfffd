package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"phiextract/internal/config"
	"phiextract/internal/fetch"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var url string
	var dest string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the game package",
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
			if strings.TrimSpace(url) == "" {
				url = cfg.Source.DownloadURL
			}
			target := cfg.DownloadPath()
			if strings.TrimSpace(dest) != "" {
				if target, err = config.ExpandPath(dest); err != nil {
					return fmt.Errorf("--dest: %w", err)
				}
			}
			res, err := fetch.Download(cmd.Context(), url, target, fetch.Options{
				Timeout: time.Duration(cfg.Source.DownloadTimeout) * time.Second,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderStatusLine("Download", statusOK,
				fmt.Sprintf("%s (%d bytes in %s)", res.Path, res.Bytes, formatDuration(res.Duration)), colorize))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Download URL (defaults to source.download_url or APK_DOWNLOAD_URL)")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination file (defaults to work_dir/download_name)")
	return cmd
}
