package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/studyowl/offline/internal/pack"
	"github.com/studyowl/offline/internal/quota"
)

func newDownloadCommand() *cobra.Command {
	var ensureSpace bool

	command := &cobra.Command{
		Use:   "download <chapter-id>",
		Short: "Download a chapter's lessons and practice questions for offline use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			chapterID := args[0]

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			download := func() pack.DownloadResult {
				result := app.packs.Download(ctx, chapterID, func(percent int) {
					fmt.Printf("\rDownloading %s... %3d%%", chapterID, percent)
				})
				fmt.Println()
				return result
			}

			result := download()
			if result.Failure == pack.FailureStorageFull && ensureSpace {
				freed, err := app.accountant.EvictLRU(ctx, result.BytesNeeded)
				if err != nil {
					return fmt.Errorf("accountant.EvictLRU() > %w", err)
				}
				color.Yellow("Storage full; evicted %s of least-recently-used packs.", quota.FormatBytes(freed))
				result = download()
			}

			if result.OK() {
				color.Green("Downloaded chapter %s (%s)", chapterID, quota.FormatBytes(result.BytesWritten))
				return nil
			}

			switch result.Failure {
			case pack.FailureStorageFull:
				color.Red("Offline storage is full. Delete packs or rerun with --ensure-space.")
			case pack.FailureNetworkError:
				color.Red("Download failed: network error. Check your connection and retry.")
			default:
				color.Red("Download failed: %v", result.Err)
			}
			return fmt.Errorf("download failed (%s): %w", result.Failure, result.Err)
		},
	}

	command.Flags().BoolVar(&ensureSpace, "ensure-space", false, "Evict least-recently-used packs when storage is full")
	return command
}
