package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/studyowl/offline/internal/quota"
)

func newPacksCommand() *cobra.Command {
	packsCommand := &cobra.Command{
		Use:   "packs",
		Short: "Manage downloaded lesson packs",
	}

	packsCommand.AddCommand(
		newPacksListCommand(),
		newPacksDeleteCommand(),
		newPacksClearCommand(),
	)
	return packsCommand
}

func newPacksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List downloaded lesson packs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			summaries, err := app.packs.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("packs.ListAll() > %w", err)
			}
			if len(summaries) == 0 {
				fmt.Println("No chapters downloaded.")
				return nil
			}

			for _, s := range summaries {
				downloadedAt := time.UnixMilli(s.DownloadedAt).Format("2006-01-02 15:04")
				fmt.Printf("%-16s %-28s %-14s %2d topics %2d questions %8s  %s\n",
					s.ChapterID, s.ChapterName, s.SubjectName,
					s.TopicCount, s.QuestionCount,
					quota.FormatBytes(s.SizeBytes), downloadedAt)
			}
			return nil
		},
	}
}

func newPacksDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chapter-id>",
		Short: "Delete one downloaded lesson pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.packs.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("packs.Delete() > %w", err)
			}
			fmt.Printf("Deleted pack for chapter %s\n", args[0])
			return nil
		},
	}
}

func newPacksClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all offline data except app metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.packs.DeleteAll(ctx); err != nil {
				return fmt.Errorf("packs.DeleteAll() > %w", err)
			}
			color.Yellow("Cleared all lesson packs, pending responses, and offline progress.")
			return nil
		},
	}
}
