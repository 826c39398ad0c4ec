package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/studyowl/offline/internal/appmeta"
	"github.com/studyowl/offline/internal/pack"
	"github.com/studyowl/offline/internal/progress"
	"github.com/studyowl/offline/internal/quota"
)

// exportSnapshot is the YAML shape written by the export command.
type exportSnapshot struct {
	Metadata appmeta.Metadata           `yaml:"metadata"`
	Storage  quota.Info                 `yaml:"storage"`
	Packs    []pack.Summary             `yaml:"packs"`
	Progress []progress.OfflineProgress `yaml:"progress"`
}

func newExportCommand() *cobra.Command {
	var outputFile string

	command := &cobra.Command{
		Use:   "export",
		Short: "Export downloaded packs, progress and app metadata as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			metadata, err := app.meta.Get(ctx)
			if err != nil {
				return fmt.Errorf("meta.Get() > %w", err)
			}
			info, err := app.accountant.Info(ctx)
			if err != nil {
				return fmt.Errorf("accountant.Info() > %w", err)
			}
			summaries, err := app.packs.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("packs.ListAll() > %w", err)
			}
			records, err := app.progressRepo.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("progressRepo.FindAll() > %w", err)
			}

			snapshot := exportSnapshot{
				Metadata: metadata,
				Storage:  info,
				Packs:    summaries,
				Progress: records,
			}

			var out io.Writer = os.Stdout
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("os.Create() > %w", err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}

			enc := yaml.NewEncoder(out)
			defer func() { _ = enc.Close() }()
			if err := enc.Encode(snapshot); err != nil {
				return fmt.Errorf("yaml.Encode() > %w", err)
			}
			return nil
		},
	}
	command.Flags().StringVarP(&outputFile, "output", "o", "", "write the snapshot to a file instead of stdout")
	return command
}
