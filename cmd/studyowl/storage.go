package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/studyowl/offline/internal/quota"
)

// byteSize is a flag value accepting counts like "512", "10MB" or "1.5GB".
type byteSize int64

var _ pflag.Value = (*byteSize)(nil)

func (b *byteSize) String() string {
	return quota.FormatBytes(int64(*b))
}

func (b *byteSize) Set(s string) error {
	n, err := quota.ParseBytes(s)
	if err != nil {
		return err
	}
	*b = byteSize(n)
	return nil
}

func (b *byteSize) Type() string {
	return "bytes"
}

func newStorageCommand() *cobra.Command {
	storageCommand := &cobra.Command{
		Use:   "storage",
		Short: "Show offline storage usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			info, err := app.accountant.Info(ctx)
			if err != nil {
				return fmt.Errorf("accountant.Info() > %w", err)
			}

			fmt.Printf("%s\n", usageBar(info.UsagePercentage, 40))
			fmt.Printf("Used:      %s of %s (%.0f%%)\n",
				quota.FormatBytes(info.UsedBytes), quota.FormatBytes(info.TotalBytes), info.UsagePercentage)
			fmt.Printf("Available: %s\n", quota.FormatBytes(info.AvailableBytes))
			if info.IsNearLimit {
				color.Yellow("Storage is nearly full; old lesson packs will be evicted for new downloads.")
			}
			return nil
		},
	}

	storageCommand.AddCommand(newStorageEvictCommand())
	return storageCommand
}

// usageBar renders storage usage as a fixed-width bar, red past the
// near-limit threshold.
func usageBar(percentage float64, width int) string {
	filled := int(percentage / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", width-filled)
	if percentage >= quota.NearLimitThreshold*100 {
		return "[" + color.RedString(bar) + "]"
	}
	return "[" + color.GreenString(bar) + "]"
}

func newStorageEvictCommand() *cobra.Command {
	targetBytes := byteSize(10 * 1024 * 1024)

	command := &cobra.Command{
		Use:   "evict",
		Short: "Evict least-recently-used lesson packs to free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			freed, err := app.accountant.EvictLRU(ctx, int64(targetBytes))
			if err != nil {
				return fmt.Errorf("accountant.EvictLRU() > %w", err)
			}
			fmt.Printf("Freed %s\n", quota.FormatBytes(freed))
			if freed < int64(targetBytes) {
				color.Yellow("Freed less than requested; no more packs to evict.")
			}
			return nil
		},
	}

	command.Flags().Var(&targetBytes, "bytes", "Space to free, e.g. 512KB or 10MB")
	return command
}
