package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/studyowl/offline/internal/network"
)

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync pending practice responses to the backend now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			pending, err := app.engine.PendingCount(ctx)
			if err != nil {
				return fmt.Errorf("engine.PendingCount() > %w", err)
			}
			if pending == 0 {
				fmt.Println("Nothing to sync.")
				return nil
			}

			fmt.Printf("Syncing %d pending responses...\n", pending)
			result := app.engine.TriggerSync(ctx)
			if result == nil {
				color.Red("Sync did not complete; responses stay queued for the next attempt.")
				return nil
			}
			color.Green("Synced %d, conflicts %d, failed %d", result.Synced, result.Conflicts, result.Failed)
			return nil
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the connectivity monitor and sync pending responses automatically",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			prober := network.NewPingProber(app.remote, 5*time.Second)
			monitor := network.NewMonitor(prober,
				network.WithPollInterval(time.Duration(app.cfg.Sync.PollSeconds)*time.Second),
			)
			// One drain per offline-to-online edge; the engine coalesces
			// overlapping triggers.
			monitor.OnReconnect(app.engine.RequestSync)

			go app.engine.Run(ctx)
			go monitor.Run(ctx)

			ticker := time.NewTicker(time.Duration(app.cfg.Sync.IntervalSeconds) * time.Second)
			defer ticker.Stop()

			fmt.Println("Watching connectivity; press Ctrl-C to stop.")
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					// Periodic drain catches flapping connectivity that never
					// produced a clean reconnect edge.
					if monitor.IsOnline() {
						app.engine.RequestSync()
					}
					pending, err := app.engine.PendingCount(ctx)
					if err != nil {
						continue
					}
					state := color.GreenString("online")
					if !monitor.IsOnline() {
						state = color.RedString("offline")
					}
					fmt.Printf("%s  %d pending\n", state, pending)
				}
			}
		},
	}
}
