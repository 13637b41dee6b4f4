package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"memoria/internal/catalog"
	"memoria/internal/config"
	"memoria/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				lockPath := filepath.Join(cfg.Paths.LogDir, "memoriad.lock")
				running, err := daemonLockHeld(lockPath)
				switch {
				case err != nil:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, err.Error(), colorize))
				case running:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "running", colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
				}
				serial := deps.CheckSerialDevice(cfg)
				if serial.Available {
					fmt.Fprintln(out, renderStatusLine("Serial device", statusOK, cfg.Hardware.SerialDevice, colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Serial device", statusWarn,
						fmt.Sprintf("%s (%s)", cfg.Hardware.SerialDevice, serial.Detail), colorize))
				}

				for _, line := range renderSectionHeader("Tools", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, tool := range deps.CheckBinaries(deps.Requirements(cfg)) {
					if tool.Available {
						fmt.Fprintln(out, renderStatusLine(tool.Name, statusOK, "available", colorize))
					} else {
						fmt.Fprintln(out, renderStatusLine(tool.Name, statusWarn, tool.Detail, colorize))
					}
				}

				for _, line := range renderSectionHeader("Catalog", colorize) {
					fmt.Fprintln(out, line)
				}
				categories, err := store.ListCategories(cmd.Context())
				if err != nil {
					return fmt.Errorf("list categories: %w", err)
				}
				recordings, err := store.ListRecordings(cmd.Context())
				if err != nil {
					return fmt.Errorf("list recordings: %w", err)
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, store.Path(), colorize))
				fmt.Fprintln(out, renderStatusLine("Categories", statusInfo, fmt.Sprintf("%d", len(categories)), colorize))
				fmt.Fprintln(out, renderStatusLine("Recordings", statusInfo, fmt.Sprintf("%d", len(recordings)), colorize))

				unnamed := 0
				for _, category := range categories {
					if strings.TrimSpace(category.NameAudioPath) == "" {
						unnamed++
					}
				}
				if unnamed > 0 {
					fmt.Fprintln(out, renderStatusLine("Announcements", statusWarn,
						fmt.Sprintf("%d categories without audio", unnamed), colorize))
				}
				return nil
			})
		},
	}
}

// daemonLockHeld reports whether another process holds the daemon lock.
func daemonLockHeld(path string) (bool, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("check lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	_ = lock.Unlock()
	return false, nil
}
