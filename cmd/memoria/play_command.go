package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"memoria/internal/audio"
	"memoria/internal/catalog"
	"memoria/internal/config"
	"memoria/internal/logging"
	"memoria/internal/player"
)

// newPlayCommand plays a category (or a year with --year) from the terminal,
// the same path the dial takes inside the daemon.
func newPlayCommand(ctx *commandContext) *cobra.Command {
	var byYear bool

	cmd := &cobra.Command{
		Use:   "play <selection>",
		Short: "Play a category's recordings, or a year's with --year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selection, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid selection %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				prober := audio.NewFFprobeProber(cfg.FFprobeBinary(),
					time.Duration(cfg.Audio.ProbeTimeout)*time.Second)
				ctrl := player.NewController(cfg, store,
					audio.NewFFplayPlayer(cfg.FFplayBinary()), prober, nil, logger)

				mode := player.ModeByTopic
				if byYear {
					mode = player.ModeByYear
				}
				return ctrl.Play(cmd.Context(), selection, mode)
			})
		},
	}

	cmd.Flags().BoolVar(&byYear, "year", false, "Treat the selection as a calendar year")
	return cmd
}
