// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"loomui.org/app"
	"loomui.org/app/headless"
	"loomui.org/internal/config"
	"loomui.org/internal/log"
	"loomui.org/storage"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "loomdemo",
		Short:        "Run a headless counter on the loom run loop",
		Long:         "Paints a counter in a headless window, persisting the count in the application state file.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cnf, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cnf, cmd.ErrOrStderr(), cmd.OutOrStdout())
		},
	}
	config.Flags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cnf config.Config, logw, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.Console(logw, cnf.LogLevel)
	log.SetDefault(logger)

	policy, err := app.ParsePolicy(cnf.RepaintNow)
	if err != nil {
		return err
	}
	store, err := openStorage(cnf, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("saving disabled")
	}

	p := headless.New(headless.WithLogger(logger))
	c := newCounter(p, store, cnf.Frames, logger)
	c.autoSave = cnf.AutoSave
	stopTicker := c.tick(p, cnf.Tick)
	defer stopTicker()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		p.Close()
	}()

	err = app.Run(p, c,
		app.RunAndReturn(cnf.RunAndReturn),
		app.RepaintNowPolicy(policy),
		app.WithLogger(logger),
	)
	fmt.Fprintf(out, "count %d\n", c.Count())
	return err
}

func openStorage(cnf config.Config, logger zerolog.Logger) (*storage.FileStorage, error) {
	if cnf.StoragePath != "" {
		return storage.New(cnf.StoragePath, storage.WithLogger(logger)), nil
	}
	return storage.FromAppID(cnf.AppID, storage.WithLogger(logger))
}
