package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/cask-engine/cask/internal/host"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [plugin...]",
		Short: "Load plugins and run the loop until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(args)
			if err != nil {
				return err
			}
			defer s.log.Sync()
			return runHost(s)
		},
	}
}

func runHost(s *session) (err error) {
	printBanner(s.cfgPath)

	// 1. Load and initialize plugins
	printSection("Plugins")
	h := host.New(s.cfg, s.log)
	defer func() {
		if stopErr := h.Stop(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown: %w", stopErr))
		}
	}()

	if err := h.Load(s.paths...); err != nil {
		return err
	}
	fresh, err := h.Start()
	if err != nil {
		return err
	}
	for _, m := range fresh {
		printOK(describe(m.Name, m.Defines, m.Requires))
	}
	printStat("Plugins", h.Registry().Len())
	printStat("Components", h.World().Len())
	fmt.Println()

	// 2. Drive the loop until interrupted
	printSection("Engine")
	printValue("Tick rate (Hz)", strconv.FormatFloat(s.cfg.Engine.TickRate, 'g', -1, 64))
	printReady("running, Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := h.Run(ctx); err != nil {
		return err
	}
	s.log.Info("shutdown signal received", zap.Int64("ticks", h.Engine().TickCount()))
	return nil
}

func describe(name string, defines, requires []string) string {
	var b strings.Builder
	b.WriteString(name)
	if len(defines) > 0 {
		b.WriteString(" defines " + strings.Join(defines, ", "))
	}
	if len(requires) > 0 {
		b.WriteString(" requires " + strings.Join(requires, ", "))
	}
	return b.String()
}
