package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/robertpaananen/llpp/internal/model"
	"github.com/robertpaananen/llpp/internal/visualization"
	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [scenario.yaml]",
		Short: "Animate a scenario in the terminal",
		Long: `Animate a scenario one tick per frame.

In the terminal view, space pauses, f refits the grid and q quits.
With --serve, the model runs headless and the current state is served over
HTTP instead: '/' returns the ASCII grid, '/api/snapshot' returns JSON.
A tick count of 0 runs until interrupted.

Examples:
  llpp view --agents 30 --interval 50ms
  llpp view crossing.yaml --mode resolve --ticks 0
  llpp view --serve localhost:8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			serveAddr, _ := cmd.Flags().GetString("serve")
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}

			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			settings, err := resolveSimSettings(cmd, env)
			if err != nil {
				return err
			}
			sc, err := loadScenario(cmd, args)
			if err != nil {
				return err
			}

			agents, waypoints := sc.Build()
			mcfg := model.Config{
				Strategy:  settings.kind,
				Workers:   settings.workers,
				Mode:      settings.mode,
				Logger:    env.logger,
				Decisions: env.decisions,
			}

			ctx, cancel := interruptContext(cmd.Context())
			defer cancel()

			if cmd.Flags().Changed("serve") {
				live := visualization.NewLive(string(settings.kind), string(settings.mode), sc.InitialPositions(), waypoints)
				mcfg.Observers = []model.Observer{live}
				m, err := model.Setup(agents, waypoints, mcfg)
				if err != nil {
					return err
				}
				defer m.Close()
				return serveModel(ctx, cmd.OutOrStdout(), m, live, serveAddr, settings.ticks, interval)
			}

			m, err := model.Setup(agents, waypoints, mcfg)
			if err != nil {
				return err
			}
			defer m.Close()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("failed to create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("failed to initialize screen: %w", err)
			}
			defer screen.Fini()

			err = visualization.NewViewer(screen, m, settings.ticks, interval).Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().String("strategy", "", "Execution strategy (default from config)")
	cmd.Flags().Duration("interval", 100*time.Millisecond, "Time between ticks")
	cmd.Flags().String("serve", "", "Serve snapshots over HTTP at this address instead of drawing (\"\" picks a free port)")

	return cmd
}

// serveModel ticks m on interval and serves live over HTTP until ctx is
// cancelled. Ticking stops once ticks is reached; serving does not.
func serveModel(ctx context.Context, out io.Writer, m *model.Model, live *visualization.Live, addr string, ticks int, interval time.Duration) error {
	srv := visualization.NewServer(live)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

	// Wait for server to start
	deadline := time.Now().Add(3 * time.Second)
	for srv.Addr() == "" && time.Now().Before(deadline) {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
	if srv.Addr() == "" {
		return fmt.Errorf("server failed to start")
	}

	fmt.Fprintf(out, "Snapshot server running at http://%s\n", srv.Addr())
	fmt.Fprintf(out, "Press Ctrl-C to stop.\n")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ticker.C:
			if ticks == 0 || m.Ticks() < ticks {
				m.Tick()
			}
		}
	}
}
