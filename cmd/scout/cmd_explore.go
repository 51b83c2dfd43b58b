package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"uiscout/internal/bridge/capture"
	"uiscout/internal/bridge/web"
	"uiscout/internal/explore"
)

var (
	exploreMode   string
	exploreBridge string
	explorePage   string
	exploreAppVer string
	exploreJobs   int
)

// exploreCmd runs exploration sessions
var exploreCmd = &cobra.Command{
	Use:   "explore [app]...",
	Short: "Explore apps and learn their UI",
	Long: `Runs an exploration session per app and records every screen, element,
and voice command it learns.

Comprehensive mode walks the whole reachable UI, activating each safe
element in turn. Incremental mode only registers screens as they appear
and never performs a gesture.

With the web bridge the app id is the site's host name; the session opens
https://<app>/ unless --url points somewhere else. The capture bridge reads
snapshots a platform companion drops into the capture directory, so it can
only run incrementally.

Example:
  scout explore shop.example.com --url https://shop.example.com/landing
  scout explore com.example.mail --bridge capture --mode incremental`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVar(&exploreMode, "mode", "comprehensive", "Exploration mode: comprehensive or incremental")
	exploreCmd.Flags().StringVar(&exploreBridge, "bridge", "web", "Platform bridge: web or capture")
	exploreCmd.Flags().StringVar(&explorePage, "url", "", "Page to open (web bridge, single app only)")
	exploreCmd.Flags().StringVar(&exploreAppVer, "app-version", "live", "App version recorded in fingerprints")
	exploreCmd.Flags().IntVar(&exploreJobs, "jobs", 2, "Apps explored concurrently")
}

func runExplore(cmd *cobra.Command, args []string) error {
	mode := explore.Mode(exploreMode)
	switch mode {
	case explore.ModeComprehensive, explore.ModeIncremental:
	default:
		return fmt.Errorf("unknown mode %q (use comprehensive or incremental)", exploreMode)
	}
	switch exploreBridge {
	case "web":
	case "capture":
		if mode == explore.ModeComprehensive {
			return fmt.Errorf("the capture bridge cannot drive gestures; use --mode incremental")
		}
	default:
		return fmt.Errorf("unknown bridge %q (use web or capture)", exploreBridge)
	}
	if explorePage != "" && len(args) > 1 {
		return fmt.Errorf("--url applies to a single app")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := explore.NewManager(cfg, st)

	// A plain group so one failing app does not cancel its siblings; the
	// store's per-app locks keep concurrent sessions independent.
	var g errgroup.Group
	g.SetLimit(exploreJobs)
	for _, app := range args {
		app := app
		g.Go(func() error {
			return exploreOne(ctx, mgr, app, mode)
		})
	}
	err = g.Wait()
	mgr.Wait()
	return err
}

// exploreOne builds a bridge for one app, runs its session to a terminal
// state, and prints the outcome.
func exploreOne(ctx context.Context, mgr *explore.Manager, app string, mode explore.Mode) error {
	deps, cleanup, err := bridgeDeps(ctx, app)
	if err != nil {
		return fmt.Errorf("%s: %w", app, err)
	}
	defer cleanup()

	eng, err := mgr.Start(ctx, app, exploreAppVer, mode, deps)
	if err != nil {
		return err
	}
	logger.Info("Exploration started",
		zap.String("app", app),
		zap.String("session", eng.SessionID()),
		zap.String("mode", string(mode)))

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-eng.Done():
			p := eng.Progress()
			fmt.Printf("%s: %s - %d screens, %d elements, %d commands (depth %d)\n",
				app, p.State, p.Screens, p.Elements, p.Commands, p.Depth)
			return eng.Err()
		case <-ticker.C:
			p := eng.Progress()
			logger.Info("Exploration progress",
				zap.String("app", app),
				zap.String("state", p.State.String()),
				zap.Int("screens", p.Screens),
				zap.Int("elements", p.Elements))
		}
	}
}

// bridgeDeps wires the selected bridge into engine collaborators. The
// returned cleanup is safe to call after the session ends.
func bridgeDeps(ctx context.Context, app string) (explore.Deps, func(), error) {
	notifier := zapNotifier{log: logger}

	switch exploreBridge {
	case "capture":
		w, err := capture.NewWatcher(cfg.Bridge.Capture)
		if err != nil {
			return explore.Deps{}, nil, err
		}
		if err := w.Start(ctx); err != nil {
			return explore.Deps{}, nil, err
		}
		r := capture.NewReader(cfg.Bridge.Capture, app)
		r.FollowWatcher(w)
		return explore.Deps{Reader: r, Signals: w, Notifier: notifier}, w.Stop, nil

	default: // web
		pageURL := explorePage
		if pageURL == "" {
			pageURL = "https://" + app + "/"
		}
		b := web.New(cfg.Bridge.Web, app, exploreAppVer)
		if err := b.Connect(ctx); err != nil {
			return explore.Deps{}, nil, err
		}
		if err := b.Open(ctx, pageURL); err != nil {
			_ = b.Close()
			return explore.Deps{}, nil, err
		}
		cleanup := func() { _ = b.Close() }
		return explore.Deps{Reader: b, Actions: b, Signals: b, Notifier: notifier}, cleanup, nil
	}
}
