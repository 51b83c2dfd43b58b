package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uiscout/internal/bridge/capture"
	"uiscout/internal/explore"
	"uiscout/internal/uitree"
)

var (
	watchDir    string
	watchAppVer string
)

// watchCmd runs the incremental learning daemon
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Learn screens as a platform companion drops snapshots",
	Long: `Watches the capture directory and registers every snapshot a platform
companion drops there. Snapshots are routed to a per-app incremental
session by the app id they carry, so one daemon can follow the user
across applications. Nothing is ever clicked.

Sessions respect the configured duration bound; an expired session is
reopened by the app's next snapshot.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Snapshot directory (default: configured capture dir)")
	watchCmd.Flags().StringVar(&watchAppVer, "app-version", "live", "Version recorded for snapshots that carry none")
}

// appFeed is a per-app signal source fed by the shared directory watcher.
type appFeed struct {
	ch chan uitree.Signal
}

func (f *appFeed) Signals() <-chan uitree.Signal { return f.ch }

func runWatch(cmd *cobra.Command, args []string) error {
	if watchDir != "" {
		cfg.Bridge.Capture.Dir = watchDir
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := capture.NewWatcher(cfg.Bridge.Capture)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	mgr := explore.NewManager(cfg, st)
	defer mgr.Wait()

	feeds := make(map[string]*appFeed)
	fmt.Printf("Watching %s for snapshots (Ctrl+C to stop)\n", cfg.Bridge.Capture.Dir)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Stopping")
			return nil
		case sig, ok := <-w.Signals():
			if !ok {
				return nil
			}
			if sig != uitree.SignalScreenChanged {
				continue
			}
			dispatchSnapshot(ctx, mgr, w, feeds, sig)
		}
	}
}

// dispatchSnapshot routes the watcher's latest snapshot to the owning app's
// session, opening one when none is active. A freshly-opened session captures
// the snapshot itself, so the signal is only forwarded to existing sessions.
func dispatchSnapshot(ctx context.Context, mgr *explore.Manager, w *capture.Watcher, feeds map[string]*appFeed, sig uitree.Signal) {
	latest := w.Latest()
	app, version, err := capture.SnapshotInfo(latest)
	if err != nil || app == "" {
		logger.Warn("Snapshot not attributable to an app",
			zap.String("path", latest), zap.Error(err))
		return
	}

	feed, known := feeds[app]
	if !known {
		feed = &appFeed{ch: make(chan uitree.Signal, 8)}
		feeds[app] = feed
	}

	if eng, ok := mgr.Engine(app); !ok || eng.State().Terminal() {
		if version == "" {
			version = watchAppVer
		}
		r := capture.NewReader(cfg.Bridge.Capture, app)
		r.FollowWatcher(w)
		deps := explore.Deps{Reader: r, Signals: feed, Notifier: zapNotifier{log: logger}}
		if _, err := mgr.Start(ctx, app, version, explore.ModeIncremental, deps); err != nil {
			logger.Warn("Could not open session", zap.String("app", app), zap.Error(err))
			return
		}
		fmt.Printf("Learning %s (version %s)\n", app, version)
		return
	}

	select {
	case feed.ch <- sig:
	default:
		// The session is mid-capture and will read the latest snapshot
		// anyway.
	}
}
