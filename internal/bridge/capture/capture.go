// Package capture bridges uiscout to platforms that cannot host it directly.
// A companion process on the device dumps the foreground UI tree into a
// directory as snapshot files (JSON or HTML); this package turns those files
// back into uitree nodes and watches the directory so each drop produces a
// screen-changed signal. The bridge is read-only: it can describe screens but
// never drive them, so it serves incremental exploration and the watch
// daemon, not comprehensive walks.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"uiscout/internal/config"
	"uiscout/internal/logging"
	"uiscout/internal/uitree"
)

// Reader exposes the most recent snapshot in a capture directory as the
// current screen. It implements uitree.TreeReader.
type Reader struct {
	dir string
	app string // stamped on roots whose snapshot carries no app id
	w   *Watcher
}

// NewReader builds a reader over the configured capture directory. app is
// used for snapshots that do not name their owning app.
func NewReader(cfg config.CaptureConfig, app string) *Reader {
	return &Reader{dir: cfg.Dir, app: app}
}

// FollowWatcher makes the reader prefer the watcher's latest settled file
// over a directory scan, so a signal and the capture it announces always
// refer to the same snapshot.
func (r *Reader) FollowWatcher(w *Watcher) { r.w = w }

// CurrentScreenRoot implements uitree.TreeReader.
func (r *Reader) CurrentScreenRoot(ctx context.Context) (uitree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ""
	if r.w != nil {
		path = r.w.Latest()
	}
	if path == "" {
		var err error
		path, err = newestSnapshot(r.dir)
		if err != nil {
			return nil, err
		}
	}

	root, err := DecodeSnapshot(path, r.app)
	if err != nil {
		return nil, err
	}
	logging.CaptureDebug("Decoded snapshot %s: %d nodes", filepath.Base(path), uitree.Count(root))
	return root, nil
}

// DecodeSnapshot reads one snapshot file into a tree. The format follows the
// file extension. defaultApp fills the root's app id when the snapshot does
// not carry one.
func DecodeSnapshot(path, defaultApp string) (*uitree.Static, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("snapshot %s gone: %w", path, uitree.ErrTreeUnavailable)
		}
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(f, defaultApp)
	case ".html", ".htm":
		return ParseHTML(f, defaultApp)
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", filepath.Ext(path))
	}
}

// SnapshotInfo reports which app a snapshot belongs to, and the app version
// when the envelope carries one. The watch daemon uses it to route snapshots
// to the right session without building the whole tree.
func SnapshotInfo(path string) (app, version string, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", fmt.Errorf("snapshot %s gone: %w", path, uitree.ErrTreeUnavailable)
		}
		return "", "", fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var env Snapshot
		if err := json.NewDecoder(f).Decode(&env); err != nil {
			return "", "", fmt.Errorf("failed to decode snapshot %s: %w", path, err)
		}
		app = env.App
		if env.Root != nil && env.Root.App != "" {
			app = env.Root.App
		}
		return app, env.Version, nil
	case ".html", ".htm":
		root, err := ParseHTML(f, "")
		if err != nil {
			return "", "", err
		}
		return root.App, "", nil
	default:
		return "", "", fmt.Errorf("unsupported snapshot format %q", filepath.Ext(path))
	}
}

// IsSnapshot reports whether a file name looks like a capture drop.
func IsSnapshot(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".html", ".htm":
		return true
	}
	return false
}

// newestSnapshot returns the most recently modified snapshot in dir.
func newestSnapshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("capture dir %s unreadable: %w", dir, uitree.ErrTreeUnavailable)
	}

	var (
		newest  string
		modTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !IsSnapshot(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(modTime) {
			newest = filepath.Join(dir, entry.Name())
			modTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no snapshots in %s: %w", dir, uitree.ErrTreeUnavailable)
	}
	return newest, nil
}
