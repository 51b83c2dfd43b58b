// Package web drives a live Chrome page as a uitree bridge. The DOM is the
// UI tree: tags become classes, ids become resource identifiers, aria labels
// become descriptions. Each capture stamps the page's elements with an index
// attribute and records the fingerprint hash behind every stamp, so gestures
// addressed by hash resolve back to live DOM nodes. A stamp that a re-render
// has invalidated simply declines the gesture.
package web

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"uiscout/internal/config"
	"uiscout/internal/fingerprint"
	"uiscout/internal/logging"
	"uiscout/internal/uitree"
)

// Bridge exposes one browser page as a screen. It implements
// uitree.TreeReader, uitree.ActionPerformer, and uitree.SignalSource.
type Bridge struct {
	cfg    config.WebConfig
	prints *fingerprint.Generator

	mu       sync.RWMutex
	browser  *rod.Browser
	page     *rod.Page
	byHash   map[string]int // element hash -> stamp on the live page
	watching bool

	sig     chan uitree.Signal
	sigOnce sync.Once
}

var (
	_ uitree.TreeReader      = (*Bridge)(nil)
	_ uitree.ActionPerformer = (*Bridge)(nil)
	_ uitree.SignalSource    = (*Bridge)(nil)
)

// New builds a bridge whose fingerprints are scoped to the given app and
// version. The engine exploring through this bridge must be scoped the same
// way, or gesture hashes will not resolve.
func New(cfg config.WebConfig, app, appVersion string) *Bridge {
	return &Bridge{
		cfg:    cfg,
		prints: fingerprint.New(fingerprint.Config{App: app, Version: appVersion}),
		byHash: make(map[string]int),
		sig:    make(chan uitree.Signal, 8),
	}
}

// Signals implements uitree.SignalSource. Main-frame navigations arrive as
// screen changes; the channel closes when the page goes away.
func (b *Bridge) Signals() <-chan uitree.Signal { return b.sig }

// Connect attaches to the configured browser, launching a managed one when
// no control URL is configured. Safe to call repeatedly; a healthy
// connection is reused.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		if _, err := b.browser.Version(); err == nil {
			return nil
		}
		logging.WebWarn("Stale browser connection, reconnecting")
		_ = b.browser.Close()
		b.browser = nil
		b.page = nil
	}

	controlURL := b.cfg.ControlURL
	if controlURL == "" {
		u, err := launcher.New().Headless(b.cfg.Headless).Launch()
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	b.browser = browser
	logging.Web("Connected to browser")
	return nil
}

// Open points the bridge at a URL. The first call creates the bridge's page;
// later calls navigate it.
func (b *Bridge) Open(ctx context.Context, pageURL string) error {
	if err := b.Connect(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	browser := b.browser
	existing := b.page
	b.mu.Unlock()

	if existing != nil {
		return b.Navigate(ctx, pageURL)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.Timeout(b.cfg.GetPageTimeout()).WaitLoad(); err != nil {
		logging.WebDebug("Page load wait ended early: %v", err)
	}

	b.mu.Lock()
	b.page = page
	b.watching = true
	b.mu.Unlock()

	b.watchNavigation(page)
	logging.Web("Opened %s", pageURL)
	return nil
}

// Navigate loads a URL in the bridge's page.
func (b *Bridge) Navigate(ctx context.Context, pageURL string) error {
	page, err := b.currentPage()
	if err != nil {
		return err
	}
	if err := page.Context(ctx).Timeout(b.cfg.GetPageTimeout()).Navigate(pageURL); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", pageURL, err)
	}
	if err := page.Timeout(b.cfg.GetPageTimeout()).WaitLoad(); err != nil {
		logging.WebDebug("Page load wait ended early: %v", err)
	}
	return nil
}

// Close shuts the page and the browser connection down.
func (b *Bridge) Close() error {
	b.mu.Lock()
	page := b.page
	browser := b.browser
	watching := b.watching
	b.page = nil
	b.browser = nil
	b.mu.Unlock()

	if page != nil {
		_ = page.Close()
	}
	var err error
	if browser != nil {
		err = browser.Close()
	}
	if !watching {
		// With no navigation watcher running, nothing else will ever close
		// the signal channel.
		b.sigOnce.Do(func() { close(b.sig) })
	}
	logging.Web("Browser bridge closed")
	return err
}

// watchNavigation forwards main-frame navigations as screen-changed signals
// until the page's event stream ends, then closes the signal channel.
func (b *Bridge) watchNavigation(page *rod.Page) {
	go func() {
		wait := page.EachEvent(func(ev *proto.PageFrameNavigated) {
			if ev.Frame != nil && ev.Frame.ParentID != "" {
				return
			}
			select {
			case b.sig <- uitree.SignalScreenChanged:
			default:
				logging.WebDebug("Signal buffer full, dropping navigation")
			}
		})
		wait()
		b.sigOnce.Do(func() { close(b.sig) })
	}()
}

func (b *Bridge) currentPage() (*rod.Page, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.page == nil {
		return nil, fmt.Errorf("no page open: %w", uitree.ErrTreeUnavailable)
	}
	return b.page, nil
}
