package web

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"uiscout/internal/logging"
	"uiscout/internal/uitree"
)

// elementByHash resolves a fingerprint hash to the live element it was
// stamped on during the last capture. A missing or stale stamp declines the
// gesture rather than failing the session.
func (b *Bridge) elementByHash(ctx context.Context, hash string) (*rod.Element, bool, error) {
	ix, ok := b.stampFor(hash)
	if !ok {
		logging.WebDebug("No live element for hash %s", hash)
		return nil, false, nil
	}
	page, err := b.currentPage()
	if err != nil {
		return nil, false, err
	}

	el, err := page.Context(ctx).Sleeper(rod.NotFoundSleeper).Element(stampSelector(ix))
	if err != nil {
		logging.WebDebug("Element %s (stamp %d) gone from page", hash, ix)
		return nil, false, nil
	}
	return el, true, nil
}

func stampSelector(ix int) string {
	return fmt.Sprintf("[data-uiscout-ix=%q]", strconv.Itoa(ix))
}

// Activate implements uitree.ActionPerformer by left-clicking the element.
func (b *Bridge) Activate(ctx context.Context, elementHash string) (bool, error) {
	el, ok, err := b.elementByHash(ctx, elementHash)
	if err != nil || !ok {
		return false, err
	}
	if err := el.ScrollIntoView(); err != nil {
		logging.WebDebug("Scroll into view failed for %s: %v", elementHash, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		logging.WebWarn("Click on %s declined: %v", elementHash, err)
		return false, nil
	}
	logging.Web("Clicked %s", elementHash)
	return true, nil
}

// LongActivate always declines: the page-side analog of a long press is the
// browser's own context menu, which CDP cannot observe or recover from.
func (b *Bridge) LongActivate(ctx context.Context, elementHash string) (bool, error) {
	logging.WebDebug("Long press has no page-side equivalent, declining %s", elementHash)
	return false, nil
}

// SetText implements uitree.ActionPerformer by replacing the element's
// content.
func (b *Bridge) SetText(ctx context.Context, elementHash, value string) (bool, error) {
	el, ok, err := b.elementByHash(ctx, elementHash)
	if err != nil || !ok {
		return false, err
	}
	if err := el.SelectAllText(); err != nil {
		logging.WebDebug("Select-all failed for %s: %v", elementHash, err)
	}
	if err := el.Input(value); err != nil {
		logging.WebWarn("Input on %s declined: %v", elementHash, err)
		return false, nil
	}
	return true, nil
}

// Scroll implements uitree.ActionPerformer by scrolling the element's own
// scroll container most of one viewport.
func (b *Bridge) Scroll(ctx context.Context, elementHash string, dir uitree.ScrollDirection) (bool, error) {
	ix, ok := b.stampFor(elementHash)
	if !ok {
		return false, nil
	}
	page, err := b.currentPage()
	if err != nil {
		return false, err
	}

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS: `(sel, back) => {
			const el = document.querySelector(sel);
			if (!el) return false;
			const step = Math.max(el.clientHeight * 0.8, 120) * (back ? -1 : 1);
			el.scrollBy({ top: step, behavior: 'instant' });
			return true;
		}`,
		JSArgs:  []interface{}{stampSelector(ix), dir == uitree.ScrollBackward},
		ByValue: true,
	})
	if err != nil {
		logging.WebWarn("Scroll on %s declined: %v", elementHash, err)
		return false, nil
	}
	return res != nil && res.Value.Bool(), nil
}

// GoBack implements uitree.ActionPerformer via browser history.
func (b *Bridge) GoBack(ctx context.Context) (bool, error) {
	page, err := b.currentPage()
	if err != nil {
		return false, err
	}
	if err := page.Context(ctx).NavigateBack(); err != nil {
		logging.WebWarn("History back declined: %v", err)
		return false, nil
	}
	if err := page.Timeout(b.cfg.GetPageTimeout()).WaitLoad(); err != nil {
		logging.WebDebug("Load wait after back ended early: %v", err)
	}
	return true, nil
}
