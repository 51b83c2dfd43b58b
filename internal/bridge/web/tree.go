package web

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"

	"uiscout/internal/logging"
	"uiscout/internal/uitree"
)

// maxSnapshotNodes bounds how much of a pathological page one capture will
// walk.
const maxSnapshotNodes = 1500

// snapshotJS walks the visible DOM depth-first, stamping every element with
// a data-uiscout-ix attribute and returning the tree as plain data. Hidden
// subtrees and non-content tags are pruned on the page side so they never
// cross the wire.
const snapshotJS = `
() => {
	const skip = new Set(['script', 'style', 'noscript', 'template', 'meta', 'link', 'title']);
	const editableTypes = new Set(['', 'text', 'search', 'email', 'url', 'tel', 'number',
		'password', 'date', 'time', 'datetime-local', 'month', 'week']);
	const clickTags = new Set(['a', 'button', 'summary', 'select', 'option']);
	const clickInputs = new Set(['button', 'submit', 'reset', 'checkbox', 'radio', 'image', 'file']);
	const clickRoles = new Set(['button', 'link', 'tab', 'menuitem', 'checkbox', 'radio', 'switch', 'option']);
	let count = 0;
	const walk = (el) => {
		if (count >= %d) return null;
		const tag = el.tagName.toLowerCase();
		if (skip.has(tag)) return null;
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || style.visibility === 'hidden') return null;
		const ix = count++;
		el.setAttribute('data-uiscout-ix', ix);
		let text = '';
		for (const child of el.childNodes) {
			if (child.nodeType === 3) text += child.textContent + ' ';
		}
		const type = (el.getAttribute('type') || '').toLowerCase();
		const role = (el.getAttribute('role') || '').toLowerCase();
		const rect = el.getBoundingClientRect();
		const node = {
			ix: ix,
			tag: tag,
			id: el.id || '',
			name: el.getAttribute('name') || '',
			label: el.getAttribute('aria-label') || el.getAttribute('alt') || el.getAttribute('title') || '',
			text: text.replace(/\s+/g, ' ').trim().slice(0, 256),
			clickable: clickTags.has(tag)
				|| (tag === 'input' && clickInputs.has(type))
				|| clickRoles.has(role)
				|| el.onclick != null
				|| el.hasAttribute('onclick'),
			editable: tag === 'textarea'
				|| (tag === 'input' && editableTypes.has(type))
				|| el.isContentEditable === true,
			scrollable: el.scrollHeight > el.clientHeight + 4
				&& (style.overflowY === 'auto' || style.overflowY === 'scroll'),
			password: tag === 'input' && type === 'password',
			disabled: el.disabled === true,
			rect: {
				x: Math.round(rect.x),
				y: Math.round(rect.y),
				w: Math.round(rect.width),
				h: Math.round(rect.height)
			},
			children: []
		};
		for (const child of el.children) {
			const c = walk(child);
			if (c) node.children.push(c);
		}
		return node;
	};
	const root = document.body ? walk(document.body) : null;
	return { host: location.host, path: location.pathname, title: document.title, root: root };
}
`

type domSnapshot struct {
	Host  string   `json:"host"`
	Path  string   `json:"path"`
	Title string   `json:"title"`
	Root  *domNode `json:"root"`
}

type domNode struct {
	Ix         int    `json:"ix"`
	Tag        string `json:"tag"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Label      string `json:"label"`
	Text       string `json:"text"`
	Clickable  bool   `json:"clickable"`
	Editable   bool   `json:"editable"`
	Scrollable bool   `json:"scrollable"`
	Password   bool   `json:"password"`
	Disabled   bool   `json:"disabled"`
	Rect       struct {
		X int `json:"x"`
		Y int `json:"y"`
		W int `json:"w"`
		H int `json:"h"`
	} `json:"rect"`
	Children []*domNode `json:"children"`
}

// CurrentScreenRoot implements uitree.TreeReader. Every capture refreshes
// the hash-to-stamp index used by gestures.
func (b *Bridge) CurrentScreenRoot(ctx context.Context) (uitree.Node, error) {
	page, err := b.currentPage()
	if err != nil {
		return nil, err
	}

	res, err := page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           fmt.Sprintf(snapshotJS, maxSnapshotNodes),
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("dom snapshot failed: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return nil, fmt.Errorf("dom snapshot empty: %w", uitree.ErrTreeUnavailable)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dom snapshot: %w", err)
	}
	var snap domSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode dom snapshot: %w", err)
	}
	if snap.Root == nil {
		return nil, fmt.Errorf("page has no body: %w", uitree.ErrTreeUnavailable)
	}

	root, stamps := buildTree(&snap)
	b.index(root, stamps)
	logging.WebDebug("Captured %s%s: %d nodes", snap.Host, snap.Path, uitree.Count(root))
	return root, nil
}

// buildTree converts a DOM snapshot into a uitree, returning the root and
// the live stamp behind each node.
func buildTree(snap *domSnapshot) (*uitree.Static, map[*uitree.Static]int) {
	stamps := make(map[*uitree.Static]int)
	root := convertNode(snap.Root, stamps)
	root.App = snap.Host
	root.Screen = snap.Title
	if root.Screen == "" {
		root.Screen = snap.Path
	}
	return root, stamps
}

func convertNode(n *domNode, stamps map[*uitree.Static]int) *uitree.Static {
	resource := n.ID
	if resource == "" {
		resource = n.Name
	}
	s := &uitree.Static{Attributes: uitree.Attributes{
		Class:      n.Tag,
		ResourceID: resource,
		Text:       n.Text,
		Desc:       n.Label,
		Bounds: uitree.Rect{
			Left:   n.Rect.X,
			Top:    n.Rect.Y,
			Right:  n.Rect.X + n.Rect.W,
			Bottom: n.Rect.Y + n.Rect.H,
		},
		Clickable:  n.Clickable,
		Editable:   n.Editable,
		Scrollable: n.Scrollable,
		Password:   n.Password,
		Enabled:    !n.Disabled,
	}}
	stamps[s] = n.Ix
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		s.Children = append(s.Children, convertNode(c, stamps))
	}
	return s
}

// index records the stamp behind each element hash. Recomputed per capture;
// hashes from an earlier render simply stop resolving.
func (b *Bridge) index(root *uitree.Static, stamps map[*uitree.Static]int) {
	byHash := make(map[string]int, len(stamps))
	uitree.Walk(root, func(n uitree.Node, path string, depth int) bool {
		s, ok := n.(*uitree.Static)
		if !ok {
			return true
		}
		fp := b.prints.Fingerprint(s.Attributes, path)
		byHash[fp.Hash] = stamps[s]
		return true
	})

	b.mu.Lock()
	b.byHash = byHash
	b.mu.Unlock()
}

func (b *Bridge) stampFor(hash string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ix, ok := b.byHash[hash]
	return ix, ok
}
