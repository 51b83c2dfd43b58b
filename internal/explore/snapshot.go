package explore

import (
	"errors"
	"strconv"
	"strings"

	"uiscout/internal/classify"
	"uiscout/internal/logging"
	"uiscout/internal/screen"
	"uiscout/internal/store"
	"uiscout/internal/uitree"
)

// capturedElement is one node of a captured tree, fingerprinted and
// classified.
type capturedElement struct {
	attrs     uitree.Attributes
	path      string
	depth     int
	hash      string
	stability float64
	safety    classify.Safety
}

// capture is everything the engine learned from one tree read.
type capture struct {
	screenID   string
	snap       screen.Snapshot
	elements   []capturedElement
	hashByPath map[string]string
}

// capture walks the tree once, fingerprinting and classifying every node
// and building the screen summary over the element hashes.
func (e *Engine) capture(root uitree.Node) *capture {
	timer := logging.StartTimer(logging.CategoryExplore, "Engine.capture")
	defer timer.Stop()

	c := &capture{
		screenID:   root.Attrs().Screen,
		hashByPath: make(map[string]string),
	}
	hashes := make([]string, 0, 64)
	uitree.Walk(root, func(n uitree.Node, path string, depth int) bool {
		attrs := n.Attrs()
		fp := e.prints.Fingerprint(attrs, path)
		c.elements = append(c.elements, capturedElement{
			attrs:     attrs,
			path:      path,
			depth:     depth,
			hash:      fp.Hash,
			stability: fp.Stability,
			safety:    e.classifier.Classify(attrs),
		})
		c.hashByPath[path] = fp.Hash
		hashes = append(hashes, fp.Hash)
		return true
	})
	c.snap = screen.Summarize(e.appID, c.screenID, hashes)
	return c
}

// summarizeRoot computes just the screen summary, without the per-element
// capture. Used to decide whether a gesture navigated.
func (e *Engine) summarizeRoot(root uitree.Node) screen.Snapshot {
	hashes := make([]string, 0, 64)
	uitree.Walk(root, func(n uitree.Node, path string, _ int) bool {
		hashes = append(hashes, e.prints.Fingerprint(n.Attrs(), path).Hash)
		return true
	})
	return screen.Summarize(e.appID, root.Attrs().Screen, hashes)
}

// hierarchyEdges derives the parent/child edges of a captured tree. The
// ordinal in each hierarchy path doubles as the child order.
func (c *capture) hierarchyEdges(appID string) []store.HierarchyEdge {
	edges := make([]store.HierarchyEdge, 0, len(c.elements))
	for _, el := range c.elements {
		if el.path == uitree.RootPath {
			continue
		}
		i := strings.LastIndex(el.path, "/")
		if i <= 0 {
			continue
		}
		parentHash, ok := c.hashByPath[el.path[:i]]
		if !ok {
			continue
		}
		ord, err := strconv.Atoi(el.path[i+1:])
		if err != nil {
			continue
		}
		edges = append(edges, store.HierarchyEdge{
			AppID:      appID,
			ParentHash: parentHash,
			ChildHash:  el.hash,
			ChildOrder: ord,
		})
	}
	return edges
}

// persistScreen writes one captured screen: the screen row, every element,
// the hierarchy edges, and the generated voice commands. Comprehensive mode
// batches the whole screen into one transaction; incremental mode writes
// immediately so commands are usable the moment a screen has been seen.
// Returns how many commands were generated.
func (e *Engine) persistScreen(c *capture, screenHash string, depth int) (int, error) {
	rec := store.ScreenRecord{
		Hash:         screenHash,
		AppID:        e.appID,
		ScreenName:   c.screenID,
		ElementCount: c.snap.ElementCount,
		Depth:        depth,
	}

	elements := make([]store.ElementRecord, 0, len(c.elements))
	var cmds []store.CommandRecord
	for _, el := range c.elements {
		elements = append(elements, e.elementRecord(el, screenHash))
		cmds = append(cmds, e.generateCommands(el)...)
	}
	edges := c.hierarchyEdges(e.appID)

	if e.mode == ModeComprehensive {
		if err := e.flushBatch(rec, elements, edges, cmds); err != nil {
			return 0, err
		}
		return len(cmds), nil
	}
	if err := e.writeImmediate(rec, elements, edges, cmds); err != nil {
		return 0, err
	}
	return len(cmds), nil
}

// generateCommands produces the voice commands for one captured element.
// Fallback phrases burn a persistent ordinal, so an element that already
// has commands on record is never renumbered.
func (e *Engine) generateCommands(el capturedElement) []store.CommandRecord {
	if e.generated[el.hash] {
		return nil
	}
	if el.attrs.Label() == "" && el.attrs.Actionable() && el.attrs.Enabled {
		existing, err := e.st.CommandsForElement(el.hash)
		if err == nil && len(existing) > 0 {
			e.generated[el.hash] = true
			return nil
		}
	}
	recs, err := e.commands.Generate(e.appID, el.hash, el.attrs, el.stability)
	if err != nil {
		logging.CommandWarn("Command generation for %s failed: %v", el.hash, err)
		return nil
	}
	e.generated[el.hash] = true
	return recs
}

func (e *Engine) elementRecord(el capturedElement, screenHash string) store.ElementRecord {
	a := el.attrs
	return store.ElementRecord{
		Hash:          el.hash,
		AppID:         e.appID,
		ScreenHash:    screenHash,
		HierarchyPath: el.path,
		ClassName:     a.Class,
		ResourceID:    a.ResourceID,
		Text:          a.Text,
		Description:   a.Desc,
		Bounds:        a.Bounds.String(),
		Clickable:     a.Clickable,
		LongClickable: a.LongClickable,
		Enabled:       a.Enabled,
		Scrollable:    a.Scrollable,
		Editable:      a.Editable,
		Password:      a.Password,
		Safety:        el.safety,
		Stability:     el.stability,
	}
}

func (e *Engine) flushBatch(rec store.ScreenRecord, elements []store.ElementRecord, edges []store.HierarchyEdge, cmds []store.CommandRecord) error {
	b := e.st.NewBatch(e.appID)
	b.AddScreen(rec)
	for _, el := range elements {
		b.AddElement(el)
	}
	for _, ed := range edges {
		b.AddHierarchyEdge(ed)
	}
	for _, cm := range cmds {
		b.AddCommand(cm)
	}
	if err := b.Flush(); err != nil {
		if errors.Is(err, store.ErrHashCollision) {
			// One refused element must not cost the whole screen.
			logging.StoreWarn("Batch for screen %s hit a hash collision; retrying element by element", rec.Hash)
			b.Discard()
			return e.writeImmediate(rec, elements, edges, cmds)
		}
		return err
	}
	return nil
}

// writeImmediate upserts each record on its own. Hash collisions drop the
// colliding sighting and everything that references it; the stored identity
// wins.
func (e *Engine) writeImmediate(rec store.ScreenRecord, elements []store.ElementRecord, edges []store.HierarchyEdge, cmds []store.CommandRecord) error {
	if err := e.st.UpsertScreen(rec); err != nil {
		return err
	}
	collided := make(map[string]bool)
	for _, el := range elements {
		if err := e.st.UpsertElement(el); err != nil {
			if errors.Is(err, store.ErrHashCollision) {
				logging.StoreWarn("Element refused: %v", err)
				collided[el.Hash] = true
				continue
			}
			return err
		}
	}
	for _, ed := range edges {
		if collided[ed.ParentHash] || collided[ed.ChildHash] {
			continue
		}
		if err := e.st.UpsertHierarchyEdge(ed); err != nil {
			return err
		}
	}
	for _, cm := range cmds {
		if collided[cm.ElementHash] {
			continue
		}
		if err := e.st.UpsertCommand(cm); err != nil {
			return err
		}
	}
	return nil
}

// safeCandidates lists the elements the engine may activate, in document
// order. Actionable elements that are not safe are recorded as blocked.
func (e *Engine) safeCandidates(c *capture, screenHash string) []Candidate {
	cands := make([]Candidate, 0, len(c.elements))
	for _, el := range c.elements {
		if !el.attrs.Clickable || !el.attrs.Enabled {
			continue
		}
		if !el.safety.AutoInteractable() {
			if el.safety == classify.Dangerous || el.safety == classify.Credential {
				e.audit.SafetyDecision(el.hash, el.attrs.Label(), false)
				logging.Safety("Blocked %s (%q) on %s: %s", el.hash, el.attrs.Label(), screenHash, el.safety)
			}
			continue
		}
		e.audit.SafetyDecision(el.hash, el.attrs.Label(), true)
		cands = append(cands, Candidate{
			Hash:  el.hash,
			Path:  el.path,
			Depth: el.depth,
			Label: el.attrs.Label(),
		})
	}
	return cands
}
