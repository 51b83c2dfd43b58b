// Package uitree defines the abstract UI tree the exploration engine walks,
// decoupled from any host platform. A platform bridge (accessibility service,
// browser, snapshot file) exposes the live screen as a Node; the engine only
// ever sees this interface, so traversal logic stays testable with in-memory
// trees.
package uitree

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is an element's on-screen bounding box in pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the horizontal extent of the rect.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent of the rect.
func (r Rect) Height() int { return r.Bottom - r.Top }

// IsZero reports whether the rect carries no geometry.
func (r Rect) IsZero() bool {
	return r.Left == 0 && r.Top == 0 && r.Right == 0 && r.Bottom == 0
}

// Coarse snaps every edge down to a multiple of grid. Fingerprints use the
// snapped rect so sub-grid layout jitter between scrapes does not change an
// element's identity.
func (r Rect) Coarse(grid int) Rect {
	if grid <= 1 {
		return r
	}
	snap := func(v int) int {
		if v < 0 {
			return -(((-v) / grid) * grid)
		}
		return (v / grid) * grid
	}
	return Rect{
		Left:   snap(r.Left),
		Top:    snap(r.Top),
		Right:  snap(r.Right),
		Bottom: snap(r.Bottom),
	}
}

// String renders the rect in the conventional [l,t][r,b] form.
func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

// Attributes holds the structural attributes of one UI element. App and
// Screen are normally populated on the root node only; bridges may repeat
// them on every node.
type Attributes struct {
	App        string `json:"app,omitempty"`    // owning app identifier (package name, origin)
	Screen     string `json:"screen,omitempty"` // screen/activity identifier
	Class      string `json:"class,omitempty"`  // widget class or ARIA role
	ResourceID string `json:"resource_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Desc       string `json:"desc,omitempty"` // content description / accessibility label
	Bounds     Rect   `json:"bounds"`

	Clickable     bool `json:"clickable,omitempty"`
	LongClickable bool `json:"long_clickable,omitempty"`
	Enabled       bool `json:"enabled,omitempty"`
	Scrollable    bool `json:"scrollable,omitempty"`
	Editable      bool `json:"editable,omitempty"`
	Password      bool `json:"password,omitempty"` // credential input hint from the platform
}

// Actionable reports whether the element supports any automated interaction.
func (a Attributes) Actionable() bool {
	return a.Clickable || a.LongClickable || a.Scrollable || a.Editable
}

// Label returns the most specific human-readable label, preferring the
// accessibility description over visible text over the resource name.
func (a Attributes) Label() string {
	if a.Desc != "" {
		return a.Desc
	}
	if a.Text != "" {
		return a.Text
	}
	return ResourceWords(a.ResourceID)
}

// ResourceWords extracts speakable words from a resource identifier such as
// "com.example:id/btn_submit_order" -> "submit order". Type prefixes and
// separator characters are stripped.
func ResourceWords(resourceID string) string {
	if resourceID == "" {
		return ""
	}
	name := resourceID
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	fields := strings.Fields(name)
	out := fields[:0]
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "btn", "button", "txt", "tv", "iv", "img", "et", "edit", "id", "lbl":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// Node is one element of a live or captured UI tree. Implementations must be
// safe for read-only traversal; the engine never mutates a tree.
type Node interface {
	// Attrs returns the element's structural attributes.
	Attrs() Attributes

	// ChildCount returns the number of direct children.
	ChildCount() int

	// Child returns the i-th child in visual/document order.
	// Behavior is undefined for i outside [0, ChildCount()).
	Child(i int) Node
}

// RootPath is the hierarchy path assigned to a screen's root node.
const RootPath = "/0"

// ChildPath derives a child's hierarchy path from its parent's path and its
// ordinal position among siblings.
func ChildPath(parent string, ordinal int) string {
	return parent + "/" + strconv.Itoa(ordinal)
}

// PathDepth returns how many edges separate a hierarchy path from the root.
// The root ("/0") has depth 0.
func PathDepth(path string) int {
	n := strings.Count(path, "/")
	if n == 0 {
		return 0
	}
	return n - 1
}

// Visit receives one node during a walk together with its hierarchy path and
// depth. Returning false prunes the node's subtree; the walk continues with
// the next sibling.
type Visit func(n Node, path string, depth int) bool

// Walk traverses the tree depth-first in sibling order, assigning each node
// its hierarchy path. The traversal uses an explicit stack and holds no
// references to visited nodes, so bridges backed by scarce native handles can
// release them as soon as their children have been listed.
func Walk(root Node, fn Visit) {
	if root == nil {
		return
	}
	type frame struct {
		node Node
		path string
	}
	stack := []frame{{node: root, path: RootPath}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(top.node, top.path, PathDepth(top.path)) {
			continue
		}
		// Push children in reverse so they pop in visual order.
		for i := top.node.ChildCount() - 1; i >= 0; i-- {
			c := top.node.Child(i)
			if c == nil {
				continue
			}
			stack = append(stack, frame{node: c, path: ChildPath(top.path, i)})
		}
	}
}

// Count returns the total number of nodes in the tree.
func Count(root Node) int {
	n := 0
	Walk(root, func(Node, string, int) bool {
		n++
		return true
	})
	return n
}
