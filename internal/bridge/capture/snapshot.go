package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"uiscout/internal/uitree"
)

// Snapshot is the JSON envelope a companion process writes per capture. The
// root node and its descendants reuse the uitree attribute field names, so a
// dumper can serialize its accessibility tree without translation.
type Snapshot struct {
	App        string        `json:"app"`
	Screen     string        `json:"screen"`
	Version    string        `json:"version,omitempty"`
	CapturedAt time.Time     `json:"captured_at,omitempty"`
	Root       *SnapshotNode `json:"root"`
}

// SnapshotNode is one element in a JSON capture.
type SnapshotNode struct {
	uitree.Attributes
	Children []*SnapshotNode `json:"children,omitempty"`
}

// DecodeJSON decodes one JSON capture into a tree. The envelope's app and
// screen ids are stamped on the root when the root itself does not carry
// them; defaultApp covers snapshots with neither.
func DecodeJSON(r io.Reader, defaultApp string) (*uitree.Static, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Root == nil {
		return nil, errors.New("snapshot has no root node")
	}

	root := snap.Root.toStatic()
	if root.App == "" {
		root.App = snap.App
	}
	if root.App == "" {
		root.App = defaultApp
	}
	if root.Screen == "" {
		root.Screen = snap.Screen
	}
	return root, nil
}

func (n *SnapshotNode) toStatic() *uitree.Static {
	s := &uitree.Static{Attributes: n.Attributes}
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		s.Children = append(s.Children, c.toStatic())
	}
	return s
}
