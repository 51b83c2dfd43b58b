// Package fingerprint assigns content-addressed identities to UI elements.
// An element's hash is a truncated SHA-256 digest over its canonical
// attribute string, so the same element on the same screen of the same app
// version always resolves to the same identity, with no counters and no
// coordination between writers. Alongside the hash, the package scores how
// stable that identity is expected to stay across app updates.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"uiscout/internal/uitree"
)

// HashLen is the length in hex characters of an element hash. Twelve hex
// chars (48 bits) keep collisions vanishingly rare at realistic per-app
// element counts while staying short enough to log and speak about.
const HashLen = 12

const (
	// DefaultBoundsGrid is the pixel grid bounds are snapped to before
	// hashing, absorbing sub-grid layout jitter between scrapes.
	DefaultBoundsGrid = 10

	// DefaultShallowDepth is the maximum tree depth still considered
	// "shallow" for stability scoring. Elements near the root tend to be
	// structural furniture that survives app updates.
	DefaultShallowDepth = 4
)

// Stability weights. An element anchored by a resource identifier is far more
// likely to survive an app update than one identified only by its text.
const (
	weightResourceID = 0.4
	weightDesc       = 0.2
	weightText       = 0.2
	weightShallow    = 0.1
	weightActionable = 0.1
)

// MinCommandStability is the default stability score an element must reach
// before voice phrases are generated for it.
const MinCommandStability = 0.7

// Config scopes a Generator to one app at one version.
type Config struct {
	App     string // app identifier (package name, origin)
	Version string // app version string; hashes do not survive version bumps

	BoundsGrid   int // 0 means DefaultBoundsGrid
	ShallowDepth int // 0 means DefaultShallowDepth
}

// Generator computes element fingerprints for a single app/version context.
// It is stateless after construction and safe for concurrent use.
type Generator struct {
	app     string
	version string
	grid    int
	shallow int
}

// New returns a Generator for the given app context.
func New(cfg Config) *Generator {
	g := &Generator{
		app:     cfg.App,
		version: cfg.Version,
		grid:    cfg.BoundsGrid,
		shallow: cfg.ShallowDepth,
	}
	if g.grid <= 0 {
		g.grid = DefaultBoundsGrid
	}
	if g.shallow <= 0 {
		g.shallow = DefaultShallowDepth
	}
	return g
}

// Fingerprint is an element's computed identity.
type Fingerprint struct {
	Hash      string  // HashLen hex chars
	Stability float64 // 0.0 .. 1.0
}

// Fingerprint computes the identity of an element at the given hierarchy
// path. The hierarchy path always participates in the digest: two otherwise
// identical siblings (say, two bare "+" buttons in a list) still receive
// distinct hashes because their paths differ.
func (g *Generator) Fingerprint(attrs uitree.Attributes, path string) Fingerprint {
	sum := sha256.Sum256([]byte(g.canonical(attrs, path)))
	return Fingerprint{
		Hash:      hex.EncodeToString(sum[:])[:HashLen],
		Stability: g.stability(attrs, path),
	}
}

// canonical renders the identity-bearing attributes in a fixed field order.
// Every field is labeled and "|"-separated so that value shifts between
// fields can never produce the same string.
func (g *Generator) canonical(attrs uitree.Attributes, path string) string {
	var b strings.Builder
	b.Grow(256)
	writeField := func(key, val string) {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(val)
		b.WriteByte('|')
	}
	writeField("app", g.app)
	writeField("ver", g.version)
	writeField("class", attrs.Class)
	writeField("res", attrs.ResourceID)
	writeField("text", attrs.Text)
	writeField("desc", attrs.Desc)
	writeField("path", path)
	writeField("bounds", attrs.Bounds.Coarse(g.grid).String())
	writeField("flags", flagBits(attrs))
	return b.String()
}

// flagBits packs the boolean capabilities into a fixed-position bit string.
func flagBits(attrs uitree.Attributes) string {
	bits := [6]byte{'0', '0', '0', '0', '0', '0'}
	set := func(i int, v bool) {
		if v {
			bits[i] = '1'
		}
	}
	set(0, attrs.Clickable)
	set(1, attrs.LongClickable)
	set(2, attrs.Enabled)
	set(3, attrs.Scrollable)
	set(4, attrs.Editable)
	set(5, attrs.Password)
	return string(bits[:])
}

// stability estimates how likely the element's hash is to survive an app
// update, as a weighted sum over the anchors present.
func (g *Generator) stability(attrs uitree.Attributes, path string) float64 {
	score := 0.0
	if attrs.ResourceID != "" {
		score += weightResourceID
	}
	if attrs.Desc != "" {
		score += weightDesc
	}
	if attrs.Text != "" {
		score += weightText
	}
	if uitree.PathDepth(path) <= g.shallow {
		score += weightShallow
	}
	if attrs.Actionable() {
		score += weightActionable
	}
	return score
}
