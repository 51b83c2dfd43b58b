package explore

import "sort"

// Candidate is one safe element the engine may activate, with enough
// context for a strategy to order it.
type Candidate struct {
	Hash  string
	Path  string
	Depth int // depth within the UI tree, not the navigation graph
	Label string
}

// Strategy orders the safe elements of one screen before activation.
type Strategy interface {
	Name() string
	Order(cands []Candidate) []Candidate
}

// StrategyFor maps a configured name to a strategy. Unknown names fall back
// to depth-first document order.
func StrategyFor(name string) Strategy {
	switch name {
	case "shallow_first":
		return shallowFirst{}
	default:
		return depthFirst{}
	}
}

// depthFirst keeps document order: elements are activated exactly as the
// tree walk found them, so containers are driven before the content below
// them scrolls away.
type depthFirst struct{}

func (depthFirst) Name() string { return "depth_first" }

func (depthFirst) Order(cands []Candidate) []Candidate { return cands }

// shallowFirst activates top-level chrome before deeply nested content.
// Useful for apps where the interesting navigation lives in toolbars and
// tab strips.
type shallowFirst struct{}

func (shallowFirst) Name() string { return "shallow_first" }

func (shallowFirst) Order(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}
