package explore

import "testing"

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"depth_first", "depth_first"},
		{"shallow_first", "shallow_first"},
		{"", "depth_first"},
		{"breadth_first", "depth_first"}, // unknown names fall back
	}
	for _, tt := range tests {
		if got := StrategyFor(tt.name).Name(); got != tt.want {
			t.Errorf("StrategyFor(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestDepthFirstKeepsDocumentOrder(t *testing.T) {
	cands := []Candidate{
		{Hash: "aaa", Depth: 3},
		{Hash: "bbb", Depth: 1},
		{Hash: "ccc", Depth: 2},
	}
	got := StrategyFor("depth_first").Order(cands)
	for i, want := range []string{"aaa", "bbb", "ccc"} {
		if got[i].Hash != want {
			t.Fatalf("order[%d] = %s, want %s", i, got[i].Hash, want)
		}
	}
}

func TestShallowFirstSortsByTreeDepth(t *testing.T) {
	cands := []Candidate{
		{Hash: "deep", Depth: 5},
		{Hash: "top", Depth: 1},
		{Hash: "mid1", Depth: 3},
		{Hash: "mid2", Depth: 3},
	}
	got := StrategyFor("shallow_first").Order(cands)
	for i, want := range []string{"top", "mid1", "mid2", "deep"} {
		if got[i].Hash != want {
			t.Fatalf("order[%d] = %s, want %s", i, got[i].Hash, want)
		}
	}
	// The input slice is left alone.
	if cands[0].Hash != "deep" {
		t.Error("Order mutated its input")
	}
}
