package store

import (
	"strings"
	"testing"
)

func TestNavigationEdgeHitsIncrement(t *testing.T) {
	s := newTestStore(t)

	e := NavigationEdge{
		AppID:       "com.example.mail",
		FromScreen:  "1111111111111111",
		ElementHash: "a1b2c3d4e5f6",
		ToScreen:    "2222222222222222",
	}
	for i := 0; i < 3; i++ {
		if err := s.UpsertNavigationEdge(e); err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
	}

	edges, err := s.NavigationFrom("1111111111111111")
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	if edges[0].Hits != 3 {
		t.Errorf("hits = %d, want 3", edges[0].Hits)
	}
}

func TestHierarchyEdgeOrder(t *testing.T) {
	s := newTestStore(t)

	app := "com.example.mail"
	parent := "a1b2c3d4e5f6"
	children := []string{"c0c0c0c0c0c0", "c1c1c1c1c1c1", "c2c2c2c2c2c2"}
	// Insert out of order; child_order should win.
	for _, i := range []int{2, 0, 1} {
		err := s.UpsertHierarchyEdge(HierarchyEdge{
			AppID: app, ParentHash: parent, ChildHash: children[i], ChildOrder: i,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	edges, err := s.ChildEdges(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(edges))
	}
	for i, e := range edges {
		if e.ChildHash != children[i] {
			t.Errorf("position %d = %s, want %s", i, e.ChildHash, children[i])
		}
	}
}

func TestRouteBetween(t *testing.T) {
	s := newTestStore(t)

	app := "com.example.mail"
	// home -> inbox -> compose, plus a dead end through the app boundary.
	edges := []NavigationEdge{
		{AppID: app, FromScreen: "home", ElementHash: "e1e1e1e1e1e1", ToScreen: "inbox"},
		{AppID: app, FromScreen: "inbox", ElementHash: "e2e2e2e2e2e2", ToScreen: "compose"},
		{AppID: app, FromScreen: "home", ElementHash: "e3e3e3e3e3e3", ToScreen: LeftAppScreen},
	}
	for _, e := range edges {
		if err := s.UpsertNavigationEdge(e); err != nil {
			t.Fatal(err)
		}
	}

	route, err := s.RouteBetween("home", "compose", 10)
	if err != nil {
		t.Fatalf("RouteBetween failed: %v", err)
	}
	if len(route) != 2 {
		t.Fatalf("route length = %d, want 2", len(route))
	}
	if route[0].ElementHash != "e1e1e1e1e1e1" || route[1].ElementHash != "e2e2e2e2e2e2" {
		t.Errorf("unexpected route: %+v", route)
	}
}

func TestRouteBetweenNoPath(t *testing.T) {
	s := newTestStore(t)

	app := "com.example.mail"
	if err := s.UpsertNavigationEdge(NavigationEdge{
		AppID: app, FromScreen: "home", ElementHash: "e1e1e1e1e1e1", ToScreen: "inbox",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.RouteBetween("inbox", "home", 10); err == nil {
		t.Error("expected error for unreachable target")
	}
}

func TestRouteBetweenRespectsMaxDepth(t *testing.T) {
	s := newTestStore(t)

	app := "com.example.mail"
	screens := []string{"s0", "s1", "s2", "s3", "s4"}
	for i := 0; i < len(screens)-1; i++ {
		err := s.UpsertNavigationEdge(NavigationEdge{
			AppID: app, FromScreen: screens[i],
			ElementHash: strings.Repeat("e", 12), ToScreen: screens[i+1],
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.RouteBetween("s0", "s4", 3); err == nil {
		t.Error("route beyond maxDepth should fail")
	}
	if route, err := s.RouteBetween("s0", "s4", 4); err != nil || len(route) != 4 {
		t.Errorf("route within maxDepth: len=%d err=%v, want 4 hops", len(route), err)
	}
}

func TestRouteBetweenSkipsLeftApp(t *testing.T) {
	s := newTestStore(t)

	app := "com.example.mail"
	// The only "path" runs through the left-app sentinel, which is not a
	// navigable screen.
	edges := []NavigationEdge{
		{AppID: app, FromScreen: "home", ElementHash: "e1e1e1e1e1e1", ToScreen: LeftAppScreen},
		{AppID: app, FromScreen: LeftAppScreen, ElementHash: "e2e2e2e2e2e2", ToScreen: "settings"},
	}
	for _, e := range edges {
		if err := s.UpsertNavigationEdge(e); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.RouteBetween("home", "settings", 10); err == nil {
		t.Error("route through left-app sentinel should not be found")
	}
}
