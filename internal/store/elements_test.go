package store

import (
	"errors"
	"testing"

	"uiscout/internal/classify"
)

func sampleElement() ElementRecord {
	return ElementRecord{
		Hash:          "a1b2c3d4e5f6",
		AppID:         "com.example.mail",
		ScreenHash:    "1111111111111111",
		HierarchyPath: "/0/1/2",
		ClassName:     "android.widget.Button",
		ResourceID:    "com.example.mail:id/send",
		Text:          "Send",
		Bounds:        "[10,20][110,80]",
		Clickable:     true,
		Enabled:       true,
		Safety:        classify.Safe,
		Stability:     0.9,
	}
}

func TestUpsertElementIdempotent(t *testing.T) {
	s := newTestStore(t)

	rec := sampleElement()
	if err := s.UpsertElement(rec); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}
	if err := s.UpsertElement(rec); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	stats, _ := s.GetStats()
	if stats.Elements != 1 {
		t.Errorf("element count after double upsert = %d, want 1", stats.Elements)
	}

	got, err := s.GetElement(rec.Hash)
	if err != nil {
		t.Fatalf("GetElement failed: %v", err)
	}
	if got.Text != "Send" || got.ClassName != rec.ClassName || !got.Clickable {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Safety != classify.Safe {
		t.Errorf("safety = %s, want %s", got.Safety, classify.Safe)
	}
}

func TestUpsertElementRefreshesVolatileFields(t *testing.T) {
	s := newTestStore(t)

	rec := sampleElement()
	if err := s.UpsertElement(rec); err != nil {
		t.Fatal(err)
	}

	// Bounds can drift within the coarse grid without changing the hash.
	rec.Bounds = "[12,22][112,82]"
	rec.Stability = 0.8
	if err := s.UpsertElement(rec); err != nil {
		t.Fatalf("Refresh upsert failed: %v", err)
	}

	got, _ := s.GetElement(rec.Hash)
	if got.Bounds != "[12,22][112,82]" {
		t.Errorf("bounds not refreshed: %s", got.Bounds)
	}
	if got.Stability != 0.8 {
		t.Errorf("stability not refreshed: %f", got.Stability)
	}
}

func TestUpsertElementHashCollision(t *testing.T) {
	s := newTestStore(t)

	rec := sampleElement()
	if err := s.UpsertElement(rec); err != nil {
		t.Fatal(err)
	}

	// Same hash, different identity: the stored record must survive.
	impostor := rec
	impostor.HierarchyPath = "/0/9"
	impostor.Text = "Delete"
	err := s.UpsertElement(impostor)
	if !errors.Is(err, ErrHashCollision) {
		t.Fatalf("collision = %v, want ErrHashCollision", err)
	}

	got, _ := s.GetElement(rec.Hash)
	if got.Text != "Send" || got.HierarchyPath != "/0/1/2" {
		t.Errorf("collision overwrote stored record: %+v", got)
	}
}

func TestFullyLearnedNeverDowngrades(t *testing.T) {
	s := newTestStore(t)

	rec := sampleElement()
	rec.FullyLearned = true
	if err := s.UpsertElement(rec); err != nil {
		t.Fatal(err)
	}

	// An incremental pass re-registers the element without the stamp.
	rec.FullyLearned = false
	if err := s.UpsertElement(rec); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetElement(rec.Hash)
	if !got.FullyLearned {
		t.Error("fully_learned stamp was cleared by re-upsert")
	}
}

func TestMarkScreenFullyLearned(t *testing.T) {
	s := newTestStore(t)

	app := "com.example.mail"
	screen := "1111111111111111"
	if err := s.UpsertScreen(ScreenRecord{Hash: screen, AppID: app, ElementCount: 2}); err != nil {
		t.Fatal(err)
	}
	a := sampleElement()
	b := sampleElement()
	b.Hash = "b1b2b3b4b5b6"
	b.HierarchyPath = "/0/2"
	for _, rec := range []ElementRecord{a, b} {
		if err := s.UpsertElement(rec); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.MarkScreenFullyLearned(app, screen); err != nil {
		t.Fatalf("MarkScreenFullyLearned failed: %v", err)
	}

	learned, err := s.LearnedScreenHashes(app)
	if err != nil {
		t.Fatal(err)
	}
	if len(learned) != 1 || learned[0] != screen {
		t.Errorf("learned screens = %v, want [%s]", learned, screen)
	}

	els, _ := s.ElementsOnScreen(screen)
	for _, el := range els {
		if !el.FullyLearned {
			t.Errorf("element %s not stamped fully learned", el.Hash)
		}
	}
}

func TestElementsForApp(t *testing.T) {
	s := newTestStore(t)

	a := sampleElement()
	b := sampleElement()
	b.Hash = "b1b2b3b4b5b6"
	b.HierarchyPath = "/0/0"
	other := sampleElement()
	other.Hash = "c1c2c3c4c5c6"
	other.AppID = "com.example.other"

	for _, rec := range []ElementRecord{a, b, other} {
		if err := s.UpsertElement(rec); err != nil {
			t.Fatal(err)
		}
	}

	els, err := s.ElementsForApp("com.example.mail")
	if err != nil {
		t.Fatal(err)
	}
	if len(els) != 2 {
		t.Fatalf("got %d elements, want 2", len(els))
	}
	// Ordered by hierarchy path.
	if els[0].HierarchyPath != "/0/0" || els[1].HierarchyPath != "/0/1/2" {
		t.Errorf("unexpected order: %s, %s", els[0].HierarchyPath, els[1].HierarchyPath)
	}
}

func TestRecentScreenHashes(t *testing.T) {
	s := newTestStore(t)

	app := "com.example.mail"
	hashes := []string{"1111111111111111", "2222222222222222", "3333333333333333"}
	for _, h := range hashes {
		if err := s.UpsertScreen(ScreenRecord{Hash: h, AppID: app}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.RecentScreenHashes(app, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d hashes, want 2", len(recent))
	}
	if recent[0] != "3333333333333333" || recent[1] != "2222222222222222" {
		t.Errorf("unexpected recency order: %v", recent)
	}
}

func TestElementSummary(t *testing.T) {
	tests := []struct {
		name string
		rec  ElementRecord
		want string
	}{
		{
			name: "text and resource",
			rec: ElementRecord{
				ClassName:  "android.widget.Button",
				ResourceID: "com.example.mail:id/send",
				Text:       "Send",
			},
			want: `Button "Send" (com.example.mail:id/send)`,
		},
		{
			name: "description only",
			rec: ElementRecord{
				ClassName:   "android.widget.ImageButton",
				Description: "Compose",
			},
			want: `ImageButton "Compose"`,
		},
		{
			name: "resource only",
			rec: ElementRecord{
				ClassName:  "android.widget.EditText",
				ResourceID: "com.example.mail:id/subject",
			},
			want: "EditText (com.example.mail:id/subject)",
		},
		{
			name: "bounds fallback",
			rec: ElementRecord{
				ClassName: "android.view.View",
				Bounds:    "[0,0][1080,1920]",
			},
			want: "View at [0,0][1080,1920]",
		},
	}
	for _, tt := range tests {
		if got := tt.rec.Summary(); got != tt.want {
			t.Errorf("%s: Summary() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
