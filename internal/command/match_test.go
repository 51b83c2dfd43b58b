package command

import (
	"errors"
	"testing"

	"uiscout/internal/config"
	"uiscout/internal/store"
	"uiscout/internal/uitree"
)

func testMatcher() *Matcher {
	return NewMatcher(config.CommandConfig{MatchThreshold: 0.5, UsageBonusCap: 0.2})
}

func testCandidates() []store.CommandRecord {
	return []store.CommandRecord{
		{ElementHash: "submithash01", Phrase: "click submit", Action: store.ActionClick,
			Confidence: 1.0, Synonyms: []string{"tap submit", "press submit"}},
		{ElementHash: "emailhash001", Phrase: "type in email", Action: store.ActionSetText,
			Confidence: 1.0, Synonyms: []string{"enter email"}},
	}
}

func TestMatchExact(t *testing.T) {
	m := testMatcher()

	got, err := m.Match("click submit", testCandidates())
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if got.ElementHash != "submithash01" {
		t.Errorf("hash = %s, want submithash01", got.ElementHash)
	}
	if got.Action != store.ActionClick {
		t.Errorf("action = %s, want %s", got.Action, store.ActionClick)
	}
	if got.Score < 0.9 {
		t.Errorf("exact match score = %.2f, want >= 0.9", got.Score)
	}
}

func TestMatchNormalizesInput(t *testing.T) {
	m := testMatcher()

	got, err := m.Match("  CLICK   Submit ", testCandidates())
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if got.ElementHash != "submithash01" || got.Score != 1.0 {
		t.Errorf("normalized exact match: hash=%s score=%.2f", got.ElementHash, got.Score)
	}
}

func TestMatchTypoViaEditDistance(t *testing.T) {
	m := testMatcher()

	got, err := m.Match("klick submit", testCandidates())
	if err != nil {
		t.Fatalf("typo should still match: %v", err)
	}
	if got.ElementHash != "submithash01" {
		t.Errorf("hash = %s, want submithash01", got.ElementHash)
	}
	if got.Score < 0.85 {
		t.Errorf("one-typo score = %.2f, want >= 0.85", got.Score)
	}
}

func TestMatchSynonym(t *testing.T) {
	m := testMatcher()

	got, err := m.Match("tap submit", testCandidates())
	if err != nil {
		t.Fatalf("synonym should match: %v", err)
	}
	if got.ElementHash != "submithash01" {
		t.Errorf("hash = %s, want submithash01", got.ElementHash)
	}
	// The returned phrase is the canonical one, not the synonym.
	if got.Phrase != "click submit" {
		t.Errorf("phrase = %q, want canonical %q", got.Phrase, "click submit")
	}
}

func TestMatchSubstring(t *testing.T) {
	m := testMatcher()

	// Utterance wraps the phrase: 0.8 * (12/16) = 0.6.
	got, err := m.Match("click submit now", testCandidates())
	if err != nil {
		t.Fatalf("substring should match: %v", err)
	}
	if got.ElementHash != "submithash01" {
		t.Errorf("hash = %s", got.ElementHash)
	}
	if got.Score < 0.55 || got.Score > 0.65 {
		t.Errorf("score = %.2f, want ~0.6", got.Score)
	}
}

func TestMatchShortFragmentRejected(t *testing.T) {
	m := testMatcher()

	// A bare fragment at half the phrase length scores 0.8 * 0.5 = 0.4.
	// Commands are matched as spoken phrases, not keywords.
	if _, err := m.Match("submit", testCandidates()); !errors.Is(err, ErrNoMatch) {
		t.Errorf("bare fragment = %v, want ErrNoMatch", err)
	}
}

func TestMatchGarbledReturnsNoMatch(t *testing.T) {
	m := testMatcher()

	_, err := m.Match("xqzzy plonk", testCandidates())
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("garbled input = %v, want ErrNoMatch", err)
	}
}

func TestMatchNoCandidates(t *testing.T) {
	m := testMatcher()

	if _, err := m.Match("click submit", nil); !errors.Is(err, ErrNoMatch) {
		t.Errorf("empty candidate set = %v, want ErrNoMatch", err)
	}
	if _, err := m.Match("   ", testCandidates()); !errors.Is(err, ErrNoMatch) {
		t.Errorf("blank utterance = %v, want ErrNoMatch", err)
	}
}

func TestMatchUnrelatedPhraseRejected(t *testing.T) {
	m := testMatcher()

	if _, err := m.Match("purchase now", testCandidates()); !errors.Is(err, ErrNoMatch) {
		t.Errorf("unrelated phrase = %v, want ErrNoMatch", err)
	}
}

func TestMatchUsageBreaksTie(t *testing.T) {
	m := testMatcher()

	candidates := []store.CommandRecord{
		{ElementHash: "coldhash0001", Phrase: "open settings", Action: store.ActionClick, Confidence: 1.0},
		{ElementHash: "warmhash0001", Phrase: "open settings", Action: store.ActionClick, Confidence: 1.0, UsageCount: 12},
	}
	got, err := m.Match("open settings", candidates)
	if err != nil {
		t.Fatal(err)
	}
	if got.ElementHash != "warmhash0001" {
		t.Errorf("tie went to %s, want the frequently used element", got.ElementHash)
	}
}

func TestMatchUsageCannotRescueGarbage(t *testing.T) {
	m := testMatcher()

	candidates := []store.CommandRecord{
		{ElementHash: "warmhash0001", Phrase: "click submit", Action: store.ActionClick,
			Confidence: 1.0, UsageCount: 1000},
	}
	if _, err := m.Match("xqzzy plonk", candidates); !errors.Is(err, ErrNoMatch) {
		t.Errorf("usage bonus lifted garbage over the gate: %v", err)
	}
}

// The worked example: a screen with a Submit button and an Email field.
func TestMatchEndToEnd(t *testing.T) {
	g := newTestGenerator(nil)
	m := testMatcher()
	app := "com.example.shop"

	submit := uitree.Attributes{Class: "android.widget.Button", Text: "Submit", Clickable: true, Enabled: true}
	email := uitree.Attributes{Class: "android.widget.EditText", Text: "Email", Editable: true, Enabled: true}

	var candidates []store.CommandRecord
	for _, el := range []struct {
		hash  string
		attrs uitree.Attributes
	}{
		{"5ub817ha5h00", submit},
		{"e3a11ha5h000", email},
	} {
		cmds, err := g.Generate(app, el.hash, el.attrs, 0.9)
		if err != nil {
			t.Fatal(err)
		}
		candidates = append(candidates, cmds...)
	}

	phrases := make(map[string]string, len(candidates))
	for _, c := range candidates {
		phrases[c.Phrase] = c.ElementHash
	}
	if phrases["click submit"] != "5ub817ha5h00" || phrases["type in email"] != "e3a11ha5h000" {
		t.Fatalf("generation produced %v", phrases)
	}

	got, err := m.Match("click submit", candidates)
	if err != nil || got.ElementHash != "5ub817ha5h00" || got.Score < 0.9 {
		t.Errorf("exact: hash=%s score=%.2f err=%v", got.ElementHash, got.Score, err)
	}

	got, err = m.Match("klick submit", candidates)
	if err != nil || got.ElementHash != "5ub817ha5h00" {
		t.Errorf("typo: hash=%s err=%v", got.ElementHash, err)
	}

	if _, err := m.Match("purchase now", candidates); !errors.Is(err, ErrNoMatch) {
		t.Errorf("unrelated utterance = %v, want ErrNoMatch", err)
	}
}
