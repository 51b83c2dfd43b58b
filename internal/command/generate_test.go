package command

import (
	"strings"
	"testing"

	"uiscout/internal/config"
	"uiscout/internal/store"
	"uiscout/internal/uitree"
)

// fakeOrdinals hands out sequential numbers per key.
type fakeOrdinals struct {
	counters map[string]int
}

func (f *fakeOrdinals) NextFallbackOrdinal(appID, typeKey string) (int, error) {
	if f.counters == nil {
		f.counters = make(map[string]int)
	}
	f.counters[appID+"|"+typeKey]++
	return f.counters[appID+"|"+typeKey], nil
}

// fakeNotifier records fallback assignments.
type fakeNotifier struct {
	hashes    []string
	phrases   []string
	summaries []string
	finished  int
}

func (f *fakeNotifier) FallbackAssigned(hash, phrase, summary string) {
	f.hashes = append(f.hashes, hash)
	f.phrases = append(f.phrases, phrase)
	f.summaries = append(f.summaries, summary)
}

func (f *fakeNotifier) ExplorationFinished(appID string, screens, elements int, err error) {
	f.finished++
}

func newTestGenerator(notifier uitree.Notifier) *Generator {
	return NewGenerator(config.CommandConfig{MinStability: 0.7}, &fakeOrdinals{}, notifier)
}

func TestGenerateClickable(t *testing.T) {
	g := newTestGenerator(nil)

	attrs := uitree.Attributes{Class: "android.widget.Button", Text: "Submit", Clickable: true, Enabled: true}
	cmds, err := g.Generate("com.example.mail", "a1b2c3d4e5f6", attrs, 0.9)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	c := cmds[0]
	if c.Phrase != "click submit" {
		t.Errorf("phrase = %q, want %q", c.Phrase, "click submit")
	}
	if c.Action != store.ActionClick {
		t.Errorf("action = %s, want %s", c.Action, store.ActionClick)
	}
	if c.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", c.Confidence)
	}
	if len(c.Synonyms) != 2 || c.Synonyms[0] != "tap submit" || c.Synonyms[1] != "press submit" {
		t.Errorf("synonyms = %v", c.Synonyms)
	}
	if c.IsFallback {
		t.Error("labeled command flagged as fallback")
	}
}

func TestGenerateEditable(t *testing.T) {
	g := newTestGenerator(nil)

	attrs := uitree.Attributes{Class: "android.widget.EditText", Text: "Email", Editable: true, Enabled: true}
	cmds, err := g.Generate("com.example.mail", "b1b2b3b4b5b6", attrs, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Phrase != "type in email" || cmds[0].Action != store.ActionSetText {
		t.Errorf("got %q/%s, want %q/%s", cmds[0].Phrase, cmds[0].Action, "type in email", store.ActionSetText)
	}
}

func TestGenerateMultiCapability(t *testing.T) {
	g := newTestGenerator(nil)

	attrs := uitree.Attributes{
		Class: "android.widget.EditText", Text: "Search",
		Clickable: true, Editable: true, LongClickable: true, Enabled: true,
	}
	cmds, err := g.Generate("com.example.mail", "c1c2c3c4c5c6", attrs, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	phrases := make(map[string]store.CommandAction, len(cmds))
	for _, c := range cmds {
		phrases[c.Phrase] = c.Action
	}
	want := map[string]store.CommandAction{
		"type in search":    store.ActionSetText,
		"click search":      store.ActionClick,
		"long press search": store.ActionLongClick,
	}
	for phrase, action := range want {
		if got, ok := phrases[phrase]; !ok || got != action {
			t.Errorf("missing %q -> %s (got %v)", phrase, action, phrases)
		}
	}
}

func TestGenerateGates(t *testing.T) {
	g := newTestGenerator(nil)

	tests := []struct {
		name      string
		attrs     uitree.Attributes
		stability float64
	}{
		{
			name:      "below stability gate",
			attrs:     uitree.Attributes{Text: "Send", Clickable: true, Enabled: true},
			stability: 0.3,
		},
		{
			name:      "disabled",
			attrs:     uitree.Attributes{Text: "Send", Clickable: true, Enabled: false},
			stability: 1.0,
		},
		{
			name:      "not actionable",
			attrs:     uitree.Attributes{Text: "Just a label", Enabled: true},
			stability: 1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := g.Generate("com.example.mail", "d1d2d3d4d5d6", tt.attrs, tt.stability)
			if err != nil {
				t.Fatal(err)
			}
			if len(cmds) != 0 {
				t.Errorf("got %d commands, want none", len(cmds))
			}
		})
	}
}

func TestGenerateResourceDerivedConfidence(t *testing.T) {
	g := newTestGenerator(nil)

	attrs := uitree.Attributes{
		Class: "android.widget.Button", ResourceID: "com.example.mail:id/btn_send",
		Clickable: true, Enabled: true,
	}
	cmds, err := g.Generate("com.example.mail", "e1e2e3e4e5e6", attrs, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Phrase != "click send" {
		t.Errorf("phrase = %q, want %q", cmds[0].Phrase, "click send")
	}
	if cmds[0].Confidence != 0.9 {
		t.Errorf("resource-derived confidence = %f, want 0.9", cmds[0].Confidence)
	}
}

func TestGenerateFallbackNumbering(t *testing.T) {
	notifier := &fakeNotifier{}
	g := newTestGenerator(notifier)

	attrs := uitree.Attributes{Class: "android.widget.ImageButton", Clickable: true, Enabled: true}
	app := "com.example.mail"

	for want := 1; want <= 2; want++ {
		hash := strings.Repeat("a", 11) + string(rune('0'+want))
		cmds, err := g.Generate(app, hash, attrs, 0.8)
		if err != nil {
			t.Fatal(err)
		}
		if len(cmds) != 1 {
			t.Fatalf("got %d commands, want 1", len(cmds))
		}
		c := cmds[0]
		wantPhrase := []string{"", "button 1", "button 2"}[want]
		if c.Phrase != wantPhrase {
			t.Errorf("phrase = %q, want %q", c.Phrase, wantPhrase)
		}
		if !c.IsFallback {
			t.Error("fallback not flagged")
		}
		if c.Confidence != 0.8 {
			t.Errorf("fallback confidence = %f, want 0.8", c.Confidence)
		}
	}

	// A different widget type numbers independently.
	fieldAttrs := uitree.Attributes{Class: "android.widget.EditText", Editable: true, Enabled: true}
	cmds, err := g.Generate(app, "f1f2f3f4f5f6", fieldAttrs, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if cmds[0].Phrase != "type in field 1" {
		t.Errorf("field fallback = %q, want %q", cmds[0].Phrase, "type in field 1")
	}

	if len(notifier.phrases) != 3 {
		t.Fatalf("notifier saw %d assignments, want 3", len(notifier.phrases))
	}
	if notifier.phrases[0] != "button 1" || notifier.phrases[1] != "button 2" {
		t.Errorf("notified phrases = %v", notifier.phrases)
	}
	if !strings.Contains(notifier.summaries[0], "ImageButton") {
		t.Errorf("summary %q does not name the widget", notifier.summaries[0])
	}
}

func TestPhraseLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Submit", "submit"},
		{"  Sign In  ", "sign in"},
		{"Accept Terms & Conditions!", "accept terms conditions"},
		{"Don't show this again", "don t show this again"},
		{"one two three four five six seven", "one two three four five"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := phraseLabel(tt.in); got != tt.want {
			t.Errorf("phraseLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTypeWord(t *testing.T) {
	tests := []struct {
		attrs uitree.Attributes
		want  string
	}{
		{uitree.Attributes{Class: "android.widget.Button"}, "button"},
		{uitree.Attributes{Class: "android.widget.ImageButton"}, "button"},
		{uitree.Attributes{Class: "android.widget.EditText"}, "field"},
		{uitree.Attributes{Class: "android.widget.ImageView"}, "image"},
		{uitree.Attributes{Class: "android.widget.CheckBox"}, "toggle"},
		{uitree.Attributes{Class: "androidx.recyclerview.widget.RecyclerView", Scrollable: true}, "list"},
		{uitree.Attributes{Class: "android.view.View"}, "item"},
	}
	for _, tt := range tests {
		if got := typeWord(tt.attrs); got != tt.want {
			t.Errorf("typeWord(%s) = %q, want %q", tt.attrs.Class, got, tt.want)
		}
	}
}
