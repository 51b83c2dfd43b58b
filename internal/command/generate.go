package command

import (
	"fmt"
	"strings"

	"uiscout/internal/config"
	"uiscout/internal/logging"
	"uiscout/internal/store"
	"uiscout/internal/uitree"
)

// maxLabelWords bounds phrases derived from long labels; "click accept the
// updated terms and conditions to continue" helps nobody.
const maxLabelWords = 5

// Ordinals reserves fallback numbers. Satisfied by *store.Store.
type Ordinals interface {
	NextFallbackOrdinal(appID, typeKey string) (int, error)
}

// Generator derives voice commands for registered elements.
type Generator struct {
	cfg      config.CommandConfig
	ordinals Ordinals
	notifier uitree.Notifier
}

// NewGenerator builds a generator. notifier may be nil when no collaborator
// wants fallback-assignment events.
func NewGenerator(cfg config.CommandConfig, ordinals Ordinals, notifier uitree.Notifier) *Generator {
	if cfg.MinStability <= 0 {
		cfg.MinStability = 0.7
	}
	return &Generator{cfg: cfg, ordinals: ordinals, notifier: notifier}
}

// Generate derives the command records for one element. Elements below the
// stability gate or without any actionable capability yield nothing. The
// returned records carry no app id; the store layer stamps it.
func (g *Generator) Generate(appID, hash string, attrs uitree.Attributes, stability float64) ([]store.CommandRecord, error) {
	if !attrs.Actionable() || !attrs.Enabled {
		return nil, nil
	}
	if stability < g.cfg.MinStability {
		logging.CommandDebug("Skipping %s: stability %.2f below gate %.2f", hash, stability, g.cfg.MinStability)
		return nil, nil
	}

	label := phraseLabel(attrs.Label())
	if label == "" {
		return g.generateFallback(appID, hash, attrs)
	}

	confidence := 1.0
	if attrs.Desc == "" && attrs.Text == "" {
		// Resource-derived words are developer naming, not user-facing
		// text; they match utterances less reliably.
		confidence = 0.9
	}

	var cmds []store.CommandRecord
	add := func(action store.CommandAction, phrase string, synonyms ...string) {
		cmds = append(cmds, store.CommandRecord{
			ElementHash: hash,
			AppID:       appID,
			Phrase:      phrase,
			Action:      action,
			Confidence:  confidence,
			Synonyms:    synonyms,
		})
	}

	if attrs.Editable {
		add(store.ActionSetText, "type in "+label, "enter "+label)
	}
	if attrs.Clickable {
		add(store.ActionClick, "click "+label, "tap "+label, "press "+label)
	}
	if attrs.LongClickable {
		add(store.ActionLongClick, "long press "+label, "hold "+label)
	}
	if attrs.Scrollable {
		add(store.ActionScroll, "scroll "+label, "swipe "+label)
	}

	logging.CommandDebug("Generated %d commands for %s (%q)", len(cmds), hash, label)
	return cmds, nil
}

// generateFallback reserves a numbered phrase for an unlabeled element and
// signals the assignment.
func (g *Generator) generateFallback(appID, hash string, attrs uitree.Attributes) ([]store.CommandRecord, error) {
	kind := typeWord(attrs)
	ordinal, err := g.ordinals.NextFallbackOrdinal(appID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve fallback ordinal: %w", err)
	}

	phrase := fmt.Sprintf("%s %d", kind, ordinal)
	action := store.ActionClick
	switch {
	case attrs.Editable:
		action = store.ActionSetText
		phrase = fmt.Sprintf("type in %s %d", kind, ordinal)
	case !attrs.Clickable && attrs.Scrollable:
		action = store.ActionScroll
		phrase = fmt.Sprintf("scroll %s %d", kind, ordinal)
	case !attrs.Clickable && attrs.LongClickable:
		action = store.ActionLongClick
	}

	logging.Command("Assigned fallback %q to unlabeled %s (%s)", phrase, hash, attrs.Class)
	if g.notifier != nil {
		g.notifier.FallbackAssigned(hash, phrase, elementSummary(attrs))
	}

	return []store.CommandRecord{{
		ElementHash: hash,
		AppID:       appID,
		Phrase:      phrase,
		Action:      action,
		Confidence:  0.8,
		IsFallback:  true,
	}}, nil
}

// phraseLabel normalizes a label into phrase form: lowercased, punctuation
// stripped, capped at a few words.
func phraseLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	words := strings.Fields(b.String())
	if len(words) > maxLabelWords {
		words = words[:maxLabelWords]
	}
	return strings.Join(words, " ")
}

// typeWord maps a widget class to the noun used in fallback phrases.
func typeWord(attrs uitree.Attributes) string {
	class := attrs.Class
	if i := strings.LastIndex(class, "."); i >= 0 {
		class = class[i+1:]
	}
	switch {
	case strings.Contains(class, "EditText"), attrs.Editable:
		return "field"
	case strings.Contains(class, "Button"):
		return "button"
	case strings.Contains(class, "Image"):
		return "image"
	case strings.Contains(class, "CheckBox"), strings.Contains(class, "Switch"),
		strings.Contains(class, "Toggle"), strings.Contains(class, "Radio"):
		return "toggle"
	case strings.Contains(class, "Tab"):
		return "tab"
	case attrs.Scrollable:
		return "list"
	default:
		return "item"
	}
}

// elementSummary describes an element for fallback-assignment notifications.
func elementSummary(attrs uitree.Attributes) string {
	class := attrs.Class
	if i := strings.LastIndex(class, "."); i >= 0 {
		class = class[i+1:]
	}
	if class == "" {
		class = "element"
	}
	if attrs.ResourceID != "" {
		return fmt.Sprintf("%s (%s) at %s", class, attrs.ResourceID, attrs.Bounds.String())
	}
	return fmt.Sprintf("%s at %s", class, attrs.Bounds.String())
}
