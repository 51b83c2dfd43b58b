package command

import (
	"fmt"
	"math"
	"strings"

	"uiscout/internal/config"
	"uiscout/internal/logging"
	"uiscout/internal/store"
)

// Match is a resolved utterance.
type Match struct {
	ElementHash string
	Action      store.CommandAction
	Phrase      string
	Score       float64
}

// Matcher scores utterances against registered commands.
type Matcher struct {
	cfg config.CommandConfig
}

func NewMatcher(cfg config.CommandConfig) *Matcher {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = 0.5
	}
	if cfg.UsageBonusCap <= 0 {
		cfg.UsageBonusCap = 0.2
	}
	return &Matcher{cfg: cfg}
}

// Match resolves an utterance against a candidate set. The threshold is
// applied to the text score alone; the usage bonus only reorders candidates
// that already cleared it, so a heavily-used command can win a tie but a
// garbled utterance can never ride popularity over the gate.
func (m *Matcher) Match(input string, candidates []store.CommandRecord) (Match, error) {
	utterance := normalize(input)
	if utterance == "" || len(candidates) == 0 {
		return Match{}, fmt.Errorf("%q: %w", input, ErrNoMatch)
	}

	timer := logging.StartTimer(logging.CategoryMatch, "Matcher.Match")
	defer timer.Stop()

	var (
		best      Match
		bestKey   string
		bestTotal = -1.0
	)
	for _, c := range candidates {
		base, key := m.scoreCandidate(utterance, c)
		if base < m.cfg.MatchThreshold {
			continue
		}
		total := base + math.Min(m.cfg.UsageBonusCap, 0.01*float64(c.UsageCount))
		if total > bestTotal || (total == bestTotal && key < bestKey) {
			bestTotal = total
			bestKey = key
			best = Match{
				ElementHash: c.ElementHash,
				Action:      c.Action,
				Phrase:      c.Phrase,
				Score:       base,
			}
		}
	}

	if bestTotal < 0 {
		logging.MatchDebug("No match for %q among %d candidates", utterance, len(candidates))
		return Match{}, fmt.Errorf("%q: %w", input, ErrNoMatch)
	}

	logging.Match("Matched %q -> %q (element %s, score %.2f)",
		utterance, best.Phrase, best.ElementHash, best.Score)
	return best, nil
}

// scoreCandidate returns the best text score across a command's phrase and
// synonyms, and the phrase that produced it.
func (m *Matcher) scoreCandidate(utterance string, c store.CommandRecord) (float64, string) {
	best := 0.0
	bestPhrase := normalize(c.Phrase)
	for _, phrase := range append([]string{c.Phrase}, c.Synonyms...) {
		p := normalize(phrase)
		if p == "" {
			continue
		}
		if s := scorePhrase(utterance, p, c.Confidence); s > best {
			best = s
			bestPhrase = p
		}
	}
	return best, bestPhrase
}

// scorePhrase implements the three-tier score: exact, substring, then edit
// distance.
func scorePhrase(utterance, phrase string, confidence float64) float64 {
	if utterance == phrase {
		return 1.0 * confidence
	}
	if strings.Contains(utterance, phrase) || strings.Contains(phrase, utterance) {
		shorter, longer := len(utterance), len(phrase)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return 0.8 * confidence * float64(shorter) / float64(longer)
	}
	return editSimilarity(utterance, phrase) * confidence
}

// normalize lowercases and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
