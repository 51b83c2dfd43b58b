// Package classify labels UI elements by interaction safety before the
// exploration engine decides what it may touch. Every element receives
// exactly one label; only Safe elements are ever activated automatically.
// The rules are deliberately static word lists and attribute checks, biased
// toward false positives: wrongly skipping a harmless button costs coverage,
// wrongly pressing "Delete account" costs the user.
package classify

import (
	"strings"
	"unicode"

	"uiscout/internal/uitree"
)

// Safety is the interaction-safety label of an element.
type Safety string

const (
	// Safe elements may be activated automatically during exploration.
	Safe Safety = "safe"
	// Dangerous elements trigger destructive or costly actions and are
	// registered but never activated automatically.
	Dangerous Safety = "dangerous"
	// Credential elements belong to authentication flows. Never activated
	// automatically; a screen containing them pauses exploration.
	Credential Safety = "credential"
	// Inert elements are disabled or purely decorative.
	Inert Safety = "inert"
)

// AutoInteractable reports whether exploration may activate the element
// without user involvement.
func (s Safety) AutoInteractable() bool { return s == Safe }

// Single-word terms must match a whole token; phrases match on the
// token-joined string. Containment alone would flag "pin" inside "spinning".
var defaultDangerTerms = []string{
	"delete", "remove", "erase", "wipe", "format", "reset", "factory reset",
	"uninstall", "deactivate", "purchase", "buy", "pay", "checkout",
	"send", "transfer", "exit", "quit", "logout", "log out", "sign out",
	"call", "emergency",
}

var defaultCredentialTerms = []string{
	"password", "passcode", "passphrase", "pin", "otp", "one time code",
	"login", "log in", "sign in", "signin", "username", "authenticate",
	"verification code", "2fa", "fingerprint", "biometric",
}

// Classifier applies the safety rules. Safe for concurrent use once built.
type Classifier struct {
	danger     []string
	credential []string
}

// New returns a Classifier with the built-in term lists.
func New() *Classifier {
	return &Classifier{
		danger:     defaultDangerTerms,
		credential: defaultCredentialTerms,
	}
}

// Extend adds deployment-specific terms on top of the built-in lists.
// Terms are matched lowercase.
func (c *Classifier) Extend(danger, credential []string) {
	for _, t := range danger {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			c.danger = append(c.danger, t)
		}
	}
	for _, t := range credential {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			c.credential = append(c.credential, t)
		}
	}
}

// Classify returns the single safety label for an element. Rules apply in
// precedence order: inert, credential, dangerous, safe.
func (c *Classifier) Classify(attrs uitree.Attributes) Safety {
	if !attrs.Enabled || !attrs.Actionable() {
		return Inert
	}
	if attrs.Password {
		return Credential
	}
	tokens, joined := tokenize(attrs)
	if matchesAny(tokens, joined, c.credential) {
		return Credential
	}
	if matchesAny(tokens, joined, c.danger) {
		return Dangerous
	}
	return Safe
}

// IsCredentialScreen reports whether the screen rooted at root belongs to an
// authentication flow. A screen qualifies when it contains a password-style
// input; mere "Sign in" buttons on an otherwise ordinary screen do not
// qualify, those are just classified Credential individually.
func (c *Classifier) IsCredentialScreen(root uitree.Node) bool {
	found := false
	uitree.Walk(root, func(n uitree.Node, _ string, _ int) bool {
		if found {
			return false
		}
		attrs := n.Attrs()
		if attrs.Password {
			found = true
			return false
		}
		if attrs.Editable {
			tokens, joined := tokenize(attrs)
			if matchesAny(tokens, joined, c.credential) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// tokenize lowers the element's identifying strings and splits them into
// word tokens. The joined form backs phrase matching.
func tokenize(attrs uitree.Attributes) (tokens []string, joined string) {
	raw := strings.ToLower(strings.Join([]string{
		attrs.Text,
		attrs.Desc,
		uitree.ResourceWords(attrs.ResourceID),
		attrs.Class,
	}, " "))
	tokens = strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return tokens, strings.Join(tokens, " ")
}

func matchesAny(tokens []string, joined string, terms []string) bool {
	for _, term := range terms {
		if strings.ContainsRune(term, ' ') {
			if strings.Contains(joined, term) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == term {
				return true
			}
		}
	}
	return false
}
