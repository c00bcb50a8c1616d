// Package priming assembles an initial prompt for the transcription
// engine from local context: clipboard prose, recent transcripts, and
// the user's custom dictionary. Everything stays on the machine.
package priming

import (
	"sort"
	"strings"

	"github.com/atotto/clipboard"
)

// Character budgets per source. Whisper's initial prompt tops out
// around 224 tokens; the total stays well under that.
const (
	clipboardMaxChars = 200
	historyMaxChars   = 200
	promptMaxChars    = 400

	recentLimit  = 2
	maxTermCount = 30
)

const specialChars = "{}[]()<>|&;$#@!~`^\\=+*"

// Clipboard reads the system clipboard. Wrapped so tests can inject
// fixed content.
type Clipboard interface {
	Read() (string, error)
}

// History supplies recent transcripts for stitching.
type History interface {
	RecentTexts(limit int) ([]string, error)
}

type systemClipboard struct{}

func (systemClipboard) Read() (string, error) {
	return clipboard.ReadAll()
}

// Builder assembles context prompts.
type Builder struct {
	enabled   bool
	clipboard Clipboard
	history   History
	terms     map[string]string
}

// NewBuilder returns a prompt builder. history may be nil when the
// transcript store is disabled; terms is the custom proper-noun map.
func NewBuilder(enabled bool, history History, terms map[string]string) *Builder {
	return &Builder{
		enabled:   enabled,
		clipboard: systemClipboard{},
		history:   history,
		terms:     terms,
	}
}

// Build assembles the prompt, or "" when stitching is disabled or no
// useful context exists. Failures reading any source degrade to the
// remaining sources; priming is never load-bearing.
func (b *Builder) Build() string {
	if !b.enabled {
		return ""
	}

	var parts []string

	if clip, err := b.clipboard.Read(); err == nil && isProse(clip) {
		parts = append(parts, tail(clip, clipboardMaxChars))
	}

	if recent := b.recentText(); recent != "" {
		parts = append(parts, tail(recent, historyMaxChars))
	}

	if terms := b.termHint(); terms != "" {
		parts = append(parts, terms)
	}

	if len(parts) == 0 {
		return ""
	}

	context := tail(strings.Join(parts, " "), promptMaxChars)
	return "Continue: " + context
}

func (b *Builder) recentText() string {
	if b.history == nil {
		return ""
	}
	texts, err := b.history.RecentTexts(recentLimit)
	if err != nil {
		return ""
	}
	var kept []string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, " ")
}

// termHint renders the custom dictionary as a vocabulary hint, sorted
// for stable output.
func (b *Builder) termHint() string {
	if len(b.terms) == 0 {
		return ""
	}
	terms := make([]string, 0, len(b.terms))
	for _, cased := range b.terms {
		terms = append(terms, cased)
	}
	sort.Strings(terms)
	if len(terms) > maxTermCount {
		terms = terms[:maxTermCount]
	}
	return "Names: " + strings.Join(terms, ", ")
}

// isProse filters clipboard content down to natural language: code,
// URLs, paths, and dense symbol soup make transcription worse, not
// better.
func isProse(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 5 {
		return false
	}
	var special int
	for _, c := range text {
		if strings.ContainsRune(specialChars, c) {
			special++
		}
	}
	if float64(special)/float64(len(text)) > 0.15 {
		return false
	}
	if !strings.Contains(trimmed, " ") {
		return false
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return false
	}
	return true
}

// tail returns the last max characters of s.
func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
