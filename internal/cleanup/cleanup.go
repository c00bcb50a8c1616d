// Package cleanup turns raw transcription output into polished text.
//
// The pipeline is purely deterministic string work: no model calls, no
// network. Stages run in a fixed order and the aggressiveness is
// controlled by a level from 0 (formatting only) to 2 (full polish).
package cleanup

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Options configures a cleanup pipeline.
type Options struct {
	// Level selects how aggressive the pipeline is: 0 formatting only,
	// 1 adds filler removal and list formatting, 2 adds false-start
	// removal and punctuation smoothing. Values outside [0,2] clamp.
	Level int

	// ProperNouns maps lowercase triggers to their correct casing,
	// merged over the built-in dictionary.
	ProperNouns map[string]string

	// ExtraFillers are additional words removed at level 1 and up.
	ExtraFillers []string
}

// Pipeline applies deterministic cleanup to transcripts. Safe for
// concurrent use once built.
type Pipeline struct {
	level      int
	nounSingle map[string]string
	nounMulti  []nounPattern
	fillerRe   *regexp.Regexp
}

type nounPattern struct {
	re    *regexp.Regexp
	cased string
}

var (
	preserveRe    = regexp.MustCompile(`(?:https?://\S+|www\.\S+|\S+@\S+\.\S+|` + "`[^`]+`" + `)`)
	placeholderRe = regexp.MustCompile("\x00PRESERVE\\d+\x00")

	periodParagraphRe = regexp.MustCompile(`(?i)[.\s]*\bperiod\s+new\s+paragraph\b`)
	newParagraphRe    = regexp.MustCompile(`(?i)\s*\b(?:new|next)\s+paragraph\b\s*`)
	newLineRe         = regexp.MustCompile(`(?i)\s*\b(?:new|next)\s+line\b\s*`)

	wordRe      = regexp.MustCompile(`\b[A-Za-z][A-Za-z'-]*\b`)
	tokenRe     = regexp.MustCompile(`\w+`)
	spaceRunRe  = regexp.MustCompile(`[ \t]+`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
	leadingSoRe = regexp.MustCompile(`(?im)(^\s*|[.!?]\s+)so\b,?\s*`)

	likeGuardRe  = regexp.MustCompile(`(?i)\b(looks?|looking|feels?|felt|feeling|seems?|seemed|seeming|sounds?|sounded|sounding|smells?|smelled|tastes?|tasted|just|more|much|something|anything|nothing|everything|i|you|we|they|he|she|it)\s+like\b`)
	likeFillerRe = regexp.MustCompile(`(?i),?\s*\blike\b\s*,?\s*`)

	multiDotRe       = regexp.MustCompile(`\.{2,}`)
	spacePunctRe     = regexp.MustCompile(`\s+([.!?,;:])`)
	missingGapRe     = regexp.MustCompile(`([.!?])([A-Z])`)
	lowerAfterRe     = regexp.MustCompile(`([.!?]\s+)([a-z])`)
	numberedPrefixRe = regexp.MustCompile(`^\d+\.\s`)
)

const likeSentinel = "\x00COMP\x00"

var baseFillers = []string{
	"um", "uh", "you know", "basically", "actually", "literally",
	"i mean", "sort of", "kind of",
}

// New builds a pipeline. The noun dictionary and filler pattern are
// compiled once here so Clean stays allocation-light per utterance.
func New(opts Options) *Pipeline {
	level := opts.Level
	if level < 0 {
		level = 0
	}
	if level > 2 {
		level = 2
	}

	nouns := buildNounMap(opts.ProperNouns)
	single := make(map[string]string, len(nouns))
	var multi []string
	for trigger, cased := range nouns {
		if strings.ContainsRune(trigger, ' ') {
			multi = append(multi, trigger)
		} else {
			single[trigger] = cased
		}
	}
	// Longest triggers first so "salt lake city" wins over shorter
	// overlapping entries.
	sort.Slice(multi, func(i, j int) bool {
		if len(multi[i]) != len(multi[j]) {
			return len(multi[i]) > len(multi[j])
		}
		return multi[i] < multi[j]
	})
	patterns := make([]nounPattern, 0, len(multi))
	for _, trigger := range multi {
		patterns = append(patterns, nounPattern{
			re:    regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(trigger) + `\b`),
			cased: nouns[trigger],
		})
	}

	fillers := make([]string, 0, len(baseFillers)+len(opts.ExtraFillers))
	for _, w := range baseFillers {
		fillers = append(fillers, regexp.QuoteMeta(w))
	}
	for _, w := range opts.ExtraFillers {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			fillers = append(fillers, regexp.QuoteMeta(w))
		}
	}
	fillerRe := regexp.MustCompile(`(?i),?\s*\b(?:` + strings.Join(fillers, "|") + `)\b\s*,?\s*`)

	return &Pipeline{
		level:      level,
		nounSingle: single,
		nounMulti:  patterns,
		fillerRe:   fillerRe,
	}
}

// Level reports the effective (clamped) cleanup level.
func (p *Pipeline) Level() int { return p.level }

// Clean runs the full pipeline over one transcript. The result is never
// empty for non-empty input: if cleanup would erase everything, the
// trimmed original comes back instead.
func (p *Pipeline) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	raw := strings.TrimSpace(text)

	work, preserved := extractPreserved(raw)
	work = applyParagraphCommands(work)
	work = p.capitalizeProperNouns(work)
	work = normalizeWhitespace(work)
	work = collapseRepeats(work, 1)

	if p.level >= 1 {
		work = p.removeFillers(work)
		work = formatLists(work)
	}
	if p.level >= 2 {
		work = collapseRepeats(work, 2)
		work = smoothPunctuation(work)
	}

	work = normalizeWhitespace(work)
	work = sentenceCase(work)
	work = ensureTerminalPunctuation(work)
	work = restorePreserved(work, preserved)

	if strings.TrimSpace(work) == "" {
		return raw
	}
	return work
}

// extractPreserved swaps URLs, emails, and backtick code spans for
// opaque placeholders so later stages cannot mangle them.
func extractPreserved(text string) (string, []string) {
	var preserved []string
	text = preserveRe.ReplaceAllStringFunc(text, func(match string) string {
		token := fmt.Sprintf("\x00PRESERVE%d\x00", len(preserved))
		preserved = append(preserved, match)
		return token
	})
	return text, preserved
}

func restorePreserved(text string, preserved []string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(token string) string {
		var idx int
		if _, err := fmt.Sscanf(token, "\x00PRESERVE%d\x00", &idx); err != nil {
			return token
		}
		if idx < 0 || idx >= len(preserved) {
			return token
		}
		return preserved[idx]
	})
}

// applyParagraphCommands turns spoken break commands into literal
// breaks. "period new paragraph" runs first so the sentence terminator
// survives.
func applyParagraphCommands(text string) string {
	text = periodParagraphRe.ReplaceAllString(text, ".\n\n")
	text = newParagraphRe.ReplaceAllString(text, "\n\n")
	text = newLineRe.ReplaceAllString(text, "\n")
	return text
}

func (p *Pipeline) capitalizeProperNouns(text string) string {
	for _, pat := range p.nounMulti {
		text = pat.re.ReplaceAllString(text, pat.cased)
	}
	return wordRe.ReplaceAllStringFunc(text, func(word string) string {
		if cased, ok := p.nounSingle[strings.ToLower(word)]; ok {
			return cased
		}
		return word
	})
}

// normalizeWhitespace collapses space runs per line and caps blank
// runs at one empty line, preserving explicit newlines.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// collapseRepeats removes immediate duplicate words, and with maxPhrase
// of 2 also duplicate two-word phrases ("I was I was going" stutter
// repairs). Duplicates only collapse across whitespace; "good, good"
// is intentional and stays.
func collapseRepeats(text string, maxPhrase int) string {
	for {
		next, changed := collapseOnce(text, maxPhrase)
		if !changed {
			return text
		}
		text = next
	}
}

func collapseOnce(text string, maxPhrase int) (string, bool) {
	spans := tokenRe.FindAllStringIndex(text, -1)
	blankGap := func(a, b int) bool {
		return strings.TrimSpace(text[spans[a][1]:spans[b][0]]) == ""
	}
	for i := 0; i < len(spans); i++ {
		for n := maxPhrase; n >= 1; n-- {
			j := i + n
			if j+n > len(spans) {
				continue
			}
			match := true
			for k := 0; k < n; k++ {
				if !strings.EqualFold(text[spans[i+k][0]:spans[i+k][1]], text[spans[j+k][0]:spans[j+k][1]]) {
					match = false
					break
				}
			}
			for k := i; k < j+n-1 && match; k++ {
				match = blankGap(k, k+1)
			}
			if !match {
				continue
			}
			return text[:spans[j-1][1]] + text[spans[j+n-1][1]:], true
		}
	}
	return text, false
}

// removeFillers strips hesitation words. "like" needs context-aware
// handling: comparison and verb uses ("looks like", "I like") are
// shielded before the filler pass and restored after. A leading "so"
// is treated as a filler as well.
func (p *Pipeline) removeFillers(text string) string {
	text = p.fillerRe.ReplaceAllString(text, " ")
	text = likeGuardRe.ReplaceAllString(text, "$1 "+likeSentinel)
	text = likeFillerRe.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, likeSentinel, "like")
	text = leadingSoRe.ReplaceAllString(text, "$1")
	return text
}

func smoothPunctuation(text string) string {
	text = multiDotRe.ReplaceAllString(text, ".")
	text = spacePunctRe.ReplaceAllString(text, "$1")
	text = missingGapRe.ReplaceAllString(text, "$1 $2")
	text = strings.ReplaceAll(text, ",.", ".")
	text = strings.ReplaceAll(text, ".,", ",")
	return text
}

func sentenceCase(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			lines[i] = line
			continue
		}
		runes := []rune(line)
		runes[0] = unicode.ToUpper(runes[0])
		lines[i] = lowerAfterRe.ReplaceAllStringFunc(string(runes), strings.ToUpper)
	}
	return strings.Join(lines, "\n")
}

// ensureTerminalPunctuation closes each prose line with a period. List
// items and lines already ending in terminal punctuation stay as-is.
func ensureTerminalPunctuation(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			lines[i] = trimmed
			continue
		}
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || numberedPrefixRe.MatchString(trimmed) {
			lines[i] = trimmed
			continue
		}
		if !strings.ContainsRune(".!?", rune(trimmed[len(trimmed)-1])) {
			trimmed += "."
		}
		lines[i] = trimmed
	}
	return strings.Join(lines, "\n")
}
