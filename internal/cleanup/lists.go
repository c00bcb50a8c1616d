package cleanup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Spoken list markers. Formatting only kicks in for at least two
// markers, so "bullet proof vest" stays plain prose.
var (
	bulletItemRe = regexp.MustCompile(`(?i)\s*\bbullet\s*(?:point)?\s*(?:(?:ten|one|two|three|four|five|six|seven|eight|nine|10|[1-9])\s+)?`)
	dashItemRe   = regexp.MustCompile(`(?i)\s*\bdash\b\s*`)
	nextItemRe   = regexp.MustCompile(`(?i)\s*\bnext\s+item\b\s*`)

	numberWordItemRe   = regexp.MustCompile(`(?i)\s*\bnumber\s+(one|two|three|four|five|six|seven|eight|nine|ten)\b[.,):\s]*`)
	numberDigitItemRe  = regexp.MustCompile(`(?i)\s*\bnumber\s+(\d{1,2})\b[.,):\s]*`)
	ordinalItemRe      = regexp.MustCompile(`(?i)\s*\b(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\b[.,):\s]*`)
	digitDotItemRe     = regexp.MustCompile(`\s*(\d{1,2})\s*[.)]\s*`)
	cardinalParenItemRe = regexp.MustCompile(`(?i)\s*\b(one|two|three|four|five|six|seven|eight|nine|ten)\s*\)\s*`)
)

var cardinalNums = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var ordinalNums = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

func formatLists(text string) string {
	if hasBulletMarkers(text) {
		return formatBulletList(text)
	}
	if hasNumberedMarkers(text) {
		return formatNumberedList(text)
	}
	return text
}

func hasBulletMarkers(text string) bool {
	return len(bulletItemRe.FindAllStringIndex(text, -1)) >= 2 ||
		len(dashItemRe.FindAllStringIndex(text, -1)) >= 2
}

func hasNumberedMarkers(text string) bool {
	return numberWordItemRe.MatchString(text) ||
		numberDigitItemRe.MatchString(text) ||
		ordinalItemRe.MatchString(text) ||
		digitDotItemRe.MatchString(text) ||
		cardinalParenItemRe.MatchString(text)
}

func formatBulletList(text string) string {
	var expanded []string
	for _, part := range bulletItemRe.Split(text, -1) {
		for _, sub := range dashItemRe.Split(part, -1) {
			expanded = append(expanded, nextItemRe.Split(sub, -1)...)
		}
	}

	var items []string
	for _, part := range expanded {
		item := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(part), ","))
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) < 2 {
		return text
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimRight(capitalizeFirst(item), ".")
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

func formatNumberedList(text string) string {
	type branch struct {
		re        *regexp.Regexp
		nums      map[string]int
		minChunks int
		minItems  int
	}
	branches := []branch{
		{numberWordItemRe, cardinalNums, 1, 1},
		{numberDigitItemRe, nil, 1, 1},
		{ordinalItemRe, ordinalNums, 2, 2},
		{cardinalParenItemRe, cardinalNums, 1, 1},
		{digitDotItemRe, nil, 2, 2},
	}

	for _, b := range branches {
		chunks := splitKeep(b.re, text)
		if len(chunks) <= b.minChunks {
			continue
		}
		preamble := strings.TrimSpace(chunks[0])
		type numbered struct {
			num  int
			text string
		}
		var items []numbered
		for i := 1; i+1 < len(chunks); i += 2 {
			num, ok := resolveNum(chunks[i], b.nums)
			content := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(chunks[i+1]), ","))
			if !ok || content == "" {
				continue
			}
			content = strings.TrimRight(capitalizeFirst(content), ".")
			items = append(items, numbered{num, content})
		}
		if len(items) < b.minItems {
			continue
		}
		var lines []string
		if preamble != "" {
			lines = append(lines, preamble)
		}
		for _, it := range items {
			lines = append(lines, fmt.Sprintf("%d. %s", it.num, it.text))
		}
		return strings.Join(lines, "\n")
	}
	return text
}

func resolveNum(token string, nums map[string]int) (int, bool) {
	if nums != nil {
		n, ok := nums[strings.ToLower(token)]
		return n, ok
	}
	n, err := strconv.Atoi(token)
	return n, err == nil
}

// splitKeep splits text on re while keeping the first capture group of
// each match, yielding [preamble, capture, segment, capture, segment, ...].
func splitKeep(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}
	out := make([]string, 0, 2*len(matches)+1)
	prev := 0
	for _, m := range matches {
		out = append(out, text[prev:m[0]], text[m[2]:m[3]])
		prev = m[1]
	}
	return append(out, text[prev:])
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
