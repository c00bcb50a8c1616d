package cleanup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clean(t *testing.T, text string, level int) string {
	t.Helper()
	return New(Options{Level: level}).Clean(text)
}

func TestCleanEmptyInput(t *testing.T) {
	assert.Equal(t, "", clean(t, "", 1))
	assert.Equal(t, "", clean(t, "   \n  ", 1))
}

func TestCleanSingleWord(t *testing.T) {
	assert.Equal(t, "Hello.", clean(t, "hello", 1))
}

func TestCleanAlreadyPolished(t *testing.T) {
	assert.Equal(t, "This is a test.", clean(t, "This is a test.", 1))
	assert.Equal(t, "Is it working?", clean(t, "is it working?", 1))
}

func TestCleanIdempotent(t *testing.T) {
	p := New(Options{Level: 2})
	once := p.Clean("well um i think this uh needs cleanup")
	assert.Equal(t, once, p.Clean(once))
}

func TestFillerRemoval(t *testing.T) {
	got := clean(t, "um so i think uh we should meet on friday", 1)
	assert.Equal(t, "I think we should meet on Friday.", got)
}

func TestFillersKeptAtLevelZero(t *testing.T) {
	got := clean(t, "um hello there", 0)
	assert.Equal(t, "Um hello there.", got)
}

func TestExtraFillers(t *testing.T) {
	p := New(Options{Level: 1, ExtraFillers: []string{"anyway"}})
	assert.Equal(t, "Let's go.", p.Clean("anyway let's go"))
}

func TestLikeComparisonPreserved(t *testing.T) {
	assert.Equal(t, "It looks like rain.", clean(t, "it looks like rain", 1))
	assert.Equal(t, "I like pizza.", clean(t, "i like pizza", 1))
}

func TestLikeFillerRemoved(t *testing.T) {
	got := clean(t, "i was like totally surprised", 1)
	assert.Equal(t, "I was totally surprised.", got)
}

func TestRepeatedWordsCollapsed(t *testing.T) {
	// Runs at every level, including 0.
	assert.Equal(t, "The cat sat.", clean(t, "the the the cat sat", 0))
	assert.Equal(t, "Good, good idea.", clean(t, "good, good idea", 0))
}

func TestFalseStartsOnlyAtAggressiveLevel(t *testing.T) {
	assert.Equal(t, "I was i was going.", clean(t, "i was i was going", 1))
	assert.Equal(t, "I was going.", clean(t, "i was i was going", 2))
}

func TestPunctuationSmoothing(t *testing.T) {
	assert.Equal(t, "Hello. World.", clean(t, "hello .. world", 2))
	assert.Equal(t, "Wait, what?", clean(t, "wait , what ?", 2))
}

func TestProperNounCapitalization(t *testing.T) {
	got := clean(t, "see you on friday in new york", 1)
	assert.Contains(t, got, "Friday")
	assert.Contains(t, got, "New York")
}

func TestBrandCasing(t *testing.T) {
	got := clean(t, "i use github on my iphone daily", 1)
	assert.Contains(t, got, "GitHub")
	assert.Contains(t, got, "iPhone")
}

func TestCustomProperNouns(t *testing.T) {
	p := New(Options{Level: 1, ProperNouns: map[string]string{"acme corp": "AcmeCorp"}})
	assert.Contains(t, p.Clean("i work at acme corp now"), "AcmeCorp")
}

func TestParagraphCommands(t *testing.T) {
	got := clean(t, "hello world new paragraph more text", 0)
	assert.Equal(t, "Hello world.\n\nMore text.", got)
}

func TestPeriodNewParagraph(t *testing.T) {
	got := clean(t, "end of thought period new paragraph another thought", 0)
	assert.Equal(t, "End of thought.\n\nAnother thought.", got)
}

func TestNewLineCommand(t *testing.T) {
	got := clean(t, "item alpha new line item beta", 0)
	assert.Equal(t, "Item alpha.\nItem beta.", got)
}

func TestBulletList(t *testing.T) {
	got := clean(t, "my list bullet apples bullet bananas bullet oranges", 1)
	assert.Contains(t, got, "- Apples")
	assert.Contains(t, got, "- Bananas")
	assert.Contains(t, got, "- Oranges")
}

func TestBulletPointWithOrdinals(t *testing.T) {
	got := clean(t, "here are my items bullet point one apples bullet point two bananas", 1)
	assert.Contains(t, got, "- Apples")
	assert.Contains(t, got, "- Bananas")
}

func TestDashList(t *testing.T) {
	got := clean(t, "the items are dash apples dash bananas dash oranges", 1)
	assert.Contains(t, got, "- ")
}

func TestSingleBulletNotFormatted(t *testing.T) {
	got := clean(t, "this is a bullet proof vest", 1)
	assert.NotContains(t, got, "- ")
}

func TestListsNotFormattedAtLevelZero(t *testing.T) {
	got := clean(t, "bullet point one apples bullet point two bananas", 0)
	assert.NotContains(t, got, "- Apples")
}

func TestNumberedListFromWords(t *testing.T) {
	got := clean(t, "do the following number one apples number two bananas", 1)
	assert.Contains(t, got, "1. Apples")
	assert.Contains(t, got, "2. Bananas")
}

func TestNumberedListFromOrdinals(t *testing.T) {
	got := clean(t, "first go to the store second buy milk third return home", 1)
	assert.Contains(t, got, "1. Go to the store")
	assert.Contains(t, got, "2. Buy milk")
	assert.Contains(t, got, "3. Return home")
}

func TestNumberedListFromDigits(t *testing.T) {
	got := clean(t, "steps 1. mix flour 2. add water", 1)
	assert.Contains(t, got, "1. Mix flour")
	assert.Contains(t, got, "2. Add water")
}

func TestLoneOrdinalNotFormatted(t *testing.T) {
	got := clean(t, "i finished first in the race", 1)
	assert.NotContains(t, got, "1. ")
}

func TestListItemsKeepProperNouns(t *testing.T) {
	got := clean(t, "my destinations bullet point one london bullet point two tokyo", 1)
	assert.Contains(t, got, "- London")
	assert.Contains(t, got, "- Tokyo")
}

func TestURLPreserved(t *testing.T) {
	got := clean(t, "check out https://example.com/path for info", 2)
	assert.Contains(t, got, "https://example.com/path")
}

func TestEmailPreserved(t *testing.T) {
	got := clean(t, "send it to user@example.com please", 2)
	assert.Contains(t, got, "user@example.com")
}

func TestBacktickCodePreserved(t *testing.T) {
	got := clean(t, "run the command `git push origin main` to deploy", 2)
	assert.Contains(t, got, "`git push origin main`")
}

func TestMultipleURLsPreserved(t *testing.T) {
	got := clean(t, "bullet point one check https://example.com bullet point two check https://other.com", 1)
	assert.Contains(t, got, "https://example.com")
	assert.Contains(t, got, "https://other.com")
}

func TestNeverEmptyForNonEmptyInput(t *testing.T) {
	// Aggressive cleanup would erase the whole utterance; the raw
	// text comes back instead.
	got := clean(t, "um uh", 2)
	assert.Equal(t, "um uh", got)
}

func TestLevelClamping(t *testing.T) {
	assert.Equal(t, 2, New(Options{Level: 7}).Level())
	assert.Equal(t, 0, New(Options{Level: -3}).Level())
}

func TestWhitespaceNormalization(t *testing.T) {
	got := clean(t, "too   many    spaces\n\n\n\nand blank lines", 0)
	assert.NotContains(t, got, "  ")
	assert.False(t, strings.Contains(got, "\n\n\n"))
}
