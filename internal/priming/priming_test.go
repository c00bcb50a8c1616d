package priming

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f fakeClipboard) Read() (string, error) { return f.text, f.err }

type fakeHistory struct {
	texts []string
	err   error
}

func (f fakeHistory) RecentTexts(int) ([]string, error) { return f.texts, f.err }

func newTestBuilder(clip Clipboard, hist History, terms map[string]string) *Builder {
	b := NewBuilder(true, hist, terms)
	b.clipboard = clip
	return b
}

func TestBuildDisabled(t *testing.T) {
	b := NewBuilder(false, fakeHistory{texts: []string{"earlier text"}}, nil)
	b.clipboard = fakeClipboard{text: "some prose on the clipboard"}
	assert.Empty(t, b.Build())
}

func TestBuildEmptyWhenNoContext(t *testing.T) {
	b := newTestBuilder(fakeClipboard{}, fakeHistory{}, nil)
	assert.Empty(t, b.Build())
}

func TestBuildFromClipboardProse(t *testing.T) {
	b := newTestBuilder(fakeClipboard{text: "the quarterly report is due monday"}, nil, nil)
	got := b.Build()
	assert.Equal(t, "Continue: the quarterly report is due monday", got)
}

func TestBuildSkipsNonProseClipboard(t *testing.T) {
	cases := []string{
		"https://example.com/some/long/path",
		"func main() { fmt.Println(x) }",
		"single-token",
		"hi",
	}
	for _, text := range cases {
		b := newTestBuilder(fakeClipboard{text: text}, nil, nil)
		assert.Empty(t, b.Build(), "clipboard %q should be skipped", text)
	}
}

func TestBuildFromHistory(t *testing.T) {
	hist := fakeHistory{texts: []string{"we talked about the roadmap", "and the hiring plan"}}
	b := newTestBuilder(fakeClipboard{}, hist, nil)
	got := b.Build()
	assert.Equal(t, "Continue: we talked about the roadmap and the hiring plan", got)
}

func TestBuildHistoryErrorDegrades(t *testing.T) {
	hist := fakeHistory{err: errors.New("db closed")}
	b := newTestBuilder(fakeClipboard{text: "clipboard prose still works fine"}, hist, nil)
	assert.Equal(t, "Continue: clipboard prose still works fine", b.Build())
}

func TestBuildIncludesCustomTerms(t *testing.T) {
	terms := map[string]string{"kubernetes": "Kubernetes", "anthropic": "Anthropic"}
	b := newTestBuilder(fakeClipboard{}, nil, terms)
	got := b.Build()
	assert.Equal(t, "Continue: Names: Anthropic, Kubernetes", got)
}

func TestBuildClipboardTruncatedToTail(t *testing.T) {
	long := strings.Repeat("word ", 100) + "ending here"
	b := newTestBuilder(fakeClipboard{text: long}, nil, nil)
	got := b.Build()
	assert.True(t, strings.HasSuffix(got, "ending here"))
	assert.LessOrEqual(t, len(got), len("Continue: ")+clipboardMaxChars)
}

func TestBuildTotalBudget(t *testing.T) {
	clip := strings.Repeat("alpha ", 60)
	hist := fakeHistory{texts: []string{strings.Repeat("beta ", 60)}}
	terms := map[string]string{}
	for _, name := range []string{"Ada", "Boole", "Curie", "Dirac", "Euler"} {
		terms[strings.ToLower(name)] = name
	}
	b := newTestBuilder(fakeClipboard{text: clip}, hist, terms)
	got := b.Build()
	assert.True(t, strings.HasPrefix(got, "Continue: "))
	assert.LessOrEqual(t, len(got), len("Continue: ")+promptMaxChars)
}

func TestIsProse(t *testing.T) {
	assert.True(t, isProse("this is a normal sentence"))
	assert.False(t, isProse(""))
	assert.False(t, isProse("tiny"))
	assert.False(t, isProse("nospaceshere"))
	assert.False(t, isProse("https://example.com with spaces"))
	assert.False(t, isProse("{a} [b] (c) <d> | & ; $"))
}
