package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragments(texts ...string) []Fragment {
	out := make([]Fragment, len(texts))
	for i, text := range texts {
		out[i] = Fragment{Text: text, Start: float64(i), End: float64(i + 1)}
	}
	return out
}

func longSentences(n int) []Fragment {
	sentence := strings.Repeat("Word ", 39) + "Word." // 200 chars
	texts := make([]string, n)
	for i := range texts {
		texts[i] = sentence
	}
	return fragments(texts...)
}

func TestFormat_Deterministic(t *testing.T) {
	in := longSentences(7)
	first := Format(in, "")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Format(in, ""))
	}
}

func TestFormat_FullTextRoundTrip(t *testing.T) {
	out := Format(longSentences(10), "")

	require.NotEmpty(t, out.Paragraphs)
	assert.Equal(t, strings.Join(out.Paragraphs, "\n\n"), out.FullText)
	assert.Equal(t, out.Paragraphs, strings.Split(out.FullText, "\n\n"))
}

func TestFormat_ShortFragmentsStayInOneParagraph(t *testing.T) {
	out := Format(fragments("  Hello there.", "this is short ", "\tand ends here!"), "")

	assert.Equal(t, []string{"Hello there. this is short and ends here!"}, out.Paragraphs)
	assert.Equal(t, "Hello there. this is short and ends here!", out.FullText)
}

func TestFormat_LongWithoutPunctuationNeverBreaks(t *testing.T) {
	chunk := strings.Repeat("x", 250)
	out := Format(fragments(chunk, chunk, chunk), "")

	require.Len(t, out.Paragraphs, 1)
	assert.Equal(t, chunk+" "+chunk+" "+chunk, out.Paragraphs[0])
}

func TestFormat_LengthAndPunctuationBothRequired(t *testing.T) {
	out := Format(longSentences(10), "")

	// 200 chars plus a space per fragment: the buffer passes 300 on every second fragment.
	assert.Len(t, out.Paragraphs, 5)
	assert.GreaterOrEqual(t, strings.Count(out.FullText, "\n\n"), 1)
}

func TestFormat_ParagraphCountNonDecreasing(t *testing.T) {
	prev := 0
	for n := 1; n <= 12; n++ {
		got := len(Format(longSentences(n), "").Paragraphs)
		assert.GreaterOrEqual(t, got, prev, "n=%d", n)
		prev = got
	}
}

func TestFormat_BreakOnlyAfterPunctuatedFragment(t *testing.T) {
	long := strings.Repeat("a", 320)
	out := Format(fragments(long, "still going", "done?", "next one"), "")

	assert.Equal(t, []string{long + " still going done?", "next one"}, out.Paragraphs)
}

func TestFormat_CountsRunesNotBytes(t *testing.T) {
	// 120 three-byte runes: over 300 bytes, under 300 characters.
	text := strings.Repeat("語", 120) + "."
	out := Format(fragments(text, "後."), "")

	require.Len(t, out.Paragraphs, 1)
}

func TestFormat_FallbackWhenNoParagraphs(t *testing.T) {
	tests := []struct {
		name      string
		fragments []Fragment
		fallback  string
		want      string
	}{
		{name: "no fragments uses fallback", fragments: nil, fallback: "raw text", want: "raw text"},
		{name: "blank fragments use fallback", fragments: fragments("  ", ""), fallback: "raw text", want: "raw text"},
		{name: "nothing at all is empty", fragments: nil, fallback: "", want: ""},
		{name: "fragments win over fallback", fragments: fragments("Hi."), fallback: "ignored", want: "Hi."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Format(tt.fragments, tt.fallback)
			assert.Equal(t, tt.want, out.FullText)
			assert.NotNil(t, out.Paragraphs)
		})
	}
}

func TestFormatted_WordCount(t *testing.T) {
	assert.Equal(t, 0, Formatted{}.WordCount())
	assert.Equal(t, 5, Formatted{FullText: "one two\n\nthree  four\tfive"}.WordCount())
}
