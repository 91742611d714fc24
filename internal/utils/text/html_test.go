package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tech-newsletter/internal/utils/text"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "  OpenAI  ships\n a model ", want: "OpenAI ships a model"},
		{
			name:  "paragraphs and links",
			input: `<p>OpenAI released <a href="https://x">GPT</a> today.</p><p>More soon.</p>`,
			want:  "OpenAI released GPT today.More soon.",
		},
		{name: "image only", input: `<img src="https://x/y.png" />`, want: ""},
		{name: "entities", input: "Q&amp;A with &quot;founders&quot;", want: `Q&A with "founders"`},
		{name: "script removed", input: "<div>keep<script>var x = 1;</script></div>", want: "keep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, text.StripHTML(tt.input))
		})
	}
}

func TestPhraseIndex_Contains(t *testing.T) {
	idx := text.NewPhraseIndex("Anthropic said its AI-powered Large Language Model beats GPT-4")

	assert.True(t, idx.Contains("ai"))
	assert.True(t, idx.Contains("AI"))
	assert.True(t, idx.Contains("large language model"))
	assert.True(t, idx.Contains("gpt 4"))
	assert.False(t, idx.Contains("aid"), "must not match inside words")
	assert.False(t, idx.Contains("language large"))
	assert.False(t, idx.Contains(""))
	assert.False(t, idx.Contains("---"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"ai", "뉴스레터", "2024"}, text.Tokens("AI 뉴스레터 - 2024!"))
	assert.Empty(t, text.Tokens(" -- "))
}
