package diagnosis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fence",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "json fence single line",
			input: "```json {\"a\":1} ```",
			want:  `{"a":1}`,
		},
		{
			name:  "other language tag",
			input: "```javascript\n{\"a\":1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "surrounding whitespace",
			input: "  \n```json\n{\"a\":1}\n```  \n",
			want:  `{"a":1}`,
		},
		{
			name:  "leading fence only",
			input: "```json\n{\"a\":1}",
			want:  `{"a":1}`,
		},
		{
			name:  "preserves interior formatting",
			input: "```json\n{\n  \"a\": 1,\n  \"b\": [\"x\"]\n}\n```",
			want:  "{\n  \"a\": 1,\n  \"b\": [\"x\"]\n}",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "fence only",
			input: "```\n```",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.input))
		})
	}
}

func TestStripCodeFenceFencedEqualsUnfenced(t *testing.T) {
	body := `{"diagnosis":{"identified_problem":"Septoria leaf spot","severity":"Moderate"}}`

	fenced := StripCodeFence("```json\n" + body + "\n```")
	unfenced := StripCodeFence(body)

	assert.Equal(t, unfenced, fenced)
	assert.Equal(t, body, fenced)
}
