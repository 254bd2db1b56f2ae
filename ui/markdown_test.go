package ui

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []markdownPart
	}{
		{
			name: "plain text",
			in:   "Start small.\nFind one client.",
			want: []markdownPart{{content: "Start small.\nFind one client."}},
		},
		{
			name: "fenced code with language",
			in:   "Try this:\n```go\nfmt.Println(\"hi\")\n```\nGood luck!",
			want: []markdownPart{
				{content: "Try this:"},
				{content: "fmt.Println(\"hi\")", isCode: true, language: "go"},
				{content: "Good luck!"},
			},
		},
		{
			name: "unterminated fence",
			in:   "```\nline one\nline two",
			want: []markdownPart{{content: "line one\nline two", isCode: true}},
		},
		{
			name: "blank runs are dropped",
			in:   "\n\n```sh\nls\n```\n\n",
			want: []markdownPart{{content: "ls", isCode: true, language: "sh"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMarkdown(tt.in)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(markdownPart{})); diff != "" {
				t.Errorf("parseMarkdown() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
