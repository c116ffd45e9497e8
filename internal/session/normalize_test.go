package session

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "Bold, blank run and dash list",
			in:   "**Hello** world\n\n\n- item one\n- item two",
			want: "Hello world\n\n• item one\n• item two",
		},
		{name: "Italic", in: "an *important* point", want: "an important point"},
		{name: "Bold inside sentence", in: "Use **two** words and **three more** here", want: "Use two words and three more here"},
		{name: "Headings", in: "# Title\n## Sub title\n###### Deep", want: "Title\nSub title\nDeep"},
		{name: "Seven hashes is not a heading", in: "####### x", want: "####### x"},
		{name: "Hash without space is kept", in: "#hashtag", want: "#hashtag"},
		{name: "Star list", in: "* alpha\n* beta", want: "• alpha\n• beta"},
		{name: "Indented list", in: "Items:\n   - one\n\t* two", want: "Items:\n• one\n• two"},
		{name: "Dash without space is kept", in: "-5 degrees", want: "-5 degrees"},
		{name: "Bold with trailing space inside", in: "**Key insight: **growth", want: "Key insight: growth"},
		{name: "Bold with leading space inside", in: "** Note** x", want: "Note x"},
		{name: "Bold inside list item", in: "- ** Tip **: ship", want: "• Tip : ship"},
		{name: "Nested emphasis", in: "**a*b*c**", want: "abc"},
		{name: "Triple stars", in: "***strong***", want: "strong"},
		{name: "Lone star is kept", in: "5 * 3 = 15", want: "5 * 3 = 15"},
		{name: "Emphasis does not span lines", in: "*a\nb*", want: "*a\nb*"},
		{name: "Heading then list", in: "## - item", want: "• item"},
		{name: "Two blank lines collapse", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "Whitespace-only lines are blank", in: "a\n  \n\t\nb", want: "a\n\nb"},
		{name: "Single blank line kept", in: "a\n\nb", want: "a\n\nb"},
		{name: "CRLF", in: "**a**\r\n\r\n\r\n- b\r\n", want: "a\n\n• b"},
		{name: "Trim", in: "  \n\n hello \n\n", want: "hello"},
		{name: "Empty", in: "", want: ""},
		{
			name: "Collaborator report",
			in: "## **Market Overview**\n\nThe market is *growing*.\n\n\n\n### Competitors\n" +
				"* **Lark Health** - coaching\n* Suggestic\n",
			want: "Market Overview\n\nThe market is growing.\n\nCompetitors\n• Lark Health - coaching\n• Suggestic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	samples := []string{
		"**Hello** world\n\n\n- item one\n- item two",
		"**a*b*c**",
		"  # # heading\n- - nested",
		"\v# a",
		"*-* a",
		"*#* title",
		"- \n- \n\n\n\n",
		"x\n \n \n \ny",
		"#\t#x",
		"***",
		"* *",
		"**",
		"**Key insight: **growth",
		"** Note** x",
		"* ** x**",
		"*** a*",
		"** **",
	}

	// Random strings over the alphabet the rules care about.
	alphabet := []string{"*", "**", "#", "##", "-", " ", "\t", "\n", "\n\n", "\r\n", "\r", "\v", "a", "b", "•", "\u00a0"}
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		var sb strings.Builder
		n := rnd.Intn(24)
		for j := 0; j < n; j++ {
			sb.WriteString(alphabet[rnd.Intn(len(alphabet))])
		}
		samples = append(samples, sb.String())
	}

	for _, s := range samples {
		once := Normalize(s)
		require.Equal(t, once, Normalize(once), "input %q", s)
	}
}
