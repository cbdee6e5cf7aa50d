package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"  hello  ", "hello"},
		{"15-03-2099\n\t  Sexta", "15-03-2099 Sexta"},
		{"a\u0000b", "ab"},
		{"", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.out, Normalize(c.in), c.in)
	}
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><span> 15-03-2099 <b>10:30</b></span><span>x</span></div>`,
	))
	require.NoError(t, err)
	require.Equal(t, "15-03-2099 10:30", SelectionText(doc.Find("span").First()))
	require.Equal(t, "15-03-2099 10:30 x", SelectionText(doc.Find("span")))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 18))
	require.Equal(t, "ação", Truncate("ação!", 4))
}
