package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashURL_Stable(t *testing.T) {
	a := HashURL("https://vnexpress.net/a")
	b := HashURL("https://vnexpress.net/a")
	c := HashURL("https://vnexpress.net/b")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://trends.google.com/trending/rss?geo=VN")
	require.NoError(t, err)

	abs, err := ToAbsoluteURL(base, "/news/1")
	require.NoError(t, err)
	assert.Equal(t, "https://trends.google.com/news/1", abs)

	abs, err = ToAbsoluteURL(base, "https://tuoitre.vn/x.htm")
	require.NoError(t, err)
	assert.Equal(t, "https://tuoitre.vn/x.htm", abs)
}
