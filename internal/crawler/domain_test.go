package crawler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDomain(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/b", "example.com"},
		{"http://vnexpress.net/thoi-su-123.html", "vnexpress.net"},
		{"https://www.example.com", "www.example.com"},
		{"https://example.com/", "example.com"},
		{"https:///example.com//a", "example.com"},
		{"example.com/path", "path"},
		{"/leading/slash", "leading"},
		{"https://user@host:8080/x", "user@host:8080"},
	}

	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			got, err := ResolveDomain(tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDomain_Malformed(t *testing.T) {
	for _, raw := range []string{"", "example.com", "no-slashes-at-all"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ResolveDomain(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedURL))

			var malformed *MalformedURLError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, raw, malformed.URL)
			assert.Equal(t, 1, malformed.Segments)
		})
	}
}
