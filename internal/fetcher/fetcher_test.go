package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHTML(t *testing.T) {
	html := "<html><head><TITLE lang=\"en\"> Acme Tool </TITLE>\n<style>body{color:red}</style>" +
		"<script type=\"text/javascript\">\nvar x = '<b>';\n</script></head>" +
		"<body><h1>Hello</h1>&nbsp;<p>world\n\n again</p></body></html>"

	title, text := CleanHTML(html)
	assert.Equal(t, "Acme Tool", title)
	assert.Equal(t, "Acme Tool Hello world again", text)
}

func TestCleanHTMLWithoutTitle(t *testing.T) {
	title, text := CleanHTML("<p>just text</p>")
	assert.Empty(t, title)
	assert.Equal(t, "just text", text)
}

func TestValidateURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com":  true,
		"HTTP://example.com/x": true,
		"notaurl":              false,
		"ftp://example.com":    false,
		"":                     false,
		"javascript:alert(1)":  false,
	}
	for in, ok := range cases {
		err := ValidateURL(in)
		if ok {
			assert.NoError(t, err, in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidURL, in)
		}
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("a", SnippetLimit+50)
	assert.Len(t, Snippet(long), SnippetLimit)
	assert.Equal(t, "short", Snippet("short"))
}

func TestFetchFollowsRedirectAndSendsHeaders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<title>Final</title><body>Landing page</body>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(srv.Client(), time.Second, 0)
	page, err := f.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, "Final", page.Title)
	assert.Equal(t, "Final Landing page", page.Text)
	assert.Equal(t, http.StatusOK, page.Status)
	assert.True(t, strings.HasSuffix(page.URL, "/final"))
}

func TestFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	f := New(srv.Client(), 100*time.Millisecond, 0)
	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	f := New(nil, 0, 0)
	_, err := f.Fetch(context.Background(), "notaurl")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestFetchRespectsByteCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>" + strings.Repeat("x", 1000) + "</p>"))
	}))
	defer srv.Close()

	f := New(srv.Client(), time.Second, 10)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 7), page.Text)
}
