package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelara/instagate/config"
	pkgError "github.com/avelara/instagate/pkg/error"
)

const profileHTML = `<!DOCTYPE html>
<html>
<head><meta property="og:image" content="https://cdn.example.com/preview.jpg"></head>
<body>
  <main>
    <a href="/p/AAA111/"><img src="1.jpg"></a>
    <a href="/p/BBB222/"><img src="2.jpg"></a>
    <a href="/reel/CCC333/"><img src="3.jpg"></a>
    <a href="/p/AAA111/">duplicate</a>
    <a href="/explore/">not a post</a>
  </main>
</body>
</html>`

func newTestScraper(t *testing.T, handler http.HandlerFunc) *ProfileScraper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProfileScraper(config.ScraperConfig{BaseURL: server.URL})
}

func TestFetch_ExtractsPostLinksInOrder(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/alice/", r.URL.Path)
		_, _ = w.Write([]byte(profileHTML))
	})

	posts, err := s.Fetch(context.Background(), "alice", 10)
	require.NoError(t, err)

	require.Len(t, posts, 3)
	assert.Contains(t, posts[0].DisplayURL, "/p/AAA111/")
	assert.Contains(t, posts[1].DisplayURL, "/p/BBB222/")
	assert.Contains(t, posts[2].DisplayURL, "/reel/CCC333/")
}

func TestFetch_HonorsCount(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(profileHTML))
	})

	posts, err := s.Fetch(context.Background(), "alice", 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestFetch_ZeroCountFetchesNothing(t *testing.T) {
	called := false
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	posts, err := s.Fetch(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.False(t, called, "a zero count must not hit the upstream at all")
}

func TestFetch_UnknownProfileIsNotFound(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.Fetch(context.Background(), "ghost", 10)
	require.Error(t, err)

	var notFound pkgError.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFetch_FallsBackToPreviewImage(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="https://cdn.example.com/preview.jpg"></head><body></body></html>`))
	})

	posts, err := s.Fetch(context.Background(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://cdn.example.com/preview.jpg", posts[0].DisplayURL)
}
