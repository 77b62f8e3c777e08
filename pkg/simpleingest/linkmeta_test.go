package simpleingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ogPage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description here">
<meta property="og:image" content="https://example.com/cover.png">
<meta property="og:site_name" content="Example Site">
<meta property="og:type" content="article">
<meta name="author" content="Jane Writer">
</head>
<body>hi</body>
</html>`

const plainPage = `<!DOCTYPE html>
<html>
<head>
<title> Plain Title </title>
<meta name="description" content="plain description">
</head>
<body>hi</body>
</html>`

func TestLinkFetcherOpenGraph(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(ogPage))
	}))
	defer srv.Close()

	f := NewLinkFetcher(srv.Client(), nil)
	meta := f.Fetch(context.Background(), srv.URL)

	require.NotNil(t, meta)
	assert.Equal(t, "OG Title", meta.Title)
	assert.Equal(t, "OG description here", meta.Description)
	assert.Equal(t, "https://example.com/cover.png", meta.ImageURL)
	assert.Equal(t, "Example Site", meta.SiteName)
	assert.Equal(t, "article", meta.ContentType)
	assert.Equal(t, "Jane Writer", meta.Author)
	assert.Equal(t, http.StatusOK, meta.StatusCode)
}

func TestLinkFetcherFallsBackToHTMLTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(plainPage))
	}))
	defer srv.Close()

	f := NewLinkFetcher(srv.Client(), nil)
	meta := f.Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Plain Title", meta.Title)
	assert.Equal(t, "plain description", meta.Description)
}

func TestLinkFetcherSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	f := NewLinkFetcher(srv.Client(), nil)
	f.Fetch(context.Background(), srv.URL)
	assert.Equal(t, fetchUserAgent, gotUA)
}

func TestLinkFetcherNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewLinkFetcher(srv.Client(), nil)
	meta := f.Fetch(context.Background(), srv.URL)

	require.NotNil(t, meta)
	assert.Equal(t, http.StatusNotFound, meta.StatusCode)
	assert.Empty(t, meta.Title)
}

func TestLinkFetcherNeverReturnsNil(t *testing.T) {
	f := NewLinkFetcher(nil, nil)

	meta := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	require.NotNil(t, meta)
	assert.False(t, meta.Secure)

	meta = f.Fetch(context.Background(), "https://:bad url")
	require.NotNil(t, meta)
	assert.True(t, meta.Secure)
}
