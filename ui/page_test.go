package ui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chirp/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPage(t *testing.T, p *Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf))
	return buf.String()
}

func TestPageSessionLoadingRendersNothing(t *testing.T) {
	q := &fakeQueries{posts: samplePosts()}
	p := NewPage(StaticAuth{}, q)
	p.Mount(context.Background())

	assert.Equal(t, SessionLoading, p.State())
	assert.Equal(t, int32(1), q.prefetched.Load())
	assert.Equal(t, int32(0), q.getCalls.Load())

	html := renderPage(t, p)
	assert.Contains(t, html, "<div></div>")
	assert.NotContains(t, html, `class="header"`)
	assert.NotContains(t, html, `class="composer"`)
	assert.NotContains(t, html, `class="feed"`)
	assert.NotContains(t, html, "Sign in")
}

func TestPageSignedOutShowsSignIn(t *testing.T) {
	q := &fakeQueries{posts: samplePosts()}
	p := NewPage(SignedOut(), q)
	p.Mount(context.Background())

	view := p.View()
	assert.Equal(t, SignedOutState, view.State)
	assert.True(t, view.ShowSignIn)
	assert.True(t, view.Composer.Hidden)

	html := renderPage(t, p)
	assert.Contains(t, html, `href="/sign-in"`)
	assert.NotContains(t, html, `class="composer"`)
	assert.Contains(t, html, `class="feed"`)
}

func TestPageSignedInShowsComposer(t *testing.T) {
	q := &fakeQueries{posts: samplePosts()}
	p := NewPage(SignedIn(User{ID: 5, ProfileImageURL: "https://img/me.png"}), q)
	p.Mount(context.Background())

	view := p.View()
	assert.Equal(t, SignedInState, view.State)
	assert.False(t, view.ShowSignIn)
	assert.False(t, view.Composer.Hidden)
	assert.Equal(t, FeedReady, view.Feed.State)

	html := renderPage(t, p)
	assert.Contains(t, html, `class="composer"`)
	assert.Contains(t, html, "https://img/me.png")
	assert.NotContains(t, html, `href="/sign-in"`)
	assert.Contains(t, html, `data-key="1"`)
}

func TestPageInitDoesNotWaitForFeed(t *testing.T) {
	q := &fakeQueries{getGate: make(chan struct{})}
	p := NewPage(SignedOut(), q)

	returned := make(chan struct{})
	go func() {
		p.Init(context.Background())
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Init blocked")
	}
	assert.Equal(t, int32(1), q.prefetched.Load())
	assert.Equal(t, FeedLoading, p.View().Feed.State)
	close(q.getGate)
}

func TestPageRendersToasts(t *testing.T) {
	q := &fakeQueries{posts: samplePosts()}
	p := NewPage(SignedIn(User{ID: 5}), q)
	p.Toasts.Error("too many emojis")

	html := renderPage(t, p)
	assert.Contains(t, html, `role="alert">too many emojis<`)
}

func TestPageStateString(t *testing.T) {
	assert.Equal(t, "session-loading", SessionLoading.String())
	assert.Equal(t, "signed-out", SignedOutState.String())
	assert.Equal(t, "signed-in", SignedInState.String())
}

func samplePosts() []models.PostWithAuthor {
	return []models.PostWithAuthor{{
		Post:   models.Post{ID: 1, AuthorID: 2, Content: "🐱", CreatedAt: time.Now()},
		Author: models.Author{ID: 2, Username: "bob"},
	}}
}
