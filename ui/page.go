package ui

import (
	"context"
	"fmt"
	"io"
)

const PageTitle = "Chirp"

type PageState int

const (
	SessionLoading PageState = iota
	SignedOutState
	SignedInState
)

func (s PageState) String() string {
	switch s {
	case SessionLoading:
		return "session-loading"
	case SignedOutState:
		return "signed-out"
	case SignedInState:
		return "signed-in"
	}
	return fmt.Sprintf("PageState(%d)", int(s))
}

type Prefetcher interface {
	PrefetchAllPosts(ctx context.Context)
}

// PageQueries is everything the page needs from the remote client.
type PageQueries interface {
	PostsQuery
	PostCreator
	FeedInvalidator
	Prefetcher
}

// Page is the shell around the composer and the feed.
type Page struct {
	auth     AuthProvider
	queries  PageQueries
	Toasts   *Toasts
	Composer *Composer
	Feed     *Feed
}

func NewPage(auth AuthProvider, queries PageQueries) *Page {
	toasts := &Toasts{}
	state := auth.AuthState()
	var user *User
	if state.Loaded && state.SignedIn {
		user = state.User
	}
	return &Page{
		auth:     auth,
		queries:  queries,
		Toasts:   toasts,
		Composer: NewComposer(user, queries, queries, toasts),
		Feed:     NewFeed(queries),
	}
}

// Init starts the feed read before anything is rendered. It returns at once.
func (p *Page) Init(ctx context.Context) {
	p.queries.PrefetchAllPosts(ctx)
}

// Mount runs Init and then loads the feed, which picks up the prefetched
// result when it is already in.
func (p *Page) Mount(ctx context.Context) {
	p.Init(ctx)
	if !p.auth.AuthState().Loaded {
		return
	}
	p.Feed.Load(ctx)
}

func (p *Page) State() PageState {
	state := p.auth.AuthState()
	switch {
	case !state.Loaded:
		return SessionLoading
	case !state.SignedIn:
		return SignedOutState
	default:
		return SignedInState
	}
}

type PageView struct {
	Title      string
	State      PageState
	Loaded     bool
	ShowSignIn bool
	Composer   ComposerView
	Feed       FeedView
	Toasts     []string
}

func (p *Page) View() PageView {
	state := p.State()
	v := PageView{
		Title:  PageTitle,
		State:  state,
		Toasts: p.Toasts.Messages(),
	}
	if state == SessionLoading {
		return v
	}
	v.Loaded = true
	v.ShowSignIn = state == SignedOutState
	if state == SignedInState {
		v.Composer = p.Composer.View()
	} else {
		v.Composer = ComposerView{Hidden: true}
	}
	v.Feed = p.Feed.View()
	return v
}

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	return Templates().ExecuteTemplate(w, PageTemplate, p.View())
}
