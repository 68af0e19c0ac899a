package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chirp/client"
	"chirp/models"

	"github.com/dustin/go-humanize"
)

const FeedErrorMessage = "Something went wrong"

type FeedState int

const (
	FeedLoading FeedState = iota
	FeedError
	FeedEmpty
	FeedReady
)

func (s FeedState) String() string {
	switch s {
	case FeedLoading:
		return "loading"
	case FeedError:
		return "error"
	case FeedEmpty:
		return "empty"
	case FeedReady:
		return "ready"
	}
	return fmt.Sprintf("FeedState(%d)", int(s))
}

type PostsQuery interface {
	AllPosts(ctx context.Context) ([]models.PostWithAuthor, error)
}

// PostRow is one rendered feed entry.
type PostRow struct {
	Key       int64
	AvatarURL string
	AvatarAlt string
	Handle    string
	Since     string
	Content   string
}

// Feed renders every post with its author.
type Feed struct {
	mu    sync.Mutex
	query PostsQuery
	now   func() time.Time
	state FeedState
	rows  []PostRow
	err   error
}

func NewFeed(query PostsQuery) *Feed {
	return &Feed{
		query: query,
		now:   time.Now,
		state: FeedLoading,
	}
}

// Load issues the feed read and moves the feed to its resulting state. The
// feed reports FeedLoading until the read completes.
func (f *Feed) Load(ctx context.Context) FeedState {
	f.mu.Lock()
	f.state = FeedLoading
	f.mu.Unlock()

	posts, err := f.query.AllPosts(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	switch {
	case err != nil || posts == nil:
		if err != nil && !errors.Is(err, client.ErrNoData) {
			log.Printf("ERROR: feed query failed: %v", err)
		}
		f.state = FeedError
		f.rows = nil
	case len(posts) == 0:
		f.state = FeedEmpty
		f.rows = []PostRow{}
	default:
		now := f.now()
		f.rows = make([]PostRow, 0, len(posts))
		for _, p := range posts {
			f.rows = append(f.rows, newPostRow(p, now))
		}
		f.state = FeedReady
	}
	return f.state
}

func newPostRow(p models.PostWithAuthor, now time.Time) PostRow {
	return PostRow{
		Key:       p.Post.ID,
		AvatarURL: p.Author.ProfilePicture,
		AvatarAlt: avatarAlt(p.Author),
		Handle:    "@" + p.Author.Username,
		Since:     humanize.RelTime(p.Post.CreatedAt, now, "ago", "from now"),
		Content:   p.Post.Content,
	}
}

func avatarAlt(a models.Author) string {
	if a.Username != "" {
		return fmt.Sprintf("@%s's profile picture", a.Username)
	}
	return "User profile picture"
}

func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Feed) Rows() []PostRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PostRow(nil), f.rows...)
}

// Err is the error of the last load, if it failed.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

type FeedView struct {
	State        FeedState
	Loading      bool
	ErrorMessage string
	Rows         []PostRow
}

func (f *Feed) View() FeedView {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := FeedView{
		State:   f.state,
		Loading: f.state == FeedLoading,
		Rows:    append([]PostRow(nil), f.rows...),
	}
	if f.state == FeedError {
		v.ErrorMessage = FeedErrorMessage
	}
	return v
}
