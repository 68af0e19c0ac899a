package ui

import (
	"context"
	"errors"
	"log"
	"sync"

	"chirp/client"
)

const (
	SubmitKey           = "Enter"
	ComposerPlaceholder = "Type some emojis!"
	GenericPostFailure  = "Failed to create post."
)

var (
	ErrEmptyInput     = errors.New("nothing to post")
	ErrSubmitInFlight = errors.New("post already being submitted")
	ErrNotSignedIn    = errors.New("not signed in")
)

type PostCreator interface {
	CreatePost(ctx context.Context, content string) error
}

type FeedInvalidator interface {
	InvalidateAllPosts(ctx context.Context) error
}

// Composer is the post creation widget.
type Composer struct {
	mu      sync.Mutex
	user    *User
	posts   PostCreator
	feed    FeedInvalidator
	notify  Notifier
	input   string
	posting bool
}

func NewComposer(user *User, posts PostCreator, feed FeedInvalidator, notify Notifier) *Composer {
	return &Composer{
		user:   user,
		posts:  posts,
		feed:   feed,
		notify: notify,
	}
}

// SetInput replaces the text. The field is disabled while a post is in
// flight, so edits are dropped and false is returned.
func (c *Composer) SetInput(s string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.posting {
		return false
	}
	c.input = s
	return true
}

func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Composer) Posting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posting
}

// KeyDown handles a key press in the text field; SubmitKey submits.
func (c *Composer) KeyDown(ctx context.Context, key string) error {
	if key != SubmitKey {
		return nil
	}
	return c.Submit(ctx)
}

// Submit sends the current input as a new post. On success the input is
// cleared and the feed invalidated before Submit returns; on failure the
// input is kept and the viewer is notified.
func (c *Composer) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.user == nil:
		c.mu.Unlock()
		return ErrNotSignedIn
	case c.posting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	case c.input == "":
		c.mu.Unlock()
		return ErrEmptyInput
	}
	content := c.input
	c.posting = true
	c.mu.Unlock()

	err := c.posts.CreatePost(ctx, content)
	if err != nil {
		c.mu.Lock()
		c.posting = false
		c.mu.Unlock()
		c.notify.Error(failureMessage(err))
		return err
	}

	c.mu.Lock()
	c.input = ""
	c.mu.Unlock()

	if err := c.feed.InvalidateAllPosts(ctx); err != nil {
		log.Printf("ERROR: feed invalidation after post failed: %v", err)
	}

	c.mu.Lock()
	c.posting = false
	c.mu.Unlock()
	return nil
}

func failureMessage(err error) string {
	var cerr *client.Error
	if errors.As(err, &cerr) {
		if msg, ok := cerr.FirstFieldError("content"); ok {
			return msg
		}
	}
	return GenericPostFailure
}

type ComposerView struct {
	Hidden        bool
	AvatarURL     string
	Placeholder   string
	Input         string
	InputDisabled bool
	ShowSubmit    bool
	ShowSpinner   bool
}

func (c *Composer) View() ComposerView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return ComposerView{Hidden: true}
	}
	return ComposerView{
		AvatarURL:     c.user.ProfileImageURL,
		Placeholder:   ComposerPlaceholder,
		Input:         c.input,
		InputDisabled: c.posting,
		ShowSubmit:    c.input != "" && !c.posting,
		ShowSpinner:   c.posting,
	}
}
