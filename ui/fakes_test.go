package ui

import (
	"context"
	"sync"
	"sync/atomic"

	"chirp/models"
)

// fakeQueries implements PageQueries with scripted results.
type fakeQueries struct {
	mu          sync.Mutex
	posts       []models.PostWithAuthor
	getErr      error
	createErr   error
	createGate  chan struct{}
	getGate     chan struct{}
	created     []string
	invalidated atomic.Int32
	prefetched  atomic.Int32
	getCalls    atomic.Int32
}

func (f *fakeQueries) AllPosts(ctx context.Context) ([]models.PostWithAuthor, error) {
	f.getCalls.Add(1)
	if f.getGate != nil {
		<-f.getGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts, f.getErr
}

func (f *fakeQueries) CreatePost(ctx context.Context, content string) error {
	f.mu.Lock()
	f.created = append(f.created, content)
	gate := f.createGate
	err := f.createErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeQueries) InvalidateAllPosts(context.Context) error {
	f.invalidated.Add(1)
	return nil
}

func (f *fakeQueries) PrefetchAllPosts(context.Context) {
	f.prefetched.Add(1)
}

func (f *fakeQueries) createdContents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}
