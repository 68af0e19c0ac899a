package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"chirp/cache"
	"chirp/models"

	"golang.org/x/sync/singleflight"
)

const (
	ALL_POSTS_QUERY_KEY   = "posts.getAll"
	DEFAULT_STALE_TIME    = 30 * time.Second
	DEFAULT_FETCH_TIMEOUT = 10 * time.Second
)

// Queries is the page-side query layer: reads go through the injected cache,
// identical in-flight reads share one request, and mutations trigger
// invalidation explicitly.
type Queries struct {
	api   PostsAPI
	cache cache.Cache
	group singleflight.Group
	// mu guards generation, refetchPending and writes of fetched results
	mu                sync.Mutex
	generation        uint64
	refetchPending    bool
	staleTime         time.Duration
	fetchTimeout      time.Duration
	backgroundRefetch bool
	background        sync.WaitGroup
}

type QueriesOption func(*Queries)

// WithStaleTime sets how long a fetched result is served from cache.
func WithStaleTime(d time.Duration) QueriesOption {
	return func(q *Queries) { q.staleTime = d }
}

// WithBackgroundRefetch controls whether invalidation schedules a refetch.
func WithBackgroundRefetch(enabled bool) QueriesOption {
	return func(q *Queries) { q.backgroundRefetch = enabled }
}

func WithFetchTimeout(d time.Duration) QueriesOption {
	return func(q *Queries) { q.fetchTimeout = d }
}

func NewQueries(api PostsAPI, c cache.Cache, opts ...QueriesOption) *Queries {
	if c == nil {
		c = cache.NewMemory()
	}
	q := &Queries{
		api:               api,
		cache:             c,
		staleTime:         DEFAULT_STALE_TIME,
		fetchTimeout:      DEFAULT_FETCH_TIMEOUT,
		backgroundRefetch: true,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// AllPosts returns every post paired with its author.
func (q *Queries) AllPosts(ctx context.Context) ([]models.PostWithAuthor, error) {
	if posts, ok := q.cachedAllPosts(ctx); ok {
		return posts, nil
	}
	v, err, _ := q.group.Do(ALL_POSTS_QUERY_KEY, func() (any, error) {
		return q.fetchAllPosts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.PostWithAuthor), nil
}

func (q *Queries) cachedAllPosts(ctx context.Context) ([]models.PostWithAuthor, bool) {
	data, ok, err := q.cache.Get(ctx, ALL_POSTS_QUERY_KEY)
	if err != nil {
		log.Printf("ERROR: query cache read failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var posts []models.PostWithAuthor
	if err := json.Unmarshal(data, &posts); err != nil || posts == nil {
		return nil, false
	}
	return posts, true
}

func (q *Queries) fetchAllPosts(ctx context.Context) ([]models.PostWithAuthor, error) {
	q.mu.Lock()
	gen := q.generation
	// this fetch already sees every invalidation so far
	q.refetchPending = false
	q.mu.Unlock()

	posts, err := q.api.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		return nil, ErrNoData
	}
	data, err := json.Marshal(posts)
	if err != nil {
		log.Printf("ERROR: query cache write failed: %v", err)
		return posts, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	// invalidated while in flight: hand the result to the waiting callers but
	// keep it out of the cache
	if q.generation != gen {
		return posts, nil
	}
	if err := q.cache.Set(ctx, ALL_POSTS_QUERY_KEY, data, q.staleTime); err != nil {
		log.Printf("ERROR: query cache write failed: %v", err)
	}
	return posts, nil
}

// PrefetchAllPosts starts loading the feed and returns immediately. The
// fetch outlives ctx's cancellation but not fetchTimeout.
func (q *Queries) PrefetchAllPosts(ctx context.Context) {
	q.startFetch(ctx, false)
}

func (q *Queries) startFetch(ctx context.Context, refetch bool) {
	q.background.Add(1)
	go func() {
		defer q.background.Done()
		if refetch {
			defer func() {
				q.mu.Lock()
				q.refetchPending = false
				q.mu.Unlock()
			}()
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.fetchTimeout)
		defer cancel()
		if _, err := q.AllPosts(fetchCtx); err != nil && !errors.Is(err, ErrNoData) {
			log.Printf("DEBUG: feed prefetch failed: %v", err)
		}
	}()
}

// InvalidateAllPosts marks the cached feed stale; with background refetch
// enabled a fresh copy is requested without waiting for it. Invalidations
// that land before a scheduled refetch starts share that refetch.
func (q *Queries) InvalidateAllPosts(ctx context.Context) error {
	q.mu.Lock()
	q.generation++
	q.group.Forget(ALL_POSTS_QUERY_KEY)
	err := q.cache.Invalidate(ctx, ALL_POSTS_QUERY_KEY)
	refetch := err == nil && q.backgroundRefetch && !q.refetchPending
	if refetch {
		q.refetchPending = true
	}
	q.mu.Unlock()

	if err != nil {
		return err
	}
	if refetch {
		q.startFetch(ctx, true)
	}
	return nil
}

func (q *Queries) CreatePost(ctx context.Context, content string) error {
	return q.api.Create(ctx, content)
}

// Wait blocks until background fetches started so far have finished.
func (q *Queries) Wait() {
	q.background.Wait()
}
