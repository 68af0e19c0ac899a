package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chirp/cache"
	"chirp/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	posts    []models.PostWithAuthor
	err      error
	gate     chan struct{}
	getCalls atomic.Int32
	created  []string
}

func (f *fakeAPI) GetAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	f.getCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.posts == nil {
		return nil, nil
	}
	return append([]models.PostWithAuthor{}, f.posts...), nil
}

func (f *fakeAPI) Create(_ context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, content)
	return f.err
}

func (f *fakeAPI) setPosts(posts []models.PostWithAuthor) {
	f.mu.Lock()
	f.posts = posts
	f.mu.Unlock()
}

func samplePosts(contents ...string) []models.PostWithAuthor {
	out := make([]models.PostWithAuthor, 0, len(contents))
	for i, c := range contents {
		out = append(out, models.PostWithAuthor{
			Post:   models.Post{ID: int64(i + 1), AuthorID: 1, Content: c, CreatedAt: time.Now()},
			Author: models.Author{ID: 1, Username: "alice"},
		})
	}
	return out
}

func TestAllPostsCachesResult(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱")}
	q := NewQueries(api, cache.NewMemory())
	ctx := context.Background()

	first, err := q.AllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := q.AllPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].Post.Content, second[0].Post.Content)
	assert.Equal(t, int32(1), api.getCalls.Load())
}

func TestAllPostsDeduplicatesConcurrentReads(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱"), gate: make(chan struct{})}
	q := NewQueries(api, cache.NewMemory())

	var wg sync.WaitGroup
	results := make([][]models.PostWithAuthor, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = q.AllPosts(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return api.getCalls.Load() == 1 }, time.Second, time.Millisecond)
	// даём остальным горутинам присоединиться к запросу в полёте
	time.Sleep(20 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	assert.Equal(t, int32(1), api.getCalls.Load())
	for _, r := range results {
		assert.Len(t, r, 1)
	}
}

func TestAllPostsEmptyIsNotNoData(t *testing.T) {
	api := &fakeAPI{posts: []models.PostWithAuthor{}}
	q := NewQueries(api, cache.NewMemory())

	posts, err := q.AllPosts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, posts)
	assert.Len(t, posts, 0)
}

func TestAllPostsNoDataIsNotCached(t *testing.T) {
	api := &fakeAPI{}
	c := cache.NewMemory()
	q := NewQueries(api, c)
	ctx := context.Background()

	_, err := q.AllPosts(ctx)
	require.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 0, c.Len())

	api.setPosts(samplePosts("🐶"))
	posts, err := q.AllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestAllPostsErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	q := NewQueries(&fakeAPI{err: boom}, nil)

	_, err := q.AllPosts(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestInvalidateRefetchesOnNextRead(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱")}
	q := NewQueries(api, cache.NewMemory(), WithBackgroundRefetch(false))
	ctx := context.Background()

	_, err := q.AllPosts(ctx)
	require.NoError(t, err)

	api.setPosts(samplePosts("🐱", "🐶"))
	stale, err := q.AllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	require.NoError(t, q.InvalidateAllPosts(ctx))
	assert.Equal(t, int32(1), api.getCalls.Load())

	fresh, err := q.AllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, int32(2), api.getCalls.Load())
}

func TestInvalidateSchedulesBackgroundRefetch(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱")}
	c := cache.NewMemory()
	q := NewQueries(api, c)
	ctx := context.Background()

	_, err := q.AllPosts(ctx)
	require.NoError(t, err)

	api.setPosts(samplePosts("🐱", "🐶"))
	require.NoError(t, q.InvalidateAllPosts(ctx))
	q.Wait()
	assert.Equal(t, int32(2), api.getCalls.Load())

	posts, err := q.AllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, int32(2), api.getCalls.Load())
}

func TestInvalidateDuringFetchKeepsResultOutOfCache(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱"), gate: make(chan struct{})}
	c := cache.NewMemory()
	q := NewQueries(api, c, WithBackgroundRefetch(false))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = q.AllPosts(ctx)
	}()
	require.Eventually(t, func() bool { return api.getCalls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, q.InvalidateAllPosts(ctx))
	close(api.gate)
	<-done

	assert.Equal(t, 0, c.Len())
}

// hookCache runs onSet before storing a value.
type hookCache struct {
	*cache.Memory
	onSet func()
}

func (c *hookCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.onSet != nil {
		c.onSet()
	}
	return c.Memory.Set(ctx, key, value, ttl)
}

// gatedCache holds reads until gate is closed.
type gatedCache struct {
	*cache.Memory
	gate chan struct{}
}

func (c *gatedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	<-c.gate
	return c.Memory.Get(ctx, key)
}

func TestInvalidateWhileStoringKeepsResultOutOfCache(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱")}
	c := &hookCache{Memory: cache.NewMemory()}
	q := NewQueries(api, c, WithBackgroundRefetch(false))
	ctx := context.Background()

	invalidated := make(chan struct{})
	c.onSet = func() {
		c.onSet = nil
		go func() {
			defer close(invalidated)
			_ = q.InvalidateAllPosts(ctx)
		}()
		// инвалидация не должна проскочить между проверкой поколения и записью
		select {
		case <-invalidated:
		case <-time.After(50 * time.Millisecond):
		}
	}

	_, err := q.AllPosts(ctx)
	require.NoError(t, err)
	<-invalidated

	assert.Equal(t, 0, c.Len())
}

func TestInvalidationsShareScheduledRefetch(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱")}
	c := &gatedCache{Memory: cache.NewMemory(), gate: make(chan struct{})}
	q := NewQueries(api, c)
	ctx := context.Background()

	api.setPosts(samplePosts("🐱", "🐶"))
	require.NoError(t, q.InvalidateAllPosts(ctx))
	require.NoError(t, q.InvalidateAllPosts(ctx))
	close(c.gate)
	q.Wait()

	assert.Equal(t, int32(1), api.getCalls.Load())
	posts, err := q.AllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, int32(1), api.getCalls.Load())

	// после завершения refetch следующая инвалидация снова его запускает
	require.NoError(t, q.InvalidateAllPosts(ctx))
	q.Wait()
	assert.Equal(t, int32(2), api.getCalls.Load())
}

func TestPrefetchWarmsCache(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱")}
	q := NewQueries(api, cache.NewMemory())

	ctx, cancel := context.WithCancel(context.Background())
	q.PrefetchAllPosts(ctx)
	cancel()
	q.Wait()
	assert.Equal(t, int32(1), api.getCalls.Load())

	posts, err := q.AllPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, int32(1), api.getCalls.Load())
}

func TestPrefetchDoesNotBlock(t *testing.T) {
	api := &fakeAPI{posts: samplePosts("🐱"), gate: make(chan struct{})}
	q := NewQueries(api, cache.NewMemory())

	returned := make(chan struct{})
	go func() {
		q.PrefetchAllPosts(context.Background())
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("prefetch blocked the caller")
	}
	close(api.gate)
	q.Wait()
}

func TestCreatePostPassesThrough(t *testing.T) {
	api := &fakeAPI{}
	q := NewQueries(api, nil)

	require.NoError(t, q.CreatePost(context.Background(), "🚀"))
	assert.Equal(t, []string{"🚀"}, api.created)
}
