package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"chirp/cache"
	"chirp/db"
	"chirp/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ALL_POSTS_CACHE_KEY = "posts:all"    // Ключ кеша общей ленты
	ALL_POSTS_CACHE_TTL = time.Minute    // TTL кеша ленты по умолчанию
	FEED_LIMIT          = 100            // Максимальное количество постов в ленте
	POST_RATE_KEY       = "post_create:" // Префикс ключа лимитера
)

var ErrAuthorNotFound = errors.New("author not found")

type PostService struct {
	orm      *gorm.DB
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  RateLimiter
	events   EventBus
	validate *validator.Validate
}

type PostServiceOption func(*PostService)

func WithCacheTTL(ttl time.Duration) PostServiceOption {
	return func(ps *PostService) { ps.cacheTTL = ttl }
}

func WithRateLimiter(limiter RateLimiter) PostServiceOption {
	return func(ps *PostService) { ps.limiter = limiter }
}

func WithEventBus(bus EventBus) PostServiceOption {
	return func(ps *PostService) { ps.events = bus }
}

func NewPostService(orm *gorm.DB, c cache.Cache, opts ...PostServiceOption) *PostService {
	ps := &PostService{
		orm:      orm,
		cache:    c,
		cacheTTL: ALL_POSTS_CACHE_TTL,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// GetAll возвращает последние посты вместе с авторами, новые первыми
func (ps *PostService) GetAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	if cached, ok := ps.getAllFromCache(ctx); ok {
		feedCacheRequests.WithLabelValues("hit").Inc()
		return cached, nil
	}
	feedCacheRequests.WithLabelValues("miss").Inc()

	var posts []models.Post
	err := db.ReadOnly(ctx, ps.orm).
		Preload("Author").
		Order("created_at DESC, id DESC").
		Limit(FEED_LIMIT).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}

	feed := make([]models.PostWithAuthor, 0, len(posts))
	for _, p := range posts {
		feed = append(feed, models.PostWithAuthor{
			Post:   p,
			Author: p.Author.Author(),
		})
	}

	ps.cacheAll(ctx, feed)
	return feed, nil
}

func (ps *PostService) getAllFromCache(ctx context.Context) ([]models.PostWithAuthor, bool) {
	if ps.cache == nil {
		return nil, false
	}
	data, ok, err := ps.cache.Get(ctx, ALL_POSTS_CACHE_KEY)
	if err != nil {
		log.Printf("ERROR: Failed to read feed cache: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var feed []models.PostWithAuthor
	if err := json.Unmarshal(data, &feed); err != nil || feed == nil {
		log.Printf("ERROR: Broken feed cache entry, dropping it: %v", err)
		_ = ps.cache.Invalidate(ctx, ALL_POSTS_CACHE_KEY)
		return nil, false
	}
	return feed, true
}

func (ps *PostService) cacheAll(ctx context.Context, feed []models.PostWithAuthor) {
	if ps.cache == nil {
		return
	}
	data, err := json.Marshal(feed)
	if err != nil {
		log.Printf("ERROR: Failed to marshal feed for caching: %v", err)
		return
	}
	if err := ps.cache.Set(ctx, ALL_POSTS_CACHE_KEY, data, ps.cacheTTL); err != nil {
		log.Printf("ERROR: Failed to cache feed: %v", err)
	}
}

// Create валидирует и сохраняет пост, затем инвалидирует кеш ленты
func (ps *PostService) Create(ctx context.Context, authorID int64, content string) (*models.Post, error) {
	log.Printf("DEBUG: Create called for authorID=%d", authorID)

	content = strings.TrimSpace(content)
	if err := validateStruct(ps.validate, CreatePostInput{Content: content}); err != nil {
		postsCreatedTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if ps.limiter != nil {
		allowed, err := ps.limiter.Allow(ctx, POST_RATE_KEY+strconv.FormatInt(authorID, 10))
		if err != nil {
			postsCreatedTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if !allowed {
			postsCreatedTotal.WithLabelValues("rate_limited").Inc()
			return nil, ErrRateLimited
		}
	}

	var authors int64
	if err := db.ReadOnly(ctx, ps.orm).Model(&models.User{}).Where("id = ?", authorID).Count(&authors).Error; err != nil {
		postsCreatedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to check author: %w", err)
	}
	if authors == 0 {
		postsCreatedTotal.WithLabelValues("error").Inc()
		return nil, ErrAuthorNotFound
	}

	post := &models.Post{
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := db.Write(ctx, ps.orm).Create(post).Error; err != nil {
		log.Printf("ERROR: Failed to create post in DB: %v", err)
		postsCreatedTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	postsCreatedTotal.WithLabelValues("created").Inc()
	log.Printf("DEBUG: Post created in DB with ID=%d", post.ID)

	if err := ps.InvalidateAll(ctx); err != nil {
		log.Printf("ERROR: %v", err)
	}

	if ps.events != nil {
		err := ps.events.PublishPostCreated(ctx, PostCreatedEvent{
			PostID:    post.ID,
			AuthorID:  post.AuthorID,
			Content:   post.Content,
			CreatedAt: post.CreatedAt,
		})
		if err != nil {
			log.Printf("ERROR: Failed to publish post event for postID=%d: %v", post.ID, err)
		}
	}

	return post, nil
}

// InvalidateAll сбрасывает кеш общей ленты
func (ps *PostService) InvalidateAll(ctx context.Context) error {
	if ps.cache == nil {
		return nil
	}
	if err := ps.cache.Invalidate(ctx, ALL_POSTS_CACHE_KEY); err != nil {
		return fmt.Errorf("failed to invalidate feed cache: %w", err)
	}
	return nil
}
