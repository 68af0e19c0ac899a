package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// PostCreatedEvent - событие о новом посте, рассылается всем инстансам
type PostCreatedEvent struct {
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PostCreatedHandler func(ctx context.Context, event PostCreatedEvent)

// EventBus fans post events out to every subscriber.
type EventBus interface {
	PublishPostCreated(ctx context.Context, event PostCreatedEvent) error
	SubscribePostCreated(ctx context.Context, handler PostCreatedHandler) error
}

// LocalBus delivers events synchronously inside the process.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []PostCreatedHandler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) PublishPostCreated(ctx context.Context, event PostCreatedEvent) error {
	b.mu.RLock()
	handlers := append([]PostCreatedHandler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}
	return nil
}

func (b *LocalBus) SubscribePostCreated(_ context.Context, handler PostCreatedHandler) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	n := len(b.handlers)
	b.mu.Unlock()
	log.Printf("DEBUG: local post event subscriber registered (%d total)", n)
	return nil
}
