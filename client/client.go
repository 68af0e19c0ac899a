// Package client is the typed RPC client the page uses to read and create
// posts, plus the query layer that caches and deduplicates reads.
package client

import (
	"context"
	"errors"
	"fmt"

	"chirp/models"
)

// ErrNoData means a query completed without a payload. An empty feed is not
// ErrNoData.
var ErrNoData = errors.New("query returned no data")

// PostsAPI is the remote post procedures.
type PostsAPI interface {
	GetAll(ctx context.Context) ([]models.PostWithAuthor, error)
	Create(ctx context.Context, content string) error
}

// Error is a structured procedure failure.
type Error struct {
	Code        string
	Message     string
	HTTPStatus  int
	FieldErrors map[string][]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FirstFieldError returns the first message reported for field.
func (e *Error) FirstFieldError(field string) (string, bool) {
	if e == nil {
		return "", false
	}
	msgs := e.FieldErrors[field]
	if len(msgs) == 0 || msgs[0] == "" {
		return "", false
	}
	return msgs[0], true
}
