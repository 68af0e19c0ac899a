package client

import (
	"context"
	"net/http"

	"chirp/models"
	"chirp/services"
)

type userIDKey struct{}

// WithUserID attaches the acting user to ctx for Local calls.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok && id > 0
}

type postService interface {
	GetAll(ctx context.Context) ([]models.PostWithAuthor, error)
	Create(ctx context.Context, authorID int64, content string) (*models.Post, error)
}

// Local calls the post service in-process, for pages rendered by the
// same server that owns the data.
type Local struct {
	posts postService
}

func NewLocal(posts postService) *Local {
	return &Local{posts: posts}
}

func (l *Local) GetAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	posts, err := l.posts.GetAll(ctx)
	if err != nil {
		return nil, toClientError(err)
	}
	if posts == nil {
		return nil, ErrNoData
	}
	return posts, nil
}

func (l *Local) Create(ctx context.Context, content string) error {
	userID, ok := UserIDFrom(ctx)
	if !ok {
		return &Error{
			Code:       services.CODE_UNAUTHORIZED,
			Message:    "Unauthorized",
			HTTPStatus: http.StatusUnauthorized,
		}
	}
	if _, err := l.posts.Create(ctx, userID, content); err != nil {
		return toClientError(err)
	}
	return nil
}

func toClientError(err error) error {
	code, status := services.ErrorCode(err)
	return &Error{
		Code:        code,
		Message:     err.Error(),
		HTTPStatus:  status,
		FieldErrors: services.FieldErrors(err),
	}
}
