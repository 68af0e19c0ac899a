package client

import (
	"context"
	"testing"
	"time"

	"chirp/models"
	"chirp/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostService struct {
	posts     []models.PostWithAuthor
	createErr error
	authorID  int64
	content   string
}

func (f *fakePostService) GetAll(context.Context) ([]models.PostWithAuthor, error) {
	return f.posts, nil
}

func (f *fakePostService) Create(_ context.Context, authorID int64, content string) (*models.Post, error) {
	f.authorID, f.content = authorID, content
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Post{ID: 1, AuthorID: authorID, Content: content, CreatedAt: time.Now()}, nil
}

func TestLocalCreateUsesContextUser(t *testing.T) {
	svc := &fakePostService{}
	l := NewLocal(svc)

	require.NoError(t, l.Create(WithUserID(context.Background(), 7), "🙂"))
	assert.Equal(t, int64(7), svc.authorID)
	assert.Equal(t, "🙂", svc.content)
}

func TestLocalCreateWithoutUser(t *testing.T) {
	l := NewLocal(&fakePostService{})

	err := l.Create(context.Background(), "🙂")
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CODE_UNAUTHORIZED, cerr.Code)
}

func TestLocalCreateMapsValidationError(t *testing.T) {
	l := NewLocal(&fakePostService{createErr: &services.ValidationError{
		FieldErrors: map[string][]string{"content": {"too many emojis"}},
	}})

	err := l.Create(WithUserID(context.Background(), 1), "🙂")
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CODE_BAD_REQUEST, cerr.Code)
	msg, ok := cerr.FirstFieldError("content")
	require.True(t, ok)
	assert.Equal(t, "too many emojis", msg)
}

func TestLocalCreateMapsRateLimit(t *testing.T) {
	l := NewLocal(&fakePostService{createErr: services.ErrRateLimited})

	err := l.Create(WithUserID(context.Background(), 1), "🙂")
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, services.CODE_TOO_MANY_REQUESTS, cerr.Code)
	assert.Nil(t, cerr.FieldErrors)
}

func TestLocalGetAll(t *testing.T) {
	_, err := NewLocal(&fakePostService{}).GetAll(context.Background())
	require.ErrorIs(t, err, ErrNoData)

	posts, err := NewLocal(&fakePostService{posts: []models.PostWithAuthor{}}).GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 0)
}

func TestUserIDFrom(t *testing.T) {
	_, ok := UserIDFrom(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFrom(WithUserID(context.Background(), 0))
	assert.False(t, ok)

	id, ok := UserIDFrom(WithUserID(context.Background(), 3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}
