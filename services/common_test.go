package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"chirp/config"
	"chirp/db"
	"chirp/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB открывает чистую sqlite базу во временной директории
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conf := config.Default()
	conf.Databases.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	orm, err := db.Open(conf)
	require.NoError(t, err)
	return orm
}

func createTestUser(t *testing.T, orm *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:       username,
		ProfilePicture: "https://img.example.com/" + username + ".png",
	}
	require.NoError(t, db.Write(context.Background(), orm).Create(user).Error)
	return user
}

func insertPost(t *testing.T, orm *gorm.DB, authorID int64, content string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: authorID, Content: content, CreatedAt: createdAt}
	require.NoError(t, db.Write(context.Background(), orm).Create(post).Error)
	return post
}
