package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"chirp/cache"
	"chirp/config"
	"chirp/db"
	"chirp/models"
	"chirp/services"

	"github.com/brianvoe/gofakeit/v7"
)

func main() {
	var (
		configPath string
		userCount  int
		postCount  int
		password   string
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.IntVar(&userCount, "users", 20, "Number of fake users")
	flag.IntVar(&postCount, "posts", 200, "Number of fake posts")
	flag.StringVar(&password, "password", "password", "Password of every fake user")
	flag.Parse()

	if err := config.LoadConfigOrDefault(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := db.ConnectDB(); err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	conf := config.AppConfig
	ctx := context.Background()

	users := services.NewUserService(db.ORM, conf.Auth.JWTSecret, conf.Auth.TokenTTL, conf.Auth.DefaultAvatar)
	authors := make([]int64, 0, userCount)
	for len(authors) < userCount {
		username := strings.ToLower(gofakeit.Username()) + gofakeit.Numerify("###")
		user, err := users.Register(ctx, username, password)
		if errors.Is(err, services.ErrUserExists) {
			continue
		}
		if err != nil {
			log.Fatalf("Failed to register %s: %v", username, err)
		}
		authors = append(authors, user.ID)
	}
	log.Printf("Created %d users (password %q)", len(authors), password)

	// Посты пишем напрямую, чтобы разбросать время создания и обойти лимитер
	now := time.Now()
	created := 0
	for created < postCount {
		post := models.Post{
			AuthorID:  authors[gofakeit.Number(0, len(authors)-1)],
			Content:   fakeContent(),
			CreatedAt: gofakeit.DateRange(now.Add(-72*time.Hour), now),
		}
		if !services.IsEmojiOnly(post.Content) {
			continue
		}
		if err := db.Write(ctx, db.ORM).Create(&post).Error; err != nil {
			log.Fatalf("Failed to create post: %v", err)
		}
		created++
	}
	log.Printf("Created %d posts", created)

	if conf.RedisEnabled() {
		if err := services.InitRedis(conf.Redis); err != nil {
			log.Printf("ERROR: %v, feed cache not invalidated", err)
			return
		}
		defer services.CloseRedis()
		if err := services.NewPostService(db.ORM, cache.NewRedis(services.RedisClient)).InvalidateAll(ctx); err != nil {
			log.Printf("ERROR: %v", err)
		}
	}
}

func fakeContent() string {
	n := gofakeit.Number(1, 5)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = gofakeit.Emoji()
	}
	return strings.Join(parts, "")
}
