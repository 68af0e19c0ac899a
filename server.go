package main

import (
	"context"
	"flag"
	"log"

	"chirp/api/routes"
	"chirp/cache"
	"chirp/client"
	"chirp/config"
	"chirp/db"
	"chirp/services"
	"chirp/web"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfigOrDefault(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	conf := config.AppConfig
	log.Printf("Starting server on %s (db=%s, redis=%v, rabbitmq=%v)",
		conf.Addr(), conf.Databases.Driver, conf.RedisEnabled(), conf.RabbitMQ.URL != "")

	if !conf.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	// Без Redis кеш и лимитер живут в процессе
	var feedCache cache.Cache = cache.NewMemory()
	var limiter services.RateLimiter = services.NewMemoryLimiter(conf.Posts.RateLimit, conf.Posts.RateLimitWindow)
	if conf.RedisEnabled() {
		if err := services.InitRedis(conf.Redis); err != nil {
			log.Printf("ERROR: %v, using in-process cache", err)
		} else {
			defer services.CloseRedis()
			feedCache = cache.NewRedis(services.RedisClient)
			limiter = services.NewRedisLimiter(services.RedisClient, conf.Posts.RateLimit, conf.Posts.RateLimitWindow)
		}
	}

	var bus services.EventBus = services.NewLocalBus()
	if conf.RabbitMQ.URL != "" {
		rabbit, err := services.InitRabbitMQ(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange)
		if err != nil {
			log.Printf("ERROR: %v, post events stay in-process", err)
		} else {
			defer rabbit.Close()
			bus = rabbit
		}
	}

	posts := services.NewPostService(db.ORM, feedCache,
		services.WithCacheTTL(conf.Posts.CacheTTL),
		services.WithRateLimiter(limiter),
		services.WithEventBus(bus),
	)
	users := services.NewUserService(db.ORM, conf.Auth.JWTSecret, conf.Auth.TokenTTL, conf.Auth.DefaultAvatar)
	wsManager := services.NewWSConnManager()
	queries := client.NewQueries(client.NewLocal(posts), cache.NewMemory())

	err := bus.SubscribePostCreated(context.Background(), func(ctx context.Context, event services.PostCreatedEvent) {
		if err := posts.InvalidateAll(ctx); err != nil {
			log.Printf("ERROR: %v", err)
		}
		if err := queries.InvalidateAllPosts(ctx); err != nil {
			log.Printf("ERROR: Failed to invalidate page queries: %v", err)
		}
		wsManager.BroadcastPostCreated(event)
	})
	if err != nil {
		panic("Failed to subscribe to post events: " + err.Error())
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	routes.PublicApi(router, routes.Deps{Posts: posts, Users: users, WS: wsManager})
	web.Register(router, web.NewHandler(users, queries), conf.Auth.SessionSecret)

	if err := router.Run(conf.Addr()); err != nil {
		panic(err)
	}
}
