package routes

import (
	"chirp/api/handlers"
	"chirp/api/middleware"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

// Deps are the services the API routes are served from.
type Deps struct {
	Posts *services.PostService
	Users *services.UserService
	WS    *services.WSConnManager
}

func PublicApi(router *gin.Engine, deps Deps) *gin.RouterGroup {
	posts := handlers.NewPostHandler(deps.Posts)
	auth := handlers.NewAuthHandler(deps.Users)
	ws := handlers.NewWSHandler(deps.WS)

	router.GET("/metrics", middleware.MetricsHandler())

	publicEndpoints := router.Group("/api/v1/")
	publicEndpoints.Use(middleware.RequestID(), middleware.PrometheusMiddleware("chirp"))
	{
		publicEndpoints.POST("auth/register", auth.Register)
		publicEndpoints.POST("auth/login", auth.Login)
		publicEndpoints.GET("posts.getAll", posts.GetAll)
		publicEndpoints.GET("ws/feed", middleware.OptionalAuthMiddleware(deps.Users), ws.Feed)
	}

	// Создание постов только с токеном
	privateEndpoints := publicEndpoints.Group("")
	privateEndpoints.Use(middleware.AuthMiddleware(deps.Users))
	{
		privateEndpoints.POST("posts.create", posts.Create)
	}
	return publicEndpoints
}
