package handlers

import (
	"net/http"

	"chirp/services"

	"github.com/gin-gonic/gin"
)

type CreatePostRequest struct {
	Content string `json:"content"`
}

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// GetAll отдает ленту: посты вместе с авторами, новые сверху
func (h *PostHandler) GetAll(c *gin.Context) {
	feed, err := h.posts.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Create создает пост от имени текущего пользователя
func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}
