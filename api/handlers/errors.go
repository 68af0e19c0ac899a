package handlers

import (
	"log"
	"net/http"

	"chirp/api/middleware"
	"chirp/services"

	"github.com/gin-gonic/gin"
)

// respondError пишет ошибку сервиса в формате {"error","code","field_errors"}
func respondError(c *gin.Context, err error) {
	code, status := services.ErrorCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		message = "Internal server error"
	}
	body := gin.H{"error": message, "code": code}
	if fieldErrors := services.FieldErrors(err); len(fieldErrors) > 0 {
		body["field_errors"] = fieldErrors
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": services.CODE_BAD_REQUEST})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": services.CODE_UNAUTHORIZED})
}

// currentUserID reads the viewer set by the auth middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(middleware.USER_ID_KEY)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}
