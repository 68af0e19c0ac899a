package web

import (
	"errors"
	"log"
	"net/http"

	"chirp/models"
	"chirp/services"
	"chirp/ui"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	MSG_INVALID_CREDENTIALS = "Invalid username or password"
	MSG_MISSING_CREDENTIALS = "Username and password are required"
	MSG_USERNAME_TAKEN      = "Username is already taken"
	MSG_SIGN_IN_FAILED      = "Something went wrong, try again"
)

func (h *Handler) SignInForm(c *gin.Context) {
	if _, userID := h.auth(c); userID != 0 {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	renderSignIn(c, http.StatusOK, "", "")
}

func (h *Handler) SignIn(c *gin.Context) {
	username := c.PostForm("username")
	user, err := h.users.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		renderSignIn(c, http.StatusUnauthorized, MSG_INVALID_CREDENTIALS, username)
		return
	case err != nil:
		log.Printf("ERROR: Sign in failed: %v", err)
		renderSignIn(c, http.StatusInternalServerError, MSG_SIGN_IN_FAILED, username)
		return
	}
	h.startSession(c, user)
}

func (h *Handler) SignUp(c *gin.Context) {
	username := c.PostForm("username")
	user, err := h.users.Register(c.Request.Context(), username, c.PostForm("password"))
	switch {
	case errors.Is(err, services.ErrUserExists):
		renderSignIn(c, http.StatusBadRequest, MSG_USERNAME_TAKEN, username)
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		renderSignIn(c, http.StatusBadRequest, MSG_MISSING_CREDENTIALS, username)
		return
	case err != nil:
		log.Printf("ERROR: Sign up failed: %v", err)
		renderSignIn(c, http.StatusInternalServerError, MSG_SIGN_IN_FAILED, username)
		return
	}
	h.startSession(c, user)
}

func (h *Handler) SignOut(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("ERROR: Failed to clear session: %v", err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) startSession(c *gin.Context, user *models.User) {
	session := sessions.Default(c)
	session.Set(SESSION_USER_KEY, user.ID)
	if err := session.Save(); err != nil {
		log.Printf("ERROR: Failed to save session: %v", err)
		renderSignIn(c, http.StatusInternalServerError, MSG_SIGN_IN_FAILED, user.Username)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func renderSignIn(c *gin.Context, status int, message, username string) {
	c.HTML(status, ui.SignInTemplate, ui.SignInView{
		Title:    ui.PageTitle,
		Error:    message,
		Username: username,
	})
}
