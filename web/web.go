// Package web serves the feed page and the sign-in forms.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"

	"chirp/client"
	"chirp/models"
	"chirp/services"
	"chirp/ui"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

const (
	SESSION_NAME     = "chirp_session"
	SESSION_USER_KEY = "user_id"
)

// UserStore is the account backend of the sign-in forms.
type UserStore interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Register(ctx context.Context, username, password string) (*models.User, error)
}

type Handler struct {
	users   UserStore
	queries ui.PageQueries
}

// NewHandler builds the page handler. queries is shared by every request so
// reads are cached and deduplicated across viewers.
func NewHandler(users UserStore, queries ui.PageQueries) *Handler {
	return &Handler{users: users, queries: queries}
}

// Register mounts sessions, static assets, templates and page routes.
func Register(router *gin.Engine, h *Handler, sessionSecret string) {
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	router.SetHTMLTemplate(ui.Templates())
	router.Use(static.Serve(STATIC_PREFIX, assets()))

	page := router.Group("/")
	page.Use(sessions.Sessions(SESSION_NAME, store))
	{
		page.GET("", h.Index)
		page.POST("posts", h.CreatePost)
		page.GET("sign-in", h.SignInForm)
		page.POST("sign-in", h.SignIn)
		page.POST("sign-up", h.SignUp)
		page.POST("sign-out", h.SignOut)
	}
}

// auth resolves the session into the page's auth state. A failed user lookup
// leaves the session unloaded.
func (h *Handler) auth(c *gin.Context) (ui.StaticAuth, int64) {
	session := sessions.Default(c)
	userID, ok := session.Get(SESSION_USER_KEY).(int64)
	if !ok || userID <= 0 {
		return ui.SignedOut(), 0
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		session.Clear()
		if err := session.Save(); err != nil {
			log.Printf("ERROR: Failed to clear stale session: %v", err)
		}
		return ui.SignedOut(), 0
	}
	if err != nil {
		log.Printf("ERROR: Failed to load session user %d: %v", userID, err)
		return ui.StaticAuth{}, 0
	}
	return ui.SignedIn(ui.User{ID: user.ID, ProfileImageURL: user.ProfilePicture}), user.ID
}

func (h *Handler) Index(c *gin.Context) {
	auth, _ := h.auth(c)
	page := ui.NewPage(auth, h.queries)
	page.Mount(c.Request.Context())
	c.HTML(http.StatusOK, ui.PageTemplate, page.View())
}

// CreatePost отправляет форму композера; при ошибке страница рендерится заново
// с уведомлением и сохраненным вводом
func (h *Handler) CreatePost(c *gin.Context) {
	auth, userID := h.auth(c)
	if userID == 0 {
		c.Redirect(http.StatusSeeOther, "/sign-in")
		return
	}

	ctx := client.WithUserID(c.Request.Context(), userID)
	page := ui.NewPage(auth, h.queries)
	page.Composer.SetInput(c.PostForm("content"))

	err := page.Composer.Submit(ctx)
	if err == nil || errors.Is(err, ui.ErrEmptyInput) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	page.Mount(ctx)
	c.HTML(failureStatus(err), ui.PageTemplate, page.View())
}

func failureStatus(err error) int {
	var cerr *client.Error
	if !errors.As(err, &cerr) {
		return http.StatusInternalServerError
	}
	switch cerr.HTTPStatus {
	case http.StatusBadRequest:
		return http.StatusUnprocessableEntity
	case 0:
		return http.StatusInternalServerError
	default:
		return cerr.HTTPStatus
	}
}
