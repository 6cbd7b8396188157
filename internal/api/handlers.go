package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/romangod6/city-guide/internal/auth"
	"github.com/romangod6/city-guide/internal/content"
	"github.com/romangod6/city-guide/internal/models"
	"github.com/romangod6/city-guide/internal/storage"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	content *content.Service
	auth    *auth.Authority
	store   storage.Store
	cookie  CookieConfig
}

func NewHandler(svc *content.Service, authority *auth.Authority, store storage.Store, cookie CookieConfig) *Handler {
	return &Handler{content: svc, auth: authority, store: store, cookie: cookie}
}

// Register mounts every route on the router.
func (h *Handler) Register(router gin.IRouter) {
	api := router.Group("/api")
	{
		// Public routes
		api.GET("/health", h.Health)
		api.GET("/data", h.GetData)
		api.POST("/login", h.Login)
		api.GET("/session", h.GetSession)
		api.GET("/contacts", h.GetContacts)
		api.GET("/news/:id", h.GetNews)
		api.GET("/establishments", h.ListEstablishments)
		api.GET("/establishments/:id", h.GetEstablishment)

		admin := api.Group("", RequireAdmin(h.auth, h.cookie.Name))
		{
			admin.POST("/logout", h.Logout)

			admin.POST("/news", h.CreateNews)
			admin.PUT("/news/:id", h.UpdateNews)
			admin.DELETE("/news/:id", h.DeleteNews)

			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.RenameCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.POST("/establishments", h.CreateEstablishment)
			admin.PUT("/establishments/:id", h.UpdateEstablishment)
			admin.DELETE("/establishments/:id", h.DeleteEstablishment)

			admin.POST("/contacts", h.UpsertContacts)
		}
	}
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// GetData serves the full snapshot. Clients re-fetch it after every write
// rather than patching a local copy, so it must never be cached.
func (h *Handler) GetData(c *gin.Context) {
	snap, err := h.content.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, "data", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, snap)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid login request"})
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status, message := http.StatusUnauthorized, "Invalid username or password"
		if !errors.Is(err, auth.ErrUnauthorized) {
			_ = c.Error(err)
			status, message = http.StatusInternalServerError, "Login failed"
		}
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}

	h.setSessionCookie(c, sess.Token, h.auth.TTL())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful"})
}

func (h *Handler) Logout(c *gin.Context) {
	sess, _ := currentSession(c)
	if err := h.auth.Logout(c.Request.Context(), sess.Token); err != nil {
		writeError(c, "session", err)
		return
	}
	h.setSessionCookie(c, "", -time.Second)
	respond(c, http.StatusOK, "Logged out", nil)
}

func (h *Handler) GetSession(c *gin.Context) {
	_, err := authenticate(c, h.auth, h.cookie.Name)
	c.JSON(http.StatusOK, gin.H{"authenticated": err == nil})
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}

// News handlers

func (h *Handler) GetNews(c *gin.Context) {
	news, err := h.content.GetNews(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "news", err)
		return
	}
	c.JSON(http.StatusOK, news)
}

func (h *Handler) CreateNews(c *gin.Context) {
	var in models.NewsInput
	if !bindJSON(c, &in) {
		return
	}
	news, err := h.content.CreateNews(c.Request.Context(), in)
	if err != nil {
		writeError(c, "news", err)
		return
	}
	respond(c, http.StatusCreated, "News created", gin.H{"news": news})
}

func (h *Handler) UpdateNews(c *gin.Context) {
	var in models.NewsInput
	if !bindJSON(c, &in) {
		return
	}
	news, err := h.content.UpdateNews(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, "news", err)
		return
	}
	respond(c, http.StatusOK, "News updated", gin.H{"news": news})
}

func (h *Handler) DeleteNews(c *gin.Context) {
	if err := h.content.DeleteNews(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "news", err)
		return
	}
	respond(c, http.StatusOK, "News deleted", nil)
}

// Category handlers

func (h *Handler) CreateCategory(c *gin.Context) {
	var in models.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := h.content.CreateCategory(c.Request.Context(), in.Name)
	if err != nil {
		writeError(c, "category", err)
		return
	}
	respond(c, http.StatusCreated, "Category created", gin.H{"category": category})
}

func (h *Handler) RenameCategory(c *gin.Context) {
	var in models.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := h.content.RenameCategory(c.Request.Context(), c.Param("id"), in.Name)
	if err != nil {
		writeError(c, "category", err)
		return
	}
	respond(c, http.StatusOK, "Category updated", gin.H{"category": category})
}

// DeleteCategory requires ?confirm=true when establishments still use the category.
func (h *Handler) DeleteCategory(c *gin.Context) {
	confirm, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))
	removed, err := h.content.DeleteCategory(c.Request.Context(), c.Param("id"), confirm)
	if err != nil {
		writeError(c, "category", err)
		return
	}
	respond(c, http.StatusOK, "Category deleted", gin.H{"removedEstablishments": removed})
}

// Establishment handlers

func (h *Handler) ListEstablishments(c *gin.Context) {
	list, err := h.content.ListEstablishments(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, "establishments", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetEstablishment(c *gin.Context) {
	e, err := h.content.GetEstablishment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "establishment", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) CreateEstablishment(c *gin.Context) {
	var in models.EstablishmentInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := h.content.CreateEstablishment(c.Request.Context(), in)
	if err != nil {
		writeError(c, "establishment", err)
		return
	}
	respond(c, http.StatusCreated, "Establishment created", gin.H{"establishment": e})
}

func (h *Handler) UpdateEstablishment(c *gin.Context) {
	var in models.EstablishmentInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := h.content.UpdateEstablishment(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, "establishment", err)
		return
	}
	respond(c, http.StatusOK, "Establishment updated", gin.H{"establishment": e})
}

func (h *Handler) DeleteEstablishment(c *gin.Context) {
	if err := h.content.DeleteEstablishment(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, "establishment", err)
		return
	}
	respond(c, http.StatusOK, "Establishment deleted", nil)
}

// Contacts handlers

func (h *Handler) GetContacts(c *gin.Context) {
	contacts, err := h.content.GetContacts(c.Request.Context())
	if err != nil {
		writeError(c, "contacts", err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *Handler) UpsertContacts(c *gin.Context) {
	var in models.Contacts
	if !bindJSON(c, &in) {
		return
	}
	contacts, err := h.content.UpsertContacts(c.Request.Context(), in)
	if err != nil {
		writeError(c, "contacts", err)
		return
	}
	respond(c, http.StatusOK, "Contacts saved", gin.H{"contacts": contacts})
}

// Utility functions
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}
