package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/ssma-incidents/internal/auth"
	"github.com/mr1hm/ssma-incidents/internal/config"
	"github.com/mr1hm/ssma-incidents/internal/dashboard"
	"github.com/mr1hm/ssma-incidents/internal/models"
	"github.com/mr1hm/ssma-incidents/internal/observability"
	"github.com/mr1hm/ssma-incidents/internal/repository"
	"github.com/mr1hm/ssma-incidents/internal/stream"
	"github.com/mr1hm/ssma-incidents/internal/weather"
)

const sessionUserKey = "username"

// Forecaster returns today's summary for a site, or nil when unavailable.
type Forecaster interface {
	Today(ctx context.Context, site config.Site) *weather.Summary
}

type Handler struct {
	cfg         *config.Config
	incidents   repository.IncidentRepository
	auth        *auth.Authenticator
	forecasts   Forecaster
	broadcaster *stream.Broadcaster
	metrics     *observability.Metrics
}

// NewHandler wires the HTTP surface. forecasts may be nil when weather is
// disabled, in which case the weather panel is always null.
func NewHandler(
	cfg *config.Config,
	incidents repository.IncidentRepository,
	authn *auth.Authenticator,
	forecasts Forecaster,
	broadcaster *stream.Broadcaster,
	metrics *observability.Metrics,
) *Handler {
	return &Handler{
		cfg:         cfg,
		incidents:   incidents,
		auth:        authn,
		forecasts:   forecasts,
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.index)
	r.GET("/health", h.health)
	r.GET("/api/weather", h.getWeather)

	r.POST("/login", PerIPRateLimitMiddleware(h.cfg.Auth.LoginRateLimitRPS, loginBurst), h.login)
	r.POST("/logout", h.logout)

	r.GET("/api/incidents", h.listIncidents)
	r.POST("/api/incidents", h.createIncident)
	r.GET("/api/incidents/:id", h.getIncident)
	r.GET("/api/dashboard", h.getDashboard)

	reviewers := r.Group("/", h.requireSession)
	reviewers.GET("/api/review", h.listForReview)
	reviewers.POST("/api/review", h.saveReviews)
	reviewers.GET("/api/incidents/stream", h.streamIncidents)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) index(c *gin.Context) {
	site := h.cfg.Weather.DefaultSite()
	c.JSON(http.StatusOK, gin.H{
		"site":    site.Name,
		"weather": h.forecast(c.Request.Context(), site),
	})
}

func (h *Handler) getWeather(c *gin.Context) {
	site := h.cfg.Weather.DefaultSite()
	if name := c.Query("site"); name != "" {
		s, ok := h.cfg.Weather.SiteByName(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown site"})
			return
		}
		site = s
	}

	c.JSON(http.StatusOK, gin.H{
		"site":    site.Name,
		"weather": h.forecast(c.Request.Context(), site),
	})
}

func (h *Handler) forecast(ctx context.Context, site config.Site) *weather.Summary {
	if h.forecasts == nil || !h.cfg.Weather.Enabled {
		return nil
	}
	return h.forecasts.Today(ctx, site)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.metrics.Logins.WithLabelValues("failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login inválido!"})
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}
	h.metrics.Logins.WithLabelValues("success").Inc()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Auth.CookieName, sess.Token, int(h.cfg.Auth.SessionTTL.Seconds()), "/", "", h.cfg.Auth.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"username":   sess.Username,
		"expires_at": sess.ExpiresAt,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(h.cfg.Auth.CookieName); err == nil {
		h.auth.Logout(token)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Auth.CookieName, "", -1, "/", "", h.cfg.Auth.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) requireSession(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.Auth.CookieName)
	sess, ok := h.auth.Session(token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	c.Set(sessionUserKey, sess.Username)
	c.Next()
}

// pageParam reads ?page=, treating missing, malformed and non-positive values as 1.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *Handler) listPage(c *gin.Context, perPage int, newest bool) {
	ctx := c.Request.Context()

	total, err := h.incidents.Count(ctx)
	if err != nil {
		slog.Error("failed to count incidents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}

	page := models.Paginate(total, pageParam(c), perPage)
	incidents, err := h.incidents.List(ctx, repository.ListOptions{
		Limit:  page.PerPage,
		Offset: page.Offset(),
		Newest: newest,
	})
	if err != nil {
		slog.Error("failed to list incidents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incidents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidents":  toIncidentList(incidents),
		"pagination": page,
	})
}

func (h *Handler) listIncidents(c *gin.Context) {
	h.listPage(c, h.cfg.Pages.IncidentsPerPage, true)
}

func (h *Handler) listForReview(c *gin.Context) {
	h.listPage(c, h.cfg.Pages.ReviewPerPage, false)
}

func (h *Handler) getIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	incident, err := h.incidents.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}
	if err != nil {
		slog.Error("failed to fetch incident", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incident"})
		return
	}

	c.JSON(http.StatusOK, toIncidentResponse(incident))
}

func (h *Handler) createIncident(c *gin.Context) {
	var req IncidentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := req.toIncident()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.incidents.Add(c.Request.Context(), incident)
	if err != nil {
		slog.Error("failed to store incident", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store incident"})
		return
	}
	h.metrics.IncidentsSubmitted.Inc()

	slog.Info("incident submitted", "id", id, "classification", incident.Classification, "location", incident.Location)
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(incident)
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) saveReviews(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make([]repository.ReviewUpdate, 0, len(req.Reviews))
	for _, item := range req.Reviews {
		updates = append(updates, repository.ReviewUpdate{ID: item.ID, Review: item.toReview()})
	}

	updated, skipped, err := h.incidents.ApplyReviews(c.Request.Context(), updates)
	if err != nil {
		slog.Error("failed to save reviews", "count", len(updates), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save reviews"})
		return
	}
	h.metrics.ReviewsSaved.Add(float64(updated))

	slog.Info("reviews saved", "reviewer", c.GetString(sessionUserKey), "updated", updated, "skipped", len(skipped))
	c.JSON(http.StatusOK, gin.H{
		"updated": updated,
		"skipped": skipped,
	})
}

func (h *Handler) getDashboard(c *gin.Context) {
	records, err := h.incidents.All(c.Request.Context())
	if err != nil {
		slog.Error("failed to load incidents for dashboard", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard"})
		return
	}
	h.metrics.DashboardQueries.Inc()

	result := dashboard.Aggregate(records, dashboard.ParseCriteria(c.Request.URL.Query()))
	c.JSON(http.StatusOK, gin.H{
		"charts":  result.Charts,
		"por_dia": result.Daily,
		"meta":    result.Meta,
		"facets":  dashboard.BuildFacets(records),
	})
}

// streamIncidents pushes each new incident as a server-sent event. Optional
// classificacao and local query parameters restrict the feed.
func (h *Handler) streamIncidents(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stream unavailable"})
		return
	}

	classification := c.Query("classificacao")
	location := c.Query("local")

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	h.metrics.StreamSubscribers.Inc()
	defer h.metrics.StreamSubscribers.Dec()

	slog.Info("client subscribed to incident stream", "subscriber_id", id, "user", c.GetString(sessionUserKey))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Info("client disconnected from incident stream", "subscriber_id", id)
			return
		case incident, ok := <-ch:
			if !ok {
				return
			}
			if classification != "" && incident.Classification != classification {
				continue
			}
			if location != "" && incident.Location != location {
				continue
			}

			c.SSEvent("incident", toIncidentResponse(incident))
			c.Writer.Flush()
		}
	}
}
