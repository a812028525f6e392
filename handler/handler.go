// Package handler provides the HTTP handlers for the movie catalog.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/stevemurr/movie-catalog/logging"
	"github.com/stevemurr/movie-catalog/movie"
	"github.com/stevemurr/movie-catalog/schema"
	"github.com/stevemurr/movie-catalog/store"
)

const msgNotFound = "Movie not found"

// Options configures the middleware in front of the routes.
type Options struct {
	Logger *slog.Logger
	// AllowedOrigins lists CORS origins; a single "*" allows any.
	AllowedOrigins []string
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit      float64
	RateLimitBurst int
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	store  store.Store
	engine *gin.Engine
	log    *slog.Logger
}

// New creates a Handler and wires up all routes.
func New(s store.Store, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	gin.SetMode(gin.ReleaseMode)

	h := &Handler{store: s, engine: gin.New(), log: opts.Logger}
	h.engine.Use(recovery(h.log), requestLogger(h.log))
	if len(opts.AllowedOrigins) > 0 {
		h.engine.Use(cors(opts.AllowedOrigins))
	}
	if opts.RateLimit > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		h.engine.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.engine.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.engine.GET("/", h.root)
	h.engine.GET("/health", h.health)

	movies := h.engine.Group("/movies")
	movies.GET("", h.listMovies)
	movies.POST("", h.createMovie)
	movies.GET("/:id", h.getMovie)
	movies.PATCH("/:id", h.updateMovie)
	movies.DELETE("/:id", h.deleteMovie)

	h.engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})
}

// ---------- helpers ----------

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, gin.H{"message": msg})
}

func writeValidationError(c *gin.Context, ve *schema.ValidationError) {
	writeJSON(c, http.StatusBadRequest, gin.H{"error": ve.Issues})
}

var errNotObject = errors.New("request body must be a JSON object")

// readObject decodes the request body as a JSON object.
func readObject(c *gin.Context) (map[string]any, error) {
	var incoming map[string]any
	if err := c.ShouldBindJSON(&incoming); err != nil {
		return nil, err
	}
	if incoming == nil {
		return nil, errNotObject
	}
	return incoming, nil
}

// ---------- status endpoints ----------

func (h *Handler) root(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{
		"status":  "ok",
		"service": "Movie Catalog",
	})
}

func (h *Handler) health(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "healthy"})
}

// ---------- movies ----------

// listMovies returns every movie, or only those matching ?genre= when the
// parameter is non-empty. An unmatched genre is an empty list, not an error.
func (h *Handler) listMovies(c *gin.Context) {
	if genre := c.Query("genre"); genre != "" {
		writeJSON(c, http.StatusOK, h.store.ListByGenre(genre))
		return
	}
	writeJSON(c, http.StatusOK, h.store.List())
}

func (h *Handler) getMovie(c *gin.Context) {
	m, ok := h.store.Get(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSON(c, http.StatusOK, m)
}

func (h *Handler) createMovie(c *gin.Context) {
	incoming, err := readObject(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	m, err := movie.ValidateFull(incoming)
	if err != nil {
		h.fail(c, err)
		return
	}

	created := h.store.Insert(m)
	h.log.Info("movie created", slog.String("id", created.ID), slog.String("title", created.Title))
	writeJSON(c, http.StatusCreated, created)
}

func (h *Handler) updateMovie(c *gin.Context) {
	incoming, err := readObject(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	patch, err := movie.ValidatePartial(incoming)
	if err != nil {
		h.fail(c, err)
		return
	}

	id := c.Param("id")
	// An empty patch changes nothing; answer from a read.
	if patch.IsEmpty() {
		h.getMovie(c)
		return
	}
	updated, ok := h.store.Update(id, patch)
	if !ok {
		writeError(c, http.StatusNotFound, msgNotFound)
		return
	}
	h.log.Info("movie updated", slog.String("id", id))
	writeJSON(c, http.StatusOK, updated)
}

func (h *Handler) deleteMovie(c *gin.Context) {
	id := c.Param("id")
	if !h.store.Remove(id) {
		writeError(c, http.StatusNotFound, msgNotFound)
		return
	}
	h.log.Info("movie deleted", slog.String("id", id))
	writeJSON(c, http.StatusOK, gin.H{"message": "Movie deleted"})
}

// fail reports a validation error verbatim and anything else as a 500
// without leaking its text.
func (h *Handler) fail(c *gin.Context, err error) {
	if ve, ok := schema.AsValidationError(err); ok {
		h.log.Debug("validation failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("fields", ve.Fields()),
		)
		writeValidationError(c, ve)
		return
	}
	h.log.Error("request failed", slog.String("path", c.Request.URL.Path), slog.Any("error", err))
	writeError(c, http.StatusInternalServerError, "internal server error")
}
