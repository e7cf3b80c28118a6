// Package httpserver is the thin endpoint layer over the ingestion service.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"blogwatch/internal/domain"
	"blogwatch/internal/usecase"
)

// FeedService is what the handlers need from the pipeline.
type FeedService interface {
	Ingest(ctx context.Context, url string) (domain.Publication, int, error)
	RefreshDue(ctx context.Context, force bool) (int, []usecase.FeedError, error)
	DueFeeds(ctx context.Context) ([]domain.Publication, error)
	ListFeeds(ctx context.Context) ([]domain.Publication, error)
	ListArticles(ctx context.Context, feedID string, limit, offset int) ([]domain.Article, int, error)
	DeleteFeed(ctx context.Context, id string) (int, error)
}

// Server wraps the gin engine and its http.Server.
type Server struct {
	service    FeedService
	logger     *slog.Logger
	httpServer *http.Server
}

// New builds the router and server.
func New(service FeedService, logger *slog.Logger, port int, allowedOrigins []string) *Server {
	s := &Server{service: service, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins,
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
		}))
	}
	s.register(router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) register(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/feeds", s.handleAddFeed)
	api.GET("/feeds", s.handleListFeeds)
	api.DELETE("/feeds/:id", s.handleDeleteFeed)
	api.POST("/feeds/refresh", s.handleRefresh)
	api.GET("/feeds/refresh", s.handleDueFeeds)
	api.GET("/posts", s.handleListPosts)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type addFeedRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) handleAddFeed(c *gin.Context) {
	var req addFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return
	}

	pub, added, err := s.service.Ingest(c.Request.Context(), req.URL)
	if err != nil {
		s.logger.Warn("ingest rejected", "url", req.URL, "error", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"feed": pub, "postsCount": added})
}

func (s *Server) handleListFeeds(c *gin.Context) {
	feeds, err := s.service.ListFeeds(c.Request.Context())
	if err != nil {
		s.logger.Error("list feeds failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	if feeds == nil {
		feeds = []domain.Publication{}
	}
	c.JSON(http.StatusOK, gin.H{"feeds": feeds})
}

func (s *Server) handleDeleteFeed(c *gin.Context) {
	removed, err := s.service.DeleteFeed(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrFeedNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
			return
		}
		s.logger.Error("delete feed failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removedPosts": removed})
}

type refreshRequest struct {
	Force bool `json:"force"`
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req) // body optional

	refreshed, failures, err := s.service.RefreshDue(c.Request.Context(), req.Force)
	if err != nil {
		s.logger.Error("refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	if failures == nil {
		failures = []usecase.FeedError{}
	}
	c.JSON(http.StatusOK, gin.H{"refreshedCount": refreshed, "errors": failures})
}

func (s *Server) handleDueFeeds(c *gin.Context) {
	due, err := s.service.DueFeeds(c.Request.Context())
	if err != nil {
		s.logger.Error("due feeds failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	if due == nil {
		due = []domain.Publication{}
	}
	c.JSON(http.StatusOK, gin.H{"feedsNeedingRefresh": len(due), "feeds": due})
}

func (s *Server) handleListPosts(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	posts, total, err := s.service.ListArticles(c.Request.Context(), c.Query("feed_id"), limit, offset)
	if err != nil {
		s.logger.Error("list posts failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "total": total})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// statusFor maps the pipeline error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var fetchErr *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrClassificationRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoContentFound):
		return http.StatusNotFound
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
