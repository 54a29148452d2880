// Package server exposes the exported snapshots over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bogoinsight/internal/cache"
	"bogoinsight/internal/catalog"
	"bogoinsight/internal/export"
	"bogoinsight/internal/logger"
	"bogoinsight/internal/table"
)

const (
	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 10 * time.Second
)

// Catalog supplies topic descriptions; the server works without one.
type Catalog interface {
	Topics(ctx context.Context) ([]catalog.Topic, error)
}

// Server serves categories, snapshot metadata and table contents.
type Server struct {
	store   *export.Store
	cache   *cache.Cache
	catalog Catalog
	log     *logger.Logger
	engine  *gin.Engine
}

// New creates a new Server instance. cat may be nil.
func New(store *export.Store, c *cache.Cache, cat Catalog, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{store: store, cache: c, catalog: cat, log: log}
	s.engine = s.routes()

	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(requestID(), accessLog(s.log), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	categories := v1.Group("/categories")
	categories.GET("", s.listCategories)
	categories.GET("/:category/latest", s.latest)
	categories.GET("/:category/data", s.data)

	v1.DELETE("/cache", s.invalidateAll)
	v1.DELETE("/cache/:category", s.invalidate)

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("server shutting down")

	return srv.Shutdown(shutdownCtx)
}

// categoryView is one entry of the category listing.
type categoryView struct {
	Category    string           `json:"category"`
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Source      string           `json:"source_description,omitempty"`
	Latest      *export.Snapshot `json:"latest,omitempty"`
}

func (s *Server) listCategories(c *gin.Context) {
	names, err := s.store.ListCategories()
	if err != nil {
		s.fail(c, err)

		return
	}

	topics := make(map[string]catalog.Topic)

	if s.catalog != nil {
		list, err := s.catalog.Topics(c.Request.Context())
		if err != nil {
			s.log.Warn("catalog topics unavailable", "error", err)
		}

		for _, t := range list {
			topics[t.Category] = t
		}
	}

	out := make([]categoryView, 0, len(names))

	for _, name := range names {
		view := categoryView{Category: name}

		if t, ok := topics[name]; ok {
			view.Name = t.Name
			view.Description = t.Description
			view.Tags = t.Tags
			view.Source = t.SourceDescription
		}

		if snap, err := s.store.Latest(name); err == nil {
			view.Latest = &snap
		}

		out = append(out, view)
	}

	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (s *Server) latest(c *gin.Context) {
	snap, err := s.store.Latest(c.Param("category"))
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, snap)
}

// data returns the cached table. ?format=csv returns the snapshot encoding
// and ?limit=N keeps the first N rows.
func (s *Server) data(c *gin.Context) {
	category := c.Param("category")

	entry, err := s.cache.Get(category)
	if err != nil {
		s.fail(c, err)

		return
	}

	limit := entry.Table.Len()

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})

			return
		}

		limit = min(n, limit)
	}

	t := entry.Table
	if limit < t.Len() {
		t = head(t, limit)
	}

	if c.Query("format") == "csv" {
		body, err := export.Encode(t)
		if err != nil {
			s.fail(c, err)

			return
		}

		c.Data(http.StatusOK, "text/csv; charset=utf-8", body)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":  category,
		"snapshot":  entry.Snapshot,
		"loaded_at": entry.LoadedAt,
		"index":     t.IndexName(),
		"columns":   t.Columns(),
		"rows":      rows(t),
	})
}

func (s *Server) invalidateAll(c *gin.Context) {
	n := s.cache.InvalidateAll()
	s.log.Info("cache cleared", "entries", n)

	c.JSON(http.StatusOK, gin.H{"invalidated": n})
}

func (s *Server) invalidate(c *gin.Context) {
	category := c.Param("category")
	ok := s.cache.Invalidate(category)

	c.JSON(http.StatusOK, gin.H{"category": category, "invalidated": ok})
}

// fail maps store errors to status codes.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, export.ErrBadCategory):
		status = http.StatusBadRequest
	case errors.Is(err, export.ErrNoSnapshot):
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func head(t *table.Table, n int) *table.Table {
	out := t.Clone()
	keep := make(map[string]bool, n)

	for _, k := range t.Keys()[:n] {
		keep[k.String()] = true
	}

	out.Filter(func(r table.Row) bool { return keep[r.Key.String()] })

	return out
}

// rows renders each row as an object keyed by column, index first.
func rows(t *table.Table) []map[string]any {
	out := make([]map[string]any, 0, t.Len())

	for _, key := range t.Keys() {
		rec, _ := t.Row(key)

		row := make(map[string]any, len(rec)+1)
		row[t.IndexName()] = jsonValue(key)

		for col, v := range rec {
			row[col] = jsonValue(v)
		}

		out = append(out, row)
	}

	return out
}

func jsonValue(v table.Value) any {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.Float()

		return f
	case table.KindBool:
		b, _ := v.Flag()

		return b
	case table.KindMissing:
		return nil
	default:
		return v.String()
	}
}

// requestID tags every request and response with an id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
			"duration", time.Since(start),
		)
	}
}
