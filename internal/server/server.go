// Package server exposes a store.Store over the realtime-database REST contract:
// every node is reachable at /<path>.json.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/joinboard/internal/store"
)

const (
	nodeSuffix    = ".json"
	historySuffix = ".history"
	maxBodyBytes  = 8 << 20
)

// Historian is implemented by stores that keep a write log.
type Historian interface {
	History(ctx context.Context, path string, limit int) ([]store.WriteRecord, error)
}

type Option func(*Server)

// WithAuthToken requires ?auth=<token> on every request.
func WithAuthToken(token string) Option {
	return func(s *Server) { s.auth = strings.TrimSpace(token) }
}

type Server struct {
	store  store.Store
	log    log.FieldLogger
	auth   string
	engine *gin.Engine
}

func New(s store.Store, logger log.FieldLogger, opts ...Option) *Server {
	if logger == nil {
		logger = log.StandardLogger()
	}
	srv := &Server{store: s, log: logger}
	for _, opt := range opts {
		opt(srv)
	}

	router := gin.New()
	router.Use(gin.Recovery(), srv.requestLog())
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	router.Use(cors.New(corsCfg))
	router.Use(srv.requireAuth())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodPatch, http.MethodDelete} {
		router.Handle(method, "/*path", srv.handle)
	}
	srv.engine = router
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("document store listening")
		errCh <- httpSrv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.auth == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if c.Query("auth") != s.auth {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Permission denied"})
			return
		}
		c.Next()
	}
}

func (s *Server) handle(c *gin.Context) {
	raw := c.Param("path")
	if strings.HasSuffix(raw, historySuffix) && c.Request.Method == http.MethodGet {
		s.history(c, nodePath(raw, historySuffix))
		return
	}
	if !strings.HasSuffix(raw, nodeSuffix) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	path := nodePath(raw, nodeSuffix)
	ctx := c.Request.Context()

	switch c.Request.Method {
	case http.MethodGet:
		out, err := s.store.Get(ctx, path)
		s.reply(c, path, out, err)
	case http.MethodPut:
		body, ok := s.body(c)
		if !ok {
			return
		}
		out, err := s.store.Put(ctx, path, body)
		s.reply(c, path, out, err)
	case http.MethodPost:
		body, ok := s.body(c)
		if !ok {
			return
		}
		key, err := s.store.Post(ctx, path, body)
		if err != nil {
			s.fail(c, path, err)
			return
		}
		c.JSON(http.StatusOK, store.PostResult{Name: key})
	case http.MethodPatch:
		body, ok := s.body(c)
		if !ok {
			return
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data; couldn't parse JSON object."})
			return
		}
		out, err := s.store.Patch(ctx, path, body)
		s.reply(c, path, out, err)
	case http.MethodDelete:
		err := s.store.Delete(ctx, path)
		s.reply(c, path, json.RawMessage("null"), err)
	}
}

func nodePath(raw, suffix string) string {
	return strings.Trim(strings.TrimSuffix(raw, suffix), "/")
}

func (s *Server) body(c *gin.Context) (json.RawMessage, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read request body."})
		return nil, false
	}
	if !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data; couldn't parse JSON object, array, or value."})
		return nil, false
	}
	return json.RawMessage(raw), true
}

func (s *Server) reply(c *gin.Context, path string, out json.RawMessage, err error) {
	if err != nil {
		s.fail(c, path, err)
		return
	}
	if len(out) == 0 {
		out = json.RawMessage("null")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func (s *Server) fail(c *gin.Context, path string, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidPath), errors.Is(err, store.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.WithFields(log.Fields{"method": c.Request.Method, "path": path}).WithError(err).Error("store operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

type historyEntry struct {
	ID        int64     `json:"id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) history(c *gin.Context, path string) {
	h, ok := s.store.(Historian)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "History is not recorded by this store"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		limit = n
	}
	records, err := h.History(c.Request.Context(), path, limit)
	if err != nil {
		s.fail(c, path, err)
		return
	}
	out := make([]historyEntry, 0, len(records))
	for _, r := range records {
		out = append(out, historyEntry{ID: r.ID, Method: r.Method, Path: r.Path, CreatedAt: r.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}
