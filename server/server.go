// Package server exposes uncertainty sessions over an HTTP JSON API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/uncertainty"
)

// Server serves the session API.
type Server struct {
	store  *Store
	log    logrus.FieldLogger
	router *gin.Engine
}

// New creates a server. opts apply to every session it creates; the session
// logger is derived from log.
func New(log logrus.FieldLogger, opts ...uncertainty.Option) *Server {
	srv := &Server{log: log}
	srv.store = NewStore(func(id uuid.UUID) *uncertainty.Session {
		o := append([]uncertainty.Option{uncertainty.WithLogger(log.WithField("session", id.String()))}, opts...)
		return uncertainty.NewSession(o...)
	})
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := uncertainty.RegisterValidations(v); err != nil {
			log.WithError(err).Warn("registering validations")
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(srv.loggerMiddleware())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "sessions": srv.store.Len()})
	})
	srv.routes(r)
	srv.router = r
	return srv
}

// Handler returns the HTTP handler for the API.
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// Store returns the server's session store.
func (srv *Server) Store() *Store {
	return srv.store
}

// Run serves on addr until ctx is done, then shuts down gracefully, waiting up
// to 30 seconds for requests in flight.
func (srv *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		srv.log.WithField("addr", addr).Info("starting server")
		errs <- hs.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	srv.log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "server forced to shut down")
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	srv.log.Info("server exited")
	return nil
}

func (srv *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		srv.log.WithFields(logrus.Fields{
			"method":   method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}).Info("HTTP request")
	}
}
