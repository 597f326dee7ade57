// Package api wires handlers and middleware into the HTTP server.
//
//	@title			parkapi
//	@version		1.0
//	@description	User account service: create, look up and list users and change passwords.
//	@BasePath		/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/martijn/parkapi/internal/api/docs"
	"github.com/martijn/parkapi/internal/api/handler"
	"github.com/martijn/parkapi/internal/api/middleware"
	"github.com/martijn/parkapi/internal/api/validation"
	"github.com/martijn/parkapi/internal/core/service"
	"github.com/martijn/parkapi/pkg/config"
	"github.com/martijn/parkapi/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type handlers struct {
	users  *handler.UserHandler
	health *handler.HealthHandler
}

type route struct {
	method  string
	path    string
	handler func(h handlers) gin.HandlerFunc
}

// routes is the complete HTTP surface.
var routes = []route{
	{http.MethodPost, "/api/v1/users", func(h handlers) gin.HandlerFunc { return h.users.CreateUser }},
	{http.MethodGet, "/api/v1/users", func(h handlers) gin.HandlerFunc { return h.users.ListUsers }},
	{http.MethodGet, "/api/v1/users/:id", func(h handlers) gin.HandlerFunc { return h.users.GetUser }},
	{http.MethodPatch, "/api/v1/users/:id", func(h handlers) gin.HandlerFunc { return h.users.UpdatePassword }},
	{http.MethodGet, "/health", func(h handlers) gin.HandlerFunc { return h.health.Health }},
	{http.MethodGet, "/metrics", func(handlers) gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }},
	{http.MethodGet, "/swagger/*any", func(handlers) gin.HandlerFunc { return ginSwagger.WrapHandler(swaggerFiles.Handler) }},
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	config *config.Config
}

// NewRouter builds the gin engine with the global middleware chain and every
// entry of routes registered.
func NewRouter(userService *service.UserService, db handler.Pinger, corsOrigins []string) *gin.Engine {
	validation.Register()

	router := gin.New()
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddleware(corsOrigins))
	router.Use(middleware.ErrorHandlerMiddleware())

	h := handlers{
		users:  handler.NewUserHandler(userService),
		health: handler.NewHealthHandler(db),
	}
	for _, r := range routes {
		router.Handle(r.method, r.path, r.handler(h))
	}

	return router
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, userService *service.UserService, db handler.Pinger) *Server {
	if !cfg.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		router: NewRouter(userService, db, cfg.CORSOrigins),
		config: cfg,
	}
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	addr := s.config.Addr()

	s.srv = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	log := logger.Get()
	var err error
	if s.config.TLSEnabled() {
		log.Info().Str("addr", addr).Msg("starting HTTPS server")
		err = s.srv.ListenAndServeTLS(s.config.SSLCert, s.config.SSLKey)
	} else {
		log.Info().Str("addr", addr).Msg("starting HTTP server")
		err = s.srv.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
