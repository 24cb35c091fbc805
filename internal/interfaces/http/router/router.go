// Package router wires the kinship HTTP API.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/infrastructure/config"
	"github.com/ersonp/kinship/internal/interfaces/http/handler"
	"github.com/ersonp/kinship/internal/interfaces/http/middleware"
)

// Router is the HTTP router of one family graph.
type Router struct {
	engine  *gin.Engine
	cfg     config.ServerConfig
	handler *handler.Handler
}

// New creates a Router serving family.
func New(cfg config.ServerConfig, family *handlers.Family) *Router {
	r := &Router{
		engine:  gin.New(),
		cfg:     cfg,
		handler: handler.New(family),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine returns the gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.AccessLog())
	r.engine.Use(middleware.Metrics())
	r.engine.Use(middleware.CORS(r.cfg.AllowedOrigins))
	r.engine.Use(middleware.RateLimit(r.cfg.RateLimitPerMinute, r.cfg.RateLimitBurst))
	r.engine.Use(middleware.QueryLimit(r.cfg.MaxQueryLength))
	r.engine.Use(middleware.BodyLimit(r.cfg.MaxBodyBytes))
}

func (r *Router) setupRoutes() {
	h := r.handler

	r.engine.GET("/healthz", h.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.APIKey(r.cfg.APIKey))
	v1.Use(middleware.NoStore())
	{
		v1.GET("/relation-codes", h.RelationCodes)

		members := v1.Group("/members")
		{
			members.GET("", h.ListMembers)
			members.GET("/search", h.SearchMembers)
			members.GET("/:id", h.GetMember)
			members.POST("", h.CreateMember)
			members.PUT("/:id", h.UpdateMember)
			members.DELETE("/:id", h.DeleteMember)
		}

		v1.GET("/relationships", h.ListRelationships)
		v1.POST("/relationships", h.CreateRelationship)

		v1.GET("/kinship", h.Kinship)
		v1.GET("/kinship-network", h.KinshipNetwork)
	}
}
