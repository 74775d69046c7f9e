// Package api serves the timesheet over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
)

// Router wires handlers and authentication into a gin engine.
type Router struct {
	handler *Handler
	tokens  *TokenService
}

func NewRouter(handler *Handler, tokens *TokenService) *Router {
	return &Router{handler: handler, tokens: tokens}
}

// Setup returns the configured engine. environment is "production",
// "test" or anything else for debug mode.
func (r *Router) Setup(environment string) *gin.Engine {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if environment != "test" {
		engine.Use(gin.Logger())
	}

	engine.GET("/health", r.handler.Health)

	api := engine.Group("/api", r.tokens.Authenticate())
	{
		api.GET("/timesheet", r.handler.Timesheet)
		api.GET("/timesheet/export.csv", r.handler.ExportCSV)
		api.POST("/entries", r.handler.CreateEntry)
		api.PUT("/entries/:id", r.handler.UpdateEntry)
		api.DELETE("/entries/:id", r.handler.DeleteEntry)
		api.GET("/projects", r.handler.Projects)
	}
	return engine
}
