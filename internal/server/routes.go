package server

import (
	appmiddleware "github.com/nfrund/hermes/internal/middleware"
)

// RegisterRoutes sets up all the gateway routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := appmiddleware.RateLimiter(s.publishRate)

	s.E.GET("/health", s.busHandler.Health)
	s.E.GET("/ws", s.bridge.Handler())

	api := s.E.Group("/api")
	api.GET("/topics", s.topicsHandler.List)
	api.GET("/topics/resolve", s.topicsHandler.Resolve)
	api.POST("/publish/*", s.busHandler.Publish, rateLimiter)
	api.POST("/tts/say", s.ttsHandler.Say, rateLimiter)
	api.POST("/audio/:siteId/play", s.audioHandler.Play, rateLimiter)
}
