// Package server exposes the bus over HTTP and WebSocket.
package server

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/hermes/internal/app"
	"github.com/nfrund/hermes/internal/handlers"
	appmiddleware "github.com/nfrund/hermes/internal/middleware"
	"github.com/nfrund/hermes/internal/websocket"
)

// Server holds the dependencies for the HTTP gateway.
type Server struct {
	E    *echo.Echo
	Deps *app.Dependencies

	bridge        *websocket.Bridge
	busHandler    *handlers.BusHandler
	topicsHandler *handlers.TopicsHandler
	ttsHandler    *handlers.TTSHandler
	audioHandler  *handlers.AudioHandler
	publishRate   float64
}

// New creates a Server on deps. The engine is not started here.
func New(deps *app.Dependencies) (*Server, error) {
	gw := deps.Config.Gateway

	whitelist, err := websocket.NewWhitelist(gw.Allow...)
	if err != nil {
		return nil, fmt.Errorf("gateway whitelist: %w", err)
	}
	bridge := websocket.NewBridge(deps.Engine, whitelist, deps.Logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger(deps.Logger))
	e.Use(middleware.Recover())

	return &Server{
		E:             e,
		Deps:          deps,
		bridge:        bridge,
		busHandler:    handlers.NewBusHandler(deps.Engine, deps.Topics, whitelist, bridge.ClientCount),
		topicsHandler: handlers.NewTopicsHandler(deps.Topics),
		ttsHandler:    handlers.NewTTSHandler(deps.Client, deps.Config.SiteID),
		audioHandler:  handlers.NewAudioHandler(deps.Client, 0),
		publishRate:   gw.PublishRate,
	}, nil
}

// Bridge is a getter for the WebSocket bridge, useful for testing.
func (s *Server) Bridge() *websocket.Bridge {
	return s.bridge
}
