package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/hermes/internal/hermes"
	"github.com/nfrund/hermes/internal/middleware"
)

// TTSHandler speaks text through the TTS component.
type TTSHandler struct {
	client      *hermes.Client
	defaultSite string
}

func NewTTSHandler(client *hermes.Client, defaultSite string) *TTSHandler {
	return &TTSHandler{client: client, defaultSite: defaultSite}
}

// Say handles POST /api/tts/say. With wait set it blocks until sayFinished.
func (h *TTSHandler) Say(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req SayRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request format.")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	if req.SiteID == "" {
		req.SiteID = h.defaultSite
	}

	msg := hermes.Say{
		SiteID:    req.SiteID,
		SessionID: req.SessionID,
		Text:      req.Text,
		Lang:      req.Lang,
	}

	if !req.Wait {
		id, err := h.client.TTS.Say(ctx, msg)
		if err != nil {
			logger.Error("Failed to publish say", "error", err)
			return busError(c, err)
		}
		return c.JSON(http.StatusAccepted, RequestResponse{ID: id})
	}

	finished, err := h.client.TTS.SayAndWait(ctx, msg, 0)
	if err != nil {
		logger.Warn("Say request did not finish", "site_id", req.SiteID, "error", err)
		return busError(c, err)
	}
	return c.JSON(http.StatusOK, RequestResponse{ID: finished.ID, Finished: true})
}
