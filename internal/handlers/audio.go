package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/hermes/internal/audio"
	"github.com/nfrund/hermes/internal/hermes"
	"github.com/nfrund/hermes/internal/middleware"
)

// AudioHandler plays uploaded WAV files on a site.
type AudioHandler struct {
	client      *hermes.Client
	maxFileSize int64
}

// NewAudioHandler creates an AudioHandler. A non-positive maxFileSize uses
// DefaultMaxPayload.
func NewAudioHandler(client *hermes.Client, maxFileSize int64) *AudioHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxPayload
	}
	return &AudioHandler{client: client, maxFileSize: maxFileSize}
}

// Play handles POST /api/audio/:siteId/play with the WAV in the "file"
// multipart field. ?wait=true blocks until playFinished.
func (h *AudioHandler) Play(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	req := PlayRequest{SiteID: c.Param("siteId")}
	if v := c.QueryParam("wait"); v != "" {
		wait, err := strconv.ParseBool(v)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid_request", "wait must be a boolean")
		}
		req.Wait = wait
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "missing_file", "a WAV file is required in the file field")
	}
	if fileHeader.Size > h.maxFileSize {
		return errorJSON(c, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("file size of %d bytes exceeds the limit of %d bytes", fileHeader.Size, h.maxFileSize))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal", "failed to open uploaded file")
	}
	defer src.Close()

	wav, err := io.ReadAll(src)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_body", err.Error())
	}
	if _, err := audio.Decode(wav); err != nil {
		if errors.Is(err, audio.ErrFormat) {
			return errorJSON(c, http.StatusUnsupportedMediaType, "invalid_audio", err.Error())
		}
		return errorJSON(c, http.StatusBadRequest, "invalid_audio", err.Error())
	}

	if !req.Wait {
		id, err := h.client.AudioServer.PlayBytes(ctx, req.SiteID, "", wav)
		if err != nil {
			logger.Error("Failed to publish playBytes", "site_id", req.SiteID, "error", err)
			return busError(c, err)
		}
		return c.JSON(http.StatusAccepted, RequestResponse{ID: id})
	}

	finished, err := h.client.AudioServer.PlayBytesAndWait(ctx, req.SiteID, wav, 0)
	if err != nil {
		logger.Warn("Playback did not finish", "site_id", req.SiteID, "error", err)
		return busError(c, err)
	}
	return c.JSON(http.StatusOK, RequestResponse{ID: finished.ID, Finished: true})
}
