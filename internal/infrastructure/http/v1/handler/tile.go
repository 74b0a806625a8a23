package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/weather_maps/internal/usecase"
)

// statusClientClosedRequest is logged when the caller went away mid-fetch.
const statusClientClosedRequest = 499

// Tile proxies one tile of a session's map. Errors are plain text: tile
// layer clients only look at the status.
func (h *Handler) Tile(c *gin.Context) {
	l := loggerFrom(c)

	sessionID := c.Param("session")
	z := c.Param("z")
	x := c.Param("x")
	y := c.Param("y")

	tile, err := h.tileProxyUseCase.GetTile(c.Request.Context(), sessionID, z, x, y)
	if err != nil {
		var upErr *usecase.UpstreamError
		switch {
		case errors.Is(err, usecase.ErrSessionNotFound):
			c.String(http.StatusNotFound, "tile session not found")
		case errors.Is(err, usecase.ErrSessionExpired):
			c.String(http.StatusGone, "tile session expired")
		case errors.Is(err, usecase.ErrCredentialUnavailable):
			c.String(http.StatusInternalServerError, usecase.ErrCredentialUnavailable.Error())
		case errors.Is(err, usecase.ErrInvalidTile):
			c.String(http.StatusBadRequest, "invalid tile coordinate")
		case errors.As(err, &upErr):
			c.String(http.StatusBadGateway, "upstream tile error: %d %s", upErr.StatusCode, upErr.Body)
		case errors.Is(err, usecase.ErrUpstreamUnreachable):
			c.String(http.StatusBadGateway, "upstream tile error: unreachable")
		case errors.Is(err, context.Canceled):
			l.Debug("client went away before tile arrived", "session", sessionID)
			c.AbortWithStatus(statusClientClosedRequest)
		default:
			l.Error("tile proxy error", "session", sessionID, "error", err)
			c.String(http.StatusInternalServerError, "tile proxy error")
		}
		return
	}
	defer tile.Body.Close()

	var extraHeaders map[string]string
	if tile.CacheControl != "" {
		extraHeaders = map[string]string{"Cache-Control": tile.CacheControl}
	}

	c.DataFromReader(http.StatusOK, tile.ContentLength, tile.ContentType, tile.Body, extraHeaders)
}
