package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/weather_maps/internal/usecase"
	"github.com/jaennil/weather_maps/pkg/logger"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Handler struct {
	validate         *validator.Validate
	layerUseCase     *usecase.LayerUseCase
	tileProxyUseCase *usecase.TileProxyUseCase
}

func NewHandler(v *validator.Validate, layers *usecase.LayerUseCase, tiles *usecase.TileProxyUseCase) *Handler {
	return &Handler{
		validate:         v,
		layerUseCase:     layers,
		tileProxyUseCase: tiles,
	}
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context) {
	h.RespondWithJSON(c, http.StatusInternalServerError, InternalServerError.Error(), nil)
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	success := code < 400

	r := response{
		Success: success,
		Message: message,
		Data:    data,
	}

	c.JSON(code, r)
}

// loggerFrom returns the request logger set by the router middleware.
func loggerFrom(c *gin.Context) logger.Logger {
	if l, ok := c.Get("logger"); ok {
		if typed, ok := l.(logger.Logger); ok {
			return typed
		}
	}
	return logger.FromContext(c.Request.Context())
}
