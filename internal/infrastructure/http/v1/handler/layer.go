package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaennil/weather_maps/internal/repository/earthengine"
	"github.com/jaennil/weather_maps/internal/usecase"
)

type (
	createLayerRequest struct {
		Expression    string             `json:"expression" validate:"required"`
		Visualization visualizationInput `json:"visualization"`
	}

	visualizationInput struct {
		Range   *rangeInput `json:"range"`
		Palette []string    `json:"palette" validate:"omitempty,max=32,dive,hexcolor"`
	}

	rangeInput struct {
		Min float64 `json:"min"`
		Max float64 `json:"max" validate:"gtfield=Min"`
	}

	daymetQuery struct {
		Date string `form:"date" validate:"omitempty,datetime=2006-01-02"`
		Band string `form:"band" validate:"omitempty,oneof=tavg tmin tmax"`
	}

	layerResponse struct {
		URLTemplate string `json:"urlTemplate"`
		Proxied     bool   `json:"proxied"`
	}
)

func (r createLayerRequest) toCompute() earthengine.ComputeRequest {
	req := earthengine.ComputeRequest{
		Expression: earthengine.Expression{Expression: r.Expression},
		Visualization: earthengine.Visualization{
			Palette: r.Visualization.Palette,
		},
	}
	if r.Visualization.Range != nil {
		req.Visualization.Range = &earthengine.Range{
			Min: r.Visualization.Range.Min,
			Max: r.Visualization.Range.Max,
		}
	}
	return req
}

// TemperatureLayer returns a tile URL template for the default temperature map.
func (h *Handler) TemperatureLayer(c *gin.Context) {
	layer, err := h.layerUseCase.CreateLayer(c.Request.Context(), usecase.TemperatureRequest())
	if err != nil {
		h.respondLayerError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "layer created", layerResponse{
		URLTemplate: layer.URLTemplate,
		Proxied:     layer.Proxied,
	})
}

// DaymetLayer returns a tile URL template for one day of Daymet V4
// temperature. Query: date=YYYY-MM-DD, band=tavg|tmin|tmax.
func (h *Handler) DaymetLayer(c *gin.Context) {
	l := loggerFrom(c)

	var q daymetQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		l.Debug("invalid daymet query", "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, ErrFailedToDecodeRequestBody.Error(), nil)
		return
	}
	q.Band = strings.ToLower(q.Band)

	if err := h.validate.Struct(q); err != nil {
		h.RespondWithJSON(c, http.StatusUnprocessableEntity, ErrValidationFailed.Error(), validationErrors(err))
		return
	}

	if q.Date == "" {
		q.Date = usecase.DefaultDaymetDate
	}
	day, err := time.Parse(time.DateOnly, q.Date)
	if err != nil {
		h.RespondWithJSON(c, http.StatusUnprocessableEntity, ErrValidationFailed.Error(), map[string]string{"date": "datetime"})
		return
	}

	req, err := usecase.DaymetRequest(day, usecase.DaymetBand(q.Band))
	if err != nil {
		h.RespondWithJSON(c, http.StatusUnprocessableEntity, ErrValidationFailed.Error(), map[string]string{"band": "oneof"})
		return
	}

	layer, err := h.layerUseCase.CreateLayer(c.Request.Context(), req)
	if err != nil {
		h.respondLayerError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "layer created", layerResponse{
		URLTemplate: layer.URLTemplate,
		Proxied:     layer.Proxied,
	})
}

func (h *Handler) CreateLayer(c *gin.Context) {
	l := loggerFrom(c)

	var req createLayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Debug("invalid layer request body", "error", err)
		h.RespondWithJSON(c, http.StatusBadRequest, ErrFailedToDecodeRequestBody.Error(), nil)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.RespondWithJSON(c, http.StatusUnprocessableEntity, ErrValidationFailed.Error(), validationErrors(err))
		return
	}

	layer, err := h.layerUseCase.CreateLayer(c.Request.Context(), req.toCompute())
	if err != nil {
		h.respondLayerError(c, err)
		return
	}

	h.RespondWithJSON(c, http.StatusCreated, "layer created", layerResponse{
		URLTemplate: layer.URLTemplate,
		Proxied:     layer.Proxied,
	})
}

func (h *Handler) respondLayerError(c *gin.Context, err error) {
	l := loggerFrom(c)

	var upErr *usecase.UpstreamError
	switch {
	case errors.Is(err, usecase.ErrCredentialUnavailable):
		h.RespondWithJSON(c, http.StatusInternalServerError, usecase.ErrCredentialUnavailable.Error(), nil)
	case errors.As(err, &upErr):
		h.RespondWithJSON(c, http.StatusBadGateway, ErrMapBackend.Error(), gin.H{
			"status": upErr.StatusCode,
			"body":   upErr.Body,
		})
	case errors.Is(err, usecase.ErrUnexpectedShape):
		h.RespondWithJSON(c, http.StatusBadGateway, ErrUnexpectedMapResponse.Error(), nil)
	default:
		l.Error("failed to create layer", "error", err)
		h.RespondWithInternalServerError(c)
	}
}
