package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jaennil/weather_maps/internal/credentials"
	"github.com/jaennil/weather_maps/internal/repository/earthengine"
	"github.com/jaennil/weather_maps/internal/repository/session"
	"github.com/jaennil/weather_maps/pkg/logger"
	"github.com/jaennil/weather_maps/pkg/metrics"
)

// TemperaturePalette runs from cold blue to hot red.
var TemperaturePalette = []string{
	"#081d58", "#225ea8", "#41b6c4", "#a1dab4", "#ffffcc",
	"#fed976", "#fd8d3c", "#f03b20", "#bd0026",
}

// TemperatureRequest is the default layer: the latest GFS 2 m air
// temperature, converted to Celsius.
func TemperatureRequest() earthengine.ComputeRequest {
	return earthengine.ComputeRequest{
		Expression: earthengine.Expression{
			Expression: "ImageCollection('NOAA/GFS0P25').select('temperature_2m_above_ground').sort('system:time_start', false).first().subtract(273.15)",
		},
		Visualization: earthengine.Visualization{
			Range:   &earthengine.Range{Min: -30, Max: 45},
			Palette: TemperaturePalette,
		},
	}
}

type DaymetBand string

const (
	DaymetAverage DaymetBand = "tavg"
	DaymetMin     DaymetBand = "tmin"
	DaymetMax     DaymetBand = "tmax"
)

// DefaultDaymetDate is the day shown when a client does not pick one.
const DefaultDaymetDate = "2020-07-15"

var ErrUnknownDaymetBand = errors.New("unknown daymet band")

// DaymetRequest builds a one day Daymet V4 layer. tmin and tmax select the
// band; tavg is their mean. It shares the temperature palette and range.
func DaymetRequest(day time.Time, band DaymetBand) (earthengine.ComputeRequest, error) {
	img := fmt.Sprintf("ImageCollection('NASA/ORNL/DAYMET_V4').filterDate('%s', '%s').first()",
		day.Format(time.DateOnly), day.AddDate(0, 0, 1).Format(time.DateOnly))

	var expr string
	switch band {
	case DaymetMin, DaymetMax:
		expr = fmt.Sprintf("%s.select('%s')", img, band)
	case DaymetAverage, "":
		expr = img + ".expression('(tmin + tmax) / 2').rename('tavg')"
	default:
		return earthengine.ComputeRequest{}, fmt.Errorf("%w: %q", ErrUnknownDaymetBand, band)
	}

	return earthengine.ComputeRequest{
		Expression: earthengine.Expression{Expression: expr},
		Visualization: earthengine.Visualization{
			Range:   &earthengine.Range{Min: -30, Max: 45},
			Palette: TemperaturePalette,
		},
	}, nil
}

type Layer struct {
	URLTemplate string
	// SessionID is set only for proxied layers.
	SessionID string
	Proxied   bool
}

type LayerUseCase struct {
	computer    MapComputer
	sessions    session.Store
	credentials credentials.Provider
	proxyPrefix string
	logger      logger.Logger
}

func NewLayerUseCase(computer MapComputer, sessions session.Store, creds credentials.Provider, proxyPrefix string, l logger.Logger) *LayerUseCase {
	return &LayerUseCase{
		computer:    computer,
		sessions:    sessions,
		credentials: creds,
		proxyPrefix: strings.TrimRight(proxyPrefix, "/"),
		logger:      l,
	}
}

// CreateLayer computes a map and returns a tile URL template for it. A
// public template from the backend is handed out unchanged; a resource name
// gets exactly one session and a template pointing at the tile proxy.
func (uc *LayerUseCase) CreateLayer(ctx context.Context, req earthengine.ComputeRequest) (Layer, error) {
	token, err := uc.credentials.Token(ctx)
	if err != nil {
		uc.logger.Error("failed to obtain credential for maps:compute", "error", err)
		return Layer{}, fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}

	res, err := uc.computer.ComputeMap(ctx, token.Value, req)
	if err != nil {
		if errors.Is(err, earthengine.ErrUnexpectedShape) {
			uc.logger.Error("maps:compute returned neither a template nor a map name")
		}
		return Layer{}, err
	}

	if res.PublicTemplate != "" {
		metrics.LayersCreated.WithLabelValues("public").Inc()
		uc.logger.Info("public tile template", "template", res.PublicTemplate)
		return Layer{URLTemplate: res.PublicTemplate}, nil
	}

	id, err := uc.sessions.Create(ctx, res.ResourceName)
	if err != nil {
		uc.logger.Error("failed to create tile session", "resource", res.ResourceName, "error", err)
		return Layer{}, fmt.Errorf("failed to create tile session: %w", err)
	}

	metrics.LayersCreated.WithLabelValues("proxied").Inc()
	uc.logger.Info("tile session created", "session", id, "resource", res.ResourceName)

	return Layer{
		URLTemplate: uc.proxyPrefix + "/" + id + "/{z}/{x}/{y}",
		SessionID:   id,
		Proxied:     true,
	}, nil
}
