package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/usecases"
)

// insightView is the wire form of an InsightResult.
type insightView struct {
	Kind       domain.InsightKind        `json:"kind"`
	Message    string                    `json:"message"`
	Structured *domain.StructuredInsight `json:"structured,omitempty"`
	Text       string                    `json:"text,omitempty"`
	Reason     string                    `json:"reason,omitempty"`
}

func newInsightView(r domain.InsightResult, debug bool) insightView {
	v := insightView{
		Kind:       r.Kind,
		Message:    r.Message(),
		Structured: r.Structured,
		Text:       r.Text,
	}
	if debug {
		v.Reason = r.Reason
	}
	return v
}

type optimizeRequest struct {
	Origin          string `json:"origin" validate:"required"`
	Destination     string `json:"destination" validate:"required"`
	Mode            string `json:"mode"`
	AvoidHighways   bool   `json:"avoid_highways"`
	AvoidTolls      bool   `json:"avoid_tolls"`
	OriginName      string `json:"origin_name" validate:"max=200"`
	DestinationName string `json:"destination_name" validate:"max=200"`
}

type optimizeResponse struct {
	PrimaryRoute domain.RouteCandidate   `json:"primary_route"`
	Alternatives []domain.RouteCandidate `json:"alternatives"`
	Insight      insightView             `json:"insight"`
	AIInsights   string                  `json:"ai_insights"`
	SavedRouteID string                  `json:"saved_route_id"`
}

// OptimizeRouteHandler fetches, advises on and saves a route between two points.
func OptimizeRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body optimizeRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		origin, err := domain.ParseGeoPoint(body.Origin)
		if err != nil {
			return respondError(c, deps, err)
		}
		destination, err := domain.ParseGeoPoint(body.Destination)
		if err != nil {
			return respondError(c, deps, err)
		}
		mode, err := domain.ParseTravelMode(body.Mode)
		if err != nil {
			return respondError(c, deps, err)
		}

		res, err := deps.Routes.Optimize(c.UserContext(), UserID(c), usecases.OptimizeRequest{
			Query: domain.RouteQuery{
				Origin:      origin,
				Destination: destination,
				Mode:        mode,
				Avoid:       domain.Avoid{Highways: body.AvoidHighways, Tolls: body.AvoidTolls},
				Anonymize:   wantsAnonymize(c, deps),
			},
			OriginName:      body.OriginName,
			DestinationName: body.DestinationName,
		})
		if err != nil {
			return respondError(c, deps, err)
		}

		return c.JSON(optimizeResponse{
			PrimaryRoute: res.Primary,
			Alternatives: res.Alternatives,
			Insight:      newInsightView(res.Insight, deps.Debug),
			AIInsights:   res.Insight.Message(),
			SavedRouteID: res.SavedID,
		})
	}
}

type simulateRequest struct {
	StartPlaceID string `json:"startPlaceId"`
	EndPlaceID   string `json:"endPlaceId"`
	Mode         string `json:"mode"`
	StartName    string `json:"start_location_name"`
	EndName      string `json:"end_location_name"`
}

type simulateRoute struct {
	OverviewPolyline struct {
		Points string `json:"points"`
	} `json:"overview_polyline"`
	Distance struct {
		Value int `json:"value"`
	} `json:"distance"`
	Duration struct {
		Value int `json:"value"`
	} `json:"duration"`
}

// SimulateRouteHandler routes between two provider place IDs without saving.
func SimulateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body simulateRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "Invalid request body format.")
		}

		var mode domain.TravelMode
		if body.Mode != "" {
			m, err := domain.ParseTravelMode(body.Mode)
			if err != nil {
				return respondError(c, deps, err)
			}
			mode = m
		}

		res, err := deps.Routes.Simulate(c.UserContext(), usecases.SimulateRequest{
			StartPlaceID: body.StartPlaceID,
			EndPlaceID:   body.EndPlaceID,
			Mode:         mode,
			StartName:    body.StartName,
			EndName:      body.EndName,
			Anonymize:    wantsAnonymize(c, deps),
		})
		if err != nil {
			return respondError(c, deps, err)
		}

		var route simulateRoute
		route.OverviewPolyline.Points = res.Route.EncodedPath
		route.Distance.Value = res.Route.DistanceMeters
		route.Duration.Value = res.Route.DurationSeconds

		return c.JSON(fiber.Map{
			"route":       route,
			"insight":     newInsightView(res.Insight, deps.Debug),
			"ai_insights": res.Insight.Message(),
			"status":      "success",
		})
	}
}

// InsufficientInsightData is returned instead of advice when the route facts are unusable.
const InsufficientInsightData = "Cannot provide insights due to missing or invalid route data."

type insightsRequest struct {
	StartLocation string `json:"start_location"`
	EndLocation   string `json:"end_location"`
	TransportMode string `json:"transport_mode"`
	Distance      any    `json:"distance"`
	Duration      any    `json:"duration"`
}

// InsightsHandler generates advice for caller-supplied route facts.
func InsightsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body insightsRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		log := LoggerFromCtx(c.UserContext())
		distance, ok := parseDistance(body.Distance)
		if !ok {
			log.Warn("could not parse distance", "distance", body.Distance)
		}
		duration, ok := parseDuration(body.Duration)
		if !ok {
			log.Warn("could not parse duration", "duration", body.Duration)
		}

		if body.StartLocation == "" || body.EndLocation == "" || (isZero(distance) && isZero(duration)) {
			log.Warn("insufficient route data for insights")
			return c.JSON(fiber.Map{"insights": InsufficientInsightData})
		}

		// Unknown modes are described to the model by their own label.
		mode, err := domain.ParseTravelMode(body.TransportMode)
		if err != nil {
			log.Info("unrecognised transport mode for insights", "transport_mode", body.TransportMode)
			mode = domain.TravelMode(strings.ToLower(strings.TrimSpace(body.TransportMode)))
		}

		res := deps.Insights.Generate(c.UserContext(), domain.InsightRequest{
			OriginLabel:      body.StartLocation,
			DestinationLabel: body.EndLocation,
			Mode:             mode,
			DistanceMeters:   distance,
			DurationSeconds:  duration,
		})
		return c.JSON(fiber.Map{
			"insights": res.Message(),
			"insight":  newInsightView(res, deps.Debug),
		})
	}
}

func isZero(v *float64) bool { return v == nil || *v == 0 }

type weatherRequest struct {
	Lat any `json:"lat"`
	Lon any `json:"lon"`
}

// WeatherHandler passes through current conditions for a point.
func WeatherHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body weatherRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		lat, okLat := toFloat(body.Lat)
		lon, okLon := toFloat(body.Lon)
		if !okLat || !okLon {
			return errBadRequest(c, "Latitude and longitude are required.")
		}
		p, err := domain.NewGeoPoint(lat, lon)
		if err != nil {
			return respondError(c, deps, err)
		}

		snap, err := deps.Weather.Current(c.UserContext(), p)
		if err != nil {
			var werr *domain.WeatherError
			if errors.As(err, &werr) {
				LoggerFromCtx(c.UserContext()).Error("weather fetch failed",
					"kind", string(werr.Kind), "status", werr.StatusCode, "error", err)
				msg := "weather provider unavailable"
				if deps.Debug {
					msg = err.Error()
				}
				return errBadGateway(c, msg)
			}
			return respondError(c, deps, err)
		}

		if len(snap.Raw) > 0 {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(snap.Raw)
		}
		return c.JSON(snap)
	}
}
