package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/zimroute/internal/core/domain"
)

const userIDKey ctxKey = "user_id"

func gqlUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return DevUserID
}

// gqlError hides error causes outside debug mode.
func gqlError(deps *Dependencies, err error) error {
	if deps.Debug {
		return err
	}
	return errors.New(domain.MessageOf(err))
}

func pointMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lng": p.Lng}
}

func recordMap(r *domain.RouteRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":          r.ID,
		"origin":      pointMap(r.Origin),
		"destination": pointMap(r.Destination),
		"mode":        string(r.Mode),
		"distance":    r.DistanceMeters,
		"duration":    r.DurationSeconds,
		"polyline":    r.EncodedPath,
		"insight":     r.Insight.Message(),
		"insightKind": string(r.Insight.Kind),
		"createdAt":   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	savedRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SavedRoute",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"origin":      &graphql.Field{Type: geoPointType},
			"destination": &graphql.Field{Type: geoPointType},
			"mode":        &graphql.Field{Type: graphql.String},
			"distance":    &graphql.Field{Type: graphql.Int, Description: "meters"},
			"duration":    &graphql.Field{Type: graphql.Int, Description: "seconds"},
			"polyline":    &graphql.Field{Type: graphql.String},
			"insight":     &graphql.Field{Type: graphql.String},
			"insightKind": &graphql.Field{Type: graphql.String},
			"createdAt":   &graphql.Field{Type: graphql.String},
		},
	})

	weatherType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Weather",
		Fields: graphql.Fields{
			"location":     &graphql.Field{Type: graphql.String},
			"temperatureC": &graphql.Field{Type: graphql.Float},
			"feelsLikeC":   &graphql.Field{Type: graphql.Float},
			"conditions":   &graphql.Field{Type: graphql.String},
			"description":  &graphql.Field{Type: graphql.String},
			"humidity":     &graphql.Field{Type: graphql.Int},
			"windSpeedMs":  &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"savedRoutes": &graphql.Field{
				Type:        graphql.NewList(savedRouteType),
				Description: "The caller's saved routes, newest first",
				Args: graphql.FieldConfigArgument{
					"mode":   &graphql.ArgumentConfig{Type: graphql.String},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					filter := domain.RouteFilter{
						Offset: p.Args["offset"].(int),
						Limit:  p.Args["limit"].(int),
					}
					if raw, ok := p.Args["mode"].(string); ok && raw != "" {
						m, err := domain.ParseTravelMode(raw)
						if err != nil {
							return nil, gqlError(deps, err)
						}
						filter.Mode = m
					}
					recs, _, err := deps.Routes.History(p.Context, gqlUserID(p.Context), filter)
					if err != nil {
						return nil, gqlError(deps, err)
					}
					out := make([]map[string]interface{}, 0, len(recs))
					for i := range recs {
						out = append(out, recordMap(&recs[i]))
					}
					return out, nil
				},
			},
			"savedRoute": &graphql.Field{
				Type:        savedRouteType,
				Description: "One of the caller's saved routes",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rec, err := deps.Routes.Get(p.Context, gqlUserID(p.Context), p.Args["id"].(string))
					if err != nil {
						if domain.KindOf(err) == domain.KindNotFound {
							return nil, nil
						}
						return nil, gqlError(deps, err)
					}
					return recordMap(rec), nil
				},
			},
			"weather": &graphql.Field{
				Type:        weatherType,
				Description: "Current conditions at a point",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Weather == nil {
						return nil, domain.Internal("weather is not configured", nil)
					}
					pt, err := domain.NewGeoPoint(p.Args["lat"].(float64), p.Args["lon"].(float64))
					if err != nil {
						return nil, gqlError(deps, err)
					}
					snap, err := deps.Weather.Current(p.Context, pt)
					if err != nil {
						return nil, gqlError(deps, err)
					}
					return map[string]interface{}{
						"location":     snap.Location,
						"temperatureC": snap.TemperatureC,
						"feelsLikeC":   snap.FeelsLikeC,
						"conditions":   snap.Conditions,
						"description":  snap.Description,
						"humidity":     snap.Humidity,
						"windSpeedMs":  snap.WindSpeedMS,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the read-only GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		ctx := context.WithValue(c.UserContext(), userIDKey, UserID(c))
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})
		if result.HasErrors() {
			LoggerFromCtx(ctx).Warn("graphql errors", "count", len(result.Errors))
		}

		return c.JSON(result)
	}
}
