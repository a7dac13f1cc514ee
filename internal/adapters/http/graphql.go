package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	stationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Station",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"address":  &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	shelterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Shelter",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"street_address": &graphql.Field{Type: graphql.String},
			"city":           &graphql.Field{Type: graphql.String},
			"state":          &graphql.Field{Type: graphql.String},
			"zip":            &graphql.Field{Type: graphql.String},
			"location":       &graphql.Field{Type: geoPointType},
		},
	})

	hydrantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Hydrant",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	hazardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Hazard",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"intensity":   &graphql.Field{Type: graphql.Float},
			"confidence":  &graphql.Field{Type: graphql.String},
			"detected_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	alertType := graphql.NewObject(graphql.ObjectConfig{
		Name: "WeatherAlert",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"event":    &graphql.Field{Type: graphql.String},
			"severity": &graphql.Field{Type: graphql.String},
			"headline": &graphql.Field{Type: graphql.String},
			"area":     &graphql.Field{Type: graphql.String},
			"sent":     &graphql.Field{Type: graphql.DateTime},
			"expires":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	avoidRegionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AvoidRegion",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"hazard_id": &graphql.Field{Type: graphql.String},
			"ring":      &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"path":            &graphql.Field{Type: graphql.NewList(geoPointType)},
			"distance_meters": &graphql.Field{Type: graphql.Float},
		},
	})

	routePlanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoutePlan",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"address":       &graphql.Field{Type: graphql.String},
			"origin":        &graphql.Field{Type: geoPointType},
			"shelter":       &graphql.Field{Type: shelterType},
			"avoid_regions": &graphql.Field{Type: graphql.NewList(avoidRegionType)},
			"route":         &graphql.Field{Type: routeType},
			"planned_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	assignmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Assignment",
		Fields: graphql.Fields{
			"station": &graphql.Field{Type: stationType},
			"hazard":  &graphql.Field{Type: hazardType},
			"score":   &graphql.Field{Type: graphql.Float},
		},
	})

	deploymentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DeploymentRun",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.String},
			"assignments":        &graphql.Field{Type: graphql.NewList(assignmentType)},
			"active_hazards":     &graphql.Field{Type: graphql.Int},
			"assigned_hazards":   &graphql.Field{Type: graphql.Int},
			"unassigned_hazards": &graphql.Field{Type: graphql.Int},
			"idle_stations":      &graphql.Field{Type: graphql.Int},
			"generated_at":       &graphql.Field{Type: graphql.DateTime},
		},
	})

	snapshotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Snapshot",
		Fields: graphql.Fields{
			"kind":       &graphql.Field{Type: graphql.String},
			"count":      &graphql.Field{Type: graphql.Int},
			"dropped":    &graphql.Field{Type: graphql.Int},
			"fetched_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stations": &graphql.Field{
				Type:        graphql.NewList(stationType),
				Description: "Current fire stations",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Entities.Stations(p.Context)
				},
			},
			"shelters": &graphql.Field{
				Type:        graphql.NewList(shelterType),
				Description: "Current emergency shelters",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Entities.Shelters(p.Context)
				},
			},
			"hydrants": &graphql.Field{
				Type:        graphql.NewList(hydrantType),
				Description: "Current fire hydrants",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Entities.Hydrants(p.Context)
				},
			},
			"hazards": &graphql.Field{
				Type:        graphql.NewList(hazardType),
				Description: "Active fire detections",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Entities.Hazards(p.Context)
				},
			},
			"alerts": &graphql.Field{
				Type:        graphql.NewList(alertType),
				Description: "Active fire-weather alerts",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Entities.Alerts(p.Context)
				},
			},
			"snapshots": &graphql.Field{
				Type:        graphql.NewList(snapshotType),
				Description: "Last refresh per snapshot kind",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Entities.Meta(p.Context)
				},
			},
			"nearestShelter": &graphql.Field{
				Type:        shelterType,
				Description: "Shelter closest to a location",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					origin := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Entities.NearestShelter(p.Context, origin)
				},
			},
			"avoidRegions": &graphql.Field{
				Type:        graphql.NewList(avoidRegionType),
				Description: "Avoid polygons around the most intense hazards",
				Args: graphql.FieldConfigArgument{
					"shape":    &graphql.ArgumentConfig{Type: graphql.String},
					"radiusKm": &graphql.ArgumentConfig{Type: graphql.Float},
					"max":      &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var opts geospatial.AvoidOptions
					if shape, ok := p.Args["shape"].(string); ok {
						switch s := domain.AvoidShape(shape); s {
						case domain.ShapeCircle, domain.ShapeBox:
							opts.Shape = s
						default:
							return nil, domain.InputError("unknown shape %q", shape)
						}
					}
					if r, ok := p.Args["radiusKm"].(float64); ok {
						opts.RadiusKm = r
					}
					if n, ok := p.Args["max"].(int); ok {
						opts.MaxCount = n
					}
					return deps.Entities.AvoidRegions(p.Context, opts)
				},
			},
			"deployment": &graphql.Field{
				Type:        deploymentType,
				Description: "Run the truck deployment simulation",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Deployments.Optimal(p.Context)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"planRoute": &graphql.Field{
				Type:        routePlanType,
				Description: "Route from an address to the nearest shelter avoiding active fires",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Planner == nil {
						return nil, fmt.Errorf("route planning is not configured")
					}
					return deps.Planner.PlanRoute(p.Context, p.Args["address"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
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
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
