package tool

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// Flight is one bookable flight on a route.
type Flight struct {
	Airline       string  `json:"airline"`
	FlightNumber  string  `json:"flight_number"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Price         float64 `json:"price"`
	Class         string  `json:"class"`
}

// Mock inventory keyed by "ORIGIN-DESTINATION".
var flightsByRoute = map[string][]Flight{
	"JFK-LHR": {
		{Airline: "British Airways", FlightNumber: "BA178", DepartureTime: "10:00", ArrivalTime: "22:00", Price: 800.00, Class: "economy"},
		{Airline: "American Airlines", FlightNumber: "AA100", DepartureTime: "11:00", ArrivalTime: "23:00", Price: 850.00, Class: "economy"},
		{Airline: "United Airlines", FlightNumber: "UA880", DepartureTime: "12:00", ArrivalTime: "00:00", Price: 900.00, Class: "economy"},
		{Airline: "Delta", FlightNumber: "DL400", DepartureTime: "13:00", ArrivalTime: "01:00", Price: 950.00, Class: "economy"},
	},
}

func flightSearchInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolSearchFlights,
		Desc: "Search for available flights between two airports by IATA code.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"origin":      {Type: schema.String, Desc: "IATA airport code for departure, e.g. 'JFK'", Required: true},
			"destination": {Type: schema.String, Desc: "IATA airport code for arrival, e.g. 'LHR'", Required: true},
		}),
	}
}

func handleSearchFlights(_ context.Context, args map[string]any) (map[string]any, *contractx.Error) {
	r := newArgReader(args)
	origin := r.String("origin")
	destination := r.String("destination")
	if err := r.Err(); err != nil {
		return nil, err
	}

	route := fmt.Sprintf("%s-%s", origin, destination)
	flights, ok := flightsByRoute[route]
	if !ok {
		return nil, contractx.NewErrorWithDetails(contractx.KindRouteNotFound,
			map[string]any{"invalid_route": route, "available_routes": knownRoutes()},
			"no flights found for route %s", route)
	}

	return map[string]any{"flights": flights}, nil
}

func knownRoutes() []string {
	routes := make([]string, 0, len(flightsByRoute))
	for route := range flightsByRoute {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}
