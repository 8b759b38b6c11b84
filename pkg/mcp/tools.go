package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	contractx "github.com/marisburan/voyago/agent/contract"
	toolx "github.com/marisburan/voyago/agent/tool"
)

// registerTools registers the travel tool catalog on the MCP server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.searchFlightsTool(),
		s.getPaymentMethodsTool(),
		s.getCardBenefitsTool(),
		s.reserveFlightTool(),
		s.confirmReservationTool(),
	)
}

func (s *Server) searchFlightsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(toolx.ToolSearchFlights,
		mcplib.WithDescription("Search for available flights between two airports by IATA code"),
		mcplib.WithString("origin",
			mcplib.Required(),
			mcplib.Description("IATA airport code for departure, e.g. 'JFK'"),
		),
		mcplib.WithString("destination",
			mcplib.Required(),
			mcplib.Description("IATA airport code for arrival, e.g. 'LHR'"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.dispatch(toolx.ToolSearchFlights)}
}

func (s *Server) getPaymentMethodsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(toolx.ToolGetPaymentMethods,
		mcplib.WithDescription("Retrieve the payment methods available in a user's wallet"),
		mcplib.WithString("userId",
			mcplib.Required(),
			mcplib.Description("Unique identifier for the user, e.g. 'user1'"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.dispatch(toolx.ToolGetPaymentMethods)}
}

func (s *Server) getCardBenefitsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(toolx.ToolGetCardBenefits,
		mcplib.WithDescription("Look up benefit sheets for one or more cards"),
		mcplib.WithArray("cardIds",
			mcplib.Required(),
			mcplib.Description("Card ids to fetch benefits for"),
			mcplib.Items(map[string]any{"type": "string"}),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.dispatch(toolx.ToolGetCardBenefits)}
}

func (s *Server) reserveFlightTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(toolx.ToolReserveFlight,
		mcplib.WithDescription("Hold a flight with the booking backend; the reservation stays PENDING until confirmed"),
		mcplib.WithString("departureAirportCode",
			mcplib.Required(),
			mcplib.Description("IATA code of the departure airport"),
		),
		mcplib.WithString("destinationAirportCode",
			mcplib.Required(),
			mcplib.Description("IATA code of the arrival airport"),
		),
		mcplib.WithString("departureDate",
			mcplib.Required(),
			mcplib.Description("Departure date/time in ISO 8601"),
		),
		mcplib.WithString("arrivalDate",
			mcplib.Required(),
			mcplib.Description("Arrival date/time in ISO 8601"),
		),
		mcplib.WithNumber("numberOfPassengers",
			mcplib.Required(),
			mcplib.Description("Total passenger count"),
		),
		mcplib.WithString("paymentMethod",
			mcplib.Required(),
			mcplib.Description("Identifier of the payment method to charge"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.dispatch(toolx.ToolReserveFlight)}
}

func (s *Server) confirmReservationTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(toolx.ToolConfirmReservation,
		mcplib.WithDescription("Commit a pending reservation by its reservationId"),
		mcplib.WithString("reservationId",
			mcplib.Required(),
			mcplib.Description("Identifier of the reservation to confirm"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.dispatch(toolx.ToolConfirmReservation)}
}

// dispatch adapts an MCP tool call onto the shared dispatcher. Tool-level
// failures come back as MCP error results carrying the tagged error, never
// as transport errors.
func (s *Server) dispatch(tool string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		result := s.dispatcher.Dispatch(ctx, contractx.ToolRequest{
			Tool: tool,
			Args: req.GetArguments(),
		})

		if !result.OK {
			data, err := json.Marshal(result.Err)
			if err != nil {
				return mcplib.NewToolResultError(result.Err.Error()), nil
			}
			return mcplib.NewToolResultError(string(data)), nil
		}

		data, err := json.Marshal(result.Data)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("marshal tool result", err), nil
		}
		return mcplib.NewToolResultText(string(data)), nil
	}
}
