package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"

	bookingx "github.com/marisburan/voyago/agent/booking"
	contractx "github.com/marisburan/voyago/agent/contract"
)

func reserveFlightInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolReserveFlight,
		Desc: "Hold a flight with the booking backend. The reservation stays PENDING until confirm_reservation commits it; always ask the user before confirming.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"departureAirportCode":   {Type: schema.String, Desc: "IATA code of the departure airport, e.g. 'JFK'", Required: true},
			"destinationAirportCode": {Type: schema.String, Desc: "IATA code of the arrival airport, e.g. 'LHR'", Required: true},
			"departureDate":          {Type: schema.String, Desc: "Departure date/time in ISO 8601, e.g. '2025-06-04T00:00:00.000Z'", Required: true},
			"arrivalDate":            {Type: schema.String, Desc: "Arrival date/time in ISO 8601", Required: true},
			"numberOfPassengers":     {Type: schema.Integer, Desc: "Total passenger count", Required: true},
			"paymentMethod":          {Type: schema.String, Desc: "Identifier of the payment method to charge", Required: true},
		}),
	}
}

func reserveFlightHandler(engine *bookingx.Engine) Handler {
	return func(ctx context.Context, args map[string]any) (map[string]any, *contractx.Error) {
		r := newArgReader(args)
		req := bookingx.Request{
			DepartureAirportCode:   r.String("departureAirportCode"),
			DestinationAirportCode: r.String("destinationAirportCode"),
			DepartureDate:          r.String("departureDate"),
			ArrivalDate:            r.String("arrivalDate"),
			NumberOfPassengers:     r.Int("numberOfPassengers"),
			PaymentMethod:          r.String("paymentMethod"),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}

		res, err := engine.Reserve(ctx, req)
		if err != nil {
			return nil, contractx.AsError(err)
		}
		return map[string]any{
			"reservationId":     res.ID,
			"reservationStatus": string(res.State),
		}, nil
	}
}

func confirmReservationInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolConfirmReservation,
		Desc: "Commit a pending reservation using the reservationId returned by reserve_flight.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"reservationId": {Type: schema.String, Desc: "Identifier of the reservation to confirm", Required: true},
		}),
	}
}

func confirmReservationHandler(engine *bookingx.Engine) Handler {
	return func(ctx context.Context, args map[string]any) (map[string]any, *contractx.Error) {
		r := newArgReader(args)
		reservationID := r.String("reservationId")
		if err := r.Err(); err != nil {
			return nil, err
		}

		res, err := engine.Confirm(ctx, reservationID)
		if err != nil {
			return nil, contractx.AsError(err)
		}
		return map[string]any{
			"reservationId":     res.ID,
			"reservationStatus": string(res.State),
		}, nil
	}
}
