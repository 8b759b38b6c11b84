package tool

import (
	"context"
	"testing"

	bookingx "github.com/marisburan/voyago/agent/booking"
	contractx "github.com/marisburan/voyago/agent/contract"
	checkoutx "github.com/marisburan/voyago/pkg/checkout"
)

type fakeBackend struct {
	reserveResp *checkoutx.BookingResponse
	confirmResp *checkoutx.BookingResponse
}

func (f *fakeBackend) Reserve(_ context.Context, _ checkoutx.ReserveRequest) (*checkoutx.BookingResponse, error) {
	return f.reserveResp, nil
}

func (f *fakeBackend) Confirm(_ context.Context, _ string) (*checkoutx.BookingResponse, error) {
	return f.confirmResp, nil
}

func newTestDispatcher() *Dispatcher {
	backend := &fakeBackend{
		reserveResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "PENDING"},
		confirmResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "CONFIRMED"},
	}
	return NewDispatcher(bookingx.NewEngine(backend, bookingx.NewStore()))
}

func TestToolInfosStableOrder(t *testing.T) {
	t.Parallel()

	infos := newTestDispatcher().ToolInfos()
	want := []string{
		ToolConfirmReservation,
		ToolGetCardBenefits,
		ToolGetPaymentMethods,
		ToolReserveFlight,
		ToolSearchFlights,
	}
	if len(infos) != len(want) {
		t.Fatalf("expected %d tool infos, got %d", len(want), len(infos))
	}
	for i, name := range want {
		if infos[i].Name != name {
			t.Fatalf("tool %d: expected %s, got %s", i, name, infos[i].Name)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	t.Parallel()

	res := newTestDispatcher().Dispatch(context.Background(), contractx.ToolRequest{Tool: "teleport"})
	if res.OK {
		t.Fatal("expected failure for unknown tool")
	}
	if res.Err.Kind != contractx.KindUnknownTool {
		t.Fatalf("expected UNKNOWN_TOOL, got %s", res.Err.Kind)
	}
	if res.Err.Details["requested_tool"] != "teleport" {
		t.Fatalf("unexpected details: %#v", res.Err.Details)
	}
}

func TestDispatchInvalidArgumentsNamesFields(t *testing.T) {
	t.Parallel()

	res := newTestDispatcher().Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolSearchFlights,
		Args: map[string]any{"origin": "JFK"},
	})
	if res.OK {
		t.Fatal("expected failure for missing destination")
	}
	if res.Err.Kind != contractx.KindInvalidArguments {
		t.Fatalf("expected INVALID_ARGUMENTS, got %s", res.Err.Kind)
	}
	fields, ok := res.Err.Details["fields"].([]string)
	if !ok || len(fields) != 1 || fields[0] != "destination" {
		t.Fatalf("unexpected offending fields: %#v", res.Err.Details)
	}
}

func TestDispatchSearchFlights(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()

	res := d.Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolSearchFlights,
		Args: map[string]any{"origin": "JFK", "destination": "LHR"},
	})
	if !res.OK {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	flights, ok := res.Data["flights"].([]Flight)
	if !ok || len(flights) != 4 {
		t.Fatalf("expected 4 flights, got %#v", res.Data)
	}

	res = d.Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolSearchFlights,
		Args: map[string]any{"origin": "JFK", "destination": "NRT"},
	})
	if res.OK || res.Err.Kind != contractx.KindRouteNotFound {
		t.Fatalf("expected ROUTE_NOT_FOUND, got %+v", res)
	}
}

func TestDispatchGetPaymentMethods(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()

	res := d.Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolGetPaymentMethods,
		Args: map[string]any{"userId": "user1"},
	})
	if !res.OK {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	methods, ok := res.Data["paymentMethods"].([]PaymentMethod)
	if !ok || len(methods) != 2 {
		t.Fatalf("expected 2 payment methods, got %#v", res.Data)
	}

	res = d.Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolGetPaymentMethods,
		Args: map[string]any{"userId": "user99"},
	})
	if res.OK || res.Err.Kind != contractx.KindUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND, got %+v", res)
	}
}

func TestDispatchGetCardBenefits(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()

	res := d.Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolGetCardBenefits,
		Args: map[string]any{"cardIds": []any{"sapphire_preferred", "freedom"}},
	})
	if !res.OK {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	cards, ok := res.Data["cards"].([]CardBenefits)
	if !ok || len(cards) != 2 {
		t.Fatalf("expected 2 benefit sheets, got %#v", res.Data)
	}

	res = d.Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolGetCardBenefits,
		Args: map[string]any{"cardIds": []any{"platinum"}},
	})
	if res.OK || res.Err.Kind != contractx.KindInvalidCardIDs {
		t.Fatalf("expected INVALID_CARD_IDS, got %+v", res)
	}

	res = d.Dispatch(context.Background(), contractx.ToolRequest{
		Tool: ToolGetCardBenefits,
		Args: map[string]any{"cardIds": []any{}},
	})
	if res.OK || res.Err.Kind != contractx.KindInvalidCardIDs {
		t.Fatalf("expected INVALID_CARD_IDS for empty list, got %+v", res)
	}
}

func TestDispatchBookingRoundTrip(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()
	ctx := context.Background()

	res := d.Dispatch(ctx, contractx.ToolRequest{
		Tool: ToolReserveFlight,
		Args: map[string]any{
			"departureAirportCode":   "JFK",
			"destinationAirportCode": "LHR",
			"departureDate":          "2025-06-04T00:00:00.000Z",
			"arrivalDate":            "2025-06-05T00:00:00.000Z",
			"numberOfPassengers":     float64(1), // JSON numbers decode as float64
			"paymentMethod":          "pm-123",
		},
	})
	if !res.OK {
		t.Fatalf("reserve failed: %v", res.Err)
	}
	if res.Data["reservationId"] != "R1" || res.Data["reservationStatus"] != "PENDING" {
		t.Fatalf("unexpected reserve payload: %#v", res.Data)
	}

	res = d.Dispatch(ctx, contractx.ToolRequest{
		Tool: ToolConfirmReservation,
		Args: map[string]any{"reservationId": "R1"},
	})
	if !res.OK {
		t.Fatalf("confirm failed: %v", res.Err)
	}
	if res.Data["reservationStatus"] != "CONFIRMED" {
		t.Fatalf("unexpected confirm payload: %#v", res.Data)
	}

	// Saga errors pass through the dispatcher unchanged.
	res = d.Dispatch(ctx, contractx.ToolRequest{
		Tool: ToolConfirmReservation,
		Args: map[string]any{"reservationId": "R1"},
	})
	if res.OK || res.Err.Kind != contractx.KindNotPending {
		t.Fatalf("expected NOT_PENDING pass-through, got %+v", res)
	}
	if res.Err.Details["current_status"] != "CONFIRMED" {
		t.Fatalf("expected current_status detail, got %#v", res.Err.Details)
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestDispatcher().Dispatch(ctx, contractx.ToolRequest{
		Tool: ToolSearchFlights,
		Args: map[string]any{"origin": "JFK", "destination": "LHR"},
	})
	if res.OK {
		t.Fatal("expected failure on cancelled context")
	}
	if res.Err.Kind != contractx.KindInternal {
		t.Fatalf("expected INTERNAL, got %s", res.Err.Kind)
	}
}
