package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractx "github.com/marisburan/voyago/agent/contract"
	checkoutx "github.com/marisburan/voyago/pkg/checkout"
)

type fakeBackend struct {
	mu           sync.Mutex
	reserveCalls int
	confirmCalls int

	reserveResp *checkoutx.BookingResponse
	reserveErr  error
	confirmResp *checkoutx.BookingResponse
	confirmErr  error

	// confirmDelay holds the confirm call open so concurrent callers pile
	// up on the per-reservation lock.
	confirmDelay time.Duration
}

func (f *fakeBackend) Reserve(_ context.Context, _ checkoutx.ReserveRequest) (*checkoutx.BookingResponse, error) {
	f.mu.Lock()
	f.reserveCalls++
	f.mu.Unlock()
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	return f.reserveResp, nil
}

func (f *fakeBackend) Confirm(_ context.Context, _ string) (*checkoutx.BookingResponse, error) {
	f.mu.Lock()
	f.confirmCalls++
	delay := f.confirmDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirmResp, nil
}

func (f *fakeBackend) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reserveCalls, f.confirmCalls
}

func validRequest() Request {
	return Request{
		DepartureAirportCode:   "JFK",
		DestinationAirportCode: "LHR",
		DepartureDate:          "2025-06-04T00:00:00.000Z",
		ArrivalDate:            "2025-06-05T00:00:00.000Z",
		NumberOfPassengers:     1,
		PaymentMethod:          "pm-123",
	}
}

func kindOf(t *testing.T, err error) contractx.Kind {
	t.Helper()
	var tagged *contractx.Error
	if !errors.As(err, &tagged) {
		t.Fatalf("expected tagged error, got %T: %v", err, err)
	}
	return tagged.Kind
}

func detailsOf(t *testing.T, err error) map[string]any {
	t.Helper()
	var tagged *contractx.Error
	if !errors.As(err, &tagged) {
		t.Fatalf("expected tagged error, got %T: %v", err, err)
	}
	return tagged.Details
}

func TestReserveValidatesBeforeBackendCall(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	engine := NewEngine(backend, NewStore())

	req := validRequest()
	req.PaymentMethod = ""

	_, err := engine.Reserve(context.Background(), req)
	if kindOf(t, err) != contractx.KindValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
	missing, ok := detailsOf(t, err)["missing_fields"].([]string)
	if !ok || len(missing) != 1 || missing[0] != "paymentMethod" {
		t.Fatalf("unexpected missing fields: %#v", detailsOf(t, err))
	}
	if reserves, _ := backend.calls(); reserves != 0 {
		t.Fatalf("backend must not be called on validation failure, got %d calls", reserves)
	}
}

func TestReserveRecordsPending(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "PENDING"},
	}
	engine := NewEngine(backend, NewStore())

	res, err := engine.Reserve(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if res.ID != "R1" || res.State != StatePending {
		t.Fatalf("unexpected reservation: %+v", res)
	}

	got, ok := engine.Get("R1")
	if !ok || got.State != StatePending {
		t.Fatalf("reservation not tracked as PENDING: %+v, ok=%v", got, ok)
	}
	if got.Request != validRequest() {
		t.Fatalf("request snapshot mutated: %+v", got.Request)
	}
}

func TestReserveBackendRejectsStatus(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveResp: &checkoutx.BookingResponse{ReservationID: "R2", ReservationStatus: "REJECTED", Message: "no seats"},
	}
	engine := NewEngine(backend, NewStore())

	_, err := engine.Reserve(context.Background(), validRequest())
	if kindOf(t, err) != contractx.KindReservationRejected {
		t.Fatalf("expected RESERVATION_REJECTED, got %v", err)
	}

	got, ok := engine.Get("R2")
	if !ok || got.State != StateFailed {
		t.Fatalf("rejected reservation should be tracked FAILED: %+v, ok=%v", got, ok)
	}
}

func TestReserveTransportFailureRecordsNothing(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveErr: contractx.NewError(contractx.KindRetryable, "backend unreachable"),
	}
	store := NewStore()
	engine := NewEngine(backend, store)

	_, err := engine.Reserve(context.Background(), validRequest())
	if kindOf(t, err) != contractx.KindRetryable {
		t.Fatalf("expected RETRYABLE, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("nothing must be recorded on transport failure, store has %d entries", store.Len())
	}
}

func TestConfirmLifecycle(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "PENDING"},
		confirmResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "CONFIRMED"},
	}
	engine := NewEngine(backend, NewStore())
	ctx := context.Background()

	res, err := engine.Reserve(ctx, validRequest())
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if res.State != StatePending {
		t.Fatalf("expected PENDING after reserve, got %s", res.State)
	}

	confirmed, err := engine.Confirm(ctx, "R1")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.State != StateConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", confirmed.State)
	}

	// Second confirm is an idempotent rejection, not a double submit.
	_, err = engine.Confirm(ctx, "R1")
	if kindOf(t, err) != contractx.KindNotPending {
		t.Fatalf("expected NOT_PENDING on second confirm, got %v", err)
	}
	if status := detailsOf(t, err)["current_status"]; status != "CONFIRMED" {
		t.Fatalf("expected current_status CONFIRMED, got %v", status)
	}
	if _, confirms := backend.calls(); confirms != 1 {
		t.Fatalf("backend confirm must run exactly once, got %d", confirms)
	}
}

func TestConfirmUnknownID(t *testing.T) {
	t.Parallel()

	engine := NewEngine(&fakeBackend{}, NewStore())

	_, err := engine.Confirm(context.Background(), "unknown-id")
	if kindOf(t, err) != contractx.KindNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestConfirmBackendDeclines(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "PENDING"},
		confirmResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "FAILED", Message: "card declined"},
	}
	engine := NewEngine(backend, NewStore())
	ctx := context.Background()

	if _, err := engine.Reserve(ctx, validRequest()); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	_, err := engine.Confirm(ctx, "R1")
	if kindOf(t, err) != contractx.KindConfirmationRejected {
		t.Fatalf("expected CONFIRMATION_REJECTED, got %v", err)
	}

	got, _ := engine.Get("R1")
	if got.State != StateFailed {
		t.Fatalf("declined confirm must leave FAILED, got %s", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != contractx.KindConfirmationRejected {
		t.Fatalf("last error not recorded: %+v", got.LastError)
	}
}

func TestConfirmRetryableKeepsPending(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "PENDING"},
		confirmErr:  contractx.NewError(contractx.KindRetryable, "timeout"),
	}
	engine := NewEngine(backend, NewStore())
	ctx := context.Background()

	if _, err := engine.Reserve(ctx, validRequest()); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	_, err := engine.Confirm(ctx, "R1")
	if kindOf(t, err) != contractx.KindRetryable {
		t.Fatalf("expected RETRYABLE, got %v", err)
	}

	got, _ := engine.Get("R1")
	if got.State != StatePending {
		t.Fatalf("retryable failure must leave PENDING, got %s", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != contractx.KindRetryable {
		t.Fatalf("last error not recorded: %+v", got.LastError)
	}

	// Retrying with the same id after the backend recovers succeeds.
	backend.mu.Lock()
	backend.confirmErr = nil
	backend.confirmResp = &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "CONFIRMED"}
	backend.mu.Unlock()

	res, err := engine.Confirm(ctx, "R1")
	if err != nil {
		t.Fatalf("Confirm() retry error = %v", err)
	}
	if res.State != StateConfirmed {
		t.Fatalf("expected CONFIRMED after retry, got %s", res.State)
	}
}

func TestConcurrentConfirmSingleWinner(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveResp:  &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "PENDING"},
		confirmResp:  &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "CONFIRMED"},
		confirmDelay: 20 * time.Millisecond,
	}
	engine := NewEngine(backend, NewStore())
	ctx := context.Background()

	if _, err := engine.Reserve(ctx, validRequest()); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := engine.Confirm(ctx, "R1")
			errs <- err
		}()
	}

	var confirmed, notPending int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			confirmed++
		case kindOf(t, err) == contractx.KindNotPending:
			notPending++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if confirmed != 1 || notPending != 1 {
		t.Fatalf("expected exactly one CONFIRMED and one NOT_PENDING, got %d/%d", confirmed, notPending)
	}
	if _, confirms := backend.calls(); confirms != 1 {
		t.Fatalf("backend confirm must run exactly once, got %d", confirms)
	}
}

func TestAbort(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		reserveResp: &checkoutx.BookingResponse{ReservationID: "R1", ReservationStatus: "PENDING"},
	}
	engine := NewEngine(backend, NewStore())
	ctx := context.Background()

	if _, err := engine.Reserve(ctx, validRequest()); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	res, err := engine.Abort(ctx, "R1")
	if err != nil {
		t.Fatalf("Abort() error = %v", err)
	}
	if res.State != StateAborted {
		t.Fatalf("expected ABORTED, got %s", res.State)
	}

	// Aborted is terminal: confirm must not reach the backend.
	_, err = engine.Confirm(ctx, "R1")
	if kindOf(t, err) != contractx.KindNotPending {
		t.Fatalf("expected NOT_PENDING after abort, got %v", err)
	}
	if _, confirms := backend.calls(); confirms != 0 {
		t.Fatalf("backend must not see confirm after abort, got %d calls", confirms)
	}

	if _, err := engine.Abort(ctx, "missing"); kindOf(t, err) != contractx.KindNotFound {
		t.Fatalf("expected NOT_FOUND for unknown abort, got %v", err)
	}
}
