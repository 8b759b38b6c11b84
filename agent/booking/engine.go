package booking

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/marisburan/voyago/agent/contract"
	checkoutx "github.com/marisburan/voyago/pkg/checkout"
)

// Backend is the slice of the checkout client the engine needs. The engine
// owns retry policy; the backend only classifies and surfaces failures.
type Backend interface {
	Reserve(ctx context.Context, req checkoutx.ReserveRequest) (*checkoutx.BookingResponse, error)
	Confirm(ctx context.Context, reservationID string) (*checkoutx.BookingResponse, error)
}

// Engine drives reservations through the PENDING -> {CONFIRMED, FAILED,
// ABORTED} machine, enforcing transition legality against the shared Store.
type Engine struct {
	backend Backend
	store   *Store
	log     zerolog.Logger
	now     func() time.Time
}

// NewEngine wires the engine to its backend and an exclusively-owned store.
func NewEngine(backend Backend, store *Store) *Engine {
	if store == nil {
		store = NewStore()
	}
	return &Engine{
		backend: backend,
		store:   store,
		log:     log.With().Str("component", "booking").Logger(),
		now:     time.Now,
	}
}

// Reserve validates the request, holds a flight with the backend, and tracks
// the resulting PENDING reservation. On transport failure nothing is
// recorded: there is nothing to roll back, and the caller must retry the
// whole reserve knowingly, since reserve is not idempotent.
func (e *Engine) Reserve(ctx context.Context, req Request) (Reservation, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return Reservation{}, contractx.NewErrorWithDetails(contractx.KindValidation,
			map[string]any{"missing_fields": missing},
			"reservation request is missing required fields")
	}

	resp, err := e.backend.Reserve(ctx, checkoutx.ReserveRequest{
		DepartureAirportCode:   req.DepartureAirportCode,
		DestinationAirportCode: req.DestinationAirportCode,
		DepartureDate:          req.DepartureDate,
		ArrivalDate:            req.ArrivalDate,
		NumberOfPassengers:     req.NumberOfPassengers,
		PaymentMethod:          req.PaymentMethod,
	})
	if err != nil {
		tagged := contractx.AsError(err)
		if tagged.Kind == contractx.KindRejected {
			// The backend actively declined; there is no reservation id to
			// track, so surface the rejection as-is under the reserve kind.
			return Reservation{}, &contractx.Error{
				Kind:    contractx.KindReservationRejected,
				Message: tagged.Message,
				Details: tagged.Details,
			}
		}
		return Reservation{}, tagged
	}

	now := e.now().UTC()
	res := Reservation{
		ID:               resp.ReservationID,
		State:            StatePending,
		Request:          req,
		CreatedAt:        now,
		LastTransitionAt: now,
	}

	if !strings.EqualFold(resp.ReservationStatus, string(StatePending)) {
		res.State = StateFailed
		res.LastError = contractx.NewErrorWithDetails(contractx.KindReservationRejected,
			map[string]any{"backend_status": resp.ReservationStatus, "backend_message": resp.Message},
			"backend did not hold the reservation")
		if res.ID != "" {
			if err := e.store.Put(res); err != nil {
				e.log.Error().Err(err).Str("reservation_id", res.ID).Msg("record rejected reservation")
			}
		}
		e.log.Warn().
			Str("reservation_id", res.ID).
			Str("backend_status", resp.ReservationStatus).
			Msg("reserve rejected by backend")
		return Reservation{}, res.LastError
	}

	if err := e.store.Put(res); err != nil {
		// Backend handed out a duplicate id; refuse to clobber saga state.
		return Reservation{}, contractx.NewErrorWithDetails(contractx.KindInternal,
			map[string]any{"reservation_id": res.ID},
			"backend returned an already-tracked reservation id")
	}

	e.log.Info().
		Str("reservation_id", res.ID).
		Str("departure", req.DepartureAirportCode).
		Str("destination", req.DestinationAirportCode).
		Msg("reservation pending")
	return res, nil
}

// Confirm commits a PENDING reservation. The per-reservation lock is held
// across the backend call, so at most one confirm attempt is in flight per
// id; a concurrent caller blocks and then observes NOT_PENDING. A RETRYABLE
// failure leaves the reservation PENDING with the error recorded, and the
// caller may retry with the same id.
func (e *Engine) Confirm(ctx context.Context, reservationID string) (Reservation, error) {
	res, found, err := e.store.update(reservationID, func(cur Reservation) (Reservation, error) {
		if cur.State != StatePending {
			return cur, contractx.NewErrorWithDetails(contractx.KindNotPending,
				map[string]any{"current_status": string(cur.State)},
				"reservation %s is not pending", reservationID)
		}

		resp, callErr := e.backend.Confirm(ctx, reservationID)
		now := e.now().UTC()
		if callErr != nil {
			tagged := contractx.AsError(callErr)
			if tagged.Retryable() {
				cur.LastError = tagged
				return cur, tagged // stays PENDING
			}
			cur.State = StateFailed
			cur.LastTransitionAt = now
			cur.LastError = &contractx.Error{
				Kind:    contractx.KindConfirmationRejected,
				Message: tagged.Message,
				Details: tagged.Details,
			}
			return cur, cur.LastError
		}

		if !strings.EqualFold(resp.ReservationStatus, string(StateConfirmed)) {
			cur.State = StateFailed
			cur.LastTransitionAt = now
			cur.LastError = contractx.NewErrorWithDetails(contractx.KindConfirmationRejected,
				map[string]any{"backend_status": resp.ReservationStatus, "backend_message": resp.Message},
				"backend declined the confirmation")
			return cur, cur.LastError
		}

		cur.State = StateConfirmed
		cur.LastTransitionAt = now
		cur.LastError = nil
		return cur, nil
	})
	if !found {
		return Reservation{}, contractx.NewErrorWithDetails(contractx.KindNotFound,
			map[string]any{"reservation_id": reservationID},
			"unknown reservation id %s", reservationID)
	}
	if err != nil {
		e.log.Warn().Err(err).Str("reservation_id", reservationID).Msg("confirm failed")
		return res, err
	}

	e.log.Info().Str("reservation_id", reservationID).Msg("reservation confirmed")
	return res, nil
}

// Abort moves a PENDING reservation to ABORTED without touching the backend.
// It exists for operator intervention; terminal states are left alone.
func (e *Engine) Abort(ctx context.Context, reservationID string) (Reservation, error) {
	res, found, err := e.store.update(reservationID, func(cur Reservation) (Reservation, error) {
		if cur.State != StatePending {
			return cur, contractx.NewErrorWithDetails(contractx.KindNotPending,
				map[string]any{"current_status": string(cur.State)},
				"reservation %s is not pending", reservationID)
		}
		cur.State = StateAborted
		cur.LastTransitionAt = e.now().UTC()
		return cur, nil
	})
	if !found {
		return Reservation{}, contractx.NewErrorWithDetails(contractx.KindNotFound,
			map[string]any{"reservation_id": reservationID},
			"unknown reservation id %s", reservationID)
	}
	if err != nil {
		return res, err
	}

	e.log.Info().Str("reservation_id", reservationID).Msg("reservation aborted")
	return res, nil
}

// Get returns a snapshot of a tracked reservation.
func (e *Engine) Get(reservationID string) (Reservation, bool) {
	return e.store.Get(reservationID)
}
