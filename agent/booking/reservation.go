// Package booking drives a flight reservation through its two-phase saga:
// an external reserve that leaves the reservation PENDING, followed by a
// confirm that commits it. The package tracks every reservation locally so
// partial completion stays observable and recoverable for the process
// lifetime.
package booking

import (
	"strings"
	"time"

	contractx "github.com/marisburan/voyago/agent/contract"
)

// State is a reservation's position in the saga.
type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateFailed    State = "FAILED"
	StateAborted   State = "ABORTED"
)

// Terminal reports whether no further transitions are accepted.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateAborted
}

// Request is the immutable snapshot of the original reservation parameters.
type Request struct {
	DepartureAirportCode   string `json:"departureAirportCode"`
	DestinationAirportCode string `json:"destinationAirportCode"`
	DepartureDate          string `json:"departureDate"`
	ArrivalDate            string `json:"arrivalDate"`
	NumberOfPassengers     int    `json:"numberOfPassengers"`
	PaymentMethod          string `json:"paymentMethod"`
}

// MissingFields returns the names of required fields that are absent, in
// wire-name form so validation errors read the same as the HTTP boundary.
func (r Request) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.DepartureAirportCode) == "" {
		missing = append(missing, "departureAirportCode")
	}
	if strings.TrimSpace(r.DestinationAirportCode) == "" {
		missing = append(missing, "destinationAirportCode")
	}
	if strings.TrimSpace(r.DepartureDate) == "" {
		missing = append(missing, "departureDate")
	}
	if strings.TrimSpace(r.ArrivalDate) == "" {
		missing = append(missing, "arrivalDate")
	}
	if r.NumberOfPassengers < 1 {
		missing = append(missing, "numberOfPassengers")
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		missing = append(missing, "paymentMethod")
	}
	return missing
}

// Reservation is one tracked saga instance, keyed by the backend-assigned
// reservation id.
type Reservation struct {
	ID               string           `json:"reservationId"`
	State            State            `json:"state"`
	Request          Request          `json:"bookingRequest"`
	CreatedAt        time.Time        `json:"createdAt"`
	LastTransitionAt time.Time        `json:"lastTransitionAt"`
	LastError        *contractx.Error `json:"lastError,omitempty"`
}
