package contract

import (
	"errors"
	"fmt"
)

// Kind tags an Error with a machine-readable failure class. Kinds travel
// over the wire verbatim, so the constants below are the protocol.
type Kind string

const (
	// KindValidation: missing or malformed input. Never retried.
	KindValidation Kind = "VALIDATION"
	// KindInvalidArguments: a tool call carried arguments of the wrong type
	// or with required fields missing. Details list the offending fields.
	KindInvalidArguments Kind = "INVALID_ARGUMENTS"
	// KindUnknownTool: the dispatcher has no handler for the tool name.
	KindUnknownTool Kind = "UNKNOWN_TOOL"
	// KindNotFound: unknown id or key. Never retried.
	KindNotFound Kind = "NOT_FOUND"
	// KindNotPending: a confirm or abort hit a reservation outside PENDING.
	// Details carry current_status so callers can tell retrying is pointless.
	KindNotPending Kind = "NOT_PENDING"
	// KindRejected: the backend actively declined. Not retried automatically.
	KindRejected Kind = "REJECTED"
	// KindReservationRejected: the booking backend declined a reserve.
	KindReservationRejected Kind = "RESERVATION_REJECTED"
	// KindConfirmationRejected: the booking backend declined a confirm.
	KindConfirmationRejected Kind = "CONFIRMATION_REJECTED"
	// KindRouteNotFound: no flights for the requested route.
	KindRouteNotFound Kind = "ROUTE_NOT_FOUND"
	// KindUserNotFound: unknown wallet user.
	KindUserNotFound Kind = "USER_NOT_FOUND"
	// KindInvalidCardIDs: one or more card ids have no benefit sheet.
	KindInvalidCardIDs Kind = "INVALID_CARD_IDS"
	// KindRetryable: transport or timeout failure. The only kind a caller may
	// retry automatically, and only for idempotent operations.
	KindRetryable Kind = "RETRYABLE"
	// KindInternal: unexpected failure, surfaced opaquely.
	KindInternal Kind = "INTERNAL"
)

// Error is the tagged error value every layer returns: a kind, a human
// message, and a free-form detail map. It is passed by value through the
// saga engine, dispatcher, and gateway without being swallowed or rewrapped.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Retryable reports whether a caller may automatically retry the operation
// that produced this error.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindRetryable
}

// NewError builds an Error without details.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewErrorWithDetails builds an Error carrying a detail map.
func NewErrorWithDetails(kind Kind, details map[string]any, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Details: details}
}

// AsError extracts a *Error from err. Anything that is not already a tagged
// error is classified INTERNAL so no raw error ever reaches a client.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	return &Error{Kind: KindInternal, Message: "internal error"}
}
