package order

import (
	"errors"
	"fmt"

	"grocery/internal/pkg/errs"
)

// ErrInvalidTransition is the sentinel wrapped by every rejected lifecycle
// transition. Callers use errors.Is to distinguish an out-of-order call from
// infrastructure failures.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Status represents the lifecycle state of an order. It implements a state
// machine with defined transitions to ensure orders follow the fulfillment
// workflow.
//
// State transitions:
//
//	Pending ──> Confirmed ──> Picking ──> OutForDelivery ──> Delivered
//	    │           │            │              │
//	    └───────────┴────────────┴──────────────┴──> Canceled
//
// Delivered and Canceled are terminal: no transition leaves them.
//
// Status is a value object that validates state transitions and provides
// string representations for persistence and display.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of a newly placed order, before the
	// marketplace has confirmed it.
	Pending

	// Confirmed indicates the order was accepted and is eligible for
	// bundling and for the delivery-time prediction request.
	Confirmed

	// Picking indicates a driver took the bundle and the order is being
	// picked at the store.
	Picking

	// OutForDelivery indicates picking finished and the bundle is en route.
	OutForDelivery

	// Delivered indicates the order reached the customer. Terminal.
	Delivered

	// Canceled indicates the order was canceled before delivery. Terminal.
	Canceled
)

// getStatusStrings returns string representations for every Status value,
// including Unknown.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "Unknown",
		Pending:        "Pending",
		Confirmed:      "Confirmed",
		Picking:        "Picking",
		OutForDelivery: "OutForDelivery",
		Delivered:      "Delivered",
		Canceled:       "Canceled",
	}
}

// getValidStatusStrings returns only valid Status values, to support
// validation of values arriving from persistence or external input.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:        "Pending",
		Confirmed:      "Confirmed",
		Picking:        "Picking",
		OutForDelivery: "OutForDelivery",
		Delivered:      "Delivered",
		Canceled:       "Canceled",
	}
}

// Validate checks if the Status value is one of the defined lifecycle states.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", int(s)))
	}
	return nil
}

// String returns the human-readable name of the status. It implements the
// fmt.Stringer interface and is safe on any value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no further transition can leave the status.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Canceled
}

// Confirm transitions Pending -> Confirmed.
func (s Status) Confirm() (Status, error) {
	if s != Pending {
		return 0, transitionError(s, Confirmed)
	}
	return Confirmed, nil
}

// StartPicking transitions Confirmed -> Picking. It is valid only once the
// order was accepted; Pending orders must be confirmed first.
func (s Status) StartPicking() (Status, error) {
	if s != Confirmed {
		return 0, transitionError(s, Picking)
	}
	return Picking, nil
}

// StartDelivery transitions Picking -> OutForDelivery.
func (s Status) StartDelivery() (Status, error) {
	if s != Picking {
		return 0, transitionError(s, OutForDelivery)
	}
	return OutForDelivery, nil
}

// Deliver transitions OutForDelivery -> Delivered. Delivered is a final
// state with no further transitions possible.
func (s Status) Deliver() (Status, error) {
	if s != OutForDelivery {
		return 0, transitionError(s, Delivered)
	}
	return Delivered, nil
}

// Cancel transitions any non-terminal status -> Canceled. Canceling an
// already Delivered or Canceled order is rejected.
func (s Status) Cancel() (Status, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if s.IsTerminal() {
		return 0, transitionError(s, Canceled)
	}
	return Canceled, nil
}

func transitionError(from Status, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
