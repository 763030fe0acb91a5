package bundle

import (
	"fmt"

	"grocery/internal/pkg/errs"
)

// Status represents the lifecycle state of a bundle.
//
// State transitions:
//
//	Forming ──> Active ──> Completed
//
// A bundle is Forming while the dispatch engine claims its orders, becomes
// Active once a driver takes it, and is Completed when every stop has been
// resolved. Completed is terminal.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Forming is the initial status of a freshly clustered bundle.
	Forming

	// Active indicates a driver carries the bundle.
	Active

	// Completed indicates every stop was resolved. Terminal.
	Completed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Forming:   "Forming",
		Active:    "Active",
		Completed: "Completed",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Forming:   "Forming",
		Active:    "Active",
		Completed: "Completed",
	}
}

// Validate checks if the Status value is one of the defined states.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", int(s)))
	}
	return nil
}

// String returns the human-readable name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}
