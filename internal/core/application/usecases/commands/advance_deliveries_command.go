package commands

import (
	"errors"

	"grocery/internal/pkg/guard"
)

var ErrAdvanceDeliveriesCommandIsNotConstructed = errors.New(
	"AdvanceDeliveriesCommand must be created via NewAdvanceDeliveriesCommand constructor",
)

// AdvanceDeliveriesCommand triggers one simulation step for every active
// bundle: picking starts, picking completes, or the next stop on the route
// is delivered. Completed bundles release their drivers.
type AdvanceDeliveriesCommand struct {
	guard guard.ConstructorGuard
}

// NewAdvanceDeliveriesCommand creates a new command to advance deliveries.
func NewAdvanceDeliveriesCommand() AdvanceDeliveriesCommand {
	return AdvanceDeliveriesCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *AdvanceDeliveriesCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceDeliveriesCommandIsNotConstructed)
}
