package commands

import (
	"errors"

	"grocery/internal/pkg/guard"
)

var ErrSampleCancellationCommandIsNotConstructed = errors.New(
	"SampleCancellationCommand must be created via NewSampleCancellationCommand constructor",
)

// SampleCancellationCommand triggers one simulated customer cancellation.
// One active order is drawn with stage-weighted probability and canceled;
// its tip is removed from the total.
type SampleCancellationCommand struct {
	guard guard.ConstructorGuard
}

// NewSampleCancellationCommand creates a new command to sample a cancellation.
func NewSampleCancellationCommand() SampleCancellationCommand {
	return SampleCancellationCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *SampleCancellationCommand) Validate() error {
	return c.guard.Validate(ErrSampleCancellationCommandIsNotConstructed)
}
