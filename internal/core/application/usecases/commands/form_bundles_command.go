package commands

import (
	"errors"

	"grocery/internal/pkg/guard"
)

var ErrFormBundlesCommandIsNotConstructed = errors.New(
	"FormBundlesCommand must be created via NewFormBundlesCommand constructor",
)

// FormBundlesCommand triggers one dispatch cycle: queued orders are
// clustered into bundles, each bundle gets a route and the nearest available
// driver, and the claimed orders leave the queue.
//
// Example:
//
//	cmd := NewFormBundlesCommand()
//	handler := NewFormBundlesCommandHandler(uowFactory, bundler, dispatcher)
//	formed, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    log.Printf("dispatch cycle failed: %v", err)
//	}
type FormBundlesCommand struct {
	guard guard.ConstructorGuard
}

// NewFormBundlesCommand creates a new command to trigger a dispatch cycle.
func NewFormBundlesCommand() FormBundlesCommand {
	return FormBundlesCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c *FormBundlesCommand) Validate() error {
	return c.guard.Validate(ErrFormBundlesCommandIsNotConstructed)
}
