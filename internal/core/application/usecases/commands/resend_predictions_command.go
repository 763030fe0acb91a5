package commands

import (
	"errors"
	"fmt"

	"grocery/internal/pkg/guard"
)

var (
	ErrResendPredictionsCommandIsNotConstructed = errors.New(
		"ResendPredictionsCommand must be created via NewResendPredictionsCommand constructor",
	)
	ErrBatchSizeIsInvalid = errors.New("batch size must be greater than 0")
)

// ResendPredictionsCommand triggers a manual retry of delivery-time
// predictions for orders whose automatic attempt failed. At most batchSize
// orders are retried, newest failures first.
type ResendPredictionsCommand struct { //nolint:recvcheck //using for validation
	batchSize int

	guard guard.ConstructorGuard
}

// NewResendPredictionsCommand creates a command to retry failed predictions.
func NewResendPredictionsCommand(batchSize int) (ResendPredictionsCommand, error) {
	cmd := ResendPredictionsCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setBatchSize(batchSize); err != nil {
		return ResendPredictionsCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ResendPredictionsCommand) Validate() error {
	return c.guard.Validate(ErrResendPredictionsCommandIsNotConstructed)
}

// BatchSize returns the maximum number of orders to retry.
func (c ResendPredictionsCommand) BatchSize() int {
	return c.batchSize
}

func (c *ResendPredictionsCommand) setBatchSize(batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: %d", ErrBatchSizeIsInvalid, batchSize)
	}

	c.batchSize = batchSize
	return nil
}
