package commands_test

import (
	"errors"
	"testing"

	"grocery/internal/core/application/usecases/commands"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderCommandHandler_Handle(t *testing.T) {
	newCommand := func(t *testing.T) commands.CreateOrderCommand {
		t.Helper()

		cmd, err := commands.NewCreateOrderCommand(
			kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
			validDeliveryLocation(t), 4250, 372, 599, 640, 7,
		)
		require.NoError(t, err)
		return cmd
	}

	t.Run("should persist a pending order", func(t *testing.T) {
		ctx := t.Context()
		cmd := newCommand(t)

		ordersRepo := &MockOrderRepository{}
		uow := &MockUoW{}
		factory := &MockOrderUoWFactory{}

		factory.On("Create").Return(uow).Once()
		uow.On("OrderRepository").Return(ordersRepo)
		mock.InOrder(
			uow.On("Begin", ctx).Return(nil).Once(),
			ordersRepo.On("Add", ctx, mock.MatchedBy(func(o *order.Order) bool {
				return o.ID() == cmd.OrderID() && o.Status() == order.Pending
			})).Return(nil).Once(),
			uow.On("Commit", ctx).Return(nil).Once(),
			uow.On("Rollback", ctx).Return(nil).Once(),
		)

		handler := commands.NewCreateOrderCommandHandler(factory)
		err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		factory.AssertExpectations(t)
		uow.AssertExpectations(t)
		ordersRepo.AssertExpectations(t)
	})

	t.Run("should return error for invalid command", func(t *testing.T) {
		ctx := t.Context()
		factory := &MockOrderUoWFactory{}

		handler := commands.NewCreateOrderCommandHandler(factory)
		err := handler.Handle(ctx, commands.CreateOrderCommand{})

		assert.ErrorIs(t, err, commands.ErrCreateOrderCommandIsNotConstructed)
		factory.AssertNotCalled(t, "Create")
	})

	t.Run("should return error when transaction cannot begin", func(t *testing.T) {
		ctx := t.Context()
		cmd := newCommand(t)
		beginErr := errors.New("begin failed")

		uow := &MockUoW{}
		factory := &MockOrderUoWFactory{}

		factory.On("Create").Return(uow).Once()
		uow.On("Begin", ctx).Return(beginErr).Once()

		handler := commands.NewCreateOrderCommandHandler(factory)
		err := handler.Handle(ctx, cmd)

		assert.ErrorIs(t, err, beginErr)
		uow.AssertNotCalled(t, "Commit", ctx)
		factory.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("should roll back when the repository fails", func(t *testing.T) {
		ctx := t.Context()
		cmd := newCommand(t)
		addErr := errors.New("insert failed")

		ordersRepo := &MockOrderRepository{}
		uow := &MockUoW{}
		factory := &MockOrderUoWFactory{}

		factory.On("Create").Return(uow).Once()
		uow.On("OrderRepository").Return(ordersRepo)
		mock.InOrder(
			uow.On("Begin", ctx).Return(nil).Once(),
			ordersRepo.On("Add", ctx, mock.Anything).Return(addErr).Once(),
			uow.On("Rollback", ctx).Return(nil).Once(),
		)

		handler := commands.NewCreateOrderCommandHandler(factory)
		err := handler.Handle(ctx, cmd)

		assert.ErrorIs(t, err, addErr)
		uow.AssertNotCalled(t, "Commit", ctx)
		uow.AssertExpectations(t)
		ordersRepo.AssertExpectations(t)
	})
}
