// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Maps order domain entities to relational database tables with proper indexing
// for efficient querying by status, bundle membership and prediction state.
type OrderDTO struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index"`
	StoreID    uuid.UUID  `gorm:"type:uuid;index"`
	DriverID   *uuid.UUID `gorm:"type:uuid;index"`
	BundleID   *uuid.UUID `gorm:"type:uuid;index"`

	Status   int         `gorm:"index"`
	Delivery GeoPointDTO `gorm:"embedded;embeddedPrefix:delivery_"`

	SubtotalCents    int64
	TaxCents         int64
	DeliveryFeeCents int64
	TipCents         int64
	TotalCents       int64
	ItemCount        int

	CreatedAt          time.Time
	ConfirmedAt        *time.Time
	PickedAt           *time.Time
	PickingCompletedAt *time.Time
	DeliveredAt        *time.Time
	CanceledAt         *time.Time

	PredictedDeliveryMinutes *float64
	PredictionSent           bool
	PredictionSentAt         *time.Time
	PredictionFailed         bool `gorm:"index"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// GeoPointDTO represents embedded geographic coordinates within a table row.
type GeoPointDTO struct {
	Latitude  float64 `gorm:"type:double precision"`
	Longitude float64 `gorm:"type:double precision"`
}

func uuidPtr(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func kernelUUIDPtr(id *uuid.UUID) (*kernel.UUID, error) {
	if id == nil {
		return nil, nil
	}
	restored, err := kernel.UUIDFromBytes((*id)[:])
	if err != nil {
		return nil, err
	}
	return &restored, nil
}

// fromDomain converts an order domain aggregate to its database representation.
// Maps all order attributes including optional bundle and driver assignment.
func fromDomain(aggregate *order.Order) OrderDTO {
	return OrderDTO{
		ID:         aggregate.ID().Bytes(),
		CustomerID: aggregate.CustomerID().Bytes(),
		StoreID:    aggregate.StoreID().Bytes(),
		DriverID:   uuidPtr(aggregate.Driver()),
		BundleID:   uuidPtr(aggregate.Bundle()),
		Status:     int(aggregate.Status()),
		Delivery: GeoPointDTO{
			Latitude:  aggregate.DeliveryLocation().Latitude(),
			Longitude: aggregate.DeliveryLocation().Longitude(),
		},
		SubtotalCents:            aggregate.SubtotalCents(),
		TaxCents:                 aggregate.TaxCents(),
		DeliveryFeeCents:         aggregate.DeliveryFeeCents(),
		TipCents:                 aggregate.TipCents(),
		TotalCents:               aggregate.TotalCents(),
		ItemCount:                aggregate.ItemCount(),
		CreatedAt:                aggregate.CreatedAt(),
		ConfirmedAt:              aggregate.ConfirmedAt(),
		PickedAt:                 aggregate.PickedAt(),
		PickingCompletedAt:       aggregate.PickingCompletedAt(),
		DeliveredAt:              aggregate.DeliveredAt(),
		CanceledAt:               aggregate.CanceledAt(),
		PredictedDeliveryMinutes: aggregate.PredictedDeliveryMinutes(),
		PredictionSent:           aggregate.PredictionSent(),
		PredictionSentAt:         aggregate.PredictionSentAt(),
		PredictionFailed:         aggregate.PredictionFailed(),
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including lifecycle timestamps and
// prediction bookkeeping using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	storeID, err := kernel.UUIDFromBytes(dto.StoreID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernelUUIDPtr(dto.DriverID)
	if err != nil {
		return nil, err
	}
	bundleID, err := kernelUUIDPtr(dto.BundleID)
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Delivery.Latitude, dto.Delivery.Longitude)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id,
		customerID,
		storeID,
		driverID,
		bundleID,
		order.Status(dto.Status),
		location,
		dto.SubtotalCents,
		dto.TaxCents,
		dto.DeliveryFeeCents,
		dto.TipCents,
		dto.ItemCount,
		dto.CreatedAt,
		dto.ConfirmedAt,
		dto.PickedAt,
		dto.PickingCompletedAt,
		dto.DeliveredAt,
		dto.CanceledAt,
		dto.PredictedDeliveryMinutes,
		dto.PredictionSent,
		dto.PredictionSentAt,
		dto.PredictionFailed,
	)
}
