// Package bundlerepo provides data transfer objects and mapping functions for bundle persistence.
// A bundle row owns its route as bundle_stops child rows, loaded and saved together
// with the aggregate.
package bundlerepo

import (
	"sort"
	"time"

	"grocery/internal/core/domain/model/bundle"
	"grocery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// BundleDTO represents the database structure for persisting bundle aggregates.
type BundleDTO struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey"`
	StoreID  uuid.UUID   `gorm:"type:uuid;index"`
	DriverID *uuid.UUID  `gorm:"type:uuid;index"`
	Centroid GeoPointDTO `gorm:"embedded;embeddedPrefix:centroid_"`
	Status   int         `gorm:"index"`

	CreatedAt time.Time

	Stops []StopDTO `gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for bundle entities.
func (BundleDTO) TableName() string {
	return "bundles"
}

// StopDTO represents one routed stop of a bundle. The sequence is the
// 1-based delivery position on the route.
type StopDTO struct {
	BundleID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   int       `gorm:"primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;index"`
	Resolved   bool
	ResolvedAt *time.Time
}

// TableName specifies the database table name for bundle stops.
func (StopDTO) TableName() string {
	return "bundle_stops"
}

// GeoPointDTO represents embedded geographic coordinates within a table row.
type GeoPointDTO struct {
	Latitude  float64 `gorm:"type:double precision"`
	Longitude float64 `gorm:"type:double precision"`
}

// fromDomain converts a bundle domain aggregate to its database representation,
// including the owned stop rows.
func fromDomain(aggregate *bundle.Bundle) BundleDTO {
	var driverID *uuid.UUID
	if id := aggregate.Driver(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	stops := aggregate.Stops()
	stopDTOs := make([]StopDTO, 0, len(stops))
	for _, stop := range stops {
		stopDTOs = append(stopDTOs, StopDTO{
			BundleID:   aggregate.ID().Bytes(),
			Sequence:   stop.Sequence(),
			OrderID:    stop.OrderID().Bytes(),
			Resolved:   stop.IsResolved(),
			ResolvedAt: stop.ResolvedAt(),
		})
	}

	return BundleDTO{
		ID:       aggregate.ID().Bytes(),
		StoreID:  aggregate.StoreID().Bytes(),
		DriverID: driverID,
		Centroid: GeoPointDTO{
			Latitude:  aggregate.Centroid().Latitude(),
			Longitude: aggregate.Centroid().Longitude(),
		},
		Status:    int(aggregate.Status()),
		CreatedAt: aggregate.CreatedAt(),
		Stops:     stopDTOs,
	}
}

// toDomain converts a database DTO to a bundle domain aggregate.
// Stops are reordered by sequence before restoring the route.
func toDomain(dto BundleDTO) (*bundle.Bundle, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	storeID, err := kernel.UUIDFromBytes(dto.StoreID[:])
	if err != nil {
		return nil, err
	}

	var driverID *kernel.UUID
	if dto.DriverID != nil {
		restored, driverErr := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if driverErr != nil {
			return nil, driverErr
		}
		driverID = &restored
	}

	centroid, err := kernel.NewGeoPoint(dto.Centroid.Latitude, dto.Centroid.Longitude)
	if err != nil {
		return nil, err
	}

	sort.Slice(dto.Stops, func(i, j int) bool {
		return dto.Stops[i].Sequence < dto.Stops[j].Sequence
	})

	stops := make([]*bundle.Stop, 0, len(dto.Stops))
	for _, stopDTO := range dto.Stops {
		orderID, orderErr := kernel.UUIDFromBytes(stopDTO.OrderID[:])
		if orderErr != nil {
			return nil, orderErr
		}

		stop, stopErr := bundle.RestoreStop(orderID, stopDTO.Sequence, stopDTO.Resolved, stopDTO.ResolvedAt)
		if stopErr != nil {
			return nil, stopErr
		}
		stops = append(stops, stop)
	}

	return bundle.RestoreBundle(id, storeID, driverID, centroid, bundle.Status(dto.Status), stops, dto.CreatedAt)
}
