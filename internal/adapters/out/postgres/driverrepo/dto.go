// Package driverrepo provides data transfer objects and mapping functions for driver persistence.
// Implements the repository pattern for the driver aggregate, handling conversion between
// domain entities and database representations.
package driverrepo

import (
	"grocery/internal/core/domain/model/driver"
	"grocery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DriverDTO represents the database structure for persisting driver aggregates.
// Indexes availability for the dispatch engine's nearest-driver search.
type DriverDTO struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name      string      `gorm:"type:varchar(255);not null"`
	Location  GeoPointDTO `gorm:"embedded;embeddedPrefix:location_"`
	Available bool        `gorm:"index"`
	BundleID  *uuid.UUID  `gorm:"type:uuid;index"`
}

// TableName specifies the database table name for driver entities.
func (DriverDTO) TableName() string {
	return "drivers"
}

// GeoPointDTO represents embedded geographic coordinates within a table row.
type GeoPointDTO struct {
	Latitude  float64 `gorm:"type:double precision"`
	Longitude float64 `gorm:"type:double precision"`
}

// fromDomain converts a driver domain aggregate to its database representation.
func fromDomain(aggregate *driver.Driver) DriverDTO {
	var bundleID *uuid.UUID
	if id := aggregate.Bundle(); id != nil {
		raw := id.Bytes()
		bundleID = &raw
	}

	return DriverDTO{
		ID:   aggregate.ID().Bytes(),
		Name: aggregate.Name(),
		Location: GeoPointDTO{
			Latitude:  aggregate.Location().Latitude(),
			Longitude: aggregate.Location().Longitude(),
		},
		Available: aggregate.IsAvailable(),
		BundleID:  bundleID,
	}
}

// toDomain converts a database DTO to a driver domain aggregate.
func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var bundleID *kernel.UUID
	if dto.BundleID != nil {
		restored, bundleErr := kernel.UUIDFromBytes((*dto.BundleID)[:])
		if bundleErr != nil {
			return nil, bundleErr
		}
		bundleID = &restored
	}

	location, err := kernel.NewGeoPoint(dto.Location.Latitude, dto.Location.Longitude)
	if err != nil {
		return nil, err
	}

	return driver.RestoreDriver(id, dto.Name, location, dto.Available, bundleID)
}
