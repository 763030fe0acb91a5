// Package customerrepo provides data transfer objects and mapping functions for customer persistence.
package customerrepo

import (
	"grocery/internal/core/domain/model/customer"
	"grocery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CustomerDTO represents the database structure for persisting customer entities.
type CustomerDTO struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name         string      `gorm:"type:varchar(255);not null"`
	HomeLocation GeoPointDTO `gorm:"embedded;embeddedPrefix:home_"`
}

// TableName specifies the database table name for customer entities.
func (CustomerDTO) TableName() string {
	return "customers"
}

// GeoPointDTO represents embedded geographic coordinates within a table row.
type GeoPointDTO struct {
	Latitude  float64 `gorm:"type:double precision"`
	Longitude float64 `gorm:"type:double precision"`
}

func fromDomain(aggregate *customer.Customer) CustomerDTO {
	return CustomerDTO{
		ID:   aggregate.ID().Bytes(),
		Name: aggregate.Name(),
		HomeLocation: GeoPointDTO{
			Latitude:  aggregate.HomeLocation().Latitude(),
			Longitude: aggregate.HomeLocation().Longitude(),
		},
	}
}

func toDomain(dto CustomerDTO) (*customer.Customer, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	homeLocation, err := kernel.NewGeoPoint(dto.HomeLocation.Latitude, dto.HomeLocation.Longitude)
	if err != nil {
		return nil, err
	}

	return customer.RestoreCustomer(id, dto.Name, homeLocation)
}
