// Package storerepo provides data transfer objects and mapping functions for store persistence.
package storerepo

import (
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/store"

	"github.com/google/uuid"
)

// StoreDTO represents the database structure for persisting store entities.
type StoreDTO struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name     string      `gorm:"type:varchar(255);not null"`
	Location GeoPointDTO `gorm:"embedded;embeddedPrefix:location_"`
}

// TableName specifies the database table name for store entities.
func (StoreDTO) TableName() string {
	return "stores"
}

// GeoPointDTO represents embedded geographic coordinates within a table row.
type GeoPointDTO struct {
	Latitude  float64 `gorm:"type:double precision"`
	Longitude float64 `gorm:"type:double precision"`
}

func fromDomain(aggregate *store.Store) StoreDTO {
	return StoreDTO{
		ID:   aggregate.ID().Bytes(),
		Name: aggregate.Name(),
		Location: GeoPointDTO{
			Latitude:  aggregate.Location().Latitude(),
			Longitude: aggregate.Location().Longitude(),
		},
	}
}

func toDomain(dto StoreDTO) (*store.Store, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Location.Latitude, dto.Location.Longitude)
	if err != nil {
		return nil, err
	}

	return store.RestoreStore(id, dto.Name, location)
}
