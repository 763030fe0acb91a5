// Package store contains the Store entity: the pickup points orders are
// placed at and bundles form around.
package store

import (
	"errors"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/errs"
	"grocery/internal/pkg/guard"
)

var (
	// ErrNameIsRequired is returned when attempting to create a store without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrStoreIsNotConstructed is returned when using an improperly initialized Store.
	ErrStoreIsNotConstructed = errors.New("Store must be created via NewStore constructor")
)

// Store is a grocery store on the marketplace map. Its identity and position
// are fixed at creation; every order names exactly one store, and a bundle
// only ever groups orders from the same store.
type Store struct {
	id       kernel.UUID
	name     string
	location kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewStore creates a new Store at the given position.
func NewStore(id kernel.UUID, name string, location kernel.GeoPoint) (*Store, error) {
	s := &Store{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		s.setID(id),
		s.setName(name),
		s.setLocation(location),
	); err != nil {
		return nil, err
	}

	return s, nil
}

// RestoreStore reconstructs a Store from persistent storage.
func RestoreStore(id kernel.UUID, name string, location kernel.GeoPoint) (*Store, error) {
	return NewStore(id, name, location)
}

// Validate ensures the Store instance was properly constructed.
func (s *Store) Validate() error {
	if s == nil {
		return ErrStoreIsNotConstructed
	}
	return s.guard.Validate(ErrStoreIsNotConstructed)
}

// IsEqual compares two stores by their unique identifiers.
func (s *Store) IsEqual(other *Store) bool {
	return other != nil && s.id.IsEqual(other.id)
}

// ID returns the store's unique identifier.
func (s *Store) ID() kernel.UUID {
	return s.id
}

// Name returns the store's display name.
func (s *Store) Name() string {
	return s.name
}

// Location returns the store's position.
func (s *Store) Location() kernel.GeoPoint {
	return s.location
}

func (s *Store) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Store) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	s.name = name
	return nil
}

func (s *Store) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	s.location = location
	return nil
}
