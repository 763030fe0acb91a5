// Package customer contains the Customer entity: the buyers who place orders
// and receive deliveries at their home location.
package customer

import (
	"errors"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/errs"
	"grocery/internal/pkg/guard"
)

var (
	// ErrNameIsRequired is returned when attempting to create a customer without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrCustomerIsNotConstructed is returned when using an improperly initialized Customer.
	ErrCustomerIsNotConstructed = errors.New("Customer must be created via NewCustomer constructor")
)

// Customer is a marketplace buyer. New orders default their delivery
// location to the customer's home location.
type Customer struct {
	id           kernel.UUID
	name         string
	homeLocation kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewCustomer creates a new Customer with the given home location.
func NewCustomer(id kernel.UUID, name string, homeLocation kernel.GeoPoint) (*Customer, error) {
	c := &Customer{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
		c.setHomeLocation(homeLocation),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RestoreCustomer reconstructs a Customer from persistent storage.
func RestoreCustomer(id kernel.UUID, name string, homeLocation kernel.GeoPoint) (*Customer, error) {
	return NewCustomer(id, name, homeLocation)
}

// Validate ensures the Customer instance was properly constructed.
func (c *Customer) Validate() error {
	if c == nil {
		return ErrCustomerIsNotConstructed
	}
	return c.guard.Validate(ErrCustomerIsNotConstructed)
}

// IsEqual compares two customers by their unique identifiers.
func (c *Customer) IsEqual(other *Customer) bool {
	return other != nil && c.id.IsEqual(other.id)
}

// ID returns the customer's unique identifier.
func (c *Customer) ID() kernel.UUID {
	return c.id
}

// Name returns the customer's display name.
func (c *Customer) Name() string {
	return c.name
}

// HomeLocation returns the customer's home delivery position.
func (c *Customer) HomeLocation() kernel.GeoPoint {
	return c.homeLocation
}

func (c *Customer) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Customer) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}

func (c *Customer) setHomeLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	c.homeLocation = location
	return nil
}
