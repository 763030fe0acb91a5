package orderrepo

import (
	"context"
	"errors"
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
	"grocery/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order to the database.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ?", dto.ID).
		Select("*").Omit("id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// UpdateIfStatus saves an order with a status-guarded conditional update.
// Returns false without writing when a concurrent transition already moved
// the order out of the expected status.
func (r *GormOrderRepository) UpdateIfStatus(
	ctx context.Context,
	aggregate *order.Order,
	expected order.Status,
) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND status = ?", dto.ID, int(expected)).
		Select("*").Omit("id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return true, nil
}

// RecordPredictionOutcome writes only the prediction columns, guarded on the
// prediction not being sent yet. Lifecycle columns are left untouched so a
// transition committed while the prediction call ran survives.
func (r *GormOrderRepository) RecordPredictionOutcome(
	ctx context.Context,
	orderID kernel.UUID,
	minutes *float64,
) (bool, error) {
	if err := orderID.Validate(); err != nil {
		return false, err
	}

	columns := map[string]any{"prediction_failed": true}
	if minutes != nil {
		columns = map[string]any{
			"predicted_delivery_minutes": *minutes,
			"prediction_sent":            true,
			"prediction_sent_at":         time.Now(),
			"prediction_failed":          false,
		}
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND NOT prediction_sent", orderID.Bytes()).
		Updates(columns)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllQueued retrieves the dispatch queue: pending or pre-confirmed orders
// not yet claimed by a bundle, oldest first.
func (r *GormOrderRepository) GetAllQueued(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status IN ? AND bundle_id IS NULL", []order.Status{order.Pending, order.Confirmed}).
		Order("created_at").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// GetAllActive retrieves every order that has not reached a terminal status.
func (r *GormOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []int{int(order.Delivered), int(order.Canceled)}).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// GetAllByBundle retrieves the member orders of a bundle.
func (r *GormOrderRepository) GetAllByBundle(ctx context.Context, bundleID kernel.UUID) ([]*order.Order, error) {
	if err := bundleID.Validate(); err != nil {
		return nil, err
	}

	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("bundle_id = ?", bundleID.Bytes()).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// GetPredictionFailures retrieves up to limit in-flight orders past
// confirmation that were never scored, newest first. Orders the automatic
// path only failed on are a subset; one that slipped through without an
// attempt is picked up too.
func (r *GormOrderRepository) GetPredictionFailures(ctx context.Context, limit int) ([]*order.Order, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Where("status IN ? AND NOT prediction_sent",
			[]order.Status{order.Confirmed, order.Picking, order.OutForDelivery}).
		Order("created_at DESC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainSlice(dtos)
}

// ClaimForBundle atomically claims a queued order for a bundle. Returns false
// when a concurrent dispatch cycle claimed the order first.
func (r *GormOrderRepository) ClaimForBundle(
	ctx context.Context,
	orderID kernel.UUID,
	bundleID kernel.UUID,
	driverID kernel.UUID,
) (bool, error) {
	if err := errors.Join(orderID.Validate(), bundleID.Validate(), driverID.Validate()); err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND bundle_id IS NULL", orderID.Bytes()).
		Updates(map[string]any{
			"bundle_id": bundleID.Bytes(),
			"driver_id": driverID.Bytes(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func toDomainSlice(dtos []OrderDTO) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
