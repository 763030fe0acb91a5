package bundlerepo

import (
	"context"
	"errors"

	"grocery/internal/core/domain/model/bundle"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBundleRepository implements BundleRepository using GORM.
type GormBundleRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormBundleRepository creates a new GORM bundle repository.
func NewGormBundleRepository(db *gorm.DB, tracker aggregateTracker) *GormBundleRepository {
	return &GormBundleRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new bundle and its stops to the database.
func (r *GormBundleRepository) Add(ctx context.Context, aggregate *bundle.Bundle) error {
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

// Update saves an existing bundle to the database. Stop rows are upserted by
// their (bundle_id, sequence) key, which covers stop resolution.
func (r *GormBundleRepository) Update(ctx context.Context, aggregate *bundle.Bundle) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&BundleDTO{}).
		Where("id = ?", dto.ID).
		Select("store_id", "driver_id", "centroid_latitude", "centroid_longitude", "status").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if len(dto.Stops) > 0 {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "bundle_id"}, {Name: "sequence"}},
				DoUpdates: clause.AssignmentColumns([]string{"order_id", "resolved", "resolved_at"}),
			}).
			Create(&dto.Stops).Error
		if err != nil {
			return err
		}
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a bundle with its stops by ID.
func (r *GormBundleRepository) Get(ctx context.Context, id kernel.UUID) (*bundle.Bundle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto BundleDTO
	err := r.db.WithContext(ctx).Preload("Stops").First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("bundle", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllActive retrieves every bundle currently out with a driver.
func (r *GormBundleRepository) GetAllActive(ctx context.Context) ([]*bundle.Bundle, error) {
	var dtos []BundleDTO
	err := r.db.WithContext(ctx).Preload("Stops").
		Where("status = ?", bundle.Active).
		Order("created_at").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	bundles := make([]*bundle.Bundle, 0, len(dtos))
	for _, dto := range dtos {
		b, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}

	return bundles, nil
}
