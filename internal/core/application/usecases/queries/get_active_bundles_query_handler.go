package queries

import (
	"context"

	"grocery/internal/core/domain/model/bundle"
	"grocery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveBundlesQueryHandler retrieves in-flight bundles from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type GetActiveBundlesQueryHandler struct {
	db *gorm.DB
}

// NewGetActiveBundlesQueryHandler creates a handler for active bundle queries.
// Requires a GORM database connection for query execution.
func NewGetActiveBundlesQueryHandler(db *gorm.DB) GetActiveBundlesQueryHandler {
	return GetActiveBundlesQueryHandler{db: db}
}

// Handle executes the query to retrieve all active bundles with their route
// progress. Results are sorted by creation time for consistent output.
func (h GetActiveBundlesQueryHandler) Handle(
	ctx context.Context,
	query GetActiveBundlesQuery,
) ([]GetActiveBundlesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	bundles := make([]GetActiveBundlesQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			b.id,
			b.store_id,
			b.driver_id,
			b.created_at,
			COUNT(s.order_id) AS stop_count,
			COUNT(s.order_id) FILTER (WHERE s.resolved) AS resolved_count
		FROM bundles b
		LEFT JOIN bundle_stops s ON s.bundle_id = b.id
		WHERE b.status = ?
		GROUP BY b.id, b.store_id, b.driver_id, b.created_at
		ORDER BY b.created_at
	`, bundle.Active).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resp GetActiveBundlesQueryResponse
		var id, storeID uuid.UUID
		var driverID uuid.NullUUID

		err = rows.Scan(
			&id,
			&storeID,
			&driverID,
			&resp.CreatedAt,
			&resp.StopCount,
			&resp.ResolvedCount,
		)
		if err != nil {
			return nil, err
		}

		bundleID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = bundleID

		bundleStoreID, idErr := kernel.UUIDFromBytes(storeID[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.StoreID = bundleStoreID

		if driverID.Valid {
			bundleDriverID, idErr := kernel.UUIDFromBytes(driverID.UUID[:])
			if idErr != nil {
				return nil, idErr
			}
			resp.DriverID = &bundleDriverID
		}

		bundles = append(bundles, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bundles, nil
}
