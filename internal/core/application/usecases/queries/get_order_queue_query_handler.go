package queries

import (
	"context"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueueQueryHandler retrieves the dispatch queue from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type GetOrderQueueQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueueQueryHandler creates a handler for dispatch queue queries.
// Requires a GORM database connection for query execution.
func NewGetOrderQueueQueryHandler(db *gorm.DB) GetOrderQueueQueryHandler {
	return GetOrderQueueQueryHandler{db: db}
}

// Handle executes the query to retrieve the dispatch queue.
// Returns queued unbundled orders sorted oldest-first, matching the order
// in which the dispatch engine considers them.
func (h GetOrderQueueQueryHandler) Handle(
	ctx context.Context,
	query GetOrderQueueQuery,
) ([]GetOrderQueueQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	queue := make([]GetOrderQueueQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			store_id,
			delivery_latitude,
			delivery_longitude,
			total_cents,
			item_count,
			created_at
		FROM orders
		WHERE status IN (?, ?) AND bundle_id IS NULL
		ORDER BY created_at
	`, order.Pending, order.Confirmed).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resp GetOrderQueueQueryResponse
		var id, storeID uuid.UUID
		var latitude, longitude float64

		err = rows.Scan(
			&id,
			&storeID,
			&latitude,
			&longitude,
			&resp.TotalCents,
			&resp.ItemCount,
			&resp.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = orderID

		orderStoreID, idErr := kernel.UUIDFromBytes(storeID[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.StoreID = orderStoreID

		location, locErr := kernel.NewGeoPoint(latitude, longitude)
		if locErr != nil {
			return nil, locErr
		}
		resp.DeliveryLocation = location
		queue = append(queue, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return queue, nil
}
