package ports

import (
	"context"
	"time"

	"grocery/internal/core/domain/model/kernel"
)

// PredictionRequest carries the order features the external model scores.
type PredictionRequest struct {
	OrderID          kernel.UUID
	CustomerID       kernel.UUID
	StoreID          kernel.UUID
	StoreLocation    kernel.GeoPoint
	DeliveryLocation kernel.GeoPoint
	TotalCents       int64
	Quantity         int
	CreatedAt        time.Time
}

// Prediction is one scored order from a batch response.
type Prediction struct {
	OrderID kernel.UUID
	Minutes float64
}

// PredictionClient defines the contract with the external delivery-time
// prediction service. Calls are bounded by the context deadline; a batch
// either scores as a whole or fails as a whole.
type PredictionClient interface {
	PredictBatch(ctx context.Context, requests []PredictionRequest) ([]Prediction, error)
}
