// Package prediction implements the outbound HTTP client for the external
// delivery-time prediction service. Orders are scored in batches with a
// single POST per batch; the caller bounds the call with its context.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/ports"
)

// Client calls the prediction service over HTTP. Implements
// ports.PredictionClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a prediction service client for the given base URL.
// httpClient may be nil, in which case http.DefaultClient is used; per-call
// deadlines come from the caller's context either way.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type requestOrder struct {
	OrderID           string  `json:"order_id"`
	CustomerID        string  `json:"customer_id"`
	StoreID           string  `json:"store_id"`
	StoreLatitude     float64 `json:"store_latitude"`
	StoreLongitude    float64 `json:"store_longitude"`
	DeliveryLatitude  float64 `json:"delivery_latitude"`
	DeliveryLongitude float64 `json:"delivery_longitude"`
	Total             int64   `json:"total"`
	Quantity          int     `json:"quantity"`
	CreatedAt         string  `json:"created_at"`
}

type batchRequest struct {
	Orders []requestOrder `json:"orders"`
}

type responsePrediction struct {
	OrderID                  string  `json:"order_id"`
	PredictedDeliveryMinutes float64 `json:"predicted_delivery_minutes"`
}

type batchResponse struct {
	Predictions []responsePrediction `json:"predictions"`
}

// PredictBatch scores a batch of orders in one call. The batch succeeds or
// fails as a whole: a transport error, a non-2xx status or an unparseable
// body fails every order in the batch.
func (c *Client) PredictBatch(
	ctx context.Context,
	requests []ports.PredictionRequest,
) ([]ports.Prediction, error) {
	payload := batchRequest{Orders: make([]requestOrder, 0, len(requests))}
	for _, r := range requests {
		payload.Orders = append(payload.Orders, requestOrder{
			OrderID:           r.OrderID.String(),
			CustomerID:        r.CustomerID.String(),
			StoreID:           r.StoreID.String(),
			StoreLatitude:     r.StoreLocation.Latitude(),
			StoreLongitude:    r.StoreLocation.Longitude(),
			DeliveryLatitude:  r.DeliveryLocation.Latitude(),
			DeliveryLongitude: r.DeliveryLocation.Longitude(),
			Total:             r.TotalCents,
			Quantity:          r.Quantity,
			CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/predict/batch", bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call prediction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var decoded batchResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode prediction response: %w", err)
	}

	predictions := make([]ports.Prediction, 0, len(decoded.Predictions))
	for _, p := range decoded.Predictions {
		orderID, idErr := kernel.UUIDFromString(p.OrderID)
		if idErr != nil {
			return nil, fmt.Errorf("decode prediction order id: %w", idErr)
		}
		predictions = append(predictions, ports.Prediction{
			OrderID: orderID,
			Minutes: p.PredictedDeliveryMinutes,
		})
	}

	return predictions, nil
}
