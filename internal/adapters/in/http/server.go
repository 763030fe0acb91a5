// Package http is the thin control surface over the simulator: worker
// lifecycle and interval configuration, manual dispatch and prediction
// triggers, and read-only views of the queue and active bundles.
package http

import (
	"net/http"
	"strconv"
	"time"

	"grocery/internal/core/application/usecases/commands"
	"grocery/internal/core/application/usecases/queries"
	"grocery/internal/jobs"

	"github.com/labstack/echo/v4"
)

// DefaultResendBatchSize caps a manual or scheduled prediction retry when
// the caller does not name one.
const DefaultResendBatchSize = 10

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	registry *jobs.Registry

	// Command handlers
	formBundlesHandler       commands.FormBundlesCommandHandler
	resendPredictionsHandler commands.ResendPredictionsCommandHandler

	// Query handlers
	getOrderQueueHandler    queries.GetOrderQueueQueryHandler
	getActiveBundlesHandler queries.GetActiveBundlesQueryHandler
}

// NewServer creates the control-surface server.
func NewServer(
	registry *jobs.Registry,
	formBundlesHandler commands.FormBundlesCommandHandler,
	resendPredictionsHandler commands.ResendPredictionsCommandHandler,
	getOrderQueueHandler queries.GetOrderQueueQueryHandler,
	getActiveBundlesHandler queries.GetActiveBundlesQueryHandler,
) *Server {
	return &Server{
		registry:                 registry,
		formBundlesHandler:       formBundlesHandler,
		resendPredictionsHandler: resendPredictionsHandler,
		getOrderQueueHandler:     getOrderQueueHandler,
		getActiveBundlesHandler:  getActiveBundlesHandler,
	}
}

// RegisterRoutes wires the control surface into the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)
	e.GET("/status", s.Status)
	e.PATCH("/services/config", s.UpdateConfig)
	e.POST("/services/:name/start", s.StartWorker)
	e.POST("/services/:name/stop", s.StopWorker)
	e.POST("/bundles/process", s.ProcessBundles)
	e.POST("/predictions/resend", s.ResendPredictions)
	e.GET("/orders/queue", s.GetOrderQueue)
	e.GET("/bundles", s.GetActiveBundles)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Status handles GET /status - reports every worker's active flag and
// current interval.
func (s *Server) Status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string][]jobs.WorkerStatus{
		"workers": s.registry.Status(),
	})
}

// UpdateConfig handles PATCH /services/config - applies interval updates.
// Unknown keys and non-positive values reject the whole batch.
func (s *Server) UpdateConfig(ctx echo.Context) error {
	var intervals map[string]float64
	if err := ctx.Bind(&intervals); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := s.registry.SetIntervals(intervals); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	return ctx.JSON(http.StatusOK, map[string][]jobs.WorkerStatus{
		"workers": s.registry.Status(),
	})
}

// StartWorker handles POST /services/:name/start.
func (s *Server) StartWorker(ctx echo.Context) error {
	w, err := s.registry.Get(ctx.Param("name"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	}

	if w.IsActive() {
		return ctx.JSON(http.StatusOK, map[string]any{
			"status":           "already_running",
			"interval_seconds": w.Interval().Seconds(),
		})
	}

	w.Start()
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":           "started",
		"interval_seconds": w.Interval().Seconds(),
	})
}

// StopWorker handles POST /services/:name/stop.
func (s *Server) StopWorker(ctx echo.Context) error {
	w, err := s.registry.Get(ctx.Param("name"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	}

	w.Stop()
	return ctx.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

// ProcessBundles handles POST /bundles/process - runs one dispatch cycle
// immediately.
func (s *Server) ProcessBundles(ctx echo.Context) error {
	cmd := commands.NewFormBundlesCommand()

	formed, err := s.formBundlesHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to process bundles",
		})
	}

	return ctx.JSON(http.StatusOK, map[string]int{"bundles_formed": formed})
}

// ResendPredictions handles POST /predictions/resend - retries failed
// predictions in one batch, capped at batch_size (default 10).
func (s *Server) ResendPredictions(ctx echo.Context) error {
	batchSize := DefaultResendBatchSize
	if raw := ctx.QueryParam("batch_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, errorResponse{
				Code:    http.StatusBadRequest,
				Message: "batch_size must be an integer",
			})
		}
		batchSize = parsed
	}

	cmd, err := commands.NewResendPredictionsCommand(batchSize)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	resent, err := s.resendPredictionsHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to resend predictions",
		})
	}

	return ctx.JSON(http.StatusOK, map[string]int{"resent": resent})
}

type orderQueueItem struct {
	OrderID           string  `json:"order_id"`
	StoreID           string  `json:"store_id"`
	DeliveryLatitude  float64 `json:"delivery_latitude"`
	DeliveryLongitude float64 `json:"delivery_longitude"`
	Total             int64   `json:"total"`
	Quantity          int     `json:"quantity"`
	CreatedAt         string  `json:"created_at"`
}

// GetOrderQueue handles GET /orders/queue - lists unbundled orders oldest
// first.
func (s *Server) GetOrderQueue(ctx echo.Context) error {
	query := queries.NewGetOrderQueueQuery()

	queue, err := s.getOrderQueueHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve order queue",
		})
	}

	response := make([]orderQueueItem, len(queue))
	for i, item := range queue {
		response[i] = orderQueueItem{
			OrderID:           item.ID.String(),
			StoreID:           item.StoreID.String(),
			DeliveryLatitude:  item.DeliveryLocation.Latitude(),
			DeliveryLongitude: item.DeliveryLocation.Longitude(),
			Total:             item.TotalCents,
			Quantity:          item.ItemCount,
			CreatedAt:         item.CreatedAt.Format(time.RFC3339),
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

type activeBundleItem struct {
	BundleID      string  `json:"bundle_id"`
	StoreID       string  `json:"store_id"`
	DriverID      *string `json:"driver_id"`
	StopCount     int     `json:"stop_count"`
	ResolvedCount int     `json:"resolved_count"`
	CreatedAt     string  `json:"created_at"`
}

// GetActiveBundles handles GET /bundles - lists bundles still out for
// delivery with their stop progress.
func (s *Server) GetActiveBundles(ctx echo.Context) error {
	query := queries.NewGetActiveBundlesQuery()

	bundles, err := s.getActiveBundlesHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve bundles",
		})
	}

	response := make([]activeBundleItem, len(bundles))
	for i, b := range bundles {
		item := activeBundleItem{
			BundleID:      b.ID.String(),
			StoreID:       b.StoreID.String(),
			StopCount:     b.StopCount,
			ResolvedCount: b.ResolvedCount,
			CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		}
		if b.DriverID != nil {
			driverID := b.DriverID.String()
			item.DriverID = &driverID
		}
		response[i] = item
	}

	return ctx.JSON(http.StatusOK, response)
}
