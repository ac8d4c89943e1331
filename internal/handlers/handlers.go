package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maviecommerce/mavie/internal/cache"
	"github.com/maviecommerce/mavie/internal/config"
	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/logging"
	"github.com/maviecommerce/mavie/internal/paystack"
	"github.com/maviecommerce/mavie/internal/services"
	"github.com/maviecommerce/mavie/internal/worker"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP surface of the Mavie storefront API.
type Handlers struct {
	config         *config.Config
	db             *pgxpool.Pool
	eventStore     *db.EventStore
	cacheProvider  cache.Provider
	orderService   *services.OrderService
	paymentService *services.PaymentService
	loyaltyService *services.LoyaltyService
	webhookWorker  *worker.Worker
	logger         *slog.Logger
}

type Dependencies struct {
	Config         *config.Config
	DB             *pgxpool.Pool
	EventStore     *db.EventStore
	CacheProvider  cache.Provider
	OrderService   *services.OrderService
	PaymentService *services.PaymentService
	LoyaltyService *services.LoyaltyService
	WebhookWorker  *worker.Worker
	Logger         *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.EventStore == nil {
		return nil, fmt.Errorf("handlers dependencies: eventStore is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.PaymentService == nil {
		return nil, fmt.Errorf("handlers dependencies: paymentService is required")
	}
	if deps.LoyaltyService == nil {
		return nil, fmt.Errorf("handlers dependencies: loyaltyService is required")
	}
	if deps.WebhookWorker == nil {
		return nil, fmt.Errorf("handlers dependencies: webhookWorker is required")
	}

	return &Handlers{
		config:         deps.Config,
		db:             deps.DB,
		eventStore:     deps.EventStore,
		cacheProvider:  deps.CacheProvider,
		orderService:   deps.OrderService,
		paymentService: deps.PaymentService,
		loyaltyService: deps.LoyaltyService,
		webhookWorker:  deps.WebhookWorker,
		logger:         logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

// responseEnvelope is the uniform body shape for every JSON response.
type responseEnvelope struct {
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseEnvelope{Message: http.StatusText(status), Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseEnvelope{Message: message})
}

// respondServiceError maps service errors to HTTP statuses. Unexpected errors
// are logged by the caller and come out as a plain 500.
func (h *Handlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(responseEnvelope{
			Message: "validation failed",
			Errors:  validationErr.Fields,
		})
	case errors.Is(err, services.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, db.ErrInvalidStatusTransition):
		respondMessage(w, http.StatusConflict, "invalid status transition")
	case errors.Is(err, paystack.ErrGatewayUnavailable):
		respondMessage(w, http.StatusServiceUnavailable, "payment gateway unavailable")
	default:
		h.loggerFromContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
		respondMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
