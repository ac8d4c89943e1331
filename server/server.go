package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/maviecommerce/mavie/internal/config"
	"github.com/maviecommerce/mavie/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.MetricsContext)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")
	r.HandleFunc("/webhooks/paystack", h.PaystackWebhook).Methods("POST").Name("webhooks.paystack")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.OptionalCustomer)

	// Checkout and order lookup. Guests and customers share these routes;
	// the bearer token decides which.
	api.HandleFunc("/orders", h.CreateOrder).Methods("POST").Name("orders.create")
	api.HandleFunc("/orders/summary", h.OrderSummary).Methods("POST").Name("orders.summary")
	api.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	api.HandleFunc("/orders/track/{number}", h.TrackOrder).Methods("GET").Name("orders.track")
	api.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("orders.get")

	api.HandleFunc("/payments/{id}/initialize", h.InitializePayment).Methods("POST").Name("payments.initialize")
	api.HandleFunc("/payments/verify/{reference}", h.VerifyPayment).Methods("GET").Name("payments.verify")
	api.HandleFunc("/payments/{id}/status", h.PaymentStatus).Methods("GET").Name("payments.status")

	api.Handle("/loyalty/account", h.RequireCustomer(http.HandlerFunc(h.LoyaltyAccount))).Methods("GET").Name("loyalty.account")
	api.Handle("/loyalty/provision", h.RequireCustomer(http.HandlerFunc(h.ProvisionLoyaltyAccount))).Methods("POST").Name("loyalty.provision")

	// Operator routes.
	api.Handle("/orders/{id}/status", h.RequireAdmin(http.HandlerFunc(h.UpdateOrderStatus))).Methods("PUT").Name("orders.update_status")
	api.Handle("/payments/{id}/refund", h.RequireAdmin(http.HandlerFunc(h.RefundPayment))).Methods("POST").Name("payments.refund")

	return r
}
