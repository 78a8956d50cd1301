package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
)

// Handler exposes order HTTP endpoints.
type Handler struct {
	service  Service
	validate *validator.Validate
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterRoutes mounts the order endpoints. The caller wraps them with
// authentication; authorization happens in the service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)		// POST   /api/v1/orders
		r.Get("/buy", h.buyOrders)		// GET    /api/v1/orders/buy
		r.Get("/sell", h.sellOrders)		// GET    /api/v1/orders/sell
		r.Get("/{id}", h.getOrder)		// GET    /api/v1/orders/{id}
		r.Patch("/{id}/status", h.updateStatus)	// PATCH  /api/v1/orders/{id}/status
		r.Delete("/{id}", h.cancelOrder)	// DELETE /api/v1/orders/{id}
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	o, d, err := h.service.CreateOrder(r.Context(), actor, req)
	if err != nil {
		h.respondError(w, err, "failed to create order")
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{
		"order":        o,
		"order_detail": d,
	})
}

func (h *Handler) buyOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	orders, err := h.service.GetBuyOrders(r.Context(), actor)
	if err != nil {
		h.respondError(w, err, "failed to list buy orders")
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) sellOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	orders, err := h.service.GetSellOrders(r.Context(), actor)
	if err != nil {
		h.respondError(w, err, "failed to list sell orders")
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	id, err := parseID(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	o, err := h.service.GetOrderByID(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, err, "failed to get order")
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	id, err := parseID(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), actor, id, req.Status); err != nil {
		h.respondError(w, err, "failed to update order status")
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "order status updated"})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := user.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	id, err := parseID(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	if err := h.service.CancelOrder(r.Context(), actor, id); err != nil {
		h.respondError(w, err, "failed to cancel order")
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "order cancelled"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrProductNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		respond(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrSelfPurchase), errors.Is(err, ErrStatusLocked):
		respond(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPaymentMethod), errors.Is(err, ErrInvalidStatus):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Error().Err(err).Msg(fallback)
		respond(w, http.StatusInternalServerError, map[string]string{"error": fallback})
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
