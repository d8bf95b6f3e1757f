package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fashionshop/order-service/internal/entities"
	"github.com/fashionshop/order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const defaultListLimit = 100

type OrderService interface {
	CreateOrder(ctx context.Context, in entities.CreateIntent) (entities.CreateResult, error)
	GetOrder(ctx context.Context, orderID string) (entities.OrderDetail, error)
	ListOrders(ctx context.Context, limit int) ([]entities.OrderSummary, error)
	UpdateOrder(ctx context.Context, orderID string, in entities.UpdateIntent) (int64, error)
	TransitionStatus(ctx context.Context, orderID string, newStatus entities.Status) (entities.Status, error)
	TransitionPayment(ctx context.Context, orderID string, newStatus entities.PaymentStatus) (entities.PaymentStatus, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	svc      OrderService
}

func NewHTTPHandler(logger *slog.Logger, svc OrderService) *HTTPHandler {
	return &HTTPHandler{
		logger:   logger.With(slog.String("handler", "http")),
		validate: validator.New(),
		svc:      svc,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{order_id}", h.GetOrder)
		r.Put("/{order_id}", h.UpdateOrder)
		r.Patch("/{order_id}/status", h.UpdateStatus)
		r.Patch("/{order_id}/payment", h.UpdatePaymentStatus)
		r.Delete("/{order_id}", h.DeleteOrder)
	})
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	res, err := h.svc.CreateOrder(ctx, req.ToIntent())
	if err != nil {
		h.writeDomainError(ctx, w, err, "create")
		return
	}

	ordersCreated.Inc()
	utils.WriteJSON(w, CreateOrderResponse{
		OrderID:       res.OrderID,
		Status:        string(res.Status),
		PaymentStatus: string(res.PaymentStatus),
		Subtotal:      res.Subtotal,
		FinalTotal:    res.FinalTotal,
	}, http.StatusCreated)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	detail, err := h.svc.GetOrder(ctx, orderID)
	if err != nil {
		h.writeDomainError(ctx, w, err, "get")
		return
	}

	utils.WriteJSON(w, DetailEntityToJSON(detail), http.StatusOK)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.WriteError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	orders, err := h.svc.ListOrders(ctx, limit)
	if err != nil {
		h.writeDomainError(ctx, w, err, "list")
		return
	}

	result := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		result = append(result, SummaryEntityToJSON(o))
	}
	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *HTTPHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req UpdateOrderRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	intent := entities.UpdateIntent{
		Items:           itemsToIntent(req.Items),
		ShippingCost:    req.ShippingCost,
		PaymentMethod:   req.PaymentMethod,
		DeliveryStaffID: req.DeliveryStaffID,
	}
	if req.Status != nil {
		st, ok := entities.ParseStatus(*req.Status)
		if !ok {
			utils.WriteError(w, "unknown status "+*req.Status, http.StatusBadRequest)
			return
		}
		intent.Status = &st
	}
	if req.PaymentStatus != nil {
		ps, ok := entities.ParsePaymentStatus(*req.PaymentStatus)
		if !ok {
			utils.WriteError(w, "unknown payment status "+*req.PaymentStatus, http.StatusBadRequest)
			return
		}
		intent.PaymentStatus = &ps
	}

	finalTotal, err := h.svc.UpdateOrder(ctx, orderID, intent)
	if err != nil {
		h.writeDomainError(ctx, w, err, "update")
		return
	}

	utils.WriteJSON(w, UpdateOrderResponse{FinalTotal: finalTotal}, http.StatusOK)
}

func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req StatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	st, ok := entities.ParseStatus(req.Status)
	if !ok {
		utils.WriteError(w, "unknown status "+req.Status, http.StatusBadRequest)
		return
	}

	status, err := h.svc.TransitionStatus(ctx, orderID, st)
	if err != nil {
		h.writeDomainError(ctx, w, err, "status")
		return
	}

	if status == entities.StatusCancelled {
		ordersCancelled.Inc()
	}
	utils.WriteJSON(w, StatusResponse{Status: string(status)}, http.StatusOK)
}

func (h *HTTPHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var req PaymentStatusRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}
	ps, ok := entities.ParsePaymentStatus(req.PaymentStatus)
	if !ok {
		utils.WriteError(w, "unknown payment status "+req.PaymentStatus, http.StatusBadRequest)
		return
	}

	status, err := h.svc.TransitionPayment(ctx, orderID, ps)
	if err != nil {
		h.writeDomainError(ctx, w, err, "payment")
		return
	}

	utils.WriteJSON(w, PaymentStatusResponse{PaymentStatus: string(status)}, http.StatusOK)
}

func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	if err := h.svc.DeleteOrder(ctx, orderID); err != nil {
		h.writeDomainError(ctx, w, err, "delete")
		return
	}

	utils.WriteJSON(w, DeleteOrderResponse{Message: "order deleted"}, http.StatusOK)
}

// writeDomainError maps the error taxonomy onto HTTP codes. Domain errors
// carry the offending order/variant in their message, so the message goes out
// as-is; everything else is an opaque 500.
func (h *HTTPHandler) writeDomainError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, entities.ErrOrderNotFound),
		errors.Is(err, entities.ErrVariantNotFound),
		errors.Is(err, entities.ErrCustomerNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, entities.ErrInvalidOrder):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entities.ErrInsufficientStock):
		stockRejections.Inc()
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrInvalidTransition):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entities.ErrConflict):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.ErrorContext(ctx, "order operation failed",
			slog.String("op", op), slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
