package rest

import (
	"errors"
	"net/http"
	"strconv"

	"storefront-be/internal/address"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	Items           []order.CartLine `json:"items"`
	Address         *address.Input   `json:"address,omitempty"`
	AddressID       *uuid.UUID       `json:"address_id,omitempty"`
	TotalAmount     int64            `json:"total_amount"`
	ShippingFee     int64            `json:"shipping_fee"`
	PaymentIntentID string           `json:"payment_intent_id"`
	PaymentMethod   string           `json:"payment_method,omitempty"`
}

type orderResponse struct {
	Order      *order.Order `json:"order"`
	Idempotent bool         `json:"idempotent"`
}

// CreateOrder is the client half of checkout: the browser calls it after
// the provider confirmed the payment.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	var req createOrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	o, existed, err := h.svc.CreateOrder(ctx, order.CreateOrderInput{
		UserID:          userID,
		Lines:           req.Items,
		Address:         req.Address,
		AddressID:       req.AddressID,
		TotalAmount:     req.TotalAmount,
		ShippingFee:     req.ShippingFee,
		PaymentIntentID: req.PaymentIntentID,
		PaymentMethod:   req.PaymentMethod,
		Source:          order.SourceClient,
	})
	switch {
	case errors.Is(err, order.ErrInvalidInput):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, order.ErrForbidden):
		utils.WriteJSONError(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		logger.FromCtx(ctx).Error("create order failed", zap.Error(err))
		utils.WriteJSONError(w, order.ErrOrderCreationFailed.Error(), http.StatusInternalServerError)
		return
	}

	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	utils.WriteJSON(w, code, orderResponse{Order: o, Idempotent: existed})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))

	var status *order.Status
	if s := q.Get("status"); s != "" {
		st := order.Status(s)
		status = &st
	}

	orders, err := h.svc.ListOrders(ctx, userID, status, limit, page)
	if errors.Is(err, order.ErrInvalidInput) {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.FromCtx(ctx).Error("list orders failed", zap.Error(err))
		utils.WriteJSONError(w, "could not list orders", http.StatusInternalServerError)
		return
	}

	if orders == nil {
		orders = []*order.Order{}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	orderID, err := utils.ToInt64(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.svc.GetOrderDetail(ctx, userID, orderID, utils.IsAdmin(ctx))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"order": o})
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := utils.ToInt64(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		utils.WriteJSONError(w, "invalid status", http.StatusBadRequest)
		return
	}

	o, err := h.svc.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"order": o})
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrForbidden):
		utils.WriteJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, order.ErrInvalidStatusTransition):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		logger.FromCtx(r.Context()).Error("order request failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
