package rest

import (
	"errors"
	"net/http"

	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type CartHandler struct {
	svc cart.Service
}

func NewCartHandler(svc cart.Service) *CartHandler {
	return &CartHandler{svc: svc}
}

type addToCartRequest struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"qty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	items, err := h.svc.GetCart(r.Context(), userID)
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req addToCartRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.svc.AddToCart(r.Context(), cart.AddToCartParams{
		UserID:    userID,
		ProductID: req.ProductID,
		Size:      req.Size,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	q := r.URL.Query()
	productID, err := utils.ToInt64(q.Get("product_id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid product_id", http.StatusBadRequest)
		return
	}

	err = h.svc.RemoveFromCart(r.Context(), cart.RemoveFromCartParams{
		UserID:    userID,
		ProductID: productID,
		Size:      q.Get("size"),
	})
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	if err := h.svc.ClearCart(r.Context(), userID); err != nil {
		writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, cart.ErrUserNotAuthenticated):
		utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, cart.ErrCartItemNotFound), errors.Is(err, cart.ErrProductNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, cart.ErrInsufficientStock):
		utils.WriteJSONError(w, err.Error(), http.StatusConflict)
	default:
		logger.FromCtx(r.Context()).Error("cart request failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
