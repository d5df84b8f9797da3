package handlers

import (
	"net/http"

	"field-booking/internal/logger"
	"field-booking/internal/models"
)

// PromoHandler отдаёт состояние купонов обеих моделей.
type PromoHandler struct {
	coupons CouponProvider
	log     *logger.Logger
}

// NewPromoHandler создает обработчик купонов.
func NewPromoHandler(coupons CouponProvider, log *logger.Logger) *PromoHandler {
	return &PromoHandler{
		coupons: coupons,
		log:     log,
	}
}

// GetPromoCode возвращает легаси-промокод по строке кода.
// Сожжённый код не привязан к брони и находится только этим путём.
func (h *PromoHandler) GetPromoCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	code, err := extractIDFromPath(r.URL.Path, "/api/promo-codes/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid promo code")
		return
	}

	promo, err := h.coupons.GetPromoByCode(r.Context(), code)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get promo code")
		return
	}

	writeJSONResponse(w, http.StatusOK, promo)
}

// ListRedemptions возвращает купоны клиента (v2 модель).
func (h *PromoHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "customerId is required")
		return
	}

	limit := parseQueryInt(r, "limit", 50)
	offset := parseQueryInt(r, "offset", 0)

	redemptions, err := h.coupons.ListRedemptionsByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list redemptions")
		return
	}

	if redemptions == nil {
		redemptions = []*models.CouponRedemption{}
	}

	writeJSONResponse(w, http.StatusOK, redemptions)
}
