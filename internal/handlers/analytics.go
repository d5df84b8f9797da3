package handlers

import (
	"net/http"
	"time"

	"field-booking/internal/logger"
)

const analyticsDateLayout = "2006-01-02"

// AnalyticsHandler отдаёт агрегированные показатели по броням.
type AnalyticsHandler struct {
	analytics AnalyticsProvider
	log       *logger.Logger
}

// NewAnalyticsHandler создает обработчик аналитики.
func NewAnalyticsHandler(analytics AnalyticsProvider, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		log:       log,
	}
}

// GetKPIs возвращает KPI за период (по умолчанию — последние 30 дней).
func (h *AnalyticsHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(analyticsDateLayout, raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "from has invalid format, expected YYYY-MM-DD")
			return
		}
		from = parsed
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(analyticsDateLayout, raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "to has invalid format, expected YYYY-MM-DD")
			return
		}
		to = parsed
	}

	kpis, err := h.analytics.GetBookingKPIs(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get booking KPIs")
		return
	}

	writeJSONResponse(w, http.StatusOK, kpis)
}
