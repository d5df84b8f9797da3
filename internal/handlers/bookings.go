package handlers

import (
	"encoding/json"
	"net/http"

	"field-booking/internal/logger"
	"field-booking/internal/models"
	"field-booking/internal/redis"
)

// BookingHandler представляет обработчик броней.
type BookingHandler struct {
	bookings    BookingService
	producer    EventProducer
	redisClient RedisClient
	log         *logger.Logger
}

// NewBookingHandler создает новый обработчик броней.
func NewBookingHandler(bookings BookingService, producer EventProducer, redisClient RedisClient, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookings:    bookings,
		producer:    producer,
		redisClient: redisClient,
		log:         log,
	}
}

// SyncBooking применяет правку брони, пришедшую от внешней
// бронировочной системы. Несуществующая бронь создаётся неявно.
func (h *BookingHandler) SyncBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.BookingMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.bookings.ApplyMutation(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to apply booking mutation")
		return
	}

	booking := result.Booking

	// Публикация событий в Kafka; бронь уже сохранена, поэтому сбои
	// публикации клиенту не возвращаем.
	if result.Outcome == models.OutcomeCreated {
		if err := h.producer.PublishBookingCreated(booking); err != nil {
			h.log.WithError(err).Error("Failed to publish booking created event")
		}
	} else {
		if err := h.producer.PublishBookingUpdated(booking); err != nil {
			h.log.WithError(err).Error("Failed to publish booking updated event")
		}
	}
	if result.ReleasedRedemption != nil {
		if err := h.producer.PublishCouponReleased(result.ReleasedRedemption.ID, booking.BookingID); err != nil {
			h.log.WithError(err).Error("Failed to publish coupon released event")
		}
	}
	if result.BurnedPromo != nil {
		if err := h.producer.PublishPromoBurned(result.BurnedPromo.Code, booking.BookingID); err != nil {
			h.log.WithError(err).Error("Failed to publish promo burned event")
		}
	}

	// Обновление кеша
	cacheKey := redis.GenerateKey(redis.KeyPrefixBooking, booking.BookingID)
	if err := h.redisClient.Set(r.Context(), cacheKey, booking, defaultCacheTTL); err != nil {
		h.log.WithError(err).Error("Failed to cache booking")
	}

	h.log.WithFields(map[string]interface{}{
		"booking_id": booking.BookingID,
		"outcome":    result.Outcome,
	}).Info("Booking mutation applied")

	statusCode := http.StatusOK
	if result.Outcome == models.OutcomeCreated {
		statusCode = http.StatusCreated
	}

	writeJSONResponse(w, statusCode, models.BookingMutationResponse{
		Outcome: result.Outcome,
		Booking: booking,
	})
}

// GetBooking возвращает бронь по match id.
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	bookingID, err := extractIDFromPath(r.URL.Path, "/api/bookings/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	// Попытка получить из кеша
	cacheKey := redis.GenerateKey(redis.KeyPrefixBooking, bookingID)
	var cached models.Booking
	if err := h.redisClient.Get(r.Context(), cacheKey, &cached); err == nil {
		h.log.WithField("booking_id", bookingID).Debug("Booking retrieved from cache")
		writeJSONResponse(w, http.StatusOK, &cached)
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get booking")
		return
	}

	if err := h.redisClient.Set(r.Context(), cacheKey, booking, defaultCacheTTL); err != nil {
		h.log.WithError(err).Error("Failed to cache booking")
	}

	writeJSONResponse(w, http.StatusOK, booking)
}

// ListBookings возвращает список броней с фильтрацией.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var date *string
	if raw := r.URL.Query().Get("date"); raw != "" {
		date = &raw
	}

	var fieldNo *int
	if raw := r.URL.Query().Get("field"); raw != "" {
		value := parseQueryInt(r, "field", 0)
		if value > 0 {
			fieldNo = &value
		}
	}

	limit := parseQueryInt(r, "limit", 50)
	offset := parseQueryInt(r, "offset", 0)

	bookings, err := h.bookings.ListBookings(r.Context(), date, fieldNo, limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list bookings")
		return
	}

	if bookings == nil {
		bookings = []*models.Booking{}
	}

	writeJSONResponse(w, http.StatusOK, bookings)
}
