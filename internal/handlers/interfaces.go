package handlers

import (
	"context"
	"time"

	"field-booking/internal/models"
	"field-booking/internal/services"

	"github.com/google/uuid"
)

// ----- Bookings -----

type BookingService interface {
	ApplyMutation(ctx context.Context, req *models.BookingMutationRequest) (*services.MutationResult, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context, date *string, fieldNo *int, limit, offset int) ([]*models.Booking, error)
}

// ----- Coupons -----

type CouponProvider interface {
	GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
	ListRedemptionsByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*models.CouponRedemption, error)
}

// ----- Events -----

type EventProducer interface {
	PublishBookingCreated(booking *models.Booking) error
	PublishBookingUpdated(booking *models.Booking) error
	PublishCouponReleased(redemptionID uuid.UUID, bookingID string) error
	PublishPromoBurned(code, bookingID string) error
}

// ----- Cache -----

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// ----- Analytics -----

type AnalyticsProvider interface {
	GetBookingKPIs(ctx context.Context, from, to time.Time) (*models.BookingKPIs, error)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
