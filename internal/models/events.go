package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType описывает тип доменного события.
type EventType string

const (
	EventTypeBookingCreated EventType = "booking.created"
	EventTypeBookingUpdated EventType = "booking.updated"
	EventTypeCouponReleased EventType = "coupon.released"
	EventTypePromoBurned    EventType = "promo.burned"
)

// Event представляет событие для Kafka.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent создает событие с заполненным id и временем.
func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// BookingKPIs — агрегированные показатели по броням за период.
type BookingKPIs struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Bookings     int       `json:"bookings"`
	PaidBookings int       `json:"paid_bookings"`
	Revenue      int       `json:"revenue"`
	AvgDurationH float64   `json:"avg_duration_h"`
	GeneratedAt  time.Time `json:"generated_at"`
}
