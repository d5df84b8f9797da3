package models

import "time"

// MutationOutcome показывает, какой путь прошла мутация брони.
type MutationOutcome string

const (
	OutcomeCreated MutationOutcome = "created"
	OutcomeUpdated MutationOutcome = "updated"
)

// Booking представляет бронь игрового поля. Первичный ключ — match id
// внешней бронировочной системы.
type Booking struct {
	BookingID   string     `json:"booking_id" db:"booking_id"`
	FieldNo     int        `json:"field_no" db:"field_no"`
	Date        string     `json:"date" db:"date"`
	TimeFrom    string     `json:"time_from" db:"time_from"`
	TimeTo      string     `json:"time_to" db:"time_to"`
	DurationH   float64    `json:"duration_h" db:"duration_h"`
	PriceTotal  int        `json:"price_total" db:"price_total"`
	HasPromo    bool       `json:"has_promo" db:"has_promo"`
	AdminNote   *string    `json:"admin_note,omitempty" db:"admin_note"`
	DisplayName *string    `json:"display_name,omitempty" db:"display_name"`
	PhoneNumber *string    `json:"phone_number,omitempty" db:"phone_number"`
	PaidAt      *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	Source      string     `json:"source" db:"source"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// BookingMutationRequest описывает входящую правку брони.
// Все поля кроме matchId опциональны; отсутствующее поле означает
// "оставить как есть".
type BookingMutationRequest struct {
	MatchID      string  `json:"matchId"`
	Price        *int    `json:"price,omitempty"`
	TimeStart    *string `json:"timeStart,omitempty"` // "2006-01-02 15:04:05"
	TimeEnd      *string `json:"timeEnd,omitempty"`
	CourtID      *int    `json:"courtId,omitempty"`
	CustomerName *string `json:"customerName,omitempty"`
	Tel          *string `json:"tel,omitempty"`
	AdminNote    *string `json:"adminNote,omitempty"`
	IsPaid       *bool   `json:"isPaid,omitempty"`
	Source       *string `json:"source,omitempty"`
}

// BookingMutationResponse возвращает сохранённую бронь вместе с
// признаком created/updated.
type BookingMutationResponse struct {
	Outcome MutationOutcome `json:"outcome"`
	Booking *Booking        `json:"booking"`
}
