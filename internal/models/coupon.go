package models

import (
	"time"

	"github.com/google/uuid"
)

// RedemptionStatus описывает статус купона новой (v2) модели.
type RedemptionStatus string

const (
	RedemptionStatusActive  RedemptionStatus = "ACTIVE"
	RedemptionStatusUsed    RedemptionStatus = "USED"
	RedemptionStatusRevoked RedemptionStatus = "REVOKED"
)

// CouponRedemption представляет выданный клиенту купон кампании (v2).
// Купон считается привязанным к брони, когда статус USED и заполнен
// booking_id; release всегда очищает статус, привязку и used_at вместе.
type CouponRedemption struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	Status     RedemptionStatus `json:"status" db:"status"`
	CustomerID string           `json:"customer_id" db:"customer_id"`
	BookingID  *string          `json:"booking_id,omitempty" db:"booking_id"`
	CampaignID string           `json:"campaign_id" db:"campaign_id"`
	UsedAt     *time.Time       `json:"used_at,omitempty" db:"used_at"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// AttachedTo сообщает, привязан ли купон к указанной брони.
func (r *CouponRedemption) AttachedTo(bookingID string) bool {
	if r == nil {
		return false
	}
	return r.Status == RedemptionStatusUsed && r.BookingID != nil && *r.BookingID == bookingID
}

// PromoStatus описывает статус промокода легаси (v1) модели.
type PromoStatus string

const (
	PromoStatusActive  PromoStatus = "active"
	PromoStatusUsed    PromoStatus = "used"
	PromoStatusExpired PromoStatus = "expired"
)

// PromoCode представляет легаси-промокод. DurationH — якорная
// длительность, зафиксированная в момент погашения; все последующие
// сравнения shrink/extend идут против неё, а не против текущей брони.
type PromoCode struct {
	Code          string      `json:"code" db:"code"`
	BookingID     *string     `json:"booking_id,omitempty" db:"booking_id"`
	Status        PromoStatus `json:"status" db:"status"`
	DurationH     float64     `json:"duration_h" db:"duration_h"`
	OriginalPrice int         `json:"original_price" db:"original_price"`
	FinalPrice    int         `json:"final_price" db:"final_price"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// AttachedTo сообщает, привязан ли промокод к указанной брони.
func (p *PromoCode) AttachedTo(bookingID string) bool {
	if p == nil {
		return false
	}
	return p.Status == PromoStatusUsed && p.BookingID != nil && *p.BookingID == bookingID
}

// GuardDecision — решение guard'а по одной правке брони.
// Guard ничего не пишет сам: оркестратор применяет решение отдельными
// записями в соответствующие таблицы.
type GuardDecision struct {
	ForceFullPrice    bool `json:"force_full_price"`
	ReleaseRedemption bool `json:"release_redemption"`
	BurnPromo         bool `json:"burn_promo"`
}
