package services

import (
	"field-booking/internal/logger"
	"field-booking/internal/models"
)

// durationEpsilon — допуск на плавающее округление при сравнении
// длительностей в часах.
const durationEpsilon = 0.01

// CouponGuard решает судьбу привязанных купонов при правке брони:
// вернуть клиенту (release), сжечь (burn) или не трогать. Guard чистый —
// все записи в хранилище делает оркестратор по возвращённому решению.
type CouponGuard struct {
	log *logger.Logger
}

// NewCouponGuard создает guard.
func NewCouponGuard(log *logger.Logger) *CouponGuard {
	return &CouponGuard{log: log}
}

// Evaluate сравнивает прежнее и запрошенное состояние брони.
// newPrice и newDurationH равны nil, когда правка их не меняет.
//
// Правило v2: купон возвращается клиенту только при уменьшении
// длительности. Снижение цены без изменения времени купон не трогает.
//
// Правило v1: запрошенная длительность сравнивается с якорем промокода
// (длительностью на момент погашения), а не с текущей длительностью
// брони. Ниже якоря — shrink cheat, промокод сжигается. Возврат ровно
// к якорю после продления — честный, промокод живёт.
func (g *CouponGuard) Evaluate(prior *models.Booking, newPrice *int, newDurationH *float64, redemption *models.CouponRedemption, promo *models.PromoCode) *models.GuardDecision {
	oldDuration := prior.DurationH

	requestedDuration := oldDuration
	if newDurationH != nil {
		requestedDuration = *newDurationH
	}

	requestedPrice := prior.PriceTotal
	if newPrice != nil {
		requestedPrice = *newPrice
	}

	decision := &models.GuardDecision{}

	durationDecreased := requestedDuration < oldDuration-durationEpsilon

	if durationDecreased && redemption.AttachedTo(prior.BookingID) {
		decision.ReleaseRedemption = true
		g.log.WithFields(map[string]interface{}{
			"booking_id":    prior.BookingID,
			"redemption_id": redemption.ID,
			"old_duration":  oldDuration,
			"new_duration":  requestedDuration,
		}).Warn("Duration decreased with attached coupon, releasing redemption")
	}

	if promo.AttachedTo(prior.BookingID) && requestedDuration < promo.DurationH-durationEpsilon {
		decision.BurnPromo = true
		g.log.WithFields(map[string]interface{}{
			"booking_id":      prior.BookingID,
			"promo_code":      promo.Code,
			"anchor_duration": promo.DurationH,
			"new_duration":    requestedDuration,
			"old_price":       prior.PriceTotal,
			"new_price":       requestedPrice,
		}).Warn("Shrink below promo anchor detected, burning promo code")
	}

	// После потери скидки клиент платит полную тарифную цену: любая
	// цена из запроса игнорируется оркестратором.
	decision.ForceFullPrice = decision.ReleaseRedemption || decision.BurnPromo

	return decision
}
