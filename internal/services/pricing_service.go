package services

import (
	"math"

	"field-booking/internal/config"
)

// PricingService рассчитывает тарифную цену брони поля.
// Каждое поле имеет две почасовые ставки с границей на cutoff-часе;
// сегмент до границы и сегмент после считаются отдельно.
type PricingService struct {
	cutoffHour float64
	rates      map[int]config.FieldRate
}

// NewPricingService создает сервис с тарифной таблицей.
func NewPricingService(cfg *config.PricingConfig) *PricingService {
	rates := cfg.FieldRates
	if rates == nil {
		rates = map[int]config.FieldRate{}
	}
	return &PricingService{
		cutoffHour: cfg.CutoffHour,
		rates:      rates,
	}
}

// Calculate считает цену в батах для поля, часа начала и длительности.
// Часовая арифметика непрерывная: бронь, уходящая за полночь, просто
// продолжает счёт после 24. Для поля без тарифа возвращается 0 —
// вызывающий обязан трактовать это как ошибку конфигурации.
func (s *PricingService) Calculate(fieldNo int, startHour, durationH float64) int {
	if durationH <= 0 {
		return 0
	}

	rate, ok := s.rates[fieldNo]
	if !ok {
		return 0
	}

	endHour := startHour + durationH

	var preHours, postHours float64
	switch {
	case endHour <= s.cutoffHour:
		preHours = durationH
	case startHour >= s.cutoffHour:
		postHours = durationH
	default:
		preHours = s.cutoffHour - startHour
		postHours = endHour - s.cutoffHour
	}

	// Каждый сегмент округляется вверх до сотни отдельно: бронь через
	// границу тарифов может округлиться дважды.
	return roundUpTo100(preHours*float64(rate.PreRate)) + roundUpTo100(postHours*float64(rate.PostRate))
}

// HasRate сообщает, настроен ли тариф для поля.
func (s *PricingService) HasRate(fieldNo int) bool {
	_, ok := s.rates[fieldNo]
	return ok
}

// roundUpTo100 округляет положительную сумму вверх до кратной 100.
func roundUpTo100(price float64) int {
	if price <= 0 {
		return 0
	}
	return int(math.Ceil(price/100.0)) * 100
}
