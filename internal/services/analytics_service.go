package services

import (
	"context"
	"fmt"
	"time"

	"field-booking/internal/apperror"
	"field-booking/internal/config"
	"field-booking/internal/database"
	"field-booking/internal/logger"
	"field-booking/internal/models"
	"field-booking/internal/redis"
)

const (
	defaultAnalyticsCacheTTL = 10 * time.Minute
	defaultMaxRangeDays      = 365
)

// AnalyticsService агрегирует показатели по броням и кеширует выборки.
type AnalyticsService struct {
	db           *database.DB
	redis        *redis.Client
	log          *logger.Logger
	cacheTTL     time.Duration
	maxRangeDays int
}

// NewAnalyticsService создает сервис аналитики.
func NewAnalyticsService(db *database.DB, redisClient *redis.Client, log *logger.Logger, cfg *config.AnalyticsConfig) *AnalyticsService {
	cacheTTL := defaultAnalyticsCacheTTL
	maxRange := defaultMaxRangeDays

	if cfg != nil {
		if cfg.CacheTTLMinutes > 0 {
			cacheTTL = time.Duration(cfg.CacheTTLMinutes) * time.Minute
		}
		if cfg.MaxRangeDays > 0 {
			maxRange = cfg.MaxRangeDays
		}
	}

	return &AnalyticsService{
		db:           db,
		redis:        redisClient,
		log:          log,
		cacheTTL:     cacheTTL,
		maxRangeDays: maxRange,
	}
}

// GetBookingKPIs возвращает количество броней, выручку и среднюю
// длительность за период с кешированием.
func (s *AnalyticsService) GetBookingKPIs(ctx context.Context, from, to time.Time) (*models.BookingKPIs, error) {
	if to.Before(from) {
		return nil, apperror.Validation("to must not be before from", nil)
	}
	if to.Sub(from) > time.Duration(s.maxRangeDays)*24*time.Hour {
		return nil, apperror.Validation(fmt.Sprintf("range exceeds %d days", s.maxRangeDays), nil)
	}

	cacheKey := redis.GenerateKey(redis.KeyPrefixAnalytics,
		fmt.Sprintf("kpi:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02")))

	if s.redis != nil {
		var cached models.BookingKPIs
		if err := s.redis.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	query := `
		SELECT COUNT(*),
		       COUNT(paid_at),
		       COALESCE(SUM(price_total), 0),
		       COALESCE(AVG(duration_h), 0)
		FROM bookings
		WHERE date >= $1 AND date <= $2
	`

	kpis := &models.BookingKPIs{From: from, To: to, GeneratedAt: time.Now()}
	err := s.db.QueryRowContext(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02")).Scan(
		&kpis.Bookings, &kpis.PaidBookings, &kpis.Revenue, &kpis.AvgDurationH,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking KPIs: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, kpis, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("Failed to cache booking KPIs")
		}
	}

	return kpis, nil
}
