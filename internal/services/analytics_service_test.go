package services

import (
	"context"
	"testing"
	"time"

	"field-booking/internal/apperror"
	"field-booking/internal/config"
	"field-booking/internal/models"
	"field-booking/internal/redis"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAnalyticsService_GetBookingKPIs_Success(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewAnalyticsService(db, nil, newTestLogger(), nil)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("2026-03-01", "2026-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"count", "paid", "revenue", "avg_duration"}).
			AddRow(42, 30, 52000, 1.75))

	kpis, err := service.GetBookingKPIs(context.Background(), from, to)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if kpis.Bookings != 42 || kpis.PaidBookings != 30 || kpis.Revenue != 52000 {
		t.Fatalf("unexpected KPIs: %+v", kpis)
	}
	if kpis.AvgDurationH != 1.75 {
		t.Fatalf("expected avg duration 1.75, got %f", kpis.AvgDurationH)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAnalyticsService_GetBookingKPIs_InvalidRange(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()

	service := NewAnalyticsService(db, nil, newTestLogger(), &config.AnalyticsConfig{MaxRangeDays: 30})

	from := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, err := service.GetBookingKPIs(context.Background(), from, to); !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}

	if _, err := service.GetBookingKPIs(context.Background(), to, to.AddDate(0, 6, 0)); !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for oversized range, got %v", err)
	}
}

func TestAnalyticsService_GetBookingKPIs_FromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	rdb, err := redis.Connect(&config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}

	service := NewAnalyticsService(nil, rdb, newTestLogger(), nil)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	cacheKey := redis.GenerateKey(redis.KeyPrefixAnalytics, "kpi:2026-03-01:2026-03-31")
	expected := &models.BookingKPIs{Bookings: 7, Revenue: 9100}
	if err := rdb.Set(context.Background(), cacheKey, expected, time.Minute); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	kpis, err := service.GetBookingKPIs(context.Background(), from, to)
	if err != nil {
		t.Fatalf("expected cache hit, got error: %v", err)
	}
	if kpis.Bookings != 7 || kpis.Revenue != 9100 {
		t.Fatalf("unexpected cached KPIs: %+v", kpis)
	}
}

func TestAnalyticsService_GetBookingKPIs_SavesToCache(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	rdb, err := redis.Connect(&config.RedisConfig{Host: "127.0.0.1", Port: mr.Port(), DB: 0}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}

	db, mock := newMockDB(t)
	defer db.Close()

	service := NewAnalyticsService(db, rdb, newTestLogger(), &config.AnalyticsConfig{CacheTTLMinutes: 5})

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("2026-04-01", "2026-04-30").
		WillReturnRows(sqlmock.NewRows([]string{"count", "paid", "revenue", "avg_duration"}).
			AddRow(3, 1, 2100, 1.0))

	if _, err := service.GetBookingKPIs(context.Background(), from, to); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	cacheKey := redis.GenerateKey(redis.KeyPrefixAnalytics, "kpi:2026-04-01:2026-04-30")
	if !mr.Exists(cacheKey) {
		t.Fatalf("expected KPIs cached under %s", cacheKey)
	}
	if ttl := mr.TTL(cacheKey); ttl <= 0 {
		t.Fatalf("expected ttl set, got %v", ttl)
	}
}
