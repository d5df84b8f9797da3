package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"field-booking/internal/apperror"
	"field-booking/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestCouponService_GetAttachedRedemption_Found(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectQuery("SELECT id, status, customer_id").
		WithArgs("m-100", models.RedemptionStatusUsed).
		WillReturnRows(redemptionRow("m-100"))

	redemption, err := service.GetAttachedRedemption(context.Background(), "m-100")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if redemption == nil || !redemption.AttachedTo("m-100") {
		t.Fatalf("expected attached redemption, got %+v", redemption)
	}
}

func TestCouponService_GetAttachedRedemption_None(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectQuery("SELECT id, status, customer_id").
		WithArgs("m-100", models.RedemptionStatusUsed).
		WillReturnError(sql.ErrNoRows)

	redemption, err := service.GetAttachedRedemption(context.Background(), "m-100")
	if err != nil {
		t.Fatalf("missing redemption is not an error: %v", err)
	}
	if redemption != nil {
		t.Fatalf("expected nil redemption, got %+v", redemption)
	}
}

func TestCouponService_ReleaseRedemption_Success(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())
	id := uuid.New()

	mock.ExpectExec("UPDATE coupon_redemptions").
		WithArgs(models.RedemptionStatusActive, sqlmock.AnyArg(), id, models.RedemptionStatusUsed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := service.ReleaseRedemption(context.Background(), id); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCouponService_ReleaseRedemption_AlreadyReleased(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())
	id := uuid.New()

	mock.ExpectExec("UPDATE coupon_redemptions").
		WithArgs(models.RedemptionStatusActive, sqlmock.AnyArg(), id, models.RedemptionStatusUsed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Повторный release — no-op, не ошибка.
	if err := service.ReleaseRedemption(context.Background(), id); err != nil {
		t.Fatalf("repeated release must be a no-op: %v", err)
	}
}

func TestCouponService_ReleaseRedemption_ExecError(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectExec("UPDATE coupon_redemptions").
		WillReturnError(errors.New("connection lost"))

	if err := service.ReleaseRedemption(context.Background(), uuid.New()); err == nil {
		t.Fatalf("expected error on exec failure")
	}
}

func TestCouponService_GetAttachedPromo_Found(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectQuery("SELECT code, booking_id, status").
		WithArgs("m-100", models.PromoStatusUsed).
		WillReturnRows(promoRow("m-100", 2.0))

	promo, err := service.GetAttachedPromo(context.Background(), "m-100")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if promo == nil || promo.DurationH != 2.0 {
		t.Fatalf("expected attached promo with anchor 2.0, got %+v", promo)
	}
}

func TestCouponService_GetAttachedPromo_None(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectQuery("SELECT code, booking_id, status").
		WithArgs("m-100", models.PromoStatusUsed).
		WillReturnError(sql.ErrNoRows)

	promo, err := service.GetAttachedPromo(context.Background(), "m-100")
	if err != nil || promo != nil {
		t.Fatalf("missing promo is not an error: %v %+v", err, promo)
	}
}

func TestCouponService_BurnPromo_Success(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectExec("UPDATE promo_codes").
		WithArgs(models.PromoStatusExpired, sqlmock.AnyArg(), "PROMO50", models.PromoStatusUsed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := service.BurnPromo(context.Background(), "PROMO50"); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCouponService_BurnPromo_AlreadyBurned(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectExec("UPDATE promo_codes").
		WithArgs(models.PromoStatusExpired, sqlmock.AnyArg(), "PROMO50", models.PromoStatusUsed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := service.BurnPromo(context.Background(), "PROMO50"); err != nil {
		t.Fatalf("repeated burn must be a no-op: %v", err)
	}
}

func TestCouponService_BurnPromo_ExecError(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectExec("UPDATE promo_codes").
		WillReturnError(errors.New("connection lost"))

	if err := service.BurnPromo(context.Background(), "PROMO50"); err == nil {
		t.Fatalf("expected error on exec failure")
	}
}

func TestCouponService_GetPromoByCode_Found(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectQuery("SELECT code, booking_id, status").
		WithArgs("PROMO50").
		WillReturnRows(promoRow("m-100", 2.0))

	promo, err := service.GetPromoByCode(context.Background(), "PROMO50")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if promo.Code != "PROMO50" {
		t.Fatalf("unexpected promo: %+v", promo)
	}
}

func TestCouponService_GetPromoByCode_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	mock.ExpectQuery("SELECT code, booking_id, status").
		WithArgs("MISS").
		WillReturnError(sql.ErrNoRows)

	if _, err := service.GetPromoByCode(context.Background(), "MISS"); !apperror.Is(err, apperror.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestCouponService_ListRedemptionsByCustomer(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	service := NewCouponService(db, newTestLogger())

	rows := sqlmock.NewRows(redemptionColumns).
		AddRow(uuid.New(), models.RedemptionStatusUsed, "c-1", "m-100", "spring", nil, time.Now(), time.Now()).
		AddRow(uuid.New(), models.RedemptionStatusActive, "c-1", nil, "spring", nil, time.Now(), time.Now())

	mock.ExpectQuery("SELECT id, status, customer_id").
		WithArgs("c-1", 50, 0).
		WillReturnRows(rows)

	redemptions, err := service.ListRedemptionsByCustomer(context.Background(), "c-1", 0, 0)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(redemptions) != 2 {
		t.Fatalf("expected 2 redemptions, got %d", len(redemptions))
	}
}
