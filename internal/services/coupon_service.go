package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"field-booking/internal/apperror"
	"field-booking/internal/database"
	"field-booking/internal/logger"
	"field-booking/internal/models"

	"github.com/google/uuid"
)

// CouponService управляет строками обеих купонных моделей: купонами
// кампаний (v2) и легаси-промокодами (v1).
type CouponService struct {
	db  *database.DB
	log *logger.Logger
}

// NewCouponService создает сервис купонов.
func NewCouponService(db *database.DB, log *logger.Logger) *CouponService {
	return &CouponService{
		db:  db,
		log: log,
	}
}

// GetAttachedRedemption возвращает купон v2, привязанный к брони
// (статус USED). Отсутствие купона — не ошибка, возвращается nil.
func (s *CouponService) GetAttachedRedemption(ctx context.Context, bookingID string) (*models.CouponRedemption, error) {
	query := `
		SELECT id, status, customer_id, booking_id, campaign_id, used_at, created_at, updated_at
		FROM coupon_redemptions
		WHERE booking_id = $1 AND status = $2
		ORDER BY used_at DESC
		LIMIT 1
	`

	redemption := &models.CouponRedemption{}
	err := s.db.QueryRowContext(ctx, query, bookingID, models.RedemptionStatusUsed).Scan(
		&redemption.ID, &redemption.Status, &redemption.CustomerID, &redemption.BookingID,
		&redemption.CampaignID, &redemption.UsedAt, &redemption.CreatedAt, &redemption.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attached redemption: %w", err)
	}

	return redemption, nil
}

// ReleaseRedemption возвращает купон клиенту: статус снова ACTIVE,
// привязка к брони и отметка использования очищаются. Повторный вызов
// безопасен — условие по статусу делает операцию идемпотентной.
func (s *CouponService) ReleaseRedemption(ctx context.Context, redemptionID uuid.UUID) error {
	query := `
		UPDATE coupon_redemptions
		SET status = $1, booking_id = NULL, used_at = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, models.RedemptionStatusActive, time.Now(), redemptionID, models.RedemptionStatusUsed)
	if err != nil {
		return fmt.Errorf("failed to release redemption: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.log.WithField("redemption_id", redemptionID).Debug("Redemption already released, nothing to do")
		return nil
	}

	s.log.WithField("redemption_id", redemptionID).Info("Coupon redemption released")
	return nil
}

// GetAttachedPromo возвращает легаси-промокод, привязанный к брони
// (статус used). Отсутствие промокода — не ошибка, возвращается nil.
func (s *CouponService) GetAttachedPromo(ctx context.Context, bookingID string) (*models.PromoCode, error) {
	query := `
		SELECT code, booking_id, status, duration_h, original_price, final_price, created_at, updated_at
		FROM promo_codes
		WHERE booking_id = $1 AND status = $2
		LIMIT 1
	`

	promo := &models.PromoCode{}
	err := s.db.QueryRowContext(ctx, query, bookingID, models.PromoStatusUsed).Scan(
		&promo.Code, &promo.BookingID, &promo.Status, &promo.DurationH,
		&promo.OriginalPrice, &promo.FinalPrice, &promo.CreatedAt, &promo.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attached promo: %w", err)
	}

	return promo, nil
}

// BurnPromo необратимо гасит легаси-промокод: статус expired, привязка
// к брони очищается. После этого код находится только по строке кода.
// Идемпотентен за счёт условия по статусу.
func (s *CouponService) BurnPromo(ctx context.Context, code string) error {
	query := `
		UPDATE promo_codes
		SET status = $1, booking_id = NULL, updated_at = $2
		WHERE code = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, models.PromoStatusExpired, time.Now(), code, models.PromoStatusUsed)
	if err != nil {
		return fmt.Errorf("failed to burn promo code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.log.WithField("promo_code", code).Debug("Promo code already burned, nothing to do")
		return nil
	}

	s.log.WithField("promo_code", code).Info("Promo code burned")
	return nil
}

// GetPromoByCode возвращает промокод по строке кода — единственный
// путь найти сожжённый код.
func (s *CouponService) GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	query := `
		SELECT code, booking_id, status, duration_h, original_price, final_price, created_at, updated_at
		FROM promo_codes
		WHERE code = $1
	`

	promo := &models.PromoCode{}
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&promo.Code, &promo.BookingID, &promo.Status, &promo.DurationH,
		&promo.OriginalPrice, &promo.FinalPrice, &promo.CreatedAt, &promo.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("promo code not found", err)
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}

	return promo, nil
}

// ListRedemptionsByCustomer возвращает купоны клиента.
func (s *CouponService) ListRedemptionsByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*models.CouponRedemption, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, status, customer_id, booking_id, campaign_id, used_at, created_at, updated_at
		FROM coupon_redemptions
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []*models.CouponRedemption
	for rows.Next() {
		r := &models.CouponRedemption{}
		if err := rows.Scan(&r.ID, &r.Status, &r.CustomerID, &r.BookingID, &r.CampaignID, &r.UsedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		redemptions = append(redemptions, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate redemptions: %w", err)
	}

	return redemptions, nil
}
