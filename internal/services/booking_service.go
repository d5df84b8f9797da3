package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"field-booking/internal/apperror"
	"field-booking/internal/config"
	"field-booking/internal/database"
	"field-booking/internal/logger"
	"field-booking/internal/models"
)

// timestampLayout — формат меток времени внешней бронировочной системы.
const timestampLayout = "2006-01-02 15:04:05"

const defaultUpdateAttempts = 3

// BookingService — оркестратор мутаций брони: разбирает запрос,
// поднимает текущее состояние, прогоняет guard, пересчитывает цену и
// сохраняет результат.
type BookingService struct {
	db             *database.DB
	log            *logger.Logger
	pricing        *PricingService
	guard          *CouponGuard
	coupons        *CouponService
	updateAttempts int
	defaultSource  string
}

// NewBookingService создает оркестратор броней.
func NewBookingService(db *database.DB, log *logger.Logger, pricing *PricingService, guard *CouponGuard, coupons *CouponService, cfg *config.BookingConfig) *BookingService {
	attempts := defaultUpdateAttempts
	source := "sync"
	if cfg != nil {
		if cfg.UpdateAttempts > 0 {
			attempts = cfg.UpdateAttempts
		}
		if cfg.DefaultSource != "" {
			source = cfg.DefaultSource
		}
	}

	return &BookingService{
		db:             db,
		log:            log,
		pricing:        pricing,
		guard:          guard,
		coupons:        coupons,
		updateAttempts: attempts,
		defaultSource:  source,
	}
}

// MutationResult — результат одной мутации вместе с решением guard'а,
// чтобы вызывающий мог опубликовать события по фактически сработавшим
// побочным эффектам.
type MutationResult struct {
	Booking            *models.Booking
	Outcome            models.MutationOutcome
	Decision           *models.GuardDecision
	ReleasedRedemption *models.CouponRedemption
	BurnedPromo        *models.PromoCode
}

// timeWindow — разобранная пара timeStart/timeEnd запроса.
type timeWindow struct {
	date      string
	from      string
	to        string
	durationH float64
	startHour float64
}

// ApplyMutation применяет одну правку брони. Отсутствующая бронь не
// ошибка: запрос проваливается в путь создания с пометкой Created.
func (s *BookingService) ApplyMutation(ctx context.Context, req *models.BookingMutationRequest) (*MutationResult, error) {
	if req == nil || strings.TrimSpace(req.MatchID) == "" {
		return nil, apperror.Validation("matchId is required", nil)
	}

	window, err := parseTimeWindow(req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.updateAttempts; attempt++ {
		prior, err := s.getBooking(ctx, req.MatchID)
		if err != nil {
			if err == sql.ErrNoRows {
				return s.createFromRequest(ctx, req, window)
			}
			return nil, err
		}

		result, conflicted, err := s.applyToExisting(ctx, req, window, prior)
		if err != nil {
			return nil, err
		}
		if conflicted {
			// Строка поменялась под нами: перечитываем и решаем заново,
			// чтобы guard сравнивал именно с заменяемой версией.
			s.log.WithFields(map[string]interface{}{
				"booking_id": req.MatchID,
				"attempt":    attempt + 1,
			}).Warn("Concurrent booking update detected, retrying")
			continue
		}
		return result, nil
	}

	return nil, apperror.Conflict("booking was modified concurrently, please retry", nil)
}

// applyToExisting выполняет один проход read-modify-write против
// загруженной версии строки. conflicted=true означает проигранную
// optimistic-гонку: строку надо перечитать.
func (s *BookingService) applyToExisting(ctx context.Context, req *models.BookingMutationRequest, window *timeWindow, prior *models.Booking) (*MutationResult, bool, error) {
	var newDurationH *float64
	startHour := hourFromClock(prior.TimeFrom)
	if window != nil {
		newDurationH = &window.durationH
		startHour = window.startHour
	}

	fieldNo := prior.FieldNo
	if req.CourtID != nil {
		fieldNo = *req.CourtID
	}

	redemption, err := s.coupons.GetAttachedRedemption(ctx, prior.BookingID)
	if err != nil {
		return nil, false, err
	}
	promo, err := s.coupons.GetAttachedPromo(ctx, prior.BookingID)
	if err != nil {
		return nil, false, err
	}

	decision := s.guard.Evaluate(prior, req.Price, newDurationH, redemption, promo)

	duration := prior.DurationH
	if newDurationH != nil {
		duration = *newDurationH
	}

	price := prior.PriceTotal
	switch {
	case decision.ForceFullPrice:
		// Скидка потеряна — любая цена из запроса игнорируется,
		// берётся полная тарифная цена новой длительности.
		price, err = s.fullPrice(fieldNo, startHour, duration)
	case req.Price != nil:
		price = *req.Price
	case window != nil:
		// Изменение времени без явной цены всегда требует пересчёта.
		price, err = s.fullPrice(fieldNo, startHour, duration)
	}
	if err != nil {
		return nil, false, err
	}

	updated := *prior
	updated.FieldNo = fieldNo
	updated.DurationH = duration
	updated.PriceTotal = price
	if window != nil {
		updated.Date = window.date
		updated.TimeFrom = window.from
		updated.TimeTo = window.to
	}
	if req.CustomerName != nil {
		updated.DisplayName = req.CustomerName
	}
	if req.Tel != nil {
		updated.PhoneNumber = req.Tel
	}
	if req.AdminNote != nil {
		updated.AdminNote = req.AdminNote
	}
	if req.IsPaid != nil {
		if *req.IsPaid {
			if updated.PaidAt == nil {
				now := time.Now()
				updated.PaidAt = &now
			}
		} else {
			updated.PaidAt = nil
		}
	}
	if decision.ForceFullPrice {
		updated.HasPromo = false
	}
	updated.UpdatedAt = time.Now()

	ok, err := s.updateBookingRow(ctx, &updated, prior.UpdatedAt)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, true, nil
	}

	result := &MutationResult{
		Booking:  &updated,
		Outcome:  models.OutcomeUpdated,
		Decision: decision,
	}
	s.applyGuardDecision(ctx, decision, redemption, promo, result)

	s.log.WithFields(map[string]interface{}{
		"booking_id":  updated.BookingID,
		"price_total": updated.PriceTotal,
		"duration_h":  updated.DurationH,
	}).Info("Booking updated")

	return result, false, nil
}

// createFromRequest — неявное создание: правка несуществующей брони
// заводит новую строку из полей запроса.
func (s *BookingService) createFromRequest(ctx context.Context, req *models.BookingMutationRequest, window *timeWindow) (*MutationResult, error) {
	now := time.Now()

	booking := &models.Booking{
		BookingID: req.MatchID,
		Source:    s.defaultSource,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Source != nil && *req.Source != "" {
		booking.Source = *req.Source
	}
	if req.CourtID != nil {
		booking.FieldNo = *req.CourtID
	}
	if window != nil {
		booking.Date = window.date
		booking.TimeFrom = window.from
		booking.TimeTo = window.to
		booking.DurationH = window.durationH
	}

	switch {
	case req.Price != nil:
		booking.PriceTotal = *req.Price
	case window != nil:
		price, err := s.fullPrice(booking.FieldNo, window.startHour, window.durationH)
		if err != nil {
			return nil, err
		}
		booking.PriceTotal = price
	}

	booking.DisplayName = req.CustomerName
	booking.PhoneNumber = req.Tel
	booking.AdminNote = req.AdminNote
	if req.IsPaid != nil && *req.IsPaid {
		booking.PaidAt = &now
	}

	query := `
		INSERT INTO bookings (booking_id, field_no, date, time_from, time_to, duration_h, price_total, has_promo, admin_note, display_name, phone_number, paid_at, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		booking.BookingID, booking.FieldNo, booking.Date, booking.TimeFrom, booking.TimeTo,
		booking.DurationH, booking.PriceTotal, booking.HasPromo, booking.AdminNote,
		booking.DisplayName, booking.PhoneNumber, booking.PaidAt, booking.Source,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"booking_id":  booking.BookingID,
		"price_total": booking.PriceTotal,
		"source":      booking.Source,
	}).Info("Booking created implicitly from mutation")

	return &MutationResult{
		Booking:  booking,
		Outcome:  models.OutcomeCreated,
		Decision: &models.GuardDecision{},
	}, nil
}

// fullPrice считает полную тарифную цену; нулевой результат —
// сломанная тарифная конфигурация, бесплатную бронь не сохраняем.
func (s *BookingService) fullPrice(fieldNo int, startHour, durationH float64) (int, error) {
	price := s.pricing.Calculate(fieldNo, startHour, durationH)
	if price == 0 {
		return 0, apperror.PriceConfig(fmt.Sprintf("no rate configured for field %d", fieldNo), nil)
	}
	return price, nil
}

// updateBookingRow пишет новую версию строки при условии, что
// updated_at не изменился с момента чтения (optimistic versioning).
func (s *BookingService) updateBookingRow(ctx context.Context, b *models.Booking, expectedUpdatedAt time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET field_no = $1, date = $2, time_from = $3, time_to = $4, duration_h = $5,
		    price_total = $6, has_promo = $7, admin_note = $8, display_name = $9,
		    phone_number = $10, paid_at = $11, updated_at = $12
		WHERE booking_id = $13 AND updated_at = $14
	`

	result, err := s.db.ExecContext(ctx, query,
		b.FieldNo, b.Date, b.TimeFrom, b.TimeTo, b.DurationH,
		b.PriceTotal, b.HasPromo, b.AdminNote, b.DisplayName,
		b.PhoneNumber, b.PaidAt, b.UpdatedAt,
		b.BookingID, expectedUpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// applyGuardDecision применяет побочные эффекты решения guard'а.
// Ошибки здесь не валят запрос: обновление брони — первичный эффект,
// а release/burn идемпотентны и дочиниваются повторным прогоном.
func (s *BookingService) applyGuardDecision(ctx context.Context, decision *models.GuardDecision, redemption *models.CouponRedemption, promo *models.PromoCode, result *MutationResult) {
	if decision.ReleaseRedemption && redemption != nil {
		if err := s.coupons.ReleaseRedemption(ctx, redemption.ID); err != nil {
			s.log.WithError(err).WithField("redemption_id", redemption.ID).Error("Failed to release coupon redemption")
		} else {
			result.ReleasedRedemption = redemption
		}
	}

	if decision.BurnPromo && promo != nil {
		if err := s.coupons.BurnPromo(ctx, promo.Code); err != nil {
			s.log.WithError(err).WithField("promo_code", promo.Code).Error("Failed to burn promo code")
		} else {
			result.BurnedPromo = promo
		}
	}
}

// GetBooking возвращает бронь по match id.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("booking not found", err)
		}
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) getBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	query := `
		SELECT booking_id, field_no, date, time_from, time_to, duration_h, price_total, has_promo,
		       admin_note, display_name, phone_number, paid_at, source, created_at, updated_at
		FROM bookings
		WHERE booking_id = $1
	`

	booking := &models.Booking{}
	err := s.db.QueryRowContext(ctx, query, bookingID).Scan(
		&booking.BookingID, &booking.FieldNo, &booking.Date, &booking.TimeFrom, &booking.TimeTo,
		&booking.DurationH, &booking.PriceTotal, &booking.HasPromo,
		&booking.AdminNote, &booking.DisplayName, &booking.PhoneNumber, &booking.PaidAt,
		&booking.Source, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}

// ListBookings возвращает брони с фильтрацией по дате и полю.
func (s *BookingService) ListBookings(ctx context.Context, date *string, fieldNo *int, limit, offset int) ([]*models.Booking, error) {
	query := `
		SELECT booking_id, field_no, date, time_from, time_to, duration_h, price_total, has_promo,
		       admin_note, display_name, phone_number, paid_at, source, created_at, updated_at
		FROM bookings
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if date != nil {
		query += fmt.Sprintf(" AND date = $%d", argIndex)
		args = append(args, *date)
		argIndex++
	}

	if fieldNo != nil {
		query += fmt.Sprintf(" AND field_no = $%d", argIndex)
		args = append(args, *fieldNo)
		argIndex++
	}

	query += " ORDER BY date DESC, time_from DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		if err := rows.Scan(&b.BookingID, &b.FieldNo, &b.Date, &b.TimeFrom, &b.TimeTo,
			&b.DurationH, &b.PriceTotal, &b.HasPromo,
			&b.AdminNote, &b.DisplayName, &b.PhoneNumber, &b.PaidAt,
			&b.Source, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// parseTimeWindow разбирает пару timeStart/timeEnd. Поля обязаны идти
// вместе, конец строго позже начала.
func parseTimeWindow(req *models.BookingMutationRequest) (*timeWindow, error) {
	if req.TimeStart == nil && req.TimeEnd == nil {
		return nil, nil
	}
	if req.TimeStart == nil || req.TimeEnd == nil {
		return nil, apperror.Validation("timeStart and timeEnd must be supplied together", nil)
	}

	start, err := time.Parse(timestampLayout, *req.TimeStart)
	if err != nil {
		return nil, apperror.Validation("timeStart has invalid format, expected YYYY-MM-DD HH:mm:ss", err)
	}
	end, err := time.Parse(timestampLayout, *req.TimeEnd)
	if err != nil {
		return nil, apperror.Validation("timeEnd has invalid format, expected YYYY-MM-DD HH:mm:ss", err)
	}
	if !end.After(start) {
		return nil, apperror.Validation("timeEnd must be after timeStart", nil)
	}

	return &timeWindow{
		date:      start.Format("2006-01-02"),
		from:      start.Format("15:04"),
		to:        end.Format("15:04"),
		durationH: end.Sub(start).Minutes() / 60.0,
		startHour: float64(start.Hour()) + float64(start.Minute())/60.0,
	}, nil
}

// hourFromClock переводит "HH:mm" в дробный час суток.
func hourFromClock(clock string) float64 {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0
	}
	return float64(t.Hour()) + float64(t.Minute())/60.0
}
