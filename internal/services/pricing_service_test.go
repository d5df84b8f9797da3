package services

import (
	"testing"

	"field-booking/internal/config"
)

func newTestPricingService() *PricingService {
	return NewPricingService(&config.PricingConfig{
		CutoffHour: 18.0,
		FieldRates: map[int]config.FieldRate{
			1: {PreRate: 500, PostRate: 700},
			3: {PreRate: 400, PostRate: 600},
		},
	})
}

func TestPricingService_WholePreCutoff(t *testing.T) {
	svc := newTestPricingService()
	if price := svc.Calculate(1, 10.0, 2.0); price != 1000 {
		t.Fatalf("expected 1000, got %d", price)
	}
}

func TestPricingService_WholePostCutoff(t *testing.T) {
	svc := newTestPricingService()
	if price := svc.Calculate(1, 19.0, 2.0); price != 1400 {
		t.Fatalf("expected 1400, got %d", price)
	}
}

func TestPricingService_SplitAcrossCutoff(t *testing.T) {
	svc := newTestPricingService()

	// 17:30-18:30: полчаса по 500 (250 -> 300) плюс полчаса по 700 (350 -> 400).
	if price := svc.Calculate(1, 17.5, 1.0); price != 700 {
		t.Fatalf("expected 700, got %d", price)
	}
}

func TestPricingService_SegmentsRoundIndependently(t *testing.T) {
	svc := newTestPricingService()

	// 17:30-19:30: 250 -> 300 и 1050 -> 1100, итого 1400 вместо 1300.
	if price := svc.Calculate(1, 17.5, 2.0); price != 1400 {
		t.Fatalf("expected 1400, got %d", price)
	}
}

func TestPricingService_ExactMultipleNotInflated(t *testing.T) {
	svc := newTestPricingService()
	if price := svc.Calculate(1, 10.0, 1.0); price != 500 {
		t.Fatalf("expected 500, got %d", price)
	}
}

func TestPricingService_BoundaryStartsAtCutoff(t *testing.T) {
	svc := newTestPricingService()
	if price := svc.Calculate(3, 18.0, 1.0); price != 600 {
		t.Fatalf("expected 600, got %d", price)
	}
}

func TestPricingService_BoundaryEndsAtCutoff(t *testing.T) {
	svc := newTestPricingService()
	if price := svc.Calculate(3, 17.0, 1.0); price != 400 {
		t.Fatalf("expected 400, got %d", price)
	}
}

func TestPricingService_PastMidnight(t *testing.T) {
	svc := newTestPricingService()

	// 23:00-01:00 считается непрерывно после границы тарифов.
	if price := svc.Calculate(1, 23.0, 2.0); price != 1400 {
		t.Fatalf("expected 1400, got %d", price)
	}
}

func TestPricingService_ZeroAndNegativeDuration(t *testing.T) {
	svc := newTestPricingService()
	if price := svc.Calculate(1, 10.0, 0); price != 0 {
		t.Fatalf("expected 0 for zero duration, got %d", price)
	}
	if price := svc.Calculate(1, 10.0, -1.5); price != 0 {
		t.Fatalf("expected 0 for negative duration, got %d", price)
	}
}

func TestPricingService_UnknownField(t *testing.T) {
	svc := newTestPricingService()
	if price := svc.Calculate(99, 10.0, 1.0); price != 0 {
		t.Fatalf("expected 0 for unknown field, got %d", price)
	}
	if svc.HasRate(99) {
		t.Fatalf("expected no rate for field 99")
	}
	if !svc.HasRate(1) {
		t.Fatalf("expected rate for field 1")
	}
}

func TestRoundUpTo100(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{-50, 0},
		{1, 100},
		{100, 100},
		{101, 200},
		{250, 300},
		{1050, 1100},
	}
	for _, c := range cases {
		if got := roundUpTo100(c.in); got != c.want {
			t.Fatalf("roundUpTo100(%.1f) = %d, want %d", c.in, got, c.want)
		}
	}
}
