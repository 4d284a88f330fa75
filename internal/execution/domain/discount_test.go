package domain

import "testing"

func TestAppliedDiscountAmount(t *testing.T) {
	if got := AppliedDiscount(100_000, DiscountAmount, 25_000); got != 25_000 {
		t.Fatalf("expected 25000 cents, got %d", got)
	}
}

func TestAppliedDiscountPercentage(t *testing.T) {
	if got := AppliedDiscount(100_000, DiscountPercentage, 10); got != 10_000 {
		t.Fatalf("expected 10000 cents, got %d", got)
	}
}

func TestAppliedDiscountClampsToTotal(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		kind  DiscountKind
		value float64
		want  int64
	}{
		{"amount above total", 50_000, DiscountAmount, 99_999, 50_000},
		{"percentage above hundred", 50_000, DiscountPercentage, 150, 50_000},
		{"negative amount", 50_000, DiscountAmount, -10, 0},
		{"negative percentage", 50_000, DiscountPercentage, -5, 0},
		{"zero value", 50_000, DiscountPercentage, 0, 0},
		{"zero total", 0, DiscountAmount, 1_000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AppliedDiscount(tc.total, tc.kind, tc.value)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
			if got < 0 || got > tc.total {
				t.Fatalf("applied discount %d outside [0, %d]", got, tc.total)
			}
		})
	}
}

func TestAppliedDiscountRoundsPercentage(t *testing.T) {
	// 33% of 10001 cents is 3300.33; round, don't truncate.
	if got := AppliedDiscount(10_001, DiscountPercentage, 33); got != 3300 {
		t.Fatalf("expected 3300, got %d", got)
	}
}

func TestParseDiscountKindTokens(t *testing.T) {
	if kind, err := ParseDiscountKind("amount"); err != nil || kind != DiscountAmount {
		t.Fatalf("expected amount to parse, got %v (%v)", kind, err)
	}
	if kind, err := ParseDiscountKind("percentage"); err != nil || kind != DiscountPercentage {
		t.Fatalf("expected percentage to parse, got %v (%v)", kind, err)
	}
	// The shortened form is not part of the wire contract.
	if _, err := ParseDiscountKind("percent"); err == nil {
		t.Fatal("expected the percent shorthand to be rejected")
	}
	if _, err := ParseDiscountKind("coupon"); err == nil {
		t.Fatal("expected unknown discount kind to be rejected")
	}
}
