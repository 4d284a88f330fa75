package repository

import "testing"

func TestLineSubtotalRoundsFractionalQuantities(t *testing.T) {
	cases := []struct {
		name string
		line LineParams
		want int64
	}{
		{"whole quantity", LineParams{Quantity: 3, UnitPriceCents: 2500}, 7500},
		{"half quantity rounds up", LineParams{Quantity: 1.5, UnitPriceCents: 999}, 1499},
		{"third of a unit", LineParams{Quantity: 0.333, UnitPriceCents: 100}, 33},
		{"rounds rather than truncates", LineParams{Quantity: 2.5, UnitPriceCents: 3}, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := lineSubtotal(tc.line); got != tc.want {
				t.Fatalf("expected %d cents, got %d", tc.want, got)
			}
		})
	}
}

func TestLinesTotalSumsRoundedSubtotals(t *testing.T) {
	lines := []LineParams{
		{Quantity: 1.5, UnitPriceCents: 999},
		{Quantity: 2, UnitPriceCents: 10_000},
	}
	if got := linesTotal(lines); got != 21_499 {
		t.Fatalf("expected 21499 cents, got %d", got)
	}
}
