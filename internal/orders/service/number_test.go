package service

import "testing"

func TestIncrementNumberPreservesPaddingAndSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"OS0007", "OS0008"},
		{"OS0099", "OS0100"},
		{"OS0099-A", "OS0100-A"},
		{"OS9999", "OS10000"},
		{"OS10000", "OS10001"},
		{"2026-0042", "2026-0043"},
		{"OS1", "OS2"},
		{"OS", "OS0001"},
	}
	for _, tc := range cases {
		if got := IncrementNumber(tc.in); got != tc.want {
			t.Fatalf("IncrementNumber(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNextNumberFreshSequence(t *testing.T) {
	if got := NextNumber("OS", ""); got != "OS0001" {
		t.Fatalf("expected OS0001 for a fresh sequence, got %q", got)
	}
}

func TestNextNumberContinuesFromLatest(t *testing.T) {
	if got := NextNumber("OS", "OS0041"); got != "OS0042" {
		t.Fatalf("expected OS0042, got %q", got)
	}
}

func TestIncrementNumberOnlyTouchesLastDigitRun(t *testing.T) {
	// The year in a prefixed number must never be incremented.
	if got := IncrementNumber("OS2026-0009"); got != "OS2026-0010" {
		t.Fatalf("expected OS2026-0010, got %q", got)
	}
}
