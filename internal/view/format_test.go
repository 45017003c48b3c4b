package view

import (
	"testing"

	"iexpense/internal/core"
)

func TestAmountFormatter(t *testing.T) {
	f, err := NewAmountFormatter("usd", "en")
	if err != nil {
		t.Fatalf("new formatter: %v", err)
	}
	if f.Currency() != "USD" {
		t.Fatalf("unexpected currency %s", f.Currency())
	}
	cases := []struct {
		cents int64
		want  string
	}{
		{500, "$ 5.00"},
		{5, "$ 0.05"},
		{1250, "$ 12.50"},
	}
	for _, tc := range cases {
		if got := f.Format(core.Money{Cents: tc.cents}); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestNewAmountFormatterRejectsBadInput(t *testing.T) {
	if _, err := NewAmountFormatter("XXXX", "en"); err == nil {
		t.Fatalf("expected error for unknown currency")
	}
	if _, err := NewAmountFormatter("USD", "not a locale!"); err == nil {
		t.Fatalf("expected error for bad locale")
	}
}
