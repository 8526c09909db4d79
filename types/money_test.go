package types

import "testing"

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"USD", USD(499), 499, "usd", "$4.99"},
		{"EUR", EUR(1999), 1999, "eur", "€19.99"},
		{"GBP", GBP(900), 900, "gbp", "£9.00"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	if got := USD(100).Add(USD(200)); !got.Equals(USD(300)) {
		t.Errorf("Add: got %v", got)
	}
	if got := USD(250).Multiply(4); !got.Equals(USD(1000)) {
		t.Errorf("Multiply: got %v", got)
	}
	if !USD(100).LessThan(USD(200)) {
		t.Error("LessThan: 100 should be less than 200")
	}
	if !Zero("usd").IsZero() {
		t.Error("IsZero: zero should be zero")
	}
	if !USD(1).IsPositive() {
		t.Error("IsPositive: 1 should be positive")
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on currency mismatch")
		}
	}()
	USD(100).Add(EUR(100))
}

func TestMoneyFormatMajor(t *testing.T) {
	if got := USD(4999).FormatMajor(); got != "49.99" {
		t.Errorf("FormatMajor: got %s, want 49.99", got)
	}
}
