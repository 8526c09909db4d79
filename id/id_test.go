package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/premium/id"
)

func TestNewGiftCodeID(t *testing.T) {
	i := id.NewGiftCodeID()
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixGiftCode {
		t.Errorf("expected prefix %q, got %q", id.PrefixGiftCode, i.Prefix())
	}
	if !strings.HasPrefix(i.String(), "gift_") {
		t.Errorf("expected gift_ prefix, got %q", i.String())
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewGiftCodeID()
	parsed, err := id.ParseGiftCodeID(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := id.Parse("not a typeid"); err == nil {
		t.Error("expected error for malformed string")
	}
	if _, err := id.ParseWithPrefix(id.New("other").String(), id.PrefixGiftCode); err == nil {
		t.Error("expected error for mismatched prefix")
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero value should be nil")
	}
	if i.String() != "" {
		t.Errorf("nil ID should render empty, got %q", i.String())
	}

	v, err := i.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != nil {
		t.Errorf("nil ID should store NULL, got %v", v)
	}
}

func TestTextMarshaling(t *testing.T) {
	original := id.NewGiftCodeID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", decoded.String(), original.String())
	}

	var empty id.ID
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatalf("unmarshal of empty input failed: %v", err)
	}
	if !empty.IsNil() {
		t.Error("unmarshal of empty input should yield nil ID")
	}
}

func TestScan(t *testing.T) {
	original := id.NewGiftCodeID()

	var fromString id.ID
	if err := fromString.Scan(original.String()); err != nil {
		t.Fatalf("scan string failed: %v", err)
	}
	if fromString.String() != original.String() {
		t.Errorf("scan mismatch: %q != %q", fromString.String(), original.String())
	}

	var fromBytes id.ID
	if err := fromBytes.Scan([]byte(original.String())); err != nil {
		t.Fatalf("scan bytes failed: %v", err)
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("scan of nil should yield nil ID")
	}

	var bad id.ID
	if err := bad.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
