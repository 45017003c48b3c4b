package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleRecords() []ExpenseRecord {
	return []ExpenseRecord{
		NewExpenseRecord(NewID(), "Coffee", Personal, Money{Cents: 500}),
		NewExpenseRecord(NewID(), "Rent", Business, Money{Cents: 150000}),
		NewExpenseRecord(NewID(), "Yacht", Business, Money{Cents: 25000000}),
		NewExpenseRecord(NewID(), "Coffee", Personal, Money{Cents: 500}),
		NewExpenseRecord(NewID(), "Odd cents", Personal, Money{Cents: 1999}),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, in := range [][]ExpenseRecord{nil, {}, sampleRecords()} {
		data, err := EncodeRecords(in)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out, err := DecodeRecords(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(in) == 0 {
			if len(out) != 0 {
				t.Fatalf("expected empty, got %v", out)
			}
			continue
		}
		if diff := cmp.Diff(in, out); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestEncodeWireShape(t *testing.T) {
	rec := NewExpenseRecord("0b5ec5a3-6a7e-4b8e-9a53-2f1f0e1b9c11", "Rent", Business, Money{Cents: 150050})
	data, err := EncodeRecords([]ExpenseRecord{rec})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"id":"0b5ec5a3-6a7e-4b8e-9a53-2f1f0e1b9c11","name":"Rent","type":"Business","amount":1500.5}]`
	if string(data) != want {
		t.Fatalf("unexpected wire form:\n got %s\nwant %s", data, want)
	}
}

func TestDecodeRejectsForeignPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"garbage":        `not json`,
		"null":           `null`,
		"object":         `{"id":"x"}`,
		"missing amount": `[{"id":"0b5ec5a3-6a7e-4b8e-9a53-2f1f0e1b9c11","name":"a","type":"Personal"}]`,
		"bad id":         `[{"id":"nope","name":"a","type":"Personal","amount":1}]`,
		"third category": `[{"id":"0b5ec5a3-6a7e-4b8e-9a53-2f1f0e1b9c11","name":"a","type":"Travel","amount":1}]`,
		"string amount":  `[{"id":"0b5ec5a3-6a7e-4b8e-9a53-2f1f0e1b9c11","name":"a","type":"Personal","amount":"1"}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := DecodeRecords([]byte(payload))
			if !errors.Is(err, ErrCorruptPayload) {
				t.Fatalf("expected ErrCorruptPayload, got %v", err)
			}
			if out != nil {
				t.Fatalf("expected nil records, got %v", out)
			}
		})
	}
}

func TestMaxCentsSurvivesReload(t *testing.T) {
	top := NewExpenseRecord(NewID(), "Ceiling", Business, Money{Cents: MaxCents})
	if err := top.Validate(); err != nil {
		t.Fatalf("MaxCents should be a valid amount: %v", err)
	}
	data, err := EncodeRecords([]ExpenseRecord{top})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeRecords(data)
	if err != nil {
		t.Fatalf("decode at MaxCents: %v", err)
	}
	if diff := cmp.Diff([]ExpenseRecord{top}, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	over := top
	over.Amount = Money{Cents: MaxCents + 1}
	if err := over.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("MaxCents+1 should fail validation, got %v", err)
	}
	data, err = EncodeRecords([]ExpenseRecord{over})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRecords(data); !errors.Is(err, ErrCorruptPayload) {
		t.Fatalf("decoder should reject what Validate rejects, got %v", err)
	}
}

func TestParsedAmountsStayDecodable(t *testing.T) {
	cents, err := ParseDecimalToCents(fmt.Sprintf("%d.%02d", MaxCents/100, MaxCents%100))
	if err != nil || cents != MaxCents {
		t.Fatalf("expected MaxCents, got %d (err=%v)", cents, err)
	}
	over := int64(MaxCents + 1)
	if _, err := ParseDecimalToCents(fmt.Sprintf("%d.%02d", over/100, over%100)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("MaxCents+1 should be rejected by the form parser, got %v", err)
	}
	if _, err := ParseDecimalToCents("100000000000000"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("amount beyond the wire range should be rejected, got %v", err)
	}
}
