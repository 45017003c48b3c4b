package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrCorruptPayload is returned by DecodeRecords for anything the encoder
// could not have produced.
var ErrCorruptPayload = errors.New("corrupt expense payload")

// wireRecord is the stored shape of a record. Pointer fields let the decoder
// tell a missing key from a zero value.
type wireRecord struct {
	ID     *string  `json:"id"`
	Name   *string  `json:"name"`
	Type   *string  `json:"type"`
	Amount *float64 `json:"amount"`
}

// EncodeRecords serializes an ordered sequence as a JSON array.
func EncodeRecords(records []ExpenseRecord) ([]byte, error) {
	out := make([]wireRecord, len(records))
	for i, r := range records {
		id, name, typ, amount := r.ID, r.Name, string(r.Category), r.Amount.Units()
		out[i] = wireRecord{ID: &id, Name: &name, Type: &typ, Amount: &amount}
	}
	return json.Marshal(out)
}

// DecodeRecords parses a payload written by EncodeRecords. The whole payload
// is rejected when any element is malformed or carries an unknown category.
func DecodeRecords(data []byte) ([]ExpenseRecord, error) {
	var wire []wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	if wire == nil {
		// JSON null
		return nil, fmt.Errorf("%w: not an array", ErrCorruptPayload)
	}
	records := make([]ExpenseRecord, 0, len(wire))
	for i, w := range wire {
		if w.ID == nil || w.Name == nil || w.Type == nil || w.Amount == nil {
			return nil, fmt.Errorf("%w: element %d is missing fields", ErrCorruptPayload, i)
		}
		if _, err := uuid.Parse(*w.ID); err != nil {
			return nil, fmt.Errorf("%w: element %d id: %v", ErrCorruptPayload, i, err)
		}
		category, err := ParseCategory(*w.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d type %q", ErrCorruptPayload, i, *w.Type)
		}
		amount, err := MoneyFromUnits(*w.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d amount", ErrCorruptPayload, i)
		}
		records = append(records, NewExpenseRecord(*w.ID, *w.Name, category, amount))
	}
	return records, nil
}
