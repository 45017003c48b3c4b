package core

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength is counted in characters, not bytes.
const MaxNameLength = 200

const (
	Personal Category = "Personal"
	Business Category = "Business"
)

type (
	// Category is the closed set of expense kinds a record can belong to.
	Category string

	Money struct {
		Cents int64
	}

	// ExpenseRecord is one tracked expense. Two records with the same
	// name, category and amount are still distinct when their IDs differ.
	ExpenseRecord struct {
		ID       string
		Name     string
		Category Category
		Amount   Money
	}
)

var (
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 200 characters)")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyID         = errors.New("empty identifier")
	ErrInvalidID       = errors.New("identifier is not a UUID")
)

// Categories returns every category in section display order.
func Categories() []Category {
	return []Category{Business, Personal}
}

// ParseCategory maps a stored or submitted value onto the closed enumeration.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.TrimSpace(s)) {
	case Personal:
		return Personal, nil
	case Business:
		return Business, nil
	default:
		return "", ErrInvalidCategory
	}
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Validate() error {
	if _, err := ParseCategory(string(c)); err != nil {
		return err
	}
	return nil
}

// NewID returns a fresh random identifier for a record.
func NewID() string {
	return uuid.NewString()
}

// NewExpenseRecord builds a record around an identifier produced by the caller.
func NewExpenseRecord(id, name string, category Category, amount Money) ExpenseRecord {
	return ExpenseRecord{
		ID:       id,
		Name:     name,
		Category: category,
		Amount:   amount,
	}
}

// Validate accepts positive amounts up to MaxCents.
func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

func (e ExpenseRecord) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return ErrInvalidID
	}
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(e.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	return e.Amount.Validate()
}
