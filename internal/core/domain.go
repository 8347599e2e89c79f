package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Food          Category = "FOOD"
	Transport     Category = "TRANSPORT"
	Housing       Category = "HOUSING"
	Utilities     Category = "UTILITIES"
	Health        Category = "HEALTH"
	Entertainment Category = "ENTERTAINMENT"
	Shopping      Category = "SHOPPING"
	Education     Category = "EDUCATION"
	Travel        Category = "TRAVEL"
	Other         Category = "OTHER"
)

// MaxDescriptionLength bounds transaction descriptions.
const MaxDescriptionLength = 200

type (
	// Category is the fixed classification label attached to every transaction.
	Category string

	Transaction struct {
		ID          int64
		Description string
		Amount      decimal.Decimal
		Category    Category
		CreatedAt   time.Time
	}

	// Observation is a single dated amount, the raw input of a forecast.
	Observation struct {
		Timestamp time.Time
		Amount    decimal.Decimal
	}

	// Prediction is the assembled next-month forecast for one category.
	Prediction struct {
		ID              int64
		Category        Category
		PredictedAmount decimal.Decimal
		TargetMonth     time.Time // first day of the forecast month
		CreatedAt       time.Time
		ModelFit        float64
		ConfidenceLevel float64
		Strategy        string
	}
)

var (
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrTransactionNotFound = errors.New("transaction not found")
)

var allCategories = []Category{
	Food, Transport, Housing, Utilities, Health,
	Entertainment, Shopping, Education, Travel, Other,
}

// Categories returns every known category in declaration order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (c Category) IsValid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

func (t Transaction) Validate() error {
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, string(t.Category))
	}
	return nil
}

// Observation returns the transaction as a forecast input point.
func (t Transaction) Observation() Observation {
	return Observation{Timestamp: t.CreatedAt, Amount: t.Amount}
}
