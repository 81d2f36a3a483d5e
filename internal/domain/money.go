package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCurrency is used when an order does not name one
const DefaultCurrency = "USD"

var (
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrNegativeMoney    = errors.New("money amount cannot be negative")
)

// Money is a non-negative decimal amount in an ISO 4217 currency
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a Money value
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrNegativeMoney
	}
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{amount: amount, currency: currency}, nil
}

// ZeroMoney creates a zero amount in currency
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

// Add sums two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount by a non-negative quantity
func (m Money) Multiply(qty int) Money {
	if qty < 0 {
		qty = -qty
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(qty))), currency: m.currency}
}

// Equals compares amount and currency
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.amount, m.currency = v.Amount, v.Currency
	return nil
}

// MarshalBSONValue stores the amount as Decimal128 so Mongo can aggregate it
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	amount, err := primitive.ParseDecimal128(m.amount.String())
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode money amount: %w", err)
	}
	doc := primitive.D{
		{Key: "amount", Value: amount},
		{Key: "currency", Value: m.currency},
	}
	return bson.MarshalValue(doc)
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var doc struct {
		Amount   primitive.Decimal128 `bson:"amount"`
		Currency string               `bson:"currency"`
	}
	if err := bson.UnmarshalValue(t, data, &doc); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to decode money amount: %w", err)
	}
	m.amount, m.currency = amount, doc.Currency
	return nil
}
