package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewMoney(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(-1), "USD")
	assert.ErrorIs(t, err, ErrNegativeMoney)

	_, err = NewMoney(decimal.NewFromInt(1), "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	m, err := NewMoney(decimal.RequireFromString("19.99"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "19.99 EUR", m.String())
}

func TestMoney_Arithmetic(t *testing.T) {
	a, _ := NewMoney(decimal.RequireFromString("0.10"), "USD")
	b, _ := NewMoney(decimal.RequireFromString("0.20"), "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.RequireFromString("0.30")))

	assert.True(t, a.Multiply(-3).Equals(a.Multiply(3)))

	_, err = a.Add(ZeroMoney("EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_Encoding(t *testing.T) {
	m, _ := NewMoney(decimal.RequireFromString("12.345"), "USD")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	var fromJSON Money
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.True(t, m.Equals(fromJSON))

	doc, err := bson.Marshal(struct {
		Cost Money `bson:"cost"`
	}{Cost: m})
	require.NoError(t, err)
	var fromBSON struct {
		Cost Money `bson:"cost"`
	}
	require.NoError(t, bson.Unmarshal(doc, &fromBSON))
	assert.True(t, m.Equals(fromBSON.Cost))
}
