package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(99.99), USD)
		require.NoError(t, err)
		assert.Equal(t, "99.99", m.Amount().String())
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(10), "")
		assert.Error(t, err)
	})
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("1234.56", EUR)
	require.NoError(t, err)
	assert.Equal(t, "1234.56", m.Amount().String())
	assert.Equal(t, EUR, m.Currency())

	_, err = NewMoneyFromString("not-a-number", EUR)
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add same currency", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromFloat(10.50))
		b := NewMoneyUSD(decimal.NewFromFloat(5.25))

		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, "15.75", sum.Amount().String())
	})

	t.Run("add different currencies fails", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromInt(10))
		b, _ := NewMoney(decimal.NewFromInt(10), EUR)

		_, err := a.Add(b)
		assert.Error(t, err)
	})

	t.Run("subtract", func(t *testing.T) {
		a := NewMoneyUSD(decimal.NewFromInt(100))
		b := NewMoneyUSD(decimal.NewFromFloat(33.33))

		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "66.67", diff.Amount().String())
	})

	t.Run("multiply by int", func(t *testing.T) {
		unit := NewMoneyUSD(decimal.NewFromFloat(19.99))
		total := unit.MultiplyByInt(3)
		assert.Equal(t, "59.97", total.Amount().String())
	})
}

func TestMoney_Comparison(t *testing.T) {
	small := NewMoneyUSD(decimal.NewFromInt(100))
	large := NewMoneyUSD(decimal.NewFromInt(5000))

	gt, err := large.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	lte, err := small.LessThanOrEqual(large)
	require.NoError(t, err)
	assert.True(t, lte)

	assert.True(t, small.Equals(NewMoneyUSD(decimal.NewFromInt(100))))
	assert.False(t, small.Equals(large))

	other, _ := NewMoney(decimal.NewFromInt(100), EUR)
	_, err = small.GreaterThan(other)
	assert.Error(t, err)
	assert.False(t, small.Equals(other))
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, Zero(USD).IsZero())
	assert.True(t, NewMoneyUSD(decimal.NewFromInt(1)).IsPositive())
	assert.True(t, NewMoneyUSD(decimal.NewFromInt(-1)).IsNegative())
}

func TestMoney_String(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(1234.5))
	assert.Equal(t, "1234.50 USD", m.String())
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(42.42))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"42.42","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	t.Run("scans string amount with default currency", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("123.45"))
		assert.Equal(t, "123.45", m.Amount().String())
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("scans nil as zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(42))
	})
}
