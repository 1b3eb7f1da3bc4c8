package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawCall(name, args string) RawToolCall {
	var raw RawToolCall
	raw.Function.Name = name
	raw.Function.Arguments = args
	return raw
}

func TestDecodeConvertCall(t *testing.T) {
	call, err := DecodeToolCall(rawCall(FuncConvertCurrency,
		`{"amount": 100, "from_currency": "USD", "to_currency": "EUR"}`))

	require.NoError(t, err)
	convert, ok := call.(ConvertCall)
	require.True(t, ok)
	assert.Equal(t, 100.0, convert.Amount)
	assert.Equal(t, "USD", convert.From)
	assert.Equal(t, "EUR", convert.To)
}

func TestDecodeListCurrenciesCall(t *testing.T) {
	call, err := DecodeToolCall(rawCall(FuncGetSupportedCurrencies, `{}`))

	require.NoError(t, err)
	_, ok := call.(ListCurrenciesCall)
	assert.True(t, ok)
}

func TestDecodeHistoricalCall(t *testing.T) {
	call, err := DecodeToolCall(rawCall(FuncGetHistoricalRate,
		`{"date": "2020-06-15", "from_currency": "GBP", "to_currency": "JPY"}`))

	require.NoError(t, err)
	hist, ok := call.(HistoricalCall)
	require.True(t, ok)
	assert.Equal(t, "2020-06-15", hist.Date)
	assert.Equal(t, "GBP", hist.From)
	assert.Equal(t, "JPY", hist.To)
}

func TestDecodeToolCallErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  RawToolCall
	}{
		{"unknown function", rawCall("delete_everything", `{}`)},
		{"convert with garbage arguments", rawCall(FuncConvertCurrency, `not json`)},
		{"convert missing currencies", rawCall(FuncConvertCurrency, `{"amount": 5}`)},
		{"historical with garbage arguments", rawCall(FuncGetHistoricalRate, `{`)},
		{"historical missing date", rawCall(FuncGetHistoricalRate, `{"from_currency": "USD", "to_currency": "EUR"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := DecodeToolCall(tt.raw)
			assert.Error(t, err)
			assert.Nil(t, call)
		})
	}
}
