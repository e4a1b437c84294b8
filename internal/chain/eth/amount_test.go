package eth_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethervault/ethervault/internal/chain/eth"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals int
		want     string
	}{
		{"whole ether", "1", 18, "1000000000000000000"},
		{"fractional ether", "1.5", 18, "1500000000000000000"},
		{"wei precision", "0.000000000000000001", 18, "1"},
		{"zero", "0", 18, "0"},
		{"no leading zero", ".5", 18, "500000000000000000"},
		{"trailing dot", "2.", 18, "2000000000000000000"},
		{"six decimals", "12.345678", 6, "12345678"},
		{"zero decimals", "42", 0, "42"},
		{"plus sign", "+3", 6, "3000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eth.ParseUnits(tt.input, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseUnits_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals int
	}{
		{"negative", "-1", 18},
		{"empty", "", 18},
		{"not a number", "abc", 18},
		{"two dots", "1.2.3", 18},
		{"excess precision", "0.0000001", 6},
		{"hex", "0x10", 18},
		{"exponent", "1e18", 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eth.ParseUnits(tt.input, tt.decimals)
			assert.ErrorIs(t, err, walleterr.ErrInvalidAmount)
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decimals int
		want     string
	}{
		{"one ether", "1000000000000000000", 18, "1"},
		{"fraction", "1500000000000000000", 18, "1.5"},
		{"single wei", "1", 18, "0.000000000000000001"},
		{"zero", "0", 18, "0"},
		{"trailing zeros trimmed", "1230000", 6, "1.23"},
		{"zero decimals", "42", 0, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := new(big.Int).SetString(tt.input, 10)
			require.True(t, ok)
			assert.Equal(t, tt.want, eth.FormatUnits(n, tt.decimals))
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	n, err := eth.ParseUnits("123.456789", 18)
	require.NoError(t, err)
	assert.Equal(t, "123.456789", eth.FormatUnits(n, 18))
}
