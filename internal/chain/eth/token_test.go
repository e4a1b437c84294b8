package eth_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethervault/ethervault/internal/chain/eth"
	"github.com/ethervault/ethervault/internal/chain/eth/rpc"
)

const (
	usdcContract = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	holderAddr   = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

// fakeCaller answers CallContract from canned responses keyed by the
// 4-byte selector.
type fakeCaller struct {
	responses map[string][]byte
	calls     []rpc.CallMsg
}

func (f *fakeCaller) CallContract(_ context.Context, msg rpc.CallMsg) ([]byte, error) {
	f.calls = append(f.calls, msg)
	return f.responses[hex.EncodeToString(msg.Data[:4])], nil
}

func abiWord(hexStr string) []byte {
	b, _ := hex.DecodeString(hexStr)
	word := make([]byte, 32)
	copy(word[32-len(b):], b)
	return word
}

func TestToken_Decimals(t *testing.T) {
	caller := &fakeCaller{responses: map[string][]byte{
		"313ce567": abiWord("06"),
	}}
	token := eth.NewToken(caller, usdcContract)

	decimals, err := token.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, decimals)
}

func TestToken_Symbol_ABIString(t *testing.T) {
	// ABI encoding: offset 32, length 4, then "USDC" padded.
	out := make([]byte, 0, 96)
	out = append(out, abiWord("20")...)
	out = append(out, abiWord("04")...)
	padded := make([]byte, 32)
	copy(padded, "USDC")
	out = append(out, padded...)

	caller := &fakeCaller{responses: map[string][]byte{"95d89b41": out}}
	token := eth.NewToken(caller, usdcContract)

	symbol, err := token.Symbol(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USDC", symbol)
}

func TestToken_Symbol_Bytes32Fallback(t *testing.T) {
	padded := make([]byte, 32)
	copy(padded, "MKR")

	caller := &fakeCaller{responses: map[string][]byte{"95d89b41": padded}}
	token := eth.NewToken(caller, usdcContract)

	symbol, err := token.Symbol(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MKR", symbol)
}

func TestToken_BalanceOf(t *testing.T) {
	caller := &fakeCaller{responses: map[string][]byte{
		"70a08231": abiWord("0f4240"), // 1_000_000
	}}
	token := eth.NewToken(caller, usdcContract)

	balance, err := token.BalanceOf(context.Background(), holderAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), balance)

	// The holder address occupies the right-aligned end of the word.
	require.Len(t, caller.calls, 1)
	data := caller.calls[0].Data
	require.Len(t, data, 36)
	assert.Equal(t, "9858effd232b4033e47d90003d41ec34ecaeda94", hex.EncodeToString(data[16:36]))
}

func TestTransferData(t *testing.T) {
	amount := big.NewInt(1_500_000)
	data := eth.TransferData(holderAddr, amount)

	require.Len(t, data, 68)
	assert.Equal(t, "a9059cbb", hex.EncodeToString(data[:4]))
	assert.Equal(t, "9858effd232b4033e47d90003d41ec34ecaeda94", hex.EncodeToString(data[16:36]))
	assert.Equal(t, amount, new(big.Int).SetBytes(data[36:68]))
}
