package txbuilder_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethervault/ethervault/internal/chain/eth/rpc"
	"github.com/ethervault/ethervault/internal/keys"
	"github.com/ethervault/ethervault/internal/txbuilder"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

const (
	receiver     = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	usdcContract = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	transferGas  = uint64(21000)
)

type fakeLedger struct {
	balance     *big.Int
	gasPrice    *big.Int
	nonce       uint64
	chainID     *big.Int
	estimate    uint64
	estimateErr error
	sendErr     error

	sentRaw      [][]byte
	receiptAfter int
	receipt      *rpc.Receipt
	pollCount    int
	callCount    int
}

func (f *fakeLedger) Balance(context.Context, string) (*big.Int, error) {
	f.callCount++
	return f.balance, nil
}

func (f *fakeLedger) Nonce(context.Context, string) (uint64, error) {
	f.callCount++
	return f.nonce, nil
}

func (f *fakeLedger) GasPrice(context.Context) (*big.Int, error) {
	f.callCount++
	return f.gasPrice, nil
}

func (f *fakeLedger) ChainID(context.Context) (*big.Int, error) {
	f.callCount++
	return f.chainID, nil
}

func (f *fakeLedger) EstimateGas(context.Context, rpc.CallMsg) (uint64, error) {
	f.callCount++
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return f.estimate, nil
}

func (f *fakeLedger) SendRawTransaction(_ context.Context, signedTx []byte) (string, error) {
	f.callCount++
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sentRaw = append(f.sentRaw, signedTx)
	return "0xtxhash", nil
}

func (f *fakeLedger) TransactionReceipt(context.Context, string) (*rpc.Receipt, error) {
	f.callCount++
	f.pollCount++
	if f.pollCount > f.receiptAfter {
		return f.receipt, nil
	}
	return nil, nil
}

type fakeToken struct {
	address  string
	decimals int
	balance  *big.Int
}

func (f *fakeToken) Address() string { return f.address }

func (f *fakeToken) Decimals(context.Context) (int, error) { return f.decimals, nil }

func (f *fakeToken) BalanceOf(context.Context, string) (*big.Int, error) { return f.balance, nil }

type fakeRegistry struct {
	tokens map[string]*fakeToken
}

func (f *fakeRegistry) Resolve(symbol string) (txbuilder.TokenReader, error) {
	tok, ok := f.tokens[symbol]
	if !ok {
		return nil, walleterr.WithDetails(walleterr.ErrUnknownToken, map[string]string{
			"symbol": symbol,
		})
	}
	return tok, nil
}

func testKeyMaterial(t *testing.T) *keys.KeyMaterial {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	km, err := keys.Import(crypto.FromECDSA(priv))
	require.NoError(t, err)
	return km
}

func newLedger() *fakeLedger {
	return &fakeLedger{
		balance:  big.NewInt(1e18), // 1 ether
		gasPrice: big.NewInt(1e9),  // 1 gwei
		chainID:  big.NewInt(1),
		nonce:    5,
		estimate: 60000,
		receipt:  &rpc.Receipt{TxHash: "0xtxhash", Status: 1, BlockNumber: big.NewInt(100), GasUsed: 21000},
	}
}

func decodeSent(t *testing.T, raw []byte) *types.Transaction {
	t.Helper()
	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))
	return tx
}

func TestSendNative(t *testing.T) {
	ledger := newLedger()
	b := txbuilder.New(ledger, nil, transferGas, nil)
	km := testKeyMaterial(t)

	result, err := b.SendNative(context.Background(), km, receiver, "0.5")
	require.NoError(t, err)
	assert.Equal(t, "0xtxhash", result.TxHash)

	// fee = 21000 * 1 gwei
	assert.Equal(t, big.NewInt(21000*1e9), result.FeeWei)
	assert.Equal(t, "0.000021", result.Fee())

	require.Len(t, ledger.sentRaw, 1)
	tx := decodeSent(t, ledger.sentRaw[0])
	assert.Equal(t, "500000000000000000", tx.Value().String())
	assert.Equal(t, transferGas, tx.Gas())
	assert.Equal(t, big.NewInt(1e9), tx.GasPrice())
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, receiver, tx.To().Hex())

	// The signature must recover to the sender.
	sender, err := types.Sender(types.NewEIP155Signer(big.NewInt(1)), tx)
	require.NoError(t, err)
	assert.Equal(t, km.Address, sender.Hex())
}

func TestSendNative_SendMax(t *testing.T) {
	ledger := newLedger()
	b := txbuilder.New(ledger, nil, transferGas, nil)

	// Requesting exactly the full balance reserves the flat fee.
	result, err := b.SendNative(context.Background(), testKeyMaterial(t), receiver, "1")
	require.NoError(t, err)

	require.Len(t, ledger.sentRaw, 1)
	tx := decodeSent(t, ledger.sentRaw[0])

	wantValue := new(big.Int).Sub(big.NewInt(1e18), result.FeeWei)
	assert.Equal(t, wantValue, tx.Value())
}

func TestSendNative_SendMaxCannotCoverFee(t *testing.T) {
	ledger := newLedger()
	ledger.balance = big.NewInt(1000) // far below the flat fee

	b := txbuilder.New(ledger, nil, transferGas, nil)
	_, err := b.SendNative(context.Background(), testKeyMaterial(t), receiver, "0.000000000000001")
	assert.ErrorIs(t, err, walleterr.ErrInsufficientFunds)
	assert.Empty(t, ledger.sentRaw)
}

func TestSendNative_InsufficientFunds(t *testing.T) {
	ledger := newLedger()
	b := txbuilder.New(ledger, nil, transferGas, nil)

	// Just under the full balance: amount plus fee exceeds it, and
	// this is not the send-max case.
	_, err := b.SendNative(context.Background(), testKeyMaterial(t), receiver, "0.999999999999999999")
	require.ErrorIs(t, err, walleterr.ErrInsufficientFunds)

	// The error reports the true balance and nothing was submitted.
	var we *walleterr.WalletError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "1", we.Details["available"])
	assert.Empty(t, ledger.sentRaw)
}

func TestSendNative_InvalidInputs(t *testing.T) {
	ledger := newLedger()
	b := txbuilder.New(ledger, nil, transferGas, nil)
	km := testKeyMaterial(t)

	_, err := b.SendNative(context.Background(), km, "not-an-address", "1")
	assert.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	_, err = b.SendNative(context.Background(), km, receiver, "-1")
	assert.ErrorIs(t, err, walleterr.ErrInvalidAmount)

	// Malformed inputs are rejected before any ledger call.
	assert.Zero(t, ledger.callCount)
}

func TestSendNative_Rejected(t *testing.T) {
	ledger := newLedger()
	ledger.sendErr = &rpc.RPCError{Code: -32000, Message: "nonce too low"}

	b := txbuilder.New(ledger, nil, transferGas, nil)
	_, err := b.SendNative(context.Background(), testKeyMaterial(t), receiver, "0.1")
	assert.ErrorIs(t, err, walleterr.ErrTxRejected)
}

func TestSendToken(t *testing.T) {
	ledger := newLedger()
	registry := &fakeRegistry{tokens: map[string]*fakeToken{
		"USDC": {address: usdcContract, decimals: 6, balance: big.NewInt(2_000_000)},
	}}

	b := txbuilder.New(ledger, registry, transferGas, nil)
	km := testKeyMaterial(t)

	result, err := b.SendToken(context.Background(), km, receiver, "1.5", "USDC")
	require.NoError(t, err)
	assert.Equal(t, "0xtxhash", result.TxHash)

	require.Len(t, ledger.sentRaw, 1)
	tx := decodeSent(t, ledger.sentRaw[0])

	// The native value is zero; the real amount lives in the calldata.
	assert.Zero(t, tx.Value().Sign())
	assert.Equal(t, usdcContract, tx.To().Hex())
	assert.Equal(t, uint64(60000), tx.Gas())

	data := tx.Data()
	require.Len(t, data, 68)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	assert.Equal(t, big.NewInt(1_500_000), new(big.Int).SetBytes(data[36:]))
}

func TestSendToken_UnknownSymbol(t *testing.T) {
	ledger := newLedger()
	registry := &fakeRegistry{tokens: map[string]*fakeToken{}}

	b := txbuilder.New(ledger, registry, transferGas, nil)
	_, err := b.SendToken(context.Background(), testKeyMaterial(t), receiver, "1", "WAT")
	assert.ErrorIs(t, err, walleterr.ErrUnknownToken)

	// Resolution is local; no network call happened.
	assert.Zero(t, ledger.callCount)
}

func TestSendToken_InsufficientTokenBalance(t *testing.T) {
	ledger := newLedger()
	registry := &fakeRegistry{tokens: map[string]*fakeToken{
		"USDC": {address: usdcContract, decimals: 6, balance: big.NewInt(1_000_000)},
	}}

	b := txbuilder.New(ledger, registry, transferGas, nil)
	_, err := b.SendToken(context.Background(), testKeyMaterial(t), receiver, "2", "USDC")
	require.ErrorIs(t, err, walleterr.ErrInsufficientFunds)

	var we *walleterr.WalletError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "1", we.Details["available"])
	assert.Empty(t, ledger.sentRaw)
}

func TestSendToken_EstimateFailureIsNativeShortfall(t *testing.T) {
	ledger := newLedger()
	ledger.estimateErr = &rpc.RPCError{Code: -32000, Message: "insufficient funds for gas"}
	registry := &fakeRegistry{tokens: map[string]*fakeToken{
		"USDC": {address: usdcContract, decimals: 6, balance: big.NewInt(5_000_000)},
	}}

	b := txbuilder.New(ledger, registry, transferGas, nil)
	_, err := b.SendToken(context.Background(), testKeyMaterial(t), receiver, "1", "USDC")
	assert.ErrorIs(t, err, walleterr.ErrInsufficientFunds)
}

func TestSendToken_FeeExceedsNativeBalance(t *testing.T) {
	ledger := newLedger()
	ledger.balance = big.NewInt(1000) // cannot pay any fee
	registry := &fakeRegistry{tokens: map[string]*fakeToken{
		"USDC": {address: usdcContract, decimals: 6, balance: big.NewInt(5_000_000)},
	}}

	b := txbuilder.New(ledger, registry, transferGas, nil)
	_, err := b.SendToken(context.Background(), testKeyMaterial(t), receiver, "1", "USDC")
	assert.ErrorIs(t, err, walleterr.ErrInsufficientFunds)
	assert.Empty(t, ledger.sentRaw)
}

func TestWaitForReceipt_Confirmed(t *testing.T) {
	ledger := newLedger()
	b := txbuilder.New(ledger, nil, transferGas, nil)

	receipt, err := b.WaitForReceipt(context.Background(), "0xtxhash", time.Minute)
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())
}

func TestWaitForReceipt_Timeout(t *testing.T) {
	ledger := newLedger()
	ledger.receiptAfter = 1 << 30 // never

	b := txbuilder.New(ledger, nil, transferGas, nil)
	_, err := b.WaitForReceipt(context.Background(), "0xtxhash", 50*time.Millisecond)
	require.ErrorIs(t, err, walleterr.ErrConfirmationTimeout)

	var we *walleterr.WalletError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "0xtxhash", we.Details["tx_hash"])
}

func TestWaitForReceipt_Canceled(t *testing.T) {
	ledger := newLedger()
	ledger.receiptAfter = 1 << 30

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := txbuilder.New(ledger, nil, transferGas, nil)
	_, err := b.WaitForReceipt(ctx, "0xtxhash", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
