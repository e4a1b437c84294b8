// Package txbuilder turns an unlocked key and live ledger state into
// signed, broadcast transfers. All collaborators are injected through
// narrow interfaces so the arithmetic is testable without a node.
package txbuilder

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ethervault/ethervault/internal/chain/eth"
	"github.com/ethervault/ethervault/internal/chain/eth/rpc"
	"github.com/ethervault/ethervault/internal/config"
	"github.com/ethervault/ethervault/internal/keys"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// receiptPollInterval is the fixed delay between receipt lookups.
const receiptPollInterval = time.Second

// Ledger is the node surface the builder consumes.
type Ledger interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	Nonce(ctx context.Context, address string) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg rpc.CallMsg) (uint64, error)
	SendRawTransaction(ctx context.Context, signedTx []byte) (string, error)
	TransactionReceipt(ctx context.Context, txHash string) (*rpc.Receipt, error)
}

// TokenReader is the per-contract surface for token transfers.
type TokenReader interface {
	Address() string
	Decimals(ctx context.Context) (int, error)
	BalanceOf(ctx context.Context, holder string) (*big.Int, error)
}

// TokenRegistry resolves a ticker symbol to its contract. Resolution
// is purely local; it must not touch the network.
type TokenRegistry interface {
	Resolve(symbol string) (TokenReader, error)
}

// Result describes a broadcast transfer.
type Result struct {
	// TxHash is the transaction hash returned by the node.
	TxHash string

	// FeeWei is the maximum fee reserved for the transfer,
	// gas limit times gas price.
	FeeWei *big.Int
}

// Fee renders the reserved fee in the major unit.
func (r *Result) Fee() string {
	return eth.FormatUnits(r.FeeWei, eth.NativeDecimals)
}

// Builder builds, signs, and broadcasts transfers.
type Builder struct {
	ledger   Ledger
	tokens   TokenRegistry
	gasLimit uint64
	log      *config.Logger
}

// New creates a Builder. tokens may be nil when only native transfers
// are needed; gasLimit is the flat limit for native transfers.
func New(ledger Ledger, tokens TokenRegistry, gasLimit uint64, logger *config.Logger) *Builder {
	if logger == nil {
		logger = config.NullLogger()
	}
	return &Builder{ledger: ledger, tokens: tokens, gasLimit: gasLimit, log: logger}
}

// SendNative transfers the native asset. Requesting exactly the full
// balance switches to send-max: the value becomes the balance minus
// the flat-transfer fee, so the fee never overdraws the account.
//
// The gas price is quoted once and used for both the fee reservation
// and the built transaction. A price move between quote and submission
// is accepted rather than re-quoted.
func (b *Builder) SendNative(ctx context.Context, km *keys.KeyMaterial, receiver, amount string) (*Result, error) {
	if !common.IsHexAddress(receiver) {
		return nil, invalidAddress(receiver)
	}

	value, err := eth.ParseUnits(amount, eth.NativeDecimals)
	if err != nil {
		return nil, err
	}

	balance, err := b.ledger.Balance(ctx, km.Address)
	if err != nil {
		return nil, err
	}
	gasPrice, err := b.ledger.GasPrice(ctx)
	if err != nil {
		return nil, err
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(b.gasLimit), gasPrice)

	sendMax := value.Cmp(balance) == 0
	if sendMax {
		value = new(big.Int).Sub(balance, fee)
		if value.Sign() < 0 {
			return nil, insufficientFunds(balance, fee)
		}
	} else {
		required := new(big.Int).Add(value, fee)
		if required.Cmp(balance) > 0 {
			return nil, insufficientFunds(balance, required)
		}
	}

	to := common.HexToAddress(receiver)
	unsigned := &types.LegacyTx{
		To:       &to,
		Value:    value,
		Gas:      b.gasLimit,
		GasPrice: gasPrice,
	}

	return b.signAndBroadcast(ctx, km, unsigned, fee)
}

// SendToken transfers an ERC-20 token. The symbol is resolved against
// the local registry before anything touches the network. The token
// amount check uses the token balance; the fee check uses the native
// balance, since gas is always paid in the native asset.
func (b *Builder) SendToken(ctx context.Context, km *keys.KeyMaterial, receiver, amount, symbol string) (*Result, error) {
	if b.tokens == nil {
		return nil, walleterr.WithDetails(walleterr.ErrUnknownToken, map[string]string{
			"symbol": symbol,
		})
	}
	token, err := b.tokens.Resolve(symbol)
	if err != nil {
		return nil, err
	}

	if !common.IsHexAddress(receiver) {
		return nil, invalidAddress(receiver)
	}

	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	value, err := eth.ParseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	tokenBalance, err := token.BalanceOf(ctx, km.Address)
	if err != nil {
		return nil, err
	}
	if value.Cmp(tokenBalance) > 0 {
		return nil, walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
			"symbol":    symbol,
			"available": eth.FormatUnits(tokenBalance, decimals),
			"required":  eth.FormatUnits(value, decimals),
		})
	}

	data := eth.TransferData(receiver, value)

	gas, err := b.ledger.EstimateGas(ctx, rpc.CallMsg{
		From: km.Address,
		To:   token.Address(),
		Data: data,
	})
	if err != nil {
		// The node rejects estimation when the sender cannot pay the
		// fee, which reads as a native-asset shortfall. Transport
		// failures pass through untouched.
		var nodeErr *rpc.RPCError
		if errors.As(err, &nodeErr) {
			return nil, walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
				"reason": "gas estimation failed: " + nodeErr.Message,
			})
		}
		return nil, err
	}

	gasPrice, err := b.ledger.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)

	nativeBalance, err := b.ledger.Balance(ctx, km.Address)
	if err != nil {
		return nil, err
	}
	if fee.Cmp(nativeBalance) > 0 {
		return nil, insufficientFunds(nativeBalance, fee)
	}

	contract := common.HexToAddress(token.Address())
	unsigned := &types.LegacyTx{
		To:       &contract,
		Value:    big.NewInt(0),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	}

	return b.signAndBroadcast(ctx, km, unsigned, fee)
}

// WaitForReceipt polls for the transaction receipt at a fixed interval
// until it appears, the timeout elapses, or ctx is canceled. A zero
// timeout waits indefinitely.
func (b *Builder) WaitForReceipt(ctx context.Context, txHash string, timeout time.Duration) (*rpc.Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.ledger.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil {
			b.log.Debug("receipt poll for %s: %v", txHash, err)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, walleterr.WithDetails(walleterr.ErrConfirmationTimeout, map[string]string{
					"tx_hash": txHash,
					"waited":  timeout.String(),
				})
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// signAndBroadcast fills in nonce and chain id, signs, and submits.
func (b *Builder) signAndBroadcast(ctx context.Context, km *keys.KeyMaterial, unsigned *types.LegacyTx, fee *big.Int) (*Result, error) {
	nonce, err := b.ledger.Nonce(ctx, km.Address)
	if err != nil {
		return nil, err
	}
	chainID, err := b.ledger.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	unsigned.Nonce = nonce

	signed, err := km.Sign(types.NewTx(unsigned), chainID)
	if err != nil {
		return nil, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, walleterr.Wrap(err, "encoding signed transaction")
	}

	txHash, err := b.ledger.SendRawTransaction(ctx, raw)
	if err != nil {
		var nodeErr *rpc.RPCError
		if errors.As(err, &nodeErr) {
			return nil, walleterr.WithDetails(walleterr.ErrTxRejected, map[string]string{
				"reason": nodeErr.Message,
			})
		}
		return nil, err
	}

	b.log.Debug("broadcast %s, nonce=%d", txHash, nonce)
	return &Result{TxHash: txHash, FeeWei: fee}, nil
}

func invalidAddress(address string) error {
	return walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
		"address": address,
	})
}

func insufficientFunds(available, required *big.Int) error {
	return walleterr.WithDetails(walleterr.ErrInsufficientFunds, map[string]string{
		"available": eth.FormatUnits(available, eth.NativeDecimals),
		"required":  eth.FormatUnits(required, eth.NativeDecimals),
	})
}
