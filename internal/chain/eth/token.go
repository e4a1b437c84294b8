package eth

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethervault/ethervault/internal/chain/eth/rpc"
)

// ERC-20 function selectors.
var (
	selectorTransfer  = []byte{0xa9, 0x05, 0x9c, 0xbb} // transfer(address,uint256)
	selectorBalanceOf = []byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
	selectorDecimals  = []byte{0x31, 0x3c, 0xe5, 0x67} // decimals()
	selectorSymbol    = []byte{0x95, 0xd8, 0x9b, 0x41} // symbol()
)

// ContractCaller is the read-only contract surface the token layer
// needs from an RPC client.
type ContractCaller interface {
	CallContract(ctx context.Context, msg rpc.CallMsg) ([]byte, error)
}

// Token wraps a deployed ERC-20 contract.
type Token struct {
	caller  ContractCaller
	address string
}

// NewToken creates a Token for the contract at address.
func NewToken(caller ContractCaller, address string) *Token {
	return &Token{caller: caller, address: common.HexToAddress(address).Hex()}
}

// Address returns the checksummed contract address.
func (t *Token) Address() string {
	return t.address
}

// Decimals reads the token's decimal count.
func (t *Token) Decimals(ctx context.Context) (int, error) {
	out, err := t.caller.CallContract(ctx, rpc.CallMsg{To: t.address, Data: selectorDecimals})
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("contract %s returned no decimals", t.address)
	}
	return int(new(big.Int).SetBytes(out).Int64()), nil
}

// Symbol reads the token's ticker symbol.
func (t *Token) Symbol(ctx context.Context) (string, error) {
	out, err := t.caller.CallContract(ctx, rpc.CallMsg{To: t.address, Data: selectorSymbol})
	if err != nil {
		return "", err
	}
	return decodeStringReturn(out), nil
}

// BalanceOf reads holder's balance in the token's smallest unit.
func (t *Token) BalanceOf(ctx context.Context, holder string) (*big.Int, error) {
	data := make([]byte, 0, 36)
	data = append(data, selectorBalanceOf...)
	data = append(data, padAddress(holder)...)

	out, err := t.caller.CallContract(ctx, rpc.CallMsg{To: t.address, Data: data})
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(out), nil
}

// TransferData builds the calldata for transfer(to, amount).
func TransferData(to string, amount *big.Int) []byte {
	data := make([]byte, 0, 68)
	data = append(data, selectorTransfer...)
	data = append(data, padAddress(to)...)
	data = append(data, padUint256(amount)...)
	return data
}

// padAddress left-pads an address to a 32-byte ABI word.
func padAddress(address string) []byte {
	word := make([]byte, 32)
	copy(word[12:], common.HexToAddress(address).Bytes())
	return word
}

// padUint256 left-pads an unsigned integer to a 32-byte ABI word.
func padUint256(n *big.Int) []byte {
	word := make([]byte, 32)
	n.FillBytes(word)
	return word
}

// decodeStringReturn decodes a string return value. Well-behaved
// contracts return ABI-encoded dynamic strings; some older tokens
// return a fixed bytes32 instead, so both shapes are accepted.
func decodeStringReturn(out []byte) string {
	if len(out) >= 64 {
		offset := new(big.Int).SetBytes(out[:32])
		if offset.IsInt64() && offset.Int64() == 32 {
			length := new(big.Int).SetBytes(out[32:64])
			if length.IsInt64() {
				end := 64 + length.Int64()
				if end <= int64(len(out)) {
					return string(out[64:end])
				}
			}
		}
	}
	// bytes32 fallback: the symbol is NUL-padded.
	return strings.TrimRight(string(out), "\x00")
}
