// Package rpc implements a minimal JSON-RPC 2.0 client for Ethereum
// nodes, covering exactly the calls the wallet needs.
package rpc

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethervault/ethervault/internal/chain"
	"github.com/ethervault/ethervault/internal/config"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

// RPCError is a JSON-RPC 2.0 error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Client talks JSON-RPC 2.0 to a single node over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *chain.RateLimiter
	log        *config.Logger
	idCounter  atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimiter replaces the default per-method rate limiter.
func WithRateLimiter(rl *chain.RateLimiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *config.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the node at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    chain.DefaultRateLimiter(),
		log:        config.NullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Call performs a single JSON-RPC call. A transport failure maps to
// the RPC-unavailable taxonomy entry; a node-side error comes back as
// an *RPCError for the caller to interpret.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx, method); err != nil {
		return nil, err
	}

	if params == nil {
		params = []any{}
	}
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug("rpc -> %s", method)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrRPCUnavailable, map[string]string{
			"url":    c.url,
			"reason": err.Error(),
		})
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, walleterr.WithDetails(walleterr.ErrRPCUnavailable, map[string]string{
			"url":    c.url,
			"reason": fmt.Sprintf("malformed response: %v", err),
		})
	}

	if resp.Error != nil {
		c.log.Debug("rpc <- %s error: %v", method, resp.Error)
		return nil, resp.Error
	}
	return resp.Result, nil
}

// ChainID returns the node's chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.callBigInt(ctx, "eth_chainId")
}

// Balance returns the wei balance of address at the latest block.
func (c *Client) Balance(ctx context.Context, address string) (*big.Int, error) {
	return c.callBigInt(ctx, "eth_getBalance", address, "latest")
}

// Nonce returns the next nonce for address, including pending
// transactions.
func (c *Client) Nonce(ctx context.Context, address string) (uint64, error) {
	n, err := c.callBigInt(ctx, "eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GasPrice returns the node's current gas price in wei.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callBigInt(ctx, "eth_gasPrice")
}

// CallMsg holds the parameters for eth_call and eth_estimateGas.
type CallMsg struct {
	From  string
	To    string
	Gas   uint64
	Value *big.Int
	Data  []byte
}

// MarshalJSON renders the message with hex-quantity encoding and
// omits unset fields.
func (m CallMsg) MarshalJSON() ([]byte, error) {
	type wire struct {
		From  string `json:"from,omitempty"`
		To    string `json:"to"`
		Gas   string `json:"gas,omitempty"`
		Value string `json:"value,omitempty"`
		Data  string `json:"data,omitempty"`
	}

	w := wire{From: m.From, To: m.To}
	if m.Gas > 0 {
		w.Gas = fmt.Sprintf("0x%x", m.Gas)
	}
	if m.Value != nil && m.Value.Sign() > 0 {
		w.Value = "0x" + m.Value.Text(16)
	}
	if len(m.Data) > 0 {
		w.Data = "0x" + hex.EncodeToString(m.Data)
	}
	return json.Marshal(w)
}

// CallContract performs a read-only eth_call at the latest block.
func (c *Client) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	result, err := c.Call(ctx, "eth_call", msg, "latest")
	if err != nil {
		return nil, err
	}

	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return nil, fmt.Errorf("parsing call result: %w", err)
	}
	return parseHexBytes(hexVal)
}

// EstimateGas asks the node to simulate the message and returns the
// gas it would consume.
func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	result, err := c.Call(ctx, "eth_estimateGas", msg)
	if err != nil {
		return 0, err
	}

	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return 0, fmt.Errorf("parsing gas estimate: %w", err)
	}
	n, err := parseHexBigInt(hexVal)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// SendRawTransaction broadcasts a signed transaction and returns its
// hash.
func (c *Client) SendRawTransaction(ctx context.Context, signedTx []byte) (string, error) {
	result, err := c.Call(ctx, "eth_sendRawTransaction", "0x"+hex.EncodeToString(signedTx))
	if err != nil {
		return "", err
	}

	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("parsing tx hash: %w", err)
	}
	return txHash, nil
}

// Receipt is the subset of a transaction receipt the wallet reads.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber *big.Int
	GasUsed     uint64
}

// Succeeded reports whether the transaction executed without revert.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}

// TransactionReceipt fetches the receipt for txHash. A nil receipt
// with a nil error means the transaction is not yet mined.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	result, err := c.Call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}

	var wire struct {
		TransactionHash string `json:"transactionHash"`
		Status          string `json:"status"`
		BlockNumber     string `json:"blockNumber"`
		GasUsed         string `json:"gasUsed"`
	}
	if err := json.Unmarshal(result, &wire); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	status, err := parseHexBigInt(wire.Status)
	if err != nil {
		return nil, fmt.Errorf("parsing receipt status: %w", err)
	}
	blockNumber, err := parseHexBigInt(wire.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("parsing receipt block number: %w", err)
	}
	gasUsed, err := parseHexBigInt(wire.GasUsed)
	if err != nil {
		return nil, fmt.Errorf("parsing receipt gas used: %w", err)
	}

	return &Receipt{
		TxHash:      wire.TransactionHash,
		Status:      status.Uint64(),
		BlockNumber: blockNumber,
		GasUsed:     gasUsed.Uint64(),
	}, nil
}

// callBigInt runs a call whose result is a single hex quantity.
func (c *Client) callBigInt(ctx context.Context, method string, params ...any) (*big.Int, error) {
	result, err := c.Call(ctx, method, params...)
	if err != nil {
		return nil, err
	}

	var hexVal string
	if err := json.Unmarshal(result, &hexVal); err != nil {
		return nil, fmt.Errorf("parsing %s result: %w", method, err)
	}
	return parseHexBigInt(hexVal)
}

func parseHexBigInt(s string) (*big.Int, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0), nil
	}

	n := new(big.Int)
	if _, ok := n.SetString(s, 16); !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", s)
	}
	return n, nil
}

func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return []byte{}, nil
	}
	return hex.DecodeString(s)
}
