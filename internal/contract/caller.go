package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// View kinds accepted by the fetchProductPartN contract methods.
const (
	ViewProduct = "product"
	ViewHistory = "history"
)

// Ledger is the read surface the archival core needs from the
// SupplyChain contract. It is satisfied by Caller and substituted in tests.
type Ledger interface {
	ProductPart1(ctx context.Context, uid uint64, kind string, index uint64) ([]interface{}, error)
	ProductPart2(ctx context.Context, uid uint64, kind string, index uint64) ([]interface{}, error)
	ProductPart3(ctx context.Context, uid uint64, kind string, index uint64) ([]interface{}, error)
	HistoryLength(ctx context.Context, uid uint64) (uint64, error)
	State(ctx context.Context, uid uint64) (uint8, error)
}

type ethCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Caller issues typed view calls against a deployed SupplyChain contract.
type Caller struct {
	client      ethCaller
	address     common.Address
	callTimeout time.Duration
}

// NewCaller builds a Caller for the contract at address. callTimeout bounds
// each individual view call; zero disables the bound.
func NewCaller(client ethCaller, address common.Address, callTimeout time.Duration) (*Caller, error) {
	if client == nil {
		return nil, fmt.Errorf("eth caller is nil")
	}
	if _, err := SupplyChainABI(); err != nil {
		return nil, fmt.Errorf("parse supply chain abi: %w", err)
	}
	return &Caller{client: client, address: address, callTimeout: callTimeout}, nil
}

// Address returns the contract address in hex form.
func (c *Caller) Address() string {
	return c.address.Hex()
}

func (c *Caller) ProductPart1(ctx context.Context, uid uint64, kind string, index uint64) ([]interface{}, error) {
	return c.call(ctx, "fetchProductPart1", new(big.Int).SetUint64(uid), kind, new(big.Int).SetUint64(index))
}

func (c *Caller) ProductPart2(ctx context.Context, uid uint64, kind string, index uint64) ([]interface{}, error) {
	return c.call(ctx, "fetchProductPart2", new(big.Int).SetUint64(uid), kind, new(big.Int).SetUint64(index))
}

func (c *Caller) ProductPart3(ctx context.Context, uid uint64, kind string, index uint64) ([]interface{}, error) {
	return c.call(ctx, "fetchProductPart3", new(big.Int).SetUint64(uid), kind, new(big.Int).SetUint64(index))
}

// HistoryLength returns the number of recorded transitions for a product.
func (c *Caller) HistoryLength(ctx context.Context, uid uint64) (uint64, error) {
	values, err := c.call(ctx, "fetchProductHistoryLength", new(big.Int).SetUint64(uid))
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("fetchProductHistoryLength: expected 1 value, got %d", len(values))
	}
	return asUint64(values[0])
}

// State returns the current on-chain state code for a product.
func (c *Caller) State(ctx context.Context, uid uint64) (uint8, error) {
	values, err := c.call(ctx, "fetchProductState", new(big.Int).SetUint64(uid))
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("fetchProductState: expected 1 value, got %d", len(values))
	}
	return asState(values[0])
}

func (c *Caller) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	parsed, err := SupplyChainABI()
	if err != nil {
		return nil, fmt.Errorf("parse supply chain abi: %w", err)
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	msg := ethereum.CallMsg{To: &c.address, Data: data}
	resp, err := c.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
