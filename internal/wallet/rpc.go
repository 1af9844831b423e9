package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const codeMethodNotFound = -32601

// DefaultReceiptPoll is used when RPCSource.ReceiptPoll is unset.
const DefaultReceiptPoll = 2 * time.Second

// RPCProvider talks to a wallet over JSON-RPC.
type RPCProvider struct {
	rpc         *rpc.Client
	eth         *ethclient.Client
	receiptPoll time.Duration
}

// NewRPCProvider wraps an established RPC client.
func NewRPCProvider(c *rpc.Client, receiptPoll time.Duration) *RPCProvider {
	if receiptPoll <= 0 {
		receiptPoll = DefaultReceiptPoll
	}
	return &RPCProvider{rpc: c, eth: ethclient.NewClient(c), receiptPoll: receiptPoll}
}

func (p *RPCProvider) Accounts(ctx context.Context, prompt bool) ([]common.Address, error) {
	var accounts []common.Address
	if prompt {
		err := p.rpc.CallContext(ctx, &accounts, "eth_requestAccounts")
		if err == nil {
			return accounts, nil
		}
		// plain nodes only know eth_accounts
		if !isMethodNotFound(err) {
			return nil, fmt.Errorf("eth_requestAccounts: %w", err)
		}
	}
	if err := p.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	return accounts, nil
}

func (p *RPCProvider) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	bal, err := p.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance %s: %w", account.Hex(), err)
	}
	return bal, nil
}

type sendTxArgs struct {
	From  common.Address `json:"from"`
	To    string         `json:"to,omitempty"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Data  hexutil.Bytes  `json:"data,omitempty"`
}

func (p *RPCProvider) SendTransaction(ctx context.Context, req TxRequest) (PendingTx, error) {
	args := sendTxArgs{From: req.From, To: req.To, Data: req.Data}
	if req.Value != nil {
		args.Value = (*hexutil.Big)(req.Value)
	}
	var hash common.Hash
	if err := p.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return nil, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	return &rpcPending{hash: hash, eth: p.eth, poll: p.receiptPoll}, nil
}

// ChainID reports the network the wallet is on.
func (p *RPCProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return p.eth.ChainID(ctx)
}

// Close releases the underlying connection.
func (p *RPCProvider) Close() { p.rpc.Close() }

type rpcPending struct {
	hash common.Hash
	eth  *ethclient.Client
	poll time.Duration
}

func (t *rpcPending) Hash() common.Hash { return t.hash }

// Wait polls for the receipt until it exists or ctx ends. Lookup errors are
// retried; the last one is reported if the deadline hits.
func (t *rpcPending) Wait(ctx context.Context) (*types.Receipt, error) {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()
	var lastErr error
	for {
		r, err := t.eth.TransactionReceipt(ctx, t.hash)
		switch {
		case err == nil:
			if r.Status == types.ReceiptStatusFailed {
				return r, fmt.Errorf("%w: %s", ErrReverted, t.hash.Hex())
			}
			return r, nil
		case !errors.Is(err, ethereum.NotFound):
			lastErr = err
		}
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, fmt.Errorf("wait %s: %w (last error: %v)", t.hash.Hex(), ctx.Err(), lastErr)
			}
			return nil, fmt.Errorf("wait %s: %w", t.hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// RPCSource detects a wallet listening on Endpoint. A detected provider is
// cached and re-probed on every Detect; once its transport fails it is
// dropped and the endpoint is dialed again.
type RPCSource struct {
	Endpoint    string
	ReceiptPoll time.Duration
	// Dial defaults to rpc.DialContext.
	Dial func(ctx context.Context, endpoint string) (*rpc.Client, error)

	mu       sync.Mutex
	provider *RPCProvider
}

func (s *RPCSource) Detect(ctx context.Context) (Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider != nil {
		_, err := s.provider.ChainID(ctx)
		if err == nil || ctx.Err() != nil || isServerError(err) {
			return s.provider, nil
		}
		s.provider.Close()
		s.provider = nil
	}
	dial := s.Dial
	if dial == nil {
		dial = rpc.DialContext
	}
	c, err := dial(ctx, s.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrNoProvider, s.Endpoint, err)
	}
	p := NewRPCProvider(c, s.ReceiptPoll)
	// http dials never fail, so probe before trusting the endpoint
	if _, err := p.ChainID(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: probe %s: %v", ErrNoProvider, s.Endpoint, err)
	}
	s.provider = p
	return p, nil
}

// Close drops the cached provider.
func (s *RPCSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider != nil {
		s.provider.Close()
		s.provider = nil
	}
}

// isServerError reports whether err is an error response from a live endpoint.
func isServerError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeMethodNotFound
}
