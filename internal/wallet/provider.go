// Package wallet is the boundary to the external wallet provider. The provider
// owns key custody and signing; this package only asks it for accounts,
// balances and transactions.
package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrNoProvider is returned by a ProviderSource when no wallet is reachable.
	ErrNoProvider = errors.New("wallet: no provider detected")
	// ErrReverted is returned by PendingTx.Wait for a mined but failed transaction.
	ErrReverted = errors.New("wallet: transaction reverted")
)

// ProviderSource detects a wallet provider.
type ProviderSource interface {
	Detect(ctx context.Context) (Provider, error)
}

// Provider is the subset of the EIP-1193 surface the dapp relies on.
type Provider interface {
	// Accounts lists authorized accounts. With prompt set the wallet may ask
	// the user to grant access.
	Accounts(ctx context.Context, prompt bool) ([]common.Address, error)
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
	SendTransaction(ctx context.Context, req TxRequest) (PendingTx, error)
}

// TxRequest is an unsigned transaction handed to the wallet for signing.
// To is passed through untouched; validating it is the wallet's job.
type TxRequest struct {
	From  common.Address
	To    string
	Value *big.Int
	Data  []byte
}

// PendingTx is a submitted transaction awaiting confirmation.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*types.Receipt, error)
}

// NoProvider never detects a wallet.
type NoProvider struct{}

func (NoProvider) Detect(context.Context) (Provider, error) { return nil, ErrNoProvider }

// Static always detects the same provider.
type Static struct {
	Provider Provider
}

func (s Static) Detect(context.Context) (Provider, error) {
	if s.Provider == nil {
		return nil, ErrNoProvider
	}
	return s.Provider, nil
}
