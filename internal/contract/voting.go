// Package contract binds the on-chain voting contract to a wallet signer.
package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/jask/ethdapp/internal/wallet"
)

// VotingAddress is the deployed voting contract.
const VotingAddress = "0xB2E1185468e57A801a54162F27725CbD5B0EB4a6"

// VotingABI declares the single state-mutating entry point the dapp calls.
const VotingABI = `[
  {
    "inputs": [
      {"internalType": "uint256", "name": "_proposalId", "type": "uint256"}
    ],
    "name": "vote",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

// Signer submits transactions on behalf of an account. wallet.Provider
// satisfies it.
type Signer interface {
	SendTransaction(ctx context.Context, req wallet.TxRequest) (wallet.PendingTx, error)
}

// Voting is a contract handle: address, interface and signer together.
type Voting struct {
	address common.Address
	abi     abi.ABI
	signer  Signer
	from    common.Address
}

// Bind builds a handle for the contract at address, signing as from.
func Bind(address, abiJSON string, signer Signer, from common.Address) (*Voting, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("bind: invalid contract address %q", address)
	}
	if signer == nil {
		return nil, fmt.Errorf("bind: signer required")
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("bind: parse abi: %w", err)
	}
	if _, ok := parsed.Methods["vote"]; !ok {
		return nil, fmt.Errorf("bind: abi has no vote method")
	}
	return &Voting{
		address: common.HexToAddress(address),
		abi:     parsed,
		signer:  signer,
		from:    from,
	}, nil
}

// Address returns the contract address.
func (v *Voting) Address() common.Address { return v.address }

// From returns the account the handle signs as.
func (v *Voting) From() common.Address { return v.from }

// Call submits a state-mutating call of method with args.
func (v *Voting) Call(ctx context.Context, method string, args ...any) (wallet.PendingTx, error) {
	data, err := v.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	pending, err := v.signer.SendTransaction(ctx, wallet.TxRequest{
		From: v.from,
		To:   v.address.Hex(),
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return pending, nil
}

// Vote submits vote(proposalID).
func (v *Voting) Vote(ctx context.Context, proposalID uint64) (wallet.PendingTx, error) {
	return v.Call(ctx, "vote", new(big.Int).SetUint64(proposalID))
}
