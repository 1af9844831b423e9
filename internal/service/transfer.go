package service

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/jask/ethdapp/internal/database/repository"
	"github.com/jask/ethdapp/internal/store"
	"github.com/jask/ethdapp/internal/wallet"
)

// TransferService sends native currency from the active account.
type TransferService struct {
	Source  wallet.ProviderSource
	Store   *store.Store
	Balance *BalanceReader
	Journal Journal
	Timeout time.Duration
	Log     *log.Logger
}

// Send transfers amount (whole-currency decimal) to recipient and waits for
// confirmation. recipient is handed to the wallet as is. On success the form
// is cleared and the balance re-read; on failure the form is kept.
func (s *TransferService) Send(ctx context.Context, recipient, amount string) error {
	if !s.Store.TryBegin() {
		return ErrBusy
	}
	lg := logger(s.Log)
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	snap := s.Store.Snapshot()
	if !snap.Session.Connected() {
		return fail(s.Store, lg, TransferFailed, ErrNotConnected)
	}
	from := common.HexToAddress(snap.Session.Account)

	value, err := wallet.ParseEther(amount)
	if err != nil {
		return fail(s.Store, lg, TransferFailed, err)
	}
	p, err := s.Source.Detect(ctx)
	if err != nil {
		return fail(s.Store, lg, TransferFailed, err)
	}
	tx, err := p.SendTransaction(ctx, wallet.TxRequest{From: from, To: recipient, Value: value})
	if err != nil {
		return fail(s.Store, lg, TransferFailed, fmt.Errorf("submit: %w", err))
	}
	lg.Info("transfer submitted", "hash", tx.Hash().Hex(), "to", recipient, "amount", amount)
	id := record(ctx, s.Journal, lg, repository.Activity{
		Kind:    repository.KindTransfer,
		Account: from.Hex(),
		Target:  recipient,
		Amount:  strPtr(amount),
		TxHash:  strPtr(tx.Hash().Hex()),
	})

	_, err = tx.Wait(ctx)
	settle(ctx, s.Journal, lg, id, err)
	if err != nil {
		return fail(s.Store, lg, TransferFailed, fmt.Errorf("confirm %s: %w", tx.Hash().Hex(), err))
	}
	lg.Info("transfer confirmed", "hash", tx.Hash().Hex())

	// Read strictly after the receipt. A failure here does not undo the
	// transfer; the shown balance is only marked stale.
	bal, balErr := s.Balance.Read(ctx, from)
	s.Store.Finish(func(st *store.State) {
		if sameAccount(st.Session.Account, from) {
			applyBalance(st, bal, balErr)
		}
		st.Form = store.TransferForm{}
		st.Status.Succeed("Transaction successful!")
	})
	return nil
}
