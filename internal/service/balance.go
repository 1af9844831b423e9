package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/jask/ethdapp/internal/store"
	"github.com/jask/ethdapp/internal/wallet"
)

// BalanceReader reads and formats native balances.
type BalanceReader struct {
	Source  wallet.ProviderSource
	Store   *store.Store
	Timeout time.Duration
	Log     *log.Logger
}

// Read returns the balance of account in whole-currency units. It does not
// touch the store; callers fold the result in with their own update.
func (b *BalanceReader) Read(ctx context.Context, account common.Address) (string, error) {
	p, err := b.Source.Detect(ctx)
	if err != nil {
		return "", err
	}
	wei, err := p.Balance(ctx, account)
	if err != nil {
		logger(b.Log).Warn("balance read failed", "account", account.Hex(), "err", err)
		return "", fmt.Errorf("balance of %s: %w", account.Hex(), err)
	}
	return wallet.FormatEther(wei), nil
}

// Refresh re-reads the active account's balance as a user action.
func (b *BalanceReader) Refresh(ctx context.Context) error {
	if !b.Store.TryBegin() {
		return ErrBusy
	}
	lg := logger(b.Log)
	ctx, cancel := withTimeout(ctx, b.Timeout)
	defer cancel()

	snap := b.Store.Snapshot()
	if !snap.Session.Connected() {
		return fail(b.Store, lg, BalanceReadFailed, ErrNotConnected)
	}
	account := common.HexToAddress(snap.Session.Account)
	amount, err := b.Read(ctx, account)
	if err != nil {
		e := &Error{Kind: BalanceReadFailed, Err: err}
		lg.Error("action failed", "kind", e.Kind, "err", err)
		b.Store.Finish(func(st *store.State) {
			if sameAccount(st.Session.Account, account) {
				st.Balance.Stale = true
			}
			st.Status.Fail(e.Message())
		})
		return e
	}
	b.Store.Finish(func(st *store.State) {
		if sameAccount(st.Session.Account, account) {
			applyBalance(st, amount, nil)
		}
		st.Status.Succeed("Balance updated")
	})
	return nil
}

func sameAccount(hex string, account common.Address) bool {
	return hex != "" && common.HexToAddress(hex) == account
}

func isCtxErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
