package service

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/jask/ethdapp/internal/contract"
	"github.com/jask/ethdapp/internal/store"
	"github.com/jask/ethdapp/internal/wallet"
)

// Connector manages the wallet session.
type Connector struct {
	Source  wallet.ProviderSource
	Store   *store.Store
	Balance *BalanceReader
	// ContractAddress defaults to contract.VotingAddress.
	ContractAddress string
	Timeout         time.Duration
	Log             *log.Logger
}

// CheckExisting adopts an already authorized account without prompting.
// No authorized account is not an error.
func (c *Connector) CheckExisting(ctx context.Context) error {
	if !c.Store.TryBegin() {
		return ErrBusy
	}
	lg := logger(c.Log)
	ctx, cancel := withTimeout(ctx, c.Timeout)
	defer cancel()

	p, err := c.Source.Detect(ctx)
	if err != nil {
		return fail(c.Store, lg, ProviderMissing, err)
	}
	accounts, err := p.Accounts(ctx, false)
	if err != nil {
		return fail(c.Store, lg, ConnectionFailed, err)
	}
	if len(accounts) == 0 {
		lg.Info("no authorized account")
		c.Store.Finish(nil)
		return nil
	}
	return c.adopt(ctx, p, accounts[0], "")
}

// Connect asks the wallet for account access, which may prompt the user.
// On failure the session is left as it was.
func (c *Connector) Connect(ctx context.Context) error {
	if !c.Store.TryBegin() {
		return ErrBusy
	}
	lg := logger(c.Log)
	ctx, cancel := withTimeout(ctx, c.Timeout)
	defer cancel()

	p, err := c.Source.Detect(ctx)
	if err != nil {
		return fail(c.Store, lg, ConnectionFailed, err)
	}
	accounts, err := p.Accounts(ctx, true)
	if err != nil {
		return fail(c.Store, lg, ConnectionFailed, err)
	}
	if len(accounts) == 0 {
		return fail(c.Store, lg, ConnectionFailed, errors.New("wallet granted no accounts"))
	}
	return c.adopt(ctx, p, accounts[0], "Wallet connected successfully!")
}

// adopt binds the contract and reads the balance for account, then ends the
// running action with the session set.
func (c *Connector) adopt(ctx context.Context, p wallet.Provider, account common.Address, success string) error {
	lg := logger(c.Log)
	v, bindErr := c.bind(p, account)
	amount, balErr := c.Balance.Read(ctx, account)

	var ret error
	switch {
	case bindErr != nil:
		ret = &Error{Kind: ContractBindFailed, Err: bindErr}
	case balErr != nil:
		ret = &Error{Kind: BalanceReadFailed, Err: balErr}
	}
	if ret != nil {
		lg.Error("action failed", "kind", KindOf(ret), "err", ret)
	}
	lg.Info("account connected", "account", account.Hex())

	c.Store.Finish(func(st *store.State) {
		if !sameAccount(st.Session.Account, account) {
			st.Balance = store.BalanceView{}
		}
		st.Connect(account.Hex(), v)
		applyBalance(st, amount, balErr)
		var e *Error
		if errors.As(ret, &e) {
			st.Status.Fail(e.Message())
		} else if success != "" {
			st.Status.Succeed(success)
		}
	})
	return ret
}

func (c *Connector) bind(p wallet.Provider, account common.Address) (*contract.Voting, error) {
	addr := c.ContractAddress
	if addr == "" {
		addr = contract.VotingAddress
	}
	return contract.Bind(addr, contract.VotingABI, p, account)
}

// Sync follows out-of-band account changes in the wallet. It only acts while
// connected and idle, and drops its result if an action started meanwhile or
// the session moved on.
func (c *Connector) Sync(ctx context.Context) error {
	snap := c.Store.Snapshot()
	if !snap.Session.Connected() || snap.Status.InProgress {
		return nil
	}
	lg := logger(c.Log)
	ctx, cancel := withTimeout(ctx, c.Timeout)
	defer cancel()

	current := common.HexToAddress(snap.Session.Account)
	p, err := c.Source.Detect(ctx)
	if err != nil {
		if !isCtxErr(err) {
			lg.Warn("sync: wallet unreachable", "account", current.Hex(), "err", err)
		}
		return err
	}
	accounts, err := p.Accounts(ctx, false)
	if err != nil {
		if !isCtxErr(err) {
			lg.Warn("sync: accounts failed", "account", current.Hex(), "err", err)
		}
		return err
	}

	if len(accounts) == 0 {
		var dropped bool
		c.Store.UpdateIdle(func(st *store.State) {
			if !sameAccount(st.Session.Account, current) {
				return
			}
			st.Disconnect()
			st.Status.Fail("Wallet disconnected")
			dropped = true
		})
		if dropped {
			lg.Info("wallet disconnected", "account", current.Hex())
		}
		return nil
	}

	next := accounts[0]
	if next == current {
		return nil
	}
	v, bindErr := c.bind(p, next)
	amount, balErr := c.Balance.Read(ctx, next)
	var switched bool
	c.Store.UpdateIdle(func(st *store.State) {
		if !sameAccount(st.Session.Account, current) {
			return
		}
		switched = true
		st.Balance = store.BalanceView{}
		st.Connect(next.Hex(), v)
		applyBalance(st, amount, balErr)
		switch {
		case bindErr != nil:
			st.Status.Fail(ContractBindFailed.Message())
		case balErr != nil:
			st.Status.Fail(BalanceReadFailed.Message())
		default:
			st.Status.Succeed("Switched to account " + next.Hex())
		}
	})
	if switched {
		lg.Info("account switched", "from", current.Hex(), "to", next.Hex())
	}
	if bindErr != nil {
		return &Error{Kind: ContractBindFailed, Err: bindErr}
	}
	if balErr != nil {
		return &Error{Kind: BalanceReadFailed, Err: balErr}
	}
	return nil
}
