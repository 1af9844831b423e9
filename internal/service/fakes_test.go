package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/jask/ethdapp/internal/database/repository"
	"github.com/jask/ethdapp/internal/store"
	"github.com/jask/ethdapp/internal/wallet"
)

var (
	acctA       = common.HexToAddress("0xA000000000000000000000000000000000000001")
	acctC       = common.HexToAddress("0xC000000000000000000000000000000000000003")
	errRejected = errors.New("user rejected the request")
)

const recipientB = "0xB000000000000000000000000000000000000002"

// fakeWallet is a scriptable wallet.Provider.
type fakeWallet struct {
	mu sync.Mutex

	authorized  []common.Address // eth_accounts
	granted     []common.Address // eth_requestAccounts
	accountsErr error
	requestErr  error

	balance      *big.Int
	balanceErr   error
	balanceCalls int

	sendErr error
	waitErr error

	// block, when set, holds Wait until it is closed or ctx ends.
	block chan struct{}

	// submitted receives every accepted request.
	submitted chan wallet.TxRequest

	sent []wallet.TxRequest

	// onSend runs inside SendTransaction.
	onSend func()
}

func (f *fakeWallet) Accounts(ctx context.Context, prompt bool) ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prompt {
		if f.requestErr != nil {
			return nil, f.requestErr
		}
		return f.granted, nil
	}
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.authorized, nil
}

func (f *fakeWallet) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if f.balance == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeWallet) SendTransaction(ctx context.Context, req wallet.TxRequest) (wallet.PendingTx, error) {
	if f.onSend != nil {
		f.onSend()
	}
	f.mu.Lock()
	if f.sendErr != nil {
		f.mu.Unlock()
		return nil, f.sendErr
	}
	f.sent = append(f.sent, req)
	n := len(f.sent)
	f.mu.Unlock()
	if f.submitted != nil {
		f.submitted <- req
	}
	return &fakePending{w: f, hash: common.BigToHash(big.NewInt(int64(n)))}, nil
}

func (f *fakeWallet) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeWallet) balanceReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceCalls
}

type fakePending struct {
	w    *fakeWallet
	hash common.Hash
}

func (p *fakePending) Hash() common.Hash { return p.hash }

func (p *fakePending) Wait(ctx context.Context) (*types.Receipt, error) {
	if p.w.block != nil {
		select {
		case <-p.w.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.w.waitErr != nil {
		return nil, p.w.waitErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: p.hash}, nil
}

// memJournal records journal calls in memory.
type memJournal struct {
	mu      sync.Mutex
	entries map[string]repository.Activity
	order   []string
}

func (j *memJournal) Insert(_ context.Context, a repository.Activity) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.entries == nil {
		j.entries = map[string]repository.Activity{}
	}
	j.entries[a.ID] = a
	j.order = append(j.order, a.ID)
	return nil
}

func (j *memJournal) SetStatus(_ context.Context, id, status, errText string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	a := j.entries[id]
	a.Status = status
	if errText != "" {
		a.Error = &errText
	}
	j.entries[id] = a
	return nil
}

func (j *memJournal) only(t *testing.T) repository.Activity {
	t.Helper()
	j.mu.Lock()
	defer j.mu.Unlock()
	require.Len(t, j.order, 1)
	return j.entries[j.order[0]]
}

type harness struct {
	store     *store.Store
	wallet    *fakeWallet
	journal   *memJournal
	balance   *BalanceReader
	connector *Connector
	transfer  *TransferService
	voting    *VotingService

	// progress has one entry per notification.
	progress []bool
}

func newHarness(t *testing.T, w *fakeWallet) *harness {
	t.Helper()
	var src wallet.ProviderSource = wallet.NoProvider{}
	if w != nil {
		src = wallet.Static{Provider: w}
	}
	h := &harness{store: store.New(), wallet: w, journal: &memJournal{}}
	h.store.Subscribe(func(st store.State) { h.progress = append(h.progress, st.Status.InProgress) })
	h.balance = &BalanceReader{Source: src, Store: h.store}
	h.connector = &Connector{Source: src, Store: h.store, Balance: h.balance}
	h.transfer = &TransferService{Source: src, Store: h.store, Balance: h.balance, Journal: h.journal}
	h.voting = &VotingService{Store: h.store, Journal: h.journal}
	return h
}

// connected returns a harness with acctA already adopted.
func connected(t *testing.T, w *fakeWallet) *harness {
	t.Helper()
	w.authorized = []common.Address{acctA}
	h := newHarness(t, w)
	require.NoError(t, h.connector.CheckExisting(context.Background()))
	require.Equal(t, acctA.Hex(), h.store.Snapshot().Session.Account)
	h.progress = nil
	return h
}

func ether(s string) *big.Int {
	v, err := wallet.ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}

// requireOneAction checks that an action set InProgress first and cleared it
// in its last notification.
func requireOneAction(t *testing.T, progress []bool) {
	t.Helper()
	require.NotEmpty(t, progress)
	require.True(t, progress[0], "first notification starts the action")
	require.False(t, progress[len(progress)-1], "last notification ends the action")
	for _, p := range progress[1 : len(progress)-1] {
		require.True(t, p)
	}
}
