package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/jask/ethdapp/internal/logging"
	"github.com/jask/ethdapp/internal/store"
	"github.com/jask/ethdapp/internal/wallet"
)

func TestCheckExistingAdoptsAuthorizedAccount(t *testing.T) {
	w := &fakeWallet{authorized: []common.Address{acctA}, balance: ether("2.5")}
	h := newHarness(t, w)

	require.NoError(t, h.connector.CheckExisting(context.Background()))

	st := h.store.Snapshot()
	require.Equal(t, acctA.Hex(), st.Session.Account)
	require.NotNil(t, st.Session.Contract)
	require.Equal(t, acctA, st.Session.Contract.From())
	require.Equal(t, "2.5", st.Balance.Amount)
	require.Empty(t, st.Status.Error)
	require.Empty(t, st.Status.Success)
	requireOneAction(t, h.progress)
}

func TestCheckExistingWithoutAccountsIsQuiet(t *testing.T) {
	h := newHarness(t, &fakeWallet{})

	for i := 0; i < 2; i++ {
		require.NoError(t, h.connector.CheckExisting(context.Background()))
		st := h.store.Snapshot()
		require.False(t, st.Session.Connected())
		require.Nil(t, st.Session.Contract)
		require.Empty(t, st.Status.Error)
		require.Empty(t, st.Status.Success)
		require.False(t, st.Status.InProgress)
	}
}

func TestCheckExistingWithoutProvider(t *testing.T) {
	h := newHarness(t, nil)

	err := h.connector.CheckExisting(context.Background())
	require.Equal(t, ProviderMissing, KindOf(err))
	st := h.store.Snapshot()
	require.Equal(t, ProviderMissing.Message(), st.Status.Error)
	require.False(t, st.Session.Connected())
	require.False(t, st.Status.InProgress)
}

func TestConnectSuccess(t *testing.T) {
	w := &fakeWallet{granted: []common.Address{acctA}, balance: ether("1")}
	h := newHarness(t, w)

	require.NoError(t, h.connector.Connect(context.Background()))

	st := h.store.Snapshot()
	require.Equal(t, acctA.Hex(), st.Session.Account)
	require.NotNil(t, st.Session.Contract)
	require.Equal(t, "1.0", st.Balance.Amount)
	require.Equal(t, "Wallet connected successfully!", st.Status.Success)
	require.Empty(t, st.Status.Error)
	requireOneAction(t, h.progress)
}

func TestConnectRejectedLeavesSessionEmpty(t *testing.T) {
	w := &fakeWallet{requestErr: errRejected}
	h := newHarness(t, w)

	err := h.connector.Connect(context.Background())
	require.Equal(t, ConnectionFailed, KindOf(err))
	require.True(t, errors.Is(err, errRejected))

	st := h.store.Snapshot()
	require.False(t, st.Session.Connected())
	require.Nil(t, st.Session.Contract)
	require.Equal(t, "Error connecting wallet", st.Status.Error)
	require.Empty(t, st.Status.Success)
	requireOneAction(t, h.progress)
}

func TestConnectRejectedKeepsExistingSession(t *testing.T) {
	w := &fakeWallet{balance: ether("3")}
	h := connected(t, w)
	w.requestErr = errRejected

	require.Error(t, h.connector.Connect(context.Background()))
	st := h.store.Snapshot()
	require.Equal(t, acctA.Hex(), st.Session.Account)
	require.Equal(t, "3.0", st.Balance.Amount)
}

func TestConnectBalanceFailureStaysConnected(t *testing.T) {
	w := &fakeWallet{granted: []common.Address{acctA}, balanceErr: errors.New("rpc down")}
	h := newHarness(t, w)

	err := h.connector.Connect(context.Background())
	require.Equal(t, BalanceReadFailed, KindOf(err))

	st := h.store.Snapshot()
	require.True(t, st.Session.Connected())
	require.NotNil(t, st.Session.Contract)
	require.True(t, st.Balance.Stale)
	require.Equal(t, "Error getting balance", st.Status.Error)
	require.Empty(t, st.Status.Success)
}

func TestConnectBadContractAddress(t *testing.T) {
	w := &fakeWallet{granted: []common.Address{acctA}}
	h := newHarness(t, w)
	h.connector.ContractAddress = "not-an-address"

	err := h.connector.Connect(context.Background())
	require.Equal(t, ContractBindFailed, KindOf(err))

	st := h.store.Snapshot()
	require.True(t, st.Session.Connected())
	require.Nil(t, st.Session.Contract)
	require.Equal(t, "Error setting up voting contract", st.Status.Error)
}

func TestSyncSwitchesAccount(t *testing.T) {
	w := &fakeWallet{balance: ether("1")}
	h := connected(t, w)
	w.mu.Lock()
	w.authorized = []common.Address{acctC}
	w.balance = ether("7")
	w.mu.Unlock()

	require.NoError(t, h.connector.Sync(context.Background()))

	st := h.store.Snapshot()
	require.Equal(t, acctC.Hex(), st.Session.Account)
	require.Equal(t, acctC, st.Session.Contract.From())
	require.Equal(t, "7.0", st.Balance.Amount)
	require.Equal(t, "Switched to account "+acctC.Hex(), st.Status.Success)
}

func TestSyncClearsVanishedAccount(t *testing.T) {
	w := &fakeWallet{balance: ether("1")}
	h := connected(t, w)
	w.mu.Lock()
	w.authorized = nil
	w.mu.Unlock()

	require.NoError(t, h.connector.Sync(context.Background()))

	st := h.store.Snapshot()
	require.False(t, st.Session.Connected())
	require.Nil(t, st.Session.Contract)
	require.Empty(t, st.Balance.Amount)
	require.Equal(t, "Wallet disconnected", st.Status.Error)
}

func TestSyncNoChangeIsSilent(t *testing.T) {
	w := &fakeWallet{balance: ether("1")}
	h := connected(t, w)

	require.NoError(t, h.connector.Sync(context.Background()))
	require.Empty(t, h.progress)
}

func TestSyncSkipsWhileBusyOrDisconnected(t *testing.T) {
	w := &fakeWallet{}
	h := newHarness(t, w)
	require.NoError(t, h.connector.Sync(context.Background()))
	require.Empty(t, h.progress)

	h = connected(t, &fakeWallet{})
	h.wallet.authorized = nil
	require.True(t, h.store.TryBegin())
	require.NoError(t, h.connector.Sync(context.Background()))
	require.True(t, h.store.Snapshot().Session.Connected())
	h.store.Finish(func(st *store.State) {})
}

func TestSyncAccountsErrorKeepsSession(t *testing.T) {
	w := &fakeWallet{}
	h := connected(t, w)
	w.mu.Lock()
	w.accountsErr = errors.New("timeout")
	w.mu.Unlock()

	var buf bytes.Buffer
	h.connector.Log = logging.New(&buf, log.InfoLevel)

	require.Error(t, h.connector.Sync(context.Background()))
	require.True(t, h.store.Snapshot().Session.Connected())
	require.Contains(t, buf.String(), "WARN")
	require.Contains(t, buf.String(), "accounts failed")
}

func TestSyncWarnsWhenWalletGone(t *testing.T) {
	h := connected(t, &fakeWallet{})
	var buf bytes.Buffer
	h.connector.Log = logging.New(&buf, log.InfoLevel)
	h.connector.Source = wallet.NoProvider{}

	err := h.connector.Sync(context.Background())
	require.ErrorIs(t, err, wallet.ErrNoProvider)
	require.Contains(t, buf.String(), "wallet unreachable")
}

func TestSyncFollowsWalletSelectionOrder(t *testing.T) {
	w := &fakeWallet{balance: ether("1")}
	h := connected(t, w)
	w.mu.Lock()
	w.authorized = []common.Address{acctC, acctA}
	w.mu.Unlock()

	require.NoError(t, h.connector.Sync(context.Background()))
	require.Equal(t, acctC.Hex(), h.store.Snapshot().Session.Account)
}
