package store

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/jask/ethdapp/internal/contract"
)

func TestUpdateNotifiesInOrder(t *testing.T) {
	s := New()
	var seen []string
	cancel := s.Subscribe(func(st State) { seen = append(seen, st.Form.Recipient) })

	s.Update(func(st *State) { st.Form.Recipient = "a" })
	s.Update(func(st *State) { st.Form.Recipient = "b" })
	cancel()
	s.Update(func(st *State) { st.Form.Recipient = "c" })

	require.Equal(t, []string{"a", "b"}, seen)
	require.Equal(t, "c", s.Snapshot().Form.Recipient)
}

func TestTryBeginClearsBannersAndGuards(t *testing.T) {
	s := New()
	s.Update(func(st *State) { st.Status.Fail("old error") })

	require.True(t, s.TryBegin())
	st := s.Snapshot()
	require.True(t, st.Status.InProgress)
	require.Empty(t, st.Status.Error)
	require.Empty(t, st.Status.Success)

	var notified int
	s.Subscribe(func(State) { notified++ })
	require.False(t, s.TryBegin())
	require.Zero(t, notified)

	s.Finish(func(st *State) { st.Status.Succeed("done") })
	st = s.Snapshot()
	require.False(t, st.Status.InProgress)
	require.Equal(t, "done", st.Status.Success)
	require.Empty(t, st.Status.Error)
	require.Equal(t, 1, notified)
}

func TestTryBeginOnlyOneWinner(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryBegin() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, winners)
}

func TestUpdateIdleSkipsDuringAction(t *testing.T) {
	s := New()
	require.True(t, s.TryBegin())
	require.False(t, s.UpdateIdle(func(st *State) { st.Status.Fail("nope") }))
	require.Empty(t, s.Snapshot().Status.Error)

	s.Finish(nil)
	require.True(t, s.UpdateIdle(func(st *State) { st.Status.Fail("wallet disconnected") }))
	require.Equal(t, "wallet disconnected", s.Snapshot().Status.Error)
}

func TestBannersAreExclusive(t *testing.T) {
	var o OperationStatus
	o.Succeed("ok")
	o.Fail("bad")
	require.Empty(t, o.Success)
	require.Equal(t, "bad", o.Error)
	o.Succeed("ok")
	require.Empty(t, o.Error)
}

func TestSessionContractBoundToAccount(t *testing.T) {
	from := common.HexToAddress("0xA000000000000000000000000000000000000001")
	var st State
	st.Connect("", &contract.Voting{})
	require.False(t, st.Session.Connected())
	require.Nil(t, st.Session.Contract)

	st.Connect(from.Hex(), &contract.Voting{})
	st.Balance = BalanceView{Amount: "1.0"}
	require.True(t, st.Session.Connected())
	require.NotNil(t, st.Session.Contract)

	st.Disconnect()
	require.False(t, st.Session.Connected())
	require.Nil(t, st.Session.Contract)
	require.Empty(t, st.Balance.Amount)
}
