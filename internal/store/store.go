// Package store holds the dapp's observable UI state. Every mutation goes
// through the Store and is broadcast to subscribers in order.
package store

import (
	"sync"

	"github.com/jask/ethdapp/internal/contract"
)

// State is a snapshot of everything the UI renders.
type State struct {
	Session Session
	Balance BalanceView
	Form    TransferForm
	Status  OperationStatus
}

// Session is the active connection. Contract is only set while Account is.
type Session struct {
	Account  string
	Contract *contract.Voting
}

// Connected reports whether an account is active.
func (s Session) Connected() bool { return s.Account != "" }

// BalanceView is the formatted balance of the active account. Stale marks a
// value whose last refresh failed.
type BalanceView struct {
	Amount string
	Stale  bool
}

// TransferForm mirrors the two transfer inputs.
type TransferForm struct {
	Recipient string
	Amount    string
}

// OperationStatus tracks the single in-flight action and its outcome banner.
type OperationStatus struct {
	InProgress bool
	Error      string
	Success    string
}

// Succeed shows msg and hides any error.
func (o *OperationStatus) Succeed(msg string) {
	o.Error = ""
	o.Success = msg
}

// Fail shows msg and hides any success.
func (o *OperationStatus) Fail(msg string) {
	o.Success = ""
	o.Error = msg
}

// Connect activates account with its contract handle.
func (s *State) Connect(account string, c *contract.Voting) {
	s.Session = Session{Account: account, Contract: c}
	if account == "" {
		s.Session.Contract = nil
	}
}

// Disconnect drops the session and everything derived from it.
func (s *State) Disconnect() {
	s.Session = Session{}
	s.Balance = BalanceView{}
}

// Store is the single mutable state container.
type Store struct {
	mu    sync.Mutex
	state State
	// notifyMu keeps notifications in mutation order.
	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextID   int
}

// New returns an empty, disconnected store.
func New() *Store {
	return &Store{subs: map[int]func(State){}}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every later change and returns its cancel func.
// fn runs synchronously and must not call back into the store.
func (s *Store) Subscribe(fn func(State)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subs, id)
	}
}

// Update applies fn and notifies subscribers.
func (s *Store) Update(fn func(*State)) {
	s.apply(func(st *State) bool {
		fn(st)
		return true
	})
}

// TryBegin starts an action: InProgress is set and both banners cleared.
// It returns false, changing nothing, when an action is already running.
func (s *Store) TryBegin() bool {
	return s.apply(func(st *State) bool {
		if st.Status.InProgress {
			return false
		}
		st.Status = OperationStatus{InProgress: true}
		return true
	})
}

// Finish applies the action's terminal mutation and clears InProgress in a
// single notification.
func (s *Store) Finish(fn func(*State)) {
	s.Update(func(st *State) {
		if fn != nil {
			fn(st)
		}
		st.Status.InProgress = false
	})
}

// UpdateIdle applies fn only when no action is running. It reports whether
// fn ran.
func (s *Store) UpdateIdle(fn func(*State)) bool {
	return s.apply(func(st *State) bool {
		if st.Status.InProgress {
			return false
		}
		fn(st)
		return true
	})
}

func (s *Store) apply(fn func(*State) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := fn(&s.state)
	snap := s.state
	s.mu.Unlock()

	if !changed {
		return false
	}
	for _, sub := range s.subs {
		sub(snap)
	}
	return true
}
