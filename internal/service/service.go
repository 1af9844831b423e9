// Package service holds the action handlers. Each handler runs one external
// call sequence against the wallet and reflects its outcome into the store.
package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jask/ethdapp/internal/logging"
	"github.com/jask/ethdapp/internal/store"
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func logger(l *log.Logger) *log.Logger {
	if l == nil {
		return logging.Discard()
	}
	return l
}

// fail ends the running action with kind's banner.
func fail(s *store.Store, lg *log.Logger, kind Kind, err error) error {
	e := &Error{Kind: kind, Err: err}
	lg.Error("action failed", "kind", kind, "err", err)
	s.Finish(func(st *store.State) { st.Status.Fail(e.Message()) })
	return e
}

// applyBalance folds a balance read into st. A failed read keeps the prior
// amount and marks it stale.
func applyBalance(st *store.State, amount string, err error) {
	if err != nil {
		st.Balance.Stale = true
		return
	}
	st.Balance = store.BalanceView{Amount: amount}
}
