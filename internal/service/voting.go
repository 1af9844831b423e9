package service

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jask/ethdapp/internal/database/repository"
	"github.com/jask/ethdapp/internal/store"
)

// VotingService casts votes through the session's contract handle.
type VotingService struct {
	Store   *store.Store
	Journal Journal
	Timeout time.Duration
	Log     *log.Logger
}

// CastVote votes for proposalID and waits for confirmation. Without a bound
// contract it reports ContractNotReady and makes no call.
func (s *VotingService) CastVote(ctx context.Context, proposalID uint64) error {
	if !s.Store.TryBegin() {
		return ErrBusy
	}
	lg := logger(s.Log)
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	v := s.Store.Snapshot().Session.Contract
	if v == nil {
		return fail(s.Store, lg, ContractNotReady, nil)
	}
	tx, err := v.Vote(ctx, proposalID)
	if err != nil {
		return fail(s.Store, lg, VoteFailed, fmt.Errorf("submit: %w", err))
	}
	lg.Info("vote submitted", "hash", tx.Hash().Hex(), "proposal", proposalID)
	proposal := int64(proposalID)
	id := record(ctx, s.Journal, lg, repository.Activity{
		Kind:     repository.KindVote,
		Account:  v.From().Hex(),
		Target:   v.Address().Hex(),
		Proposal: &proposal,
		TxHash:   strPtr(tx.Hash().Hex()),
	})

	_, err = tx.Wait(ctx)
	settle(ctx, s.Journal, lg, id, err)
	if err != nil {
		return fail(s.Store, lg, VoteFailed, fmt.Errorf("confirm %s: %w", tx.Hash().Hex(), err))
	}
	lg.Info("vote confirmed", "hash", tx.Hash().Hex(), "proposal", proposalID)
	s.Store.Finish(func(st *store.State) {
		st.Status.Succeed(fmt.Sprintf("Vote cast successfully for Proposal %d!", proposalID))
	})
	return nil
}
