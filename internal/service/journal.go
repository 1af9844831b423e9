package service

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jask/ethdapp/internal/database/repository"
)

// Journal records submitted transactions. *repository.ActivityRepo
// satisfies it.
type Journal interface {
	Insert(ctx context.Context, a repository.Activity) error
	SetStatus(ctx context.Context, id, status, errText string) error
}

// record writes a submitted entry and returns its id, or "" when there is no
// journal or the write failed. Journal errors never fail the action.
func record(ctx context.Context, j Journal, lg *log.Logger, a repository.Activity) string {
	if j == nil {
		return ""
	}
	a.ID = uuid.NewString()
	a.Status = repository.StatusSubmitted
	if err := j.Insert(context.WithoutCancel(ctx), a); err != nil {
		lg.Warn("journal insert failed", "kind", a.Kind, "err", err)
		return ""
	}
	return a.ID
}

// settle moves entry id to confirmed, or to failed when err is set.
func settle(ctx context.Context, j Journal, lg *log.Logger, id string, err error) {
	if j == nil || id == "" {
		return
	}
	status, text := repository.StatusConfirmed, ""
	if err != nil {
		status, text = repository.StatusFailed, err.Error()
	}
	if serr := j.SetStatus(context.WithoutCancel(ctx), id, status, text); serr != nil {
		lg.Warn("journal update failed", "id", id, "err", serr)
	}
}

func strPtr(s string) *string { return &s }
