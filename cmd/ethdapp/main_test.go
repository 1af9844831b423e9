package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/ethdapp/internal/config"
	"github.com/jask/ethdapp/internal/database/repository"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ETHDAPP_CONFIG", "")
	t.Setenv("ETHDAPP_JOURNAL_PATH", filepath.Join(home, "journal.db"))
	return home
}

func TestFlagOverrides(t *testing.T) {
	isolate(t)
	c := rootCommand()
	require.NoError(t, c.ParseFlags([]string{"--endpoint", "ws://127.0.0.1:8546", "--no-journal"}))

	cfg, err := loadConfig(c)
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:8546", cfg.Wallet.Endpoint)
	require.False(t, cfg.Journal.Enabled)
}

func TestInvalidEndpointRejected(t *testing.T) {
	isolate(t)
	c := rootCommand()
	require.NoError(t, c.ParseFlags([]string{"--endpoint", "ftp://example"}))

	_, err := loadConfig(c)
	require.ErrorContains(t, err, "unsupported scheme")
}

func TestHistoryCommandPrintsJournal(t *testing.T) {
	home := isolate(t)

	db, err := openJournal(config.JournalConfig{Enabled: true, Path: filepath.Join(home, "journal.db")})
	require.NoError(t, err)
	amount := "0.75"
	hash := "0xabc"
	require.NoError(t, repository.NewActivityRepo(db).Insert(context.Background(), repository.Activity{
		ID: "1", Kind: repository.KindTransfer, Account: "0xaaa", Target: "0xbbb",
		Amount: &amount, TxHash: &hash, Status: repository.StatusConfirmed,
	}))
	require.NoError(t, db.Close())

	var out bytes.Buffer
	c := rootCommand()
	c.SetOut(&out)
	c.SetArgs([]string{"history", "--limit", "5"})
	require.NoError(t, c.Execute())

	require.Contains(t, out.String(), "0.75 ETH")
	require.Contains(t, out.String(), "confirmed")
	require.Contains(t, out.String(), "0xabc")
}

func TestHistoryCommandEmpty(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	c := rootCommand()
	c.SetOut(&out)
	c.SetArgs([]string{"history"})
	require.NoError(t, c.Execute())
	require.Contains(t, out.String(), "No activity recorded.")
}

func TestConfigInitWritesOnce(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "cfg", "config.toml")
	t.Setenv("ETHDAPP_CONFIG", path)

	var out bytes.Buffer
	c := rootCommand()
	c.SetOut(&out)
	c.SetArgs([]string{"config", "init"})
	require.NoError(t, c.Execute())
	require.Contains(t, out.String(), path)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 4*time.Second, cfg.Wallet.PollInterval)

	c = rootCommand()
	c.SetOut(&out)
	c.SetArgs([]string{"config", "init"})
	require.ErrorContains(t, c.Execute(), "already exists")
}

func TestActivityTableVote(t *testing.T) {
	proposal := int64(2)
	errText := "execution reverted"
	s := activityTable([]repository.Activity{{
		Kind: repository.KindVote, Account: "0xaaa", Target: "0xccc",
		Proposal: &proposal, Status: repository.StatusFailed, Error: &errText,
		CreatedAt: time.Now(),
	}}, "ETH")
	require.Contains(t, s, "proposal 2")
	require.Contains(t, s, "failed: execution reverted")
}
