package main

import (
	"database/sql"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jask/ethdapp/internal/config"
	"github.com/jask/ethdapp/internal/database"
	"github.com/jask/ethdapp/internal/database/repository"
	"github.com/jask/ethdapp/internal/logging"
	"github.com/jask/ethdapp/internal/prefs"
	"github.com/jask/ethdapp/internal/service"
	"github.com/jask/ethdapp/internal/store"
	"github.com/jask/ethdapp/internal/tui"
	"github.com/jask/ethdapp/internal/wallet"
)

const (
	endpointKey  = "endpoint"
	noJournalKey = "no-journal"
)

func rootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:           "ethdapp",
		Short:         "Terminal dapp: wallet balance, transfers and proposal voting",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runFunc,
	}
	flags := c.PersistentFlags()
	flags.String(endpointKey, "", "wallet JSON-RPC endpoint (overrides wallet.endpoint)")
	flags.Bool(noJournalKey, false, "do not record transactions in the activity journal")

	c.AddCommand(historyCommand(), configCommand())
	return c
}

// loadConfig reads and validates configuration, applying flag overrides.
func loadConfig(c *cobra.Command) (config.Config, error) {
	return loadConfigWith(c, config.Load)
}

func loadConfigWith(c *cobra.Command, load func() (config.Config, error)) (config.Config, error) {
	cfg, err := load()
	if err != nil {
		return config.Config{}, err
	}
	flags := c.Flags()
	if flags.Changed(endpointKey) {
		if cfg.Wallet.Endpoint, err = flags.GetString(endpointKey); err != nil {
			return config.Config{}, err
		}
	}
	if noJournal, _ := flags.GetBool(noJournalKey); noJournal {
		cfg.Journal.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openJournal migrates and opens the activity journal.
func openJournal(cfg config.JournalConfig) (*sql.DB, error) {
	if err := database.RunMigrations(cfg.Path); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	db, err := database.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return db, nil
}

func runFunc(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, closer, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info("starting", "endpoint", cfg.Wallet.Endpoint, "contract", cfg.Contract.Address)

	var (
		journal service.Journal
		history tui.History
	)
	if cfg.Journal.Enabled {
		db, err := openJournal(cfg.Journal)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := repository.NewActivityRepo(db)
		journal, history = repo, repo
	}

	source := &wallet.RPCSource{Endpoint: cfg.Wallet.Endpoint, ReceiptPoll: cfg.Wallet.ReceiptPoll}
	defer source.Close()

	st := store.New()
	balance := &service.BalanceReader{
		Source:  source,
		Store:   st,
		Timeout: cfg.Timeouts.Request,
		Log:     logger.WithPrefix("balance"),
	}
	services := tui.Services{
		Connector: &service.Connector{
			Source:          source,
			Store:           st,
			Balance:         balance,
			ContractAddress: cfg.Contract.Address,
			Timeout:         cfg.Timeouts.Request,
			Log:             logger.WithPrefix("connect"),
		},
		Balance: balance,
		Transfer: &service.TransferService{
			Source:  source,
			Store:   st,
			Balance: balance,
			Journal: journal,
			Timeout: cfg.Timeouts.Confirmation,
			Log:     logger.WithPrefix("transfer"),
		},
		Voting: &service.VotingService{
			Store:   st,
			Journal: journal,
			Timeout: cfg.Timeouts.Confirmation,
			Log:     logger.WithPrefix("vote"),
		},
	}

	ui, err := prefs.Load()
	if err != nil {
		logger.Warn("ui prefs unreadable, using defaults", "err", err)
	}
	app := tui.New(c.Context(), st, services, history, tui.Options{
		PollInterval:   cfg.Wallet.PollInterval,
		CurrencySymbol: cfg.UI.CurrencySymbol,
		ShowHistory:    ui.ShowHistory,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(c.Context()))
	if _, err := p.Run(); err != nil {
		logger.Error("tui exited", "err", err)
		return err
	}
	if err := prefs.Save(app.Prefs()); err != nil {
		logger.Warn("save ui prefs", "err", err)
	}
	logger.Info("stopped")
	return nil
}
