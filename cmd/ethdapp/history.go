package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/ethdapp/internal/database/repository"
)

const (
	limitKey   = "limit"
	kindKey    = "kind"
	statusKey  = "status"
	accountKey = "account"
)

func historyCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "history",
		Short: "Prints recent transfers and votes from the activity journal",
		Args:  cobra.NoArgs,
		RunE:  historyFunc,
	}
	flags := c.Flags()
	flags.Int(limitKey, 20, "maximum number of entries")
	flags.String(kindKey, "", "only show entries of this kind (transfer or vote)")
	flags.String(statusKey, "", "only show entries with this status (submitted, confirmed or failed)")
	flags.String(accountKey, "", "only show entries sent from this account")
	return c
}

func historyFunc(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errors.New("activity journal is disabled")
	}
	flags := c.Flags()
	var f repository.ActivityFilters
	if f.Limit, err = flags.GetInt(limitKey); err != nil {
		return err
	}
	if f.Kind, err = flags.GetString(kindKey); err != nil {
		return err
	}
	if f.Status, err = flags.GetString(statusKey); err != nil {
		return err
	}
	if f.Account, err = flags.GetString(accountKey); err != nil {
		return err
	}

	db, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := repository.NewActivityRepo(db).List(c.Context(), f)
	if err != nil {
		return fmt.Errorf("list activity: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.OutOrStdout(), "No activity recorded.")
		return nil
	}
	fmt.Fprintln(c.OutOrStdout(), activityTable(entries, cfg.UI.CurrencySymbol))
	return nil
}

func activityTable(entries []repository.Activity, symbol string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "KIND", "FROM", "TO", "VALUE", "STATUS", "TX")
	for _, e := range entries {
		value := ""
		switch {
		case e.Amount != nil:
			value = *e.Amount + " " + symbol
		case e.Proposal != nil:
			value = "proposal " + strconv.FormatInt(*e.Proposal, 10)
		}
		status := e.Status
		if e.Error != nil {
			status += ": " + *e.Error
		}
		hash := ""
		if e.TxHash != nil {
			hash = *e.TxHash
		}
		t.Row(e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Account, e.Target, value, status, hash)
	}
	return t.String()
}
