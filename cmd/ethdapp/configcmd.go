package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/ethdapp/internal/config"
)

const forceKey = "force"

func configCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspects or writes the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Writes the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE:  configInitFunc,
	}
	initCmd.Flags().Bool(forceKey, false, "overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Prints the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  configShowFunc,
	}

	c.AddCommand(initCmd, showCmd)
	return c
}

func configInitFunc(c *cobra.Command, _ []string) error {
	path := config.Path()
	force, err := c.Flags().GetBool(forceKey)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --%s to overwrite)", path, forceKey)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := loadConfigWith(c, config.LoadOptional)
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func configShowFunc(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "VALUE").
		Rows(configRows(cfg)...)
	fmt.Fprintf(c.OutOrStdout(), "config file: %s\n%s\n", config.Path(), t.String())
	return nil
}

func configRows(cfg config.Config) [][]string {
	return [][]string{
		{"wallet.endpoint", cfg.Wallet.Endpoint},
		{"wallet.poll_interval", cfg.Wallet.PollInterval.String()},
		{"wallet.receipt_poll", cfg.Wallet.ReceiptPoll.String()},
		{"contract.address", cfg.Contract.Address},
		{"timeouts.request", cfg.Timeouts.Request.String()},
		{"timeouts.confirmation", cfg.Timeouts.Confirmation.String()},
		{"journal.enabled", fmt.Sprint(cfg.Journal.Enabled)},
		{"journal.path", cfg.Journal.Path},
		{"log.path", cfg.Log.Path},
		{"log.level", cfg.Log.Level},
		{"ui.currency_symbol", cfg.UI.CurrencySymbol},
	}
}
