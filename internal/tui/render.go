package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/ethdapp/internal/database/repository"
)

const defaultWidth = 80

func (a *App) View() string {
	if a.quitting {
		return ""
	}
	width := a.width
	if width <= 0 {
		width = defaultWidth
	}
	sections := []string{
		renderHeader(width),
		a.renderAccount(width),
		a.renderTransfer(width),
		a.renderVoting(width),
	}
	if a.showHistory {
		sections = append(sections, a.renderHistory(width))
	}
	sections = append(sections, a.renderStatus(width), a.renderFooter(width))
	return appStyle.Render(strings.Join(sections, "\n"))
}

func renderHeader(width int) string {
	return renderBar(headerBarStyle, width, headerAppStyle.Render("ethdapp"), colorMantle)
}

func panel(title, body string, width int, focused bool) string {
	style := panelStyle
	if focused {
		style = focusPanelStyle
	}
	content := panelTitleStyle.Render(title) + "\n" + body
	return style.Width(max(20, width-2)).Render(content)
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + value
}

func (a *App) renderAccount(width int) string {
	st := a.state
	var lines []string
	if !st.Session.Connected() {
		lines = append(lines, field("Account", disabledStyle.Render("Not connected")))
	} else {
		lines = append(lines, field("Account", valueStyle.Render(st.Session.Account)))
		bal := st.Balance.Amount
		if bal == "" {
			bal = "-"
		} else {
			bal += " " + a.opts.CurrencySymbol
		}
		if st.Balance.Stale {
			bal = staleStyle.Render(bal + " (stale)")
		} else {
			bal = valueStyle.Render(bal)
		}
		lines = append(lines, field("Balance", bal))
	}
	if c := st.Session.Contract; c != nil {
		lines = append(lines, field("Contract", valueStyle.Render(c.Address().Hex())))
	} else {
		lines = append(lines, field("Contract", disabledStyle.Render("not bound")))
	}
	return panel("Account", strings.Join(lines, "\n"), width, false)
}

func (a *App) renderTransfer(width int) string {
	lines := []string{
		field("Recipient", a.recipient.View()),
		field("Amount", a.amount.View()+" "+labelStyle.Render(a.opts.CurrencySymbol)),
	}
	if !a.formOpen {
		lines = append(lines, labelStyle.Render("press t to edit"))
	}
	return panel("Transfer", strings.Join(lines, "\n"), width, a.formOpen)
}

func (a *App) renderVoting(width int) string {
	style := valueStyle
	if !a.enabled(actionVote1) {
		style = disabledStyle
	}
	body := style.Render("[1] Proposal 1") + "   " + style.Render("[2] Proposal 2")
	return panel("Vote", body, width, false)
}

func (a *App) renderHistory(width int) string {
	if a.historyErr != "" {
		return panel("History", statusErrBarStyle.Render(a.historyErr), width, false)
	}
	if len(a.activity) == 0 {
		return panel("History", disabledStyle.Render("No activity yet"), width, false)
	}
	lines := make([]string, 0, len(a.activity))
	for _, e := range a.activity {
		lines = append(lines, a.renderActivity(e))
	}
	return panel("History", strings.Join(lines, "\n"), width, false)
}

func (a *App) renderActivity(e repository.Activity) string {
	var what string
	switch e.Kind {
	case repository.KindTransfer:
		amount := ""
		if e.Amount != nil {
			amount = *e.Amount
		}
		what = fmt.Sprintf("sent %s %s to %s", amount, a.opts.CurrencySymbol, shortHex(e.Target))
	case repository.KindVote:
		if e.Proposal != nil {
			what = fmt.Sprintf("vote for proposal %d", *e.Proposal)
		} else {
			what = "vote"
		}
	default:
		what = e.Kind
	}
	status := e.Status
	switch e.Status {
	case repository.StatusConfirmed:
		status = lipgloss.NewStyle().Foreground(colorSuccess).Render(status)
	case repository.StatusFailed:
		status = lipgloss.NewStyle().Foreground(colorError).Render(status)
	default:
		status = staleStyle.Render(status)
	}
	hash := ""
	if e.TxHash != nil {
		hash = " " + labelStyle.Render(shortHex(*e.TxHash))
	}
	return labelStyle.Render(e.CreatedAt.Local().Format("01-02 15:04")) + "  " + what + "  " + status + hash
}

func shortHex(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:8] + "…" + s[len(s)-4:]
}

func (a *App) renderStatus(width int) string {
	st := a.state.Status
	switch {
	case a.busy():
		return renderBar(statusBusyBarStyle, width, a.spinner.View()+" Waiting for wallet... (x to cancel)", colorSurface0)
	case st.Error != "":
		return renderBar(statusErrBarStyle, width, "✗ "+st.Error, colorSurface0)
	case st.Success != "":
		return renderBar(statusBarStyle, width, "✓ "+st.Success, colorSurface0)
	}
	return renderBar(statusBarStyle, width, "Ready", colorSurface0)
}

func (a *App) renderFooter(width int) string {
	bg := colorMantle
	keyStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(bg)
	descStyle := lipgloss.NewStyle().Foreground(colorMuted).Background(bg)
	offStyle := lipgloss.NewStyle().Foreground(colorDisabled).Background(bg)
	space := lipgloss.NewStyle().Background(bg).Render(" ")
	sep := lipgloss.NewStyle().Background(bg).Render("  ")

	bindings := a.keys.HelpBindings(a.scope(), a.enabled)
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		if kb.Enabled() {
			parts = append(parts, keyStyle.Render(h.Key)+space+descStyle.Render(h.Desc))
		} else {
			parts = append(parts, offStyle.Render(h.Key+" "+h.Desc))
		}
	}
	return renderBar(footerStyle, width, strings.Join(parts, sep), bg)
}

func renderBar(style lipgloss.Style, width int, text string, bg lipgloss.TerminalColor) string {
	line := strings.ReplaceAll(text, "\n", " ")
	line = ansi.Truncate(line, width, "")
	lineW := ansi.StringWidth(line)
	if lineW < width {
		line += strings.Repeat(" ", width-lineW)
	}
	return style.
		Background(bg).
		Width(width).
		MaxWidth(width).
		Render(line)
}
