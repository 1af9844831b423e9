// Package tui is the terminal front end. It renders store snapshots and turns
// key presses into service calls run as bubbletea commands.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ethdapp/internal/database/repository"
	"github.com/jask/ethdapp/internal/prefs"
	"github.com/jask/ethdapp/internal/service"
	"github.com/jask/ethdapp/internal/store"
)

// Services are the action handlers the UI triggers.
type Services struct {
	Connector *service.Connector
	Balance   *service.BalanceReader
	Transfer  *service.TransferService
	Voting    *service.VotingService
}

// History lists recent journal entries. A nil History hides the panel.
type History interface {
	Recent(ctx context.Context, limit int) ([]repository.Activity, error)
}

// Options tune presentation and polling.
type Options struct {
	// PollInterval is how often the wallet's accounts are re-checked while
	// connected. Zero disables polling.
	PollInterval   time.Duration
	CurrencySymbol string
	HistoryLimit   int
	// ShowHistory opens the history panel on start.
	ShowHistory bool
}

// App is the root bubbletea model.
type App struct {
	ctx      context.Context
	store    *store.Store
	services Services
	history  History
	opts     Options
	keys     *KeyRegistry

	updates     chan store.State
	unsubscribe func()
	state       store.State

	recipient textinput.Model
	amount    textinput.Model
	formOpen  bool
	spinner   spinner.Model

	// running covers the gap between starting an action and the store
	// reporting InProgress.
	running  bool
	actionID int
	cancel   context.CancelFunc
	syncing  bool

	showHistory bool
	activity    []repository.Activity
	historyErr  string

	width    int
	quitting bool
}

type (
	stateMsg      store.State
	actionDoneMsg struct {
		id  int
		err error
		// sent is the submitted form of a transfer action.
		sent *store.TransferForm
	}
	pollTickMsg time.Time
	syncDoneMsg struct{ err error }
	historyMsg  []repository.Activity
	errMsg      struct{ error }
)

func New(ctx context.Context, st *store.Store, services Services, history History, opts Options) *App {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "ETH"
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}

	recipient := textinput.New()
	recipient.Placeholder = "0x recipient address"
	recipient.Prompt = ""
	recipient.Width = 44
	amount := textinput.New()
	amount.Placeholder = "0.0"
	amount.Prompt = ""
	amount.Width = 24

	a := &App{
		ctx:       ctx,
		store:     st,
		services:  services,
		history:   history,
		opts:      opts,
		keys:      NewKeyRegistry(),
		updates:   make(chan store.State, 1),
		recipient: recipient,
		amount:    amount,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),

		showHistory: opts.ShowHistory && history != nil,
	}
	a.state = st.Snapshot()
	a.unsubscribe = st.Subscribe(a.publish)
	return a
}

// publish keeps only the newest snapshot for the UI. Subscribers are called
// one at a time, so the send after draining never blocks.
func (a *App) publish(st store.State) {
	select {
	case <-a.updates:
	default:
	}
	a.updates <- st
}

func waitForState(ch <-chan store.State) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ch)
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForState(a.updates), a.spinner.Tick, a.pollCmd()}
	if a.services.Connector != nil {
		cmds = append(cmds, a.runAction(a.services.Connector.CheckExisting))
	}
	if a.showHistory {
		cmds = append(cmds, a.loadHistory())
	}
	return tea.Batch(cmds...)
}

// Prefs returns the view toggles worth keeping for the next run.
func (a *App) Prefs() prefs.UI {
	return prefs.UI{ShowHistory: a.showHistory}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
	case stateMsg:
		a.state = store.State(m)
		return a, waitForState(a.updates)
	case actionDoneMsg:
		if m.id == a.actionID {
			a.running = false
			a.cancel = nil
		}
		if m.sent != nil && m.err == nil {
			a.clearSent(*m.sent)
		}
		if a.showHistory {
			return a, a.loadHistory()
		}
	case pollTickMsg:
		cmds := []tea.Cmd{a.pollCmd()}
		if a.state.Session.Connected() && !a.busy() && !a.syncing && a.services.Connector != nil {
			a.syncing = true
			cmds = append(cmds, a.syncCmd())
		}
		return a, tea.Batch(cmds...)
	case syncDoneMsg:
		a.syncing = false
	case historyMsg:
		a.activity = []repository.Activity(m)
		a.historyErr = ""
	case errMsg:
		a.historyErr = m.Error()
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case tea.KeyMsg:
		return a.handleKey(m)
	default:
		if a.formOpen {
			return a.updateInputs(msg)
		}
	}
	return a, nil
}

func (a *App) scope() string {
	if a.formOpen {
		return scopeForm
	}
	return scopeMain
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := a.keys.Lookup(m.String(), a.scope())
	if b == nil {
		if a.formOpen {
			return a.updateInputs(m)
		}
		return a, nil
	}
	if !a.enabled(b.Action) {
		return a, nil
	}

	switch b.Action {
	case actionQuit:
		if a.cancel != nil {
			a.cancel()
		}
		a.unsubscribe()
		a.quitting = true
		return a, tea.Quit
	case actionCancel:
		a.cancel()
	case actionConnect:
		return a, a.runAction(a.services.Connector.Connect)
	case actionFocusTransfer:
		a.formOpen = true
		a.amount.Blur()
		return a, a.recipient.Focus()
	case actionNextField:
		if a.recipient.Focused() {
			a.recipient.Blur()
			return a, a.amount.Focus()
		}
		a.amount.Blur()
		return a, a.recipient.Focus()
	case actionLeaveForm:
		a.formOpen = false
		a.recipient.Blur()
		a.amount.Blur()
	case actionSubmit:
		sent := store.TransferForm{Recipient: a.recipient.Value(), Amount: a.amount.Value()}
		cmd := a.runAction(func(ctx context.Context) error {
			return a.services.Transfer.Send(ctx, sent.Recipient, sent.Amount)
		})
		return a, markTransfer(cmd, sent)
	case actionVote1:
		return a, a.vote(1)
	case actionVote2:
		return a, a.vote(2)
	case actionRefresh:
		return a, a.runAction(a.services.Balance.Refresh)
	case actionHistory:
		a.showHistory = !a.showHistory
		if a.showHistory {
			return a, a.loadHistory()
		}
	}
	return a, nil
}

// enabled reports whether action can run in the current state. Disabled
// actions are ignored and drawn dim in the footer.
func (a *App) enabled(action Action) bool {
	switch action {
	case actionConnect:
		return !a.busy() && a.services.Connector != nil
	case actionSubmit:
		return !a.busy() && a.services.Transfer != nil
	case actionVote1, actionVote2:
		return !a.busy() && a.services.Voting != nil
	case actionRefresh:
		return !a.busy() && a.state.Session.Connected() && a.services.Balance != nil
	case actionCancel:
		return a.cancel != nil
	case actionHistory:
		return a.history != nil
	}
	return true
}

func (a *App) busy() bool {
	return a.running || a.state.Status.InProgress
}

func (a *App) vote(proposal uint64) tea.Cmd {
	return a.runAction(func(ctx context.Context) error {
		return a.services.Voting.CastVote(ctx, proposal)
	})
}

// runAction starts fn as the single in-flight action. The x key cancels its
// context.
func (a *App) runAction(fn func(context.Context) error) tea.Cmd {
	ctx, cancel := context.WithCancel(a.ctx)
	a.actionID++
	id := a.actionID
	a.running = true
	a.cancel = cancel
	return func() tea.Msg {
		defer cancel()
		return actionDoneMsg{id: id, err: fn(ctx)}
	}
}

func markTransfer(cmd tea.Cmd, sent store.TransferForm) tea.Cmd {
	return func() tea.Msg {
		msg := cmd().(actionDoneMsg)
		msg.sent = &sent
		return msg
	}
}

// clearSent empties the inputs that still hold what was sent. Text typed
// while the transfer ran is kept and mirrored back into the store, which the
// service cleared.
func (a *App) clearSent(sent store.TransferForm) {
	if a.recipient.Value() == sent.Recipient {
		a.recipient.SetValue("")
	}
	if a.amount.Value() == sent.Amount {
		a.amount.SetValue("")
	}
	form := store.TransferForm{Recipient: a.recipient.Value(), Amount: a.amount.Value()}
	a.state.Form = form
	if form != (store.TransferForm{}) {
		a.store.Update(func(st *store.State) { st.Form = form })
	}
}

func (a *App) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if a.amount.Focused() {
		a.amount, cmd = a.amount.Update(msg)
	} else {
		a.recipient, cmd = a.recipient.Update(msg)
	}
	form := store.TransferForm{Recipient: a.recipient.Value(), Amount: a.amount.Value()}
	if form != a.state.Form {
		a.state.Form = form
		a.store.Update(func(st *store.State) { st.Form = form })
	}
	return a, cmd
}

func (a *App) pollCmd() tea.Cmd {
	if a.opts.PollInterval <= 0 {
		return nil
	}
	return tea.Tick(a.opts.PollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func (a *App) syncCmd() tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{err: a.services.Connector.Sync(a.ctx)}
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.history == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := a.history.Recent(a.ctx, a.opts.HistoryLimit)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(list)
	}
}
