package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scopes []string
}

// KeyRegistry maps keys to actions per input scope. The first binding
// registered for a key wins within a scope; scopeGlobal is the fallback.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal = "global"
	scopeMain   = "main"
	scopeForm   = "form"
)

const (
	actionQuit          Action = "quit"
	actionConnect       Action = "connect"
	actionFocusTransfer Action = "focus_transfer"
	actionNextField     Action = "next_field"
	actionSubmit        Action = "submit"
	actionLeaveForm     Action = "leave_form"
	actionVote1         Action = "vote_1"
	actionVote2         Action = "vote_2"
	actionRefresh       Action = "refresh"
	actionHistory       Action = "history"
	actionCancel        Action = "cancel"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scopes: []string{scope}})
	}

	reg(scopeMain, actionConnect, []string{"c"}, "connect")
	reg(scopeMain, actionFocusTransfer, []string{"t"}, "transfer")
	reg(scopeMain, actionVote1, []string{"1"}, "vote 1")
	reg(scopeMain, actionVote2, []string{"2"}, "vote 2")
	reg(scopeMain, actionRefresh, []string{"r"}, "refresh")
	reg(scopeMain, actionHistory, []string{"h"}, "history")
	reg(scopeMain, actionCancel, []string{"x"}, "cancel")
	reg(scopeMain, actionQuit, []string{"q", "ctrl+c"}, "quit")

	// Letters type into the inputs, so the form only binds control keys.
	reg(scopeForm, actionNextField, []string{"tab", "shift+tab", "up", "down"}, "next field")
	reg(scopeForm, actionSubmit, []string{"enter"}, "send")
	reg(scopeForm, actionLeaveForm, []string{"esc"}, "back")
	reg(scopeForm, actionCancel, []string{"ctrl+x"}, "cancel")

	reg(scopeGlobal, actionQuit, []string{"ctrl+c"}, "quit")

	return r
}

func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	for _, scope := range b.Scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" || len(b.Keys) == 0 {
			continue
		}
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*Binding)
		}
		normKeys := normalizeKeyList(b.Keys)
		if len(normKeys) == 0 || r.scopeHasAnyKey(scope, normKeys) {
			continue
		}

		copyBinding := b
		copyBinding.Keys = normKeys
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range copyBinding.Keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

func (r *KeyRegistry) BindingsForScope(scope string) []Binding {
	if r == nil {
		return nil
	}
	items := r.bindingsByScope[scope]
	out := make([]Binding, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out
}

func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.lookupInScope(keyName, scope); b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.lookupInScope(keyName, scopeGlobal)
	}
	return nil
}

// HelpBindings returns scope's bindings for the footer. Actions for which
// enabled reports false come back disabled.
func (r *KeyRegistry) HelpBindings(scope string, enabled func(Action) bool) []key.Binding {
	items := r.BindingsForScope(scope)
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		kb := key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help))
		if enabled != nil && !enabled(b.Action) {
			kb.SetEnabled(false)
		}
		out = append(out, kb)
	}
	return out
}

func (r *KeyRegistry) lookupInScope(keyName, scope string) *Binding {
	lookup, ok := r.indexByScope[scope]
	if !ok {
		return nil
	}
	return lookup[keyName]
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	lookup := r.indexByScope[scope]
	for _, k := range keys {
		if _, exists := lookup[k]; exists {
			return true
		}
	}
	return false
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	s := strings.ToLower(strings.TrimSpace(k))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	return s
}
