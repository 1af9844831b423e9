package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrBusy is returned when an action is started while another is in flight.
// The store is left untouched.
var ErrBusy = errors.New("service: another action is in progress")

// ErrNotConnected is wrapped by actions that need an active account.
var ErrNotConnected = errors.New("service: no active account")

// Kind classifies a handler failure. Each kind maps to one banner.
type Kind int

const (
	ProviderMissing Kind = iota + 1
	ConnectionFailed
	BalanceReadFailed
	TransferFailed
	VoteFailed
	ContractNotReady
	ContractBindFailed
)

func (k Kind) String() string {
	switch k {
	case ProviderMissing:
		return "ProviderMissing"
	case ConnectionFailed:
		return "ConnectionFailed"
	case BalanceReadFailed:
		return "BalanceReadFailed"
	case TransferFailed:
		return "TransferFailed"
	case VoteFailed:
		return "VoteFailed"
	case ContractNotReady:
		return "ContractNotReady"
	case ContractBindFailed:
		return "ContractBindFailed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Message is the banner text for k.
func (k Kind) Message() string {
	switch k {
	case ProviderMissing:
		return "No wallet provider detected. Start your wallet or set ETHDAPP_WALLET_ENDPOINT."
	case ConnectionFailed:
		return "Error connecting wallet"
	case BalanceReadFailed:
		return "Error getting balance"
	case TransferFailed:
		return "Error sending ETH"
	case VoteFailed:
		return "Error casting vote"
	case ContractNotReady:
		return "Voting contract not initialized"
	case ContractBindFailed:
		return "Error setting up voting contract"
	default:
		return "Unexpected error"
	}
}

// Error is the typed failure every handler returns.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the banner text, marking deadline and user cancellation.
func (e *Error) Message() string {
	msg := e.Kind.Message()
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		msg += " (timed out)"
	case errors.Is(e.Err, context.Canceled):
		msg += " (cancelled)"
	}
	return msg
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
