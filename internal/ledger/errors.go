package ledger

import "errors"

// Every operation fails with one of these (possibly wrapped). Match with errors.Is.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRecipient  = errors.New("invalid recipient")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrTransferFailure   = errors.New("transfer failure")

	ErrInvalidOwner = errors.New("invalid owner")
	ErrCorruptLog   = errors.New("corrupt transaction log")
)
