package modules

import "errors"

// Every command failure wraps exactly one of these, callers match them with errors.Is.
var (
	ErrNotOperational      = errors.New("contract is not operational")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidState        = errors.New("invalid state")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNoMatchingIndex     = errors.New("index does not match oracle request")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
