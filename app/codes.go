package app

import (
	"errors"

	"surety-node/messages"
	"surety-node/modules"
)

const Codespace = "surety"

const (
	CodeOK uint32 = iota
	CodeMalformed
	CodeSignature
	CodeNonce
	CodeUnknownType
	CodeNotFound
	CodeInternal
)

const (
	CodeNotOperational uint32 = iota + 10
	CodeUnauthorized
	CodeInvalidState
	CodeInsufficientFunds
	CodeNoMatchingIndex
	CodeInsufficientBalance
)

var (
	ErrNonce       = errors.New("unexpected nonce")
	ErrUnknownType = errors.New("unknown message type")
	ErrNotFound    = errors.New("not found")
)

var codes = []struct {
	err  error
	code uint32
}{
	{messages.ErrMalformed, CodeMalformed},
	{messages.ErrSignature, CodeSignature},
	{ErrNonce, CodeNonce},
	{ErrUnknownType, CodeUnknownType},
	{ErrNotFound, CodeNotFound},
	{modules.ErrNotOperational, CodeNotOperational},
	{modules.ErrUnauthorized, CodeUnauthorized},
	{modules.ErrInvalidState, CodeInvalidState},
	{modules.ErrInsufficientFunds, CodeInsufficientFunds},
	{modules.ErrNoMatchingIndex, CodeNoMatchingIndex},
	{modules.ErrInsufficientBalance, CodeInsufficientBalance},
}

// codeOf maps an error to the code reported in ABCI responses.
func codeOf(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
