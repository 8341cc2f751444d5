package modules

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Guard is the contract-wide operational flag and the set of gateways allowed to call commands.
type Guard struct {
	Operational bool                    `json:"operational"`
	Owner       common.Address          `json:"owner"`
	Authorized  map[common.Address]bool `json:"authorized"`
}

func NewGuard(old *Guard) *Guard {
	guard := &Guard{
		Operational: old.Operational,
		Owner:       old.Owner,
		Authorized:  make(map[common.Address]bool),
	}
	for caller, authorized := range old.Authorized {
		if authorized {
			guard.Authorized[caller] = true
		}
	}
	return guard
}

func (guard *Guard) Hash() []byte { return hashOf(guard) }

func (guard *Guard) checkOperational() error {
	if !guard.Operational {
		return ErrNotOperational
	}
	return nil
}

func (guard *Guard) checkAuthorized(caller common.Address) error {
	if !guard.IsAuthorized(caller) {
		return fmt.Errorf("%w: caller %s is not authorized", ErrUnauthorized, caller.Hex())
	}
	return nil
}

func (guard *Guard) checkOwner(sender common.Address) error {
	if sender != guard.Owner {
		return fmt.Errorf("%w: caller is not contract owner", ErrUnauthorized)
	}
	return nil
}

// check runs the two preconditions every regular command starts with.
func (guard *Guard) check(caller common.Address) error {
	if err := guard.checkOperational(); err != nil {
		return err
	}
	return guard.checkAuthorized(caller)
}

func (guard *Guard) IsAuthorized(caller common.Address) bool {
	return caller == guard.Owner || guard.Authorized[caller]
}

func (guard *Guard) SetOperatingStatus(sender common.Address, mode bool) ([]Event, error) {
	if err := guard.checkOwner(sender); err != nil {
		return nil, err
	}
	if guard.Operational == mode {
		return nil, nil
	}
	guard.Operational = mode
	return []Event{OperatingStatusChanged{Operational: mode}}, nil
}

func (guard *Guard) Authorize(sender, caller common.Address, authorized bool) ([]Event, error) {
	if err := guard.checkOwner(sender); err != nil {
		return nil, err
	}
	if guard.Authorized[caller] == authorized {
		return nil, nil
	}
	if authorized {
		guard.Authorized[caller] = true
	} else {
		delete(guard.Authorized, caller)
	}
	return []Event{CallerAuthorized{Caller: caller, Authorized: authorized}}, nil
}
