package app

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"surety-node/messages"
	"surety-node/modules"
)

// View is a read-only window on one committed snapshot.
type View struct {
	snapshot *Snapshot
}

func (view *View) Height() int64 { return view.snapshot.Height }

func (view *View) State() *modules.State { return view.snapshot.State }

func (view *View) Nonce(address common.Address) uint64 { return view.snapshot.Nonces[address] }

// Answer resolves a query against the snapshot. The result is JSON encodable.
func (view *View) Answer(query messages.Query) (interface{}, error) {
	state := view.snapshot.State
	switch query.QrType {
	case messages.QueryState:
		return state, nil
	case messages.QueryOperational:
		return state.IsOperational(), nil
	case messages.QueryCallerAuthorized:
		return state.IsCallerAuthorized(query.Address), nil
	case messages.QueryAirline:
		airline, ok := state.GetAirline(query.Address)
		if !ok {
			return nil, fmt.Errorf("%w: airline %s", ErrNotFound, query.Address.Hex())
		}
		return airline, nil
	case messages.QueryFlights:
		return state.GetFlights(), nil
	case messages.QueryAirlineFlights:
		return state.GetAirlineFlights(query.Address), nil
	case messages.QueryFlight:
		flight, ok := state.GetFlight(query.Flight)
		if !ok {
			return nil, fmt.Errorf("%w: flight %s", ErrNotFound, query.Flight)
		}
		return flight, nil
	case messages.QueryFlightStatus:
		return state.GetFlightStatus(query.Flight), nil
	case messages.QueryOracleIndexes:
		return state.GetMyIndexes(query.Address)
	case messages.QueryRequest:
		request, ok := state.GetRequest(query.Key)
		if !ok {
			return nil, fmt.Errorf("%w: request %s", ErrNotFound, query.Key.Hex())
		}
		return request, nil
	case messages.QueryBalance:
		return state.GetPassengerBalance(query.Address), nil
	case messages.QueryPolicies:
		return state.GetPolicies(query.Address), nil
	case messages.QueryTreasury:
		return state.GetTreasury(), nil
	case messages.QueryNonce:
		return view.Nonce(query.Address), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, query.QrType)
}
