package modules

import (
	"crypto/sha256"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// State is every table the contract owns. A State is never shared between the live contract
// and a snapshot: NewState copies all of it.
type State struct {
	Params    Params           `json:"params"`
	Guard     *Guard           `json:"guard"`
	Airlines  *AirlineRegistry `json:"airlines"`
	Flights   *FlightRegistry  `json:"flights"`
	Oracles   *OracleRegistry  `json:"oracles"`
	Requests  *ConsensusEngine `json:"requests"`
	Insurance *InsuranceLedger `json:"insurance"`
}

func NewState(old *State) *State {
	state := &State{Params: old.Params.Copy()}
	state.Guard = NewGuard(orEmpty(old.Guard, &Guard{}))
	state.Airlines = NewAirlineRegistry(orEmpty(old.Airlines, &AirlineRegistry{}))
	state.Flights = NewFlightRegistry(orEmpty(old.Flights, &FlightRegistry{}))
	state.Oracles = NewOracleRegistry(orEmpty(old.Oracles, &OracleRegistry{}))
	state.Requests = NewConsensusEngine(orEmpty(old.Requests, &ConsensusEngine{}))
	state.Insurance = NewInsuranceLedger(orEmpty(old.Insurance, &InsuranceLedger{}))
	return state
}

func orEmpty[T any](value, empty *T) *T {
	if value == nil {
		return empty
	}
	return value
}

// GenesisState is the app_state of the genesis document.
type GenesisState struct {
	Owner        common.Address   `json:"owner"`
	FirstAirline common.Address   `json:"first_airline"`
	Authorized   []common.Address `json:"authorized"`
	Params       *Params          `json:"params,omitempty"`
}

// Genesis builds the initial state: operational, owned by the deployer, with the first
// airline registered (it still has to fund to participate).
func Genesis(genesis GenesisState) (*State, error) {
	if genesis.Owner == (common.Address{}) {
		return nil, errors.New("genesis: missing owner")
	}
	if genesis.FirstAirline == (common.Address{}) {
		return nil, errors.New("genesis: missing first airline")
	}
	params := DefaultParams()
	if genesis.Params != nil {
		params = genesis.Params.Copy()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	state := NewState(&State{Params: params})
	state.Guard.Operational = true
	state.Guard.Owner = genesis.Owner
	for _, caller := range genesis.Authorized {
		state.Guard.Authorized[caller] = true
	}
	state.Airlines.genesis(genesis.FirstAirline)
	return state, nil
}

func hashOf(value interface{}) []byte {
	bytes, _ := json.Marshal(value)
	hash := sha256.Sum256(bytes)
	return hash[:]
}

func (state *State) Hash() []byte {
	var sum []byte
	if state == nil {
		return sum
	}
	sum = append(sum, hashOf(state.Params)...)
	sum = append(sum, state.Guard.Hash()...)
	sum = append(sum, state.Airlines.Hash()...)
	sum = append(sum, state.Flights.Hash()...)
	sum = append(sum, state.Oracles.Hash()...)
	sum = append(sum, state.Requests.Hash()...)
	sum = append(sum, state.Insurance.Hash()...)
	hash := sha256.Sum256(sum)
	return hash[:]
}

// ------------------------------------------------------------------------------------------------------------------- //
// READS

func (state *State) IsOperational() bool { return state.Guard.Operational }

func (state *State) IsCallerAuthorized(caller common.Address) bool {
	return state.Guard.IsAuthorized(caller)
}

func (state *State) GetAirlineStatus(address common.Address) AirlineStatus {
	return state.Airlines.Status(address)
}

func (state *State) GetAirline(address common.Address) (Airline, bool) {
	return state.Airlines.Get(address)
}

func (state *State) GetFlightStatus(code string) StatusCode { return state.Flights.Status(code) }

func (state *State) GetFlight(code string) (Flight, bool) { return state.Flights.ByCode(code) }

func (state *State) GetFlights() []Flight { return state.Flights.List() }

func (state *State) GetAirlineFlights(airline common.Address) []Flight {
	return state.Flights.OfAirline(airline)
}

func (state *State) GetMyIndexes(address common.Address) ([IndexesPerOracle]uint8, error) {
	return state.Oracles.Indexes(address)
}

func (state *State) GetRequest(key common.Hash) (StatusRequest, bool) { return state.Requests.Get(key) }

func (state *State) GetPassengerBalance(passenger common.Address) *uint256.Int {
	return state.Insurance.Balance(passenger)
}

func (state *State) GetPolicy(flight common.Hash, passenger common.Address) (Policy, bool) {
	return state.Insurance.Get(flight, passenger)
}

func (state *State) GetPolicies(passenger common.Address) []Policy {
	return state.Insurance.PoliciesOf(passenger)
}

func (state *State) GetTreasury() Treasury { return state.Insurance.Treasury.copy() }
