package modules

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tendermint/tendermint/libs/log"
)

// Call describes who invokes a command. Caller is the gateway checked by the guard, Sender is
// the account the command acts for and Value the funds attached to it.
type Call struct {
	Caller common.Address
	Sender common.Address
	Value  *uint256.Int
}

// Surety is the single authority over the contract state. Commands hold the write lock for
// their whole duration, validate everything before the first mutation and publish their
// events before releasing it; reads share the read lock.
type Surety struct {
	mu        sync.RWMutex
	state     *State
	random    Randomness
	publisher Publisher
	logger    log.Logger
}

type Option func(*Surety)

func WithRandomness(random Randomness) Option {
	return func(surety *Surety) { surety.random = random }
}

func WithPublisher(publisher Publisher) Option {
	return func(surety *Surety) { surety.publisher = publisher }
}

func WithLogger(logger log.Logger) Option {
	return func(surety *Surety) { surety.logger = logger }
}

func NewSurety(state *State, options ...Option) *Surety {
	surety := &Surety{
		state:  NewState(state),
		random: NewHashRandomness(state.Hash()),
		logger: log.NewNopLogger(),
	}
	for _, option := range options {
		option(surety)
	}
	return surety
}

func (surety *Surety) SetRandomness(random Randomness) {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	surety.random = random
}

func (surety *Surety) SetPublisher(publisher Publisher) {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	surety.publisher = publisher
}

// Snapshot returns a copy of the current state.
func (surety *Surety) Snapshot() *State {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return NewState(surety.state)
}

func (surety *Surety) Restore(state *State) {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	surety.state = NewState(state)
}

func (surety *Surety) Hash() []byte {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.Hash()
}

func (surety *Surety) Params() Params {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.Params.Copy()
}

// commit publishes the events of a command that succeeded. The write lock is held.
func (surety *Surety) commit(command string, events []Event) {
	surety.logger.Debug("Committed command", "command", command, "events", len(events))
	if surety.publisher == nil {
		return
	}
	for _, event := range events {
		surety.publisher.Publish(event)
	}
}

// ------------------------------------------------------------------------------------------------------------------- //
// ACCESS GUARD

func (surety *Surety) SetOperatingStatus(call Call, mode bool) error {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	events, err := surety.state.Guard.SetOperatingStatus(call.Sender, mode)
	if err != nil {
		return err
	}
	surety.logger.Info("Operating status set", "operational", mode)
	surety.commit("setOperatingStatus", events)
	return nil
}

func (surety *Surety) AuthorizeCaller(call Call, caller common.Address) error {
	return surety.authorize(call, caller, true)
}

func (surety *Surety) DeauthorizeCaller(call Call, caller common.Address) error {
	return surety.authorize(call, caller, false)
}

func (surety *Surety) authorize(call Call, caller common.Address, authorized bool) error {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	events, err := surety.state.Guard.Authorize(call.Sender, caller, authorized)
	if err != nil {
		return err
	}
	surety.commit("authorizeCaller", events)
	return nil
}

func (surety *Surety) IsOperational() bool {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.IsOperational()
}

func (surety *Surety) IsCallerAuthorized(caller common.Address) bool {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.IsCallerAuthorized(caller)
}

// ------------------------------------------------------------------------------------------------------------------- //
// AIRLINES

func (surety *Surety) RegisterAirline(call Call, airline common.Address) error {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	if err := surety.state.Guard.check(call.Caller); err != nil {
		return err
	}
	events, err := surety.state.Airlines.Register(call.Sender, airline, surety.state.Params.AutoAdmit)
	if err != nil {
		return err
	}
	surety.logger.Info("Airline registered", "airline", airline.Hex(), "status", surety.state.Airlines.Status(airline))
	surety.commit("registerAirline", events)
	return nil
}

func (surety *Surety) VoteToAirline(call Call, candidate common.Address) error {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	if err := surety.state.Guard.check(call.Caller); err != nil {
		return err
	}
	events, err := surety.state.Airlines.Vote(call.Sender, candidate)
	if err != nil {
		return err
	}
	surety.commit("voteToAirline", events)
	return nil
}

// FundAirline turns the sending Registered airline into a Participant; the deposit is call.Value.
func (surety *Surety) FundAirline(call Call) error {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	if err := surety.state.Guard.check(call.Caller); err != nil {
		return err
	}
	events, err := surety.state.Airlines.Fund(call.Sender, call.Value, surety.state.Params.AirlineFund)
	if err != nil {
		return err
	}
	surety.state.Insurance.deposit(amount(call.Value))
	surety.logger.Info("Airline funded", "airline", call.Sender.Hex(), "amount", amount(call.Value).Dec())
	surety.commit("fundAirline", events)
	return nil
}

func (surety *Surety) GetAirlineStatus(airline common.Address) AirlineStatus {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetAirlineStatus(airline)
}

func (surety *Surety) GetAirline(airline common.Address) (Airline, bool) {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetAirline(airline)
}

// ------------------------------------------------------------------------------------------------------------------- //
// FLIGHTS

func (surety *Surety) RegisterFlight(call Call, code string, timestamp uint64) (common.Hash, error) {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	if err := surety.state.Guard.check(call.Caller); err != nil {
		return common.Hash{}, err
	}
	if err := surety.state.Airlines.checkParticipant(call.Sender); err != nil {
		return common.Hash{}, err
	}
	key, events, err := surety.state.Flights.Register(call.Sender, code, timestamp)
	if err != nil {
		return common.Hash{}, err
	}
	surety.logger.Info("Flight registered", "flight", code, "airline", call.Sender.Hex(), "timestamp", timestamp)
	surety.commit("registerFlight", events)
	return key, nil
}

func (surety *Surety) GetFlightStatus(code string) StatusCode {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetFlightStatus(code)
}

func (surety *Surety) GetFlight(code string) (Flight, bool) {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetFlight(code)
}

func (surety *Surety) GetFlights() []Flight {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetFlights()
}

func (surety *Surety) GetAirlineFlights(airline common.Address) []Flight {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetAirlineFlights(airline)
}

// ------------------------------------------------------------------------------------------------------------------- //
// ORACLES

// RegisterOracle admits the sender as an oracle; the fee is call.Value.
func (surety *Surety) RegisterOracle(call Call) ([IndexesPerOracle]uint8, error) {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	if err := surety.state.Guard.check(call.Caller); err != nil {
		return [IndexesPerOracle]uint8{}, err
	}
	params := surety.state.Params
	events, err := surety.state.Oracles.Register(call.Sender, call.Value, params.OracleFee, surety.random, params.IndexSpace)
	if err != nil {
		return [IndexesPerOracle]uint8{}, err
	}
	surety.state.Insurance.deposit(amount(call.Value))
	indexes, _ := surety.state.Oracles.Indexes(call.Sender)
	surety.logger.Info("Oracle registered", "oracle", call.Sender.Hex(), "indexes", indexes)
	surety.commit("registerOracle", events)
	return indexes, nil
}

func (surety *Surety) GetMyIndexes(oracle common.Address) ([IndexesPerOracle]uint8, error) {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetMyIndexes(oracle)
}

// ------------------------------------------------------------------------------------------------------------------- //
// STATUS CONSENSUS

// FetchFlightStatus opens a status request at a random index and returns the index.
func (surety *Surety) FetchFlightStatus(call Call, airline common.Address, flight string, timestamp uint64) (uint8, error) {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	if err := surety.state.Guard.check(call.Caller); err != nil {
		return 0, err
	}
	record, err := surety.state.Flights.lookup(FlightKeyOf(airline, flight, timestamp))
	if err != nil {
		return 0, err
	}
	if record.Resolved {
		return 0, fmt.Errorf("%w: flight %s is already resolved", ErrInvalidState, record.Code)
	}
	index := uint8(surety.random.Intn(int(surety.state.Params.IndexSpace)))
	events := surety.state.Requests.open(index, record, call.Sender)
	surety.logger.Info("Oracle request opened", "flight", flight, "airline", airline.Hex(), "index", index)
	surety.commit("fetchFlightStatus", events)
	return index, nil
}

// SubmitOracleResponse counts the sender's report. Reports on a request that is already
// resolved, or on a flight resolved through another request, are dropped without error.
func (surety *Surety) SubmitOracleResponse(call Call, index uint8, airline common.Address, flight string, timestamp uint64, code StatusCode) error {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	state := surety.state
	if err := state.Guard.check(call.Caller); err != nil {
		return err
	}
	if err := state.Oracles.checkIndex(call.Sender, index); err != nil {
		return err
	}
	if !code.Valid() {
		return fmt.Errorf("%w: unknown status code %d", ErrInvalidState, uint8(code))
	}
	request, err := state.Requests.lookup(RequestKeyOf(index, airline, flight, timestamp))
	if err != nil {
		return err
	}
	record, err := state.Flights.lookup(request.FlightKey)
	if err != nil {
		return err
	}
	if !request.Open() || record.Resolved {
		surety.logger.Debug("Late oracle response discarded", "oracle", call.Sender.Hex(), "flight", flight, "index", index)
		return nil
	}

	if request.Responses[code][call.Sender] {
		return nil
	}
	var credits []credit
	if request.Count(code)+1 >= state.Params.MinResponses {
		if credits, err = state.Insurance.plan(record.Key, code, state.Params); err != nil {
			return err
		}
	}

	count := state.Requests.record(request, call.Sender, code)
	events := []Event{OracleReport{Oracle: call.Sender, Airline: airline, Flight: flight, Timestamp: timestamp, StatusCode: code}}
	if count >= state.Params.MinResponses {
		state.Requests.resolve(request, code)
		state.Flights.resolve(record.Key, code)
		events = append(events, FlightStatusResolved{Flight: flight, Airline: airline, Timestamp: timestamp, StatusCode: code})
		events = append(events, state.Insurance.settle(record.Key, credits)...)
		surety.logger.Info("Flight status resolved", "flight", flight, "airline", airline.Hex(), "status", code, "credits", len(credits))
	}
	surety.commit("submitOracleResponse", events)
	return nil
}

func (surety *Surety) GetRequest(key common.Hash) (StatusRequest, bool) {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetRequest(key)
}

// ------------------------------------------------------------------------------------------------------------------- //
// INSURANCE

// BuyInsurance buys or tops up cover on a flight; call.Value must equal premium.
func (surety *Surety) BuyInsurance(call Call, flight common.Hash, premium *uint256.Int) error {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	state := surety.state
	if err := state.Guard.check(call.Caller); err != nil {
		return err
	}
	record, err := state.Flights.lookup(flight)
	if err != nil {
		return err
	}
	events, err := state.Insurance.Buy(call.Sender, record, premium, call.Value, state.Params.InsuranceCap)
	if err != nil {
		return err
	}
	surety.logger.Info("Insurance bought", "passenger", call.Sender.Hex(), "flight", record.Code, "premium", amount(premium).Dec())
	surety.commit("buyInsurance", events)
	return nil
}

func (surety *Surety) GetPassengerBalance(passenger common.Address) *uint256.Int {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetPassengerBalance(passenger)
}

// Withdraw pays out everything credited to passenger. Only the passenger may withdraw.
func (surety *Surety) Withdraw(call Call, passenger common.Address) (*uint256.Int, error) {
	surety.mu.Lock()
	defer surety.mu.Unlock()
	if err := surety.state.Guard.check(call.Caller); err != nil {
		return nil, err
	}
	if call.Sender != passenger {
		return nil, fmt.Errorf("%w: only the passenger may withdraw", ErrUnauthorized)
	}
	paid, events, err := surety.state.Insurance.Withdraw(passenger)
	if err != nil {
		return nil, err
	}
	surety.logger.Info("Payout withdrawn", "passenger", passenger.Hex(), "amount", paid.Dec())
	surety.commit("withdraw", events)
	return paid, nil
}

func (surety *Surety) GetPolicy(flight common.Hash, passenger common.Address) (Policy, bool) {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetPolicy(flight, passenger)
}

func (surety *Surety) GetPolicies(passenger common.Address) []Policy {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetPolicies(passenger)
}

func (surety *Surety) GetTreasury() Treasury {
	surety.mu.RLock()
	defer surety.mu.RUnlock()
	return surety.state.GetTreasury()
}
