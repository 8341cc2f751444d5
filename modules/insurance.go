package modules

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ------------------------------------------------------------------------------------------------------------------- //
// POLICY

// Policy is one passenger's cover on one flight. Premium accumulates on top-ups; Credited is
// set when the flight resolves late due to the airline and zeroed on withdrawal.
type Policy struct {
	Passenger common.Address `json:"passenger"`
	Flight    common.Hash    `json:"flight"`
	Premium   *uint256.Int   `json:"premium"`
	Credited  *uint256.Int   `json:"credited"`
	Settled   bool           `json:"settled"`
}

func (policy *Policy) copy() *Policy {
	return &Policy{
		Passenger: policy.Passenger,
		Flight:    policy.Flight,
		Premium:   amount(policy.Premium),
		Credited:  amount(policy.Credited),
		Settled:   policy.Settled,
	}
}

// Treasury accounts for the funds that entered and left the contract.
type Treasury struct {
	Deposits *uint256.Int `json:"deposits"`
	Paid     *uint256.Int `json:"paid"`
}

func (treasury Treasury) copy() Treasury {
	return Treasury{Deposits: amount(treasury.Deposits), Paid: amount(treasury.Paid)}
}

// ------------------------------------------------------------------------------------------------------------------- //
// INSURANCE LEDGER

type InsuranceLedger struct {
	Policies map[common.Hash]map[common.Address]*Policy `json:"policies"`
	Holdings map[common.Address][]common.Hash           `json:"holdings"`
	Treasury Treasury                                   `json:"treasury"`
}

func NewInsuranceLedger(old *InsuranceLedger) *InsuranceLedger {
	ledger := &InsuranceLedger{
		Policies: make(map[common.Hash]map[common.Address]*Policy),
		Holdings: make(map[common.Address][]common.Hash),
		Treasury: old.Treasury.copy(),
	}
	for flight, policies := range old.Policies {
		copied := make(map[common.Address]*Policy, len(policies))
		for passenger, policy := range policies {
			copied[passenger] = policy.copy()
		}
		ledger.Policies[flight] = copied
	}
	for passenger, flights := range old.Holdings {
		ledger.Holdings[passenger] = append([]common.Hash(nil), flights...)
	}
	return ledger
}

func (ledger *InsuranceLedger) Hash() []byte { return hashOf(ledger) }

// deposit books funds received by the contract: airline funding, oracle fees and premiums.
func (ledger *InsuranceLedger) deposit(value *uint256.Int) {
	ledger.Treasury.Deposits = new(uint256.Int).Add(amount(ledger.Treasury.Deposits), value)
}

func (ledger *InsuranceLedger) Buy(passenger common.Address, flight *Flight, premium, value, limit *uint256.Int) ([]Event, error) {
	premium = amount(premium)
	if flight.Resolved {
		return nil, fmt.Errorf("%w: flight %s is already resolved", ErrInvalidState, flight.Code)
	}
	if premium.IsZero() {
		return nil, fmt.Errorf("%w: premium must be positive", ErrInvalidState)
	}
	total := premium.Clone()
	policy := ledger.Policies[flight.Key][passenger]
	if policy != nil {
		total.Add(total, policy.Premium)
	}
	if total.Gt(limit) {
		return nil, fmt.Errorf("%w: premium %s exceeds cap %s", ErrInvalidState, total.Dec(), limit.Dec())
	}
	if !amount(value).Eq(premium) {
		return nil, fmt.Errorf("%w: value %s does not match premium %s", ErrInsufficientFunds, amount(value).Dec(), premium.Dec())
	}
	if policy == nil {
		policy = &Policy{Passenger: passenger, Flight: flight.Key, Credited: new(uint256.Int)}
		if ledger.Policies[flight.Key] == nil {
			ledger.Policies[flight.Key] = make(map[common.Address]*Policy)
		}
		ledger.Policies[flight.Key][passenger] = policy
		ledger.Holdings[passenger] = append(ledger.Holdings[passenger], flight.Key)
	}
	policy.Premium = total
	ledger.deposit(premium)
	return []Event{InsurancePurchased{Passenger: passenger, Flight: flight.Key, Premium: premium.Clone()}}, nil
}

type credit struct {
	policy *Policy
	amount *uint256.Int
}

// plan computes the credits a resolution grants without touching the ledger, so a failure
// leaves the state as it was.
func (ledger *InsuranceLedger) plan(flight common.Hash, code StatusCode, params Params) ([]credit, error) {
	if code != StatusLateAirline {
		return nil, nil
	}
	var credits []credit
	for _, policy := range ledger.Policies[flight] {
		if policy.Settled {
			continue
		}
		payout, err := params.Payout(policy.Premium)
		if err != nil {
			return nil, err
		}
		credits = append(credits, credit{policy: policy, amount: payout})
	}
	sort.Slice(credits, func(i, j int) bool {
		return credits[i].policy.Passenger.Hex() < credits[j].policy.Passenger.Hex()
	})
	return credits, nil
}

// settle applies the planned credits and closes every policy of the flight. Premiums stay
// with the contract either way.
func (ledger *InsuranceLedger) settle(flight common.Hash, credits []credit) []Event {
	var events []Event
	for _, c := range credits {
		c.policy.Credited = new(uint256.Int).Add(amount(c.policy.Credited), c.amount)
		events = append(events, InsuranceCredited{Passenger: c.policy.Passenger, Flight: flight, Amount: c.amount.Clone()})
	}
	for _, policy := range ledger.Policies[flight] {
		policy.Settled = true
	}
	return events
}

func (ledger *InsuranceLedger) Balance(passenger common.Address) *uint256.Int {
	balance := new(uint256.Int)
	for _, flight := range ledger.Holdings[passenger] {
		if policy := ledger.Policies[flight][passenger]; policy != nil {
			balance.Add(balance, amount(policy.Credited))
		}
	}
	return balance
}

// Withdraw reads and clears the passenger's credit in one step.
func (ledger *InsuranceLedger) Withdraw(passenger common.Address) (*uint256.Int, []Event, error) {
	balance := ledger.Balance(passenger)
	if balance.IsZero() {
		return nil, nil, fmt.Errorf("%w: nothing to withdraw for %s", ErrInsufficientBalance, passenger.Hex())
	}
	for _, flight := range ledger.Holdings[passenger] {
		if policy := ledger.Policies[flight][passenger]; policy != nil {
			policy.Credited = new(uint256.Int)
		}
	}
	ledger.Treasury.Paid = new(uint256.Int).Add(amount(ledger.Treasury.Paid), balance)
	return balance.Clone(), []Event{PayoutWithdrawn{Passenger: passenger, Amount: balance.Clone()}}, nil
}

func (ledger *InsuranceLedger) Get(flight common.Hash, passenger common.Address) (Policy, bool) {
	policy := ledger.Policies[flight][passenger]
	if policy == nil {
		return Policy{}, false
	}
	return *policy.copy(), true
}

// PoliciesOf lists a passenger's policies in purchase order.
func (ledger *InsuranceLedger) PoliciesOf(passenger common.Address) []Policy {
	var policies []Policy
	for _, flight := range ledger.Holdings[passenger] {
		if policy := ledger.Policies[flight][passenger]; policy != nil {
			policies = append(policies, *policy.copy())
		}
	}
	return policies
}
