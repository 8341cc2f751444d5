package modules

/*
Airlines move Unregistered -> Candidate -> Registered -> Participant.
While fewer than AutoAdmit airlines are admitted (Registered or Participant) a participant
registers new airlines directly, after that the newcomer is a Candidate until half of the
admitted airlines voted for it. Only funded airlines (Participant) register flights and vote.
*/

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ------------------------------------------------------------------------------------------------------------------- //
// AIRLINE STATUS

type AirlineStatus uint8

const (
	Unregistered AirlineStatus = iota
	Candidate
	Registered
	Participant
)

var airlineStatusNames = [...]string{"Unregistered", "Candidate", "Registered", "Participant"}

func (status AirlineStatus) String() string {
	if int(status) < len(airlineStatusNames) {
		return airlineStatusNames[status]
	}
	return fmt.Sprintf("AirlineStatus(%d)", uint8(status))
}

// admitted reports whether the airline counts towards the registered airlines.
func (status AirlineStatus) admitted() bool {
	return status == Registered || status == Participant
}

func (status AirlineStatus) MarshalText() ([]byte, error) {
	return []byte(status.String()), nil
}

func (status *AirlineStatus) UnmarshalText(text []byte) error {
	for i, name := range airlineStatusNames {
		if name == string(text) {
			*status = AirlineStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown airline status %q", text)
}

// ------------------------------------------------------------------------------------------------------------------- //
// AIRLINE

type Airline struct {
	Address        common.Address          `json:"address"`
	Status         AirlineStatus           `json:"status"`
	Votes          map[common.Address]bool `json:"votes,omitempty"`
	FundsDeposited *uint256.Int            `json:"funds_deposited"`
}

func (airline *Airline) copy() *Airline {
	copied := &Airline{
		Address:        airline.Address,
		Status:         airline.Status,
		FundsDeposited: amount(airline.FundsDeposited),
	}
	if airline.Votes != nil {
		copied.Votes = make(map[common.Address]bool, len(airline.Votes))
		for voter := range airline.Votes {
			copied.Votes[voter] = true
		}
	}
	return copied
}

// Voters returns the addresses that voted for a candidate, sorted.
func (airline *Airline) Voters() []common.Address {
	voters := make([]common.Address, 0, len(airline.Votes))
	for voter := range airline.Votes {
		voters = append(voters, voter)
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i].Hex() < voters[j].Hex() })
	return voters
}

// ------------------------------------------------------------------------------------------------------------------- //
// AIRLINE REGISTRY

type AirlineRegistry struct {
	Airlines map[common.Address]*Airline `json:"airlines"`
}

func NewAirlineRegistry(old *AirlineRegistry) *AirlineRegistry {
	registry := &AirlineRegistry{Airlines: make(map[common.Address]*Airline)}
	for address, airline := range old.Airlines {
		registry.Airlines[address] = airline.copy()
	}
	return registry
}

func (registry *AirlineRegistry) Hash() []byte { return hashOf(registry) }

func (registry *AirlineRegistry) Status(address common.Address) AirlineStatus {
	if airline, ok := registry.Airlines[address]; ok {
		return airline.Status
	}
	return Unregistered
}

func (registry *AirlineRegistry) Get(address common.Address) (Airline, bool) {
	airline, ok := registry.Airlines[address]
	if !ok {
		return Airline{}, false
	}
	return *airline.copy(), true
}

// RegisteredCount counts Registered and Participant airlines.
func (registry *AirlineRegistry) RegisteredCount() int {
	count := 0
	for _, airline := range registry.Airlines {
		if airline.Status.admitted() {
			count++
		}
	}
	return count
}

func (registry *AirlineRegistry) checkParticipant(address common.Address) error {
	if registry.Status(address) != Participant {
		return fmt.Errorf("%w: airline is not participant", ErrUnauthorized)
	}
	return nil
}

// genesis admits the first airline without a sponsor.
func (registry *AirlineRegistry) genesis(address common.Address) {
	registry.Airlines[address] = &Airline{
		Address:        address,
		Status:         Registered,
		FundsDeposited: new(uint256.Int),
	}
}

func (registry *AirlineRegistry) Register(sender, address common.Address, autoAdmit int) ([]Event, error) {
	if err := registry.checkParticipant(sender); err != nil {
		return nil, err
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("%w: empty airline address", ErrInvalidState)
	}
	if status := registry.Status(address); status != Unregistered {
		return nil, fmt.Errorf("%w: airline %s is already %s", ErrInvalidState, address.Hex(), status)
	}
	airline := &Airline{Address: address, FundsDeposited: new(uint256.Int)}
	if registry.RegisteredCount() < autoAdmit {
		airline.Status = Registered
		registry.Airlines[address] = airline
		return []Event{AirlineRegistered{Airline: address}}, nil
	}
	airline.Status = Candidate
	airline.Votes = make(map[common.Address]bool)
	registry.Airlines[address] = airline
	return []Event{AirlineCandidate{Airline: address, ProposedBy: sender}}, nil
}

// Vote records a participant's approval of a candidate. Voting twice is a no-op.
func (registry *AirlineRegistry) Vote(sender, candidate common.Address) ([]Event, error) {
	if err := registry.checkParticipant(sender); err != nil {
		return nil, err
	}
	airline, ok := registry.Airlines[candidate]
	if !ok || airline.Status != Candidate {
		return nil, fmt.Errorf("%w: airline %s is not candidate", ErrInvalidState, candidate.Hex())
	}
	if airline.Votes[sender] {
		return nil, nil
	}
	if airline.Votes == nil {
		airline.Votes = make(map[common.Address]bool)
	}
	airline.Votes[sender] = true
	votes := len(airline.Votes)
	events := []Event{AirlineVoted{Airline: candidate, Voter: sender, Votes: votes}}
	if votes*2 >= registry.RegisteredCount() {
		airline.Status = Registered
		airline.Votes = nil
		events = append(events, AirlineRegistered{Airline: candidate})
	}
	return events, nil
}

func (registry *AirlineRegistry) Fund(sender common.Address, deposit, minimum *uint256.Int) ([]Event, error) {
	deposit = amount(deposit)
	if deposit.Lt(minimum) {
		return nil, fmt.Errorf("%w: deposit %s is below %s", ErrInsufficientFunds, deposit.Dec(), minimum.Dec())
	}
	airline, ok := registry.Airlines[sender]
	if !ok || airline.Status != Registered {
		return nil, fmt.Errorf("%w: airline %s is %s, not Registered", ErrInvalidState, sender.Hex(), registry.Status(sender))
	}
	airline.Status = Participant
	airline.FundsDeposited = deposit
	return []Event{AirlineFunded{Airline: sender, Amount: deposit.Clone()}}, nil
}
