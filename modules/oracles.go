package modules

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Oracle is fixed at registration: it may only answer requests opened at one of its indexes.
type Oracle struct {
	Address common.Address          `json:"address"`
	Indexes [IndexesPerOracle]uint8 `json:"indexes"`
	FeePaid bool                    `json:"fee_paid"`
}

func (oracle *Oracle) HasIndex(index uint8) bool {
	for _, held := range oracle.Indexes {
		if held == index {
			return true
		}
	}
	return false
}

type OracleRegistry struct {
	Oracles map[common.Address]*Oracle `json:"oracles"`
}

func NewOracleRegistry(old *OracleRegistry) *OracleRegistry {
	registry := &OracleRegistry{Oracles: make(map[common.Address]*Oracle)}
	for address, oracle := range old.Oracles {
		copied := *oracle
		registry.Oracles[address] = &copied
	}
	return registry
}

func (registry *OracleRegistry) Hash() []byte { return hashOf(registry) }

func (registry *OracleRegistry) Register(sender common.Address, fee, minimum *uint256.Int, random Randomness, space uint8) ([]Event, error) {
	fee = amount(fee)
	if fee.Lt(minimum) {
		return nil, fmt.Errorf("%w: registration fee is %s", ErrInsufficientFunds, minimum.Dec())
	}
	if _, ok := registry.Oracles[sender]; ok {
		return nil, fmt.Errorf("%w: oracle %s is already registered", ErrInvalidState, sender.Hex())
	}
	oracle := &Oracle{
		Address: sender,
		Indexes: sampleIndexes(random, space),
		FeePaid: true,
	}
	registry.Oracles[sender] = oracle
	return []Event{OracleRegistered{Oracle: sender, Indexes: oracle.Indexes}}, nil
}

func (registry *OracleRegistry) Indexes(address common.Address) ([IndexesPerOracle]uint8, error) {
	oracle, ok := registry.Oracles[address]
	if !ok {
		return [IndexesPerOracle]uint8{}, fmt.Errorf("%w: oracle %s is not registered", ErrInvalidState, address.Hex())
	}
	return oracle.Indexes, nil
}

func (registry *OracleRegistry) checkIndex(address common.Address, index uint8) error {
	oracle, ok := registry.Oracles[address]
	if !ok || !oracle.HasIndex(index) {
		return fmt.Errorf("%w: index %d", ErrNoMatchingIndex, index)
	}
	return nil
}
