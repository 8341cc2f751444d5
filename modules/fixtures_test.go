package modules

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	owner      = mockAddress("owner")
	gateway    = mockAddress("gateway")
	stranger   = mockAddress("stranger")
	airlines   = mockAddresses("airline", 6)
	oracles    = mockAddresses("oracle", 6)
	passengers = mockAddresses("passenger", 3)
)

const departure uint64 = 1600000000

func mockAddress(name string) common.Address {
	return common.BytesToAddress([]byte(name))
}

func mockAddresses(prefix string, n int) []common.Address {
	addresses := make([]common.Address, n)
	for i := range addresses {
		addresses[i] = mockAddress(fmt.Sprintf("%s-%d", prefix, i))
	}
	return addresses
}

// fixedRandomness replays values, cycling, each reduced modulo n.
type fixedRandomness struct {
	values []int
	next   int
}

func (random *fixedRandomness) Intn(n int) int {
	value := random.values[random.next%len(random.values)] % n
	random.next++
	return value
}

// zeroRandomness makes every oracle hold indexes 0, 1 and 2 and every request open at index 0.
func zeroRandomness() Randomness { return &fixedRandomness{values: []int{0}} }

type recorder struct {
	events []Event
}

func (r *recorder) Publish(event Event) { r.events = append(r.events, event) }

func (r *recorder) types() []string {
	var types []string
	for _, event := range r.events {
		types = append(types, event.EventType())
	}
	return types
}

func (r *recorder) reset() { r.events = nil }

func mockGenesis() GenesisState {
	return GenesisState{
		Owner:        owner,
		FirstAirline: airlines[0],
		Authorized:   []common.Address{gateway},
	}
}

func mockSurety(t *testing.T) (*Surety, *recorder) {
	state, err := Genesis(mockGenesis())
	require.NoError(t, err)
	events := &recorder{}
	return NewSurety(state, WithRandomness(zeroRandomness()), WithPublisher(events)), events
}

func call(sender common.Address, value *uint256.Int) Call {
	return Call{Caller: gateway, Sender: sender, Value: value}
}

// mockParticipants funds the first airline and registers and funds n-1 more.
func mockParticipants(t *testing.T, surety *Surety, n int) {
	require.NoError(t, surety.FundAirline(call(airlines[0], Ether(10))))
	for i := 1; i < n; i++ {
		require.NoError(t, surety.RegisterAirline(call(airlines[0], nil), airlines[i]))
		require.NoError(t, surety.FundAirline(call(airlines[i], Ether(10))))
	}
}

func mockOracles(t *testing.T, surety *Surety, n int) {
	for i := 0; i < n; i++ {
		_, err := surety.RegisterOracle(call(oracles[i], Ether(1)))
		require.NoError(t, err)
	}
}

func mockFlight(t *testing.T, surety *Surety, code string) common.Hash {
	key, err := surety.RegisterFlight(call(airlines[0], nil), code, departure)
	require.NoError(t, err)
	return key
}

func checkResponse(t *testing.T, surety *Surety, oracle common.Address, code string, status StatusCode) {
	require.NoError(t, surety.SubmitOracleResponse(call(oracle, nil), 0, airlines[0], code, departure, status))
}
