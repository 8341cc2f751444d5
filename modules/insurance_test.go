package modules

import (
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBuyInsurance(t *testing.T) {
	surety, events := mockSurety(t)
	mockParticipants(t, surety, 1)
	flight := mockFlight(t, surety, "SU100")
	half := Wei(WeiPerEther / 2)
	events.reset()

	err := surety.BuyInsurance(call(passengers[0], Wei(0)), flight, Wei(0))
	require.ErrorIs(t, err, ErrInvalidState)
	err = surety.BuyInsurance(call(passengers[0], Ether(2)), flight, Ether(2))
	require.ErrorIs(t, err, ErrInvalidState)
	err = surety.BuyInsurance(call(passengers[0], Wei(1)), flight, half)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	err = surety.BuyInsurance(call(passengers[0], half), FlightKeyOf(airlines[0], "SU999", departure), half)
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, surety.BuyInsurance(call(passengers[0], half), flight, half))
	require.NoError(t, surety.BuyInsurance(call(passengers[0], half), flight, half))
	policy, ok := surety.GetPolicy(flight, passengers[0])
	require.True(t, ok)
	require.Equal(t, Ether(1), policy.Premium)
	require.Len(t, surety.GetPolicies(passengers[0]), 1)
	require.Equal(t, []string{EventInsurancePurchased, EventInsurancePurchased}, events.types())

	// the cap holds across top-ups
	err = surety.BuyInsurance(call(passengers[0], Wei(1)), flight, Wei(1))
	require.ErrorIs(t, err, ErrInvalidState)

	treasury := surety.GetTreasury()
	require.Equal(t, new(uint256.Int).Add(Ether(10), Ether(1)), treasury.Deposits)
}

func TestNoPayoutWhenNotAirlineFault(t *testing.T) {
	for _, status := range []StatusCode{StatusUnknown, StatusOnTime, StatusLateWeather, StatusLateTechnical, StatusLateOther} {
		surety, _ := mockSurety(t)
		mockParticipants(t, surety, 1)
		mockOracles(t, surety, 3)
		flight := mockFlight(t, surety, "SU100")
		require.NoError(t, surety.BuyInsurance(call(passengers[0], Ether(1)), flight, Ether(1)))

		_, err := surety.FetchFlightStatus(call(passengers[0], nil), airlines[0], "SU100", departure)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			checkResponse(t, surety, oracles[i], "SU100", status)
		}
		fetched, _ := surety.GetFlight("SU100")
		require.True(t, fetched.Resolved, status.String())
		require.True(t, surety.GetPassengerBalance(passengers[0]).IsZero(), status.String())
		_, err = surety.Withdraw(call(passengers[0], nil), passengers[0])
		require.ErrorIs(t, err, ErrInsufficientBalance)

		// no cover can be bought once resolved
		err = surety.BuyInsurance(call(passengers[1], Ether(1)), flight, Ether(1))
		require.ErrorIs(t, err, ErrInvalidState)
	}
}

func mockLateFlight(t *testing.T, surety *Surety, premiums ...*uint256.Int) {
	mockParticipants(t, surety, 1)
	mockOracles(t, surety, 3)
	flight := mockFlight(t, surety, "SU100")
	for i, premium := range premiums {
		require.NoError(t, surety.BuyInsurance(call(passengers[i], premium), flight, premium))
	}
	_, err := surety.FetchFlightStatus(call(passengers[0], nil), airlines[0], "SU100", departure)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		checkResponse(t, surety, oracles[i], "SU100", StatusLateAirline)
	}
}

func TestWithdraw(t *testing.T) {
	surety, events := mockSurety(t)
	mockLateFlight(t, surety, Ether(1), Wei(WeiPerEther/2))
	require.Equal(t, Wei(1500000000000000000), surety.GetPassengerBalance(passengers[0]))
	require.Equal(t, Wei(750000000000000000), surety.GetPassengerBalance(passengers[1]))
	require.True(t, surety.GetPassengerBalance(passengers[2]).IsZero())
	events.reset()

	_, err := surety.Withdraw(call(passengers[1], nil), passengers[0])
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = surety.Withdraw(call(passengers[2], nil), passengers[2])
	require.ErrorIs(t, err, ErrInsufficientBalance)

	paid, err := surety.Withdraw(call(passengers[0], nil), passengers[0])
	require.NoError(t, err)
	require.Equal(t, Wei(1500000000000000000), paid)
	require.True(t, surety.GetPassengerBalance(passengers[0]).IsZero())
	require.Equal(t, []string{EventPayoutWithdrawn}, events.types())

	_, err = surety.Withdraw(call(passengers[0], nil), passengers[0])
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, paid, surety.GetTreasury().Paid)

	policy, _ := surety.GetPolicy(FlightKeyOf(airlines[0], "SU100", departure), passengers[0])
	require.True(t, policy.Settled)
	require.Equal(t, Ether(1), policy.Premium)
}

func TestConcurrentWithdraw(t *testing.T) {
	surety, _ := mockSurety(t)
	mockLateFlight(t, surety, Ether(1))

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := new(uint256.Int)
	failures := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paid, err := surety.Withdraw(call(passengers[0], nil), passengers[0])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				return
			}
			total.Add(total, paid)
		}()
	}
	wg.Wait()
	require.Equal(t, 15, failures)
	require.Equal(t, Wei(1500000000000000000), total)
}

func TestPayout(t *testing.T) {
	params := DefaultParams()
	payout, err := params.Payout(Ether(1))
	require.NoError(t, err)
	require.Equal(t, Wei(1500000000000000000), payout)

	payout, err = params.Payout(Wei(3))
	require.NoError(t, err)
	require.Equal(t, Wei(4), payout)

	_, err = params.Payout(new(uint256.Int).Not(new(uint256.Int)))
	require.ErrorIs(t, err, ErrInvalidState)
}
