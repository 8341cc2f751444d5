package modules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperatingStatus(t *testing.T) {
	surety, events := mockSurety(t)
	require.True(t, surety.IsOperational())

	err := surety.SetOperatingStatus(call(airlines[0], nil), false)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.True(t, surety.IsOperational())

	require.NoError(t, surety.SetOperatingStatus(call(owner, nil), false))
	require.False(t, surety.IsOperational())
	require.Equal(t, []string{EventOperatingStatusChanged}, events.types())

	// paused: commands fail, reads still answer
	err = surety.FundAirline(call(airlines[0], Ether(10)))
	require.ErrorIs(t, err, ErrNotOperational)
	_, err = surety.RegisterOracle(call(oracles[0], Ether(1)))
	require.ErrorIs(t, err, ErrNotOperational)
	require.Equal(t, Registered, surety.GetAirlineStatus(airlines[0]))

	// setting the same mode again changes nothing
	events.reset()
	require.NoError(t, surety.SetOperatingStatus(call(owner, nil), false))
	require.Empty(t, events.events)

	require.NoError(t, surety.SetOperatingStatus(call(owner, nil), true))
	require.NoError(t, surety.FundAirline(call(airlines[0], Ether(10))))
}

func TestAuthorizeCaller(t *testing.T) {
	surety, _ := mockSurety(t)
	require.True(t, surety.IsCallerAuthorized(gateway))
	require.True(t, surety.IsCallerAuthorized(owner))
	require.False(t, surety.IsCallerAuthorized(stranger))

	unauthorized := Call{Caller: stranger, Sender: airlines[0], Value: Ether(10)}
	require.ErrorIs(t, surety.FundAirline(unauthorized), ErrUnauthorized)

	require.ErrorIs(t, surety.AuthorizeCaller(call(stranger, nil), stranger), ErrUnauthorized)
	require.NoError(t, surety.AuthorizeCaller(call(owner, nil), stranger))
	require.True(t, surety.IsCallerAuthorized(stranger))
	require.NoError(t, surety.FundAirline(unauthorized))

	require.NoError(t, surety.DeauthorizeCaller(call(owner, nil), stranger))
	require.False(t, surety.IsCallerAuthorized(stranger))
	_, err := surety.RegisterFlight(Call{Caller: stranger, Sender: airlines[0]}, "SU100", departure)
	require.ErrorIs(t, err, ErrUnauthorized)
}
