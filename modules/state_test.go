package modules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenesis(t *testing.T) {
	_, err := Genesis(GenesisState{FirstAirline: airlines[0]})
	require.Error(t, err)
	_, err = Genesis(GenesisState{Owner: owner})
	require.Error(t, err)

	params := DefaultParams()
	params.MinResponses = 0
	genesis := mockGenesis()
	genesis.Params = &params
	_, err = Genesis(genesis)
	require.Error(t, err)

	state, err := Genesis(mockGenesis())
	require.NoError(t, err)
	require.True(t, state.IsOperational())
	require.True(t, state.IsCallerAuthorized(gateway))
	require.Equal(t, Registered, state.GetAirlineStatus(airlines[0]))
	require.Equal(t, DefaultParams(), state.Params)
}

func TestSnapshot(t *testing.T) {
	surety, _ := mockSurety(t)
	before := surety.Snapshot()
	hash := surety.Hash()
	require.Equal(t, hash, before.Hash())

	mockLateFlight(t, surety, Ether(1))
	require.NotEqual(t, hash, surety.Hash())
	require.Equal(t, hash, before.Hash())
	require.Equal(t, Registered, before.GetAirlineStatus(airlines[0]))
	require.Empty(t, before.GetFlights())

	after := surety.Snapshot()
	surety.Restore(before)
	require.Equal(t, hash, surety.Hash())
	require.Equal(t, StatusUnknown, surety.GetFlightStatus("SU100"))
	surety.Restore(after)
	require.Equal(t, StatusLateAirline, surety.GetFlightStatus("SU100"))
}

func TestStateEncoding(t *testing.T) {
	surety, _ := mockSurety(t)
	mockLateFlight(t, surety, Ether(1))
	require.NoError(t, surety.RegisterAirline(call(airlines[0], nil), airlines[1]))

	bytes, err := json.Marshal(surety.Snapshot())
	require.NoError(t, err)
	var decoded State
	require.NoError(t, json.Unmarshal(bytes, &decoded))
	require.Equal(t, surety.Hash(), NewState(&decoded).Hash())
	require.Equal(t, surety.GetPassengerBalance(passengers[0]), decoded.GetPassengerBalance(passengers[0]))
}
