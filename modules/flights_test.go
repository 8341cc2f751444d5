package modules

import (
	"testing"

	lorem "github.com/drhodes/golorem"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlight(t *testing.T) {
	surety, events := mockSurety(t)
	mockParticipants(t, surety, 2)
	events.reset()

	code := lorem.Word(4, 8)
	key, err := surety.RegisterFlight(call(airlines[1], nil), code, departure)
	require.NoError(t, err)
	require.Equal(t, FlightKeyOf(airlines[1], code, departure), key)
	require.Equal(t, StatusUnknown, surety.GetFlightStatus(code))
	require.Equal(t, []string{EventFlightRegistered}, events.types())

	flight, ok := surety.GetFlight(code)
	require.True(t, ok)
	require.Equal(t, airlines[1], flight.Airline)
	require.False(t, flight.Resolved)

	_, err = surety.RegisterFlight(call(airlines[0], nil), code, departure+3600)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = surety.RegisterFlight(call(airlines[0], nil), "", departure)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = surety.RegisterFlight(call(stranger, nil), "XX1", departure)
	require.ErrorIs(t, err, ErrUnauthorized)

	// unknown codes read as Unknown
	require.Equal(t, StatusUnknown, surety.GetFlightStatus("nope"))
	_, ok = surety.GetFlight("nope")
	require.False(t, ok)
}

func TestListFlights(t *testing.T) {
	surety, _ := mockSurety(t)
	mockParticipants(t, surety, 2)
	mockFlight(t, surety, "SU300")
	mockFlight(t, surety, "SU100")
	_, err := surety.RegisterFlight(call(airlines[1], nil), "SU200", departure)
	require.NoError(t, err)

	var codes []string
	for _, flight := range surety.GetFlights() {
		codes = append(codes, flight.Code)
	}
	require.Equal(t, []string{"SU100", "SU200", "SU300"}, codes)

	snapshot := surety.Snapshot()
	require.Len(t, snapshot.Flights.OfAirline(airlines[0]), 2)
	require.Len(t, snapshot.Flights.OfAirline(airlines[1]), 1)
	require.Len(t, surety.GetAirlineFlights(airlines[0]), 2)
	require.NotNil(t, surety.GetAirlineFlights(stranger))
	require.Empty(t, surety.GetAirlineFlights(stranger))
}

func TestParseStatusCode(t *testing.T) {
	code, err := ParseStatusCode("LateAirline")
	require.NoError(t, err)
	require.Equal(t, StatusLateAirline, code)

	code, err = ParseStatusCode("40")
	require.NoError(t, err)
	require.Equal(t, StatusLateTechnical, code)

	_, err = ParseStatusCode("15")
	require.Error(t, err)
	_, err = ParseStatusCode("Cancelled")
	require.Error(t, err)

	require.Equal(t, "OnTime", StatusOnTime.String())
	require.False(t, StatusCode(7).Valid())
}
