package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"

	"surety-node/app"
	"surety-node/metrics"
	"surety-node/modules"
)

var (
	owner        = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	firstAirline = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func mockServer(t *testing.T, initialized bool) *Server {
	m := metrics.New()
	suretyApp, err := app.NewSuretyApp(app.NewStore(dbm.NewMemDB(), 0), app.WithMetrics(m))
	require.NoError(t, err)
	if initialized {
		appState, err := json.Marshal(modules.GenesisState{Owner: owner, FirstAirline: firstAirline})
		require.NoError(t, err)
		_ = suretyApp.InitChain(abci.RequestInitChain{AppStateBytes: appState})
		_ = suretyApp.Commit()
	}
	return NewServer(suretyApp, m.Registry, []string{"http://localhost:3000"}, log.NewNopLogger())
}

func get(t *testing.T, server *Server, path string, value interface{}) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	request.Header.Set("Origin", "http://localhost:3000")
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, request)
	if value != nil {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), value))
	}
	return recorder
}

func TestWelcome(t *testing.T) {
	server := mockServer(t, true)
	var body map[string]string
	response := get(t, server, "/api", &body)
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, welcome, body["message"])
	require.Equal(t, "http://localhost:3000", response.Header().Get("Access-Control-Allow-Origin"))
}

func TestQueries(t *testing.T) {
	server := mockServer(t, true)

	var operational bool
	response := get(t, server, "/api/operational", &operational)
	require.Equal(t, http.StatusOK, response.Code)
	require.True(t, operational)
	require.Equal(t, "1", response.Header().Get("X-Height"))

	var airline modules.Airline
	response = get(t, server, "/api/airlines/"+firstAirline.Hex(), &airline)
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, modules.Registered, airline.Status)

	var flights []modules.Flight
	response = get(t, server, "/api/flights", &flights)
	require.Equal(t, http.StatusOK, response.Code)
	require.Empty(t, flights)

	var catalogue []modules.Flight
	response = get(t, server, "/api/airlines/"+firstAirline.Hex()+"/flights", &catalogue)
	require.Equal(t, http.StatusOK, response.Code)
	require.NotNil(t, catalogue)
	require.Empty(t, catalogue)
	require.Equal(t, http.StatusBadRequest, get(t, server, "/api/airlines/not-an-address/flights", nil).Code)

	var treasury modules.Treasury
	require.Equal(t, http.StatusOK, get(t, server, "/api/treasury", &treasury).Code)
	require.True(t, treasury.Deposits.IsZero())

	require.Equal(t, http.StatusOK, get(t, server, "/api/passengers/"+owner.Hex()+"/balance", nil).Code)
	require.Equal(t, http.StatusNotFound, get(t, server, "/api/airlines/"+owner.Hex(), nil).Code)
	require.Equal(t, http.StatusNotFound, get(t, server, "/api/flights/SU100", nil).Code)
	require.Equal(t, http.StatusNotFound, get(t, server, "/api/oracles/"+owner.Hex()+"/indexes", nil).Code)
	require.Equal(t, http.StatusBadRequest, get(t, server, "/api/airlines/not-an-address", nil).Code)
}

func TestNotInitialized(t *testing.T) {
	server := mockServer(t, false)
	require.Equal(t, http.StatusServiceUnavailable, get(t, server, "/api/operational", nil).Code)
	require.Equal(t, http.StatusOK, get(t, server, "/api", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server := mockServer(t, true)
	response := get(t, server, "/metrics", nil)
	require.Equal(t, http.StatusOK, response.Code)
	require.Contains(t, response.Body.String(), "surety_height 1")
}
