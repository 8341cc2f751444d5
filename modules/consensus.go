package modules

/*
A status request is opened at one index of the oracle index space. Only oracles holding that
index may answer. Responses are grouped by status code; the first code whose group reaches
MinResponses distinct oracles resolves the request, and nothing changes it afterwards.
Requests are archived, not deleted, so that late responses are recognised and discarded.
*/

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RequestKeyOf identifies a status request.
func RequestKeyOf(index uint8, airline common.Address, flight string, timestamp uint64) common.Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], timestamp)
	return ethcrypto.Keccak256Hash([]byte{index}, airline.Bytes(), []byte(flight), ts[:])
}

type StatusRequest struct {
	Key            common.Hash                            `json:"key"`
	Index          uint8                                  `json:"index"`
	Airline        common.Address                         `json:"airline"`
	Flight         string                                 `json:"flight"`
	Timestamp      uint64                                 `json:"timestamp"`
	FlightKey      common.Hash                            `json:"flight_key"`
	Requester      common.Address                         `json:"requester"`
	Responses      map[StatusCode]map[common.Address]bool `json:"responses"`
	Resolved       bool                                   `json:"resolved"`
	ResolvedStatus StatusCode                             `json:"resolved_status"`
	Closed         bool                                   `json:"closed"`
}

func (request *StatusRequest) copy() *StatusRequest {
	copied := *request
	copied.Responses = make(map[StatusCode]map[common.Address]bool, len(request.Responses))
	for code, oracles := range request.Responses {
		group := make(map[common.Address]bool, len(oracles))
		for oracle := range oracles {
			group[oracle] = true
		}
		copied.Responses[code] = group
	}
	return &copied
}

// Open reports whether the request still accepts responses.
func (request *StatusRequest) Open() bool {
	return !request.Resolved && !request.Closed
}

// Count returns how many distinct oracles reported code.
func (request *StatusRequest) Count(code StatusCode) int {
	return len(request.Responses[code])
}

type ConsensusEngine struct {
	Requests map[common.Hash]*StatusRequest `json:"requests"`
}

func NewConsensusEngine(old *ConsensusEngine) *ConsensusEngine {
	engine := &ConsensusEngine{Requests: make(map[common.Hash]*StatusRequest)}
	for key, request := range old.Requests {
		engine.Requests[key] = request.copy()
	}
	return engine
}

func (engine *ConsensusEngine) Hash() []byte { return hashOf(engine) }

func (engine *ConsensusEngine) Get(key common.Hash) (StatusRequest, bool) {
	request, ok := engine.Requests[key]
	if !ok {
		return StatusRequest{}, false
	}
	return *request.copy(), true
}

// open starts collecting responses for a flight at index. An open request under the same key
// keeps the responses it already has.
func (engine *ConsensusEngine) open(index uint8, flight *Flight, requester common.Address) []Event {
	key := RequestKeyOf(index, flight.Airline, flight.Code, flight.Timestamp)
	request, ok := engine.Requests[key]
	if !ok || !request.Open() {
		engine.Requests[key] = &StatusRequest{
			Key:       key,
			Index:     index,
			Airline:   flight.Airline,
			Flight:    flight.Code,
			Timestamp: flight.Timestamp,
			FlightKey: flight.Key,
			Requester: requester,
			Responses: make(map[StatusCode]map[common.Address]bool),
		}
	}
	return []Event{OracleRequest{Index: index, Airline: flight.Airline, Flight: flight.Code, Timestamp: flight.Timestamp}}
}

func (engine *ConsensusEngine) lookup(key common.Hash) (*StatusRequest, error) {
	request, ok := engine.Requests[key]
	if !ok {
		return nil, fmt.Errorf("%w: flight or timestamp do not match oracle request", ErrInvalidState)
	}
	return request, nil
}

// record adds an oracle to the group of code and returns the group size.
func (engine *ConsensusEngine) record(request *StatusRequest, oracle common.Address, code StatusCode) int {
	group, ok := request.Responses[code]
	if !ok {
		group = make(map[common.Address]bool)
		request.Responses[code] = group
	}
	group[oracle] = true
	return len(group)
}

// resolve fixes the outcome of request and closes every other open request on the same flight.
func (engine *ConsensusEngine) resolve(request *StatusRequest, code StatusCode) {
	request.Resolved = true
	request.ResolvedStatus = code
	for _, other := range engine.Requests {
		if other != request && other.FlightKey == request.FlightKey && other.Open() {
			other.Closed = true
		}
	}
}
