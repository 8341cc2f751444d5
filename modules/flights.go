package modules

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ------------------------------------------------------------------------------------------------------------------- //
// STATUS CODE

type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

var statusCodeNames = map[StatusCode]string{
	StatusUnknown:       "Unknown",
	StatusOnTime:        "OnTime",
	StatusLateAirline:   "LateAirline",
	StatusLateWeather:   "LateWeather",
	StatusLateTechnical: "LateTechnical",
	StatusLateOther:     "LateOther",
}

func (code StatusCode) String() string {
	if name, ok := statusCodeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(%d)", uint8(code))
}

func (code StatusCode) Valid() bool {
	_, ok := statusCodeNames[code]
	return ok
}

// ParseStatusCode accepts either the name ("LateAirline") or the numeric code ("20").
func ParseStatusCode(text string) (StatusCode, error) {
	for code, name := range statusCodeNames {
		if name == text {
			return code, nil
		}
	}
	number, err := strconv.ParseUint(text, 10, 8)
	if err == nil && StatusCode(number).Valid() {
		return StatusCode(number), nil
	}
	return StatusUnknown, fmt.Errorf("unknown status code %q", text)
}

// ------------------------------------------------------------------------------------------------------------------- //
// FLIGHT

// FlightKeyOf identifies a flight by its airline, code and scheduled departure.
func FlightKeyOf(airline common.Address, code string, timestamp uint64) common.Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], timestamp)
	return ethcrypto.Keccak256Hash(airline.Bytes(), []byte(code), ts[:])
}

type Flight struct {
	Key        common.Hash    `json:"key"`
	Code       string         `json:"code"`
	Airline    common.Address `json:"airline"`
	Timestamp  uint64         `json:"timestamp"`
	StatusCode StatusCode     `json:"status_code"`
	Resolved   bool           `json:"resolved"`
}

// ------------------------------------------------------------------------------------------------------------------- //
// FLIGHT REGISTRY

// FlightRegistry keeps every registered flight and a per-airline catalogue. Flight codes are unique.
type FlightRegistry struct {
	Flights   map[common.Hash]*Flight          `json:"flights"`
	Codes     map[string]common.Hash           `json:"codes"`
	Catalogue map[common.Address][]common.Hash `json:"catalogue"`
}

func NewFlightRegistry(old *FlightRegistry) *FlightRegistry {
	registry := &FlightRegistry{
		Flights:   make(map[common.Hash]*Flight),
		Codes:     make(map[string]common.Hash),
		Catalogue: make(map[common.Address][]common.Hash),
	}
	for key, flight := range old.Flights {
		copied := *flight
		registry.Flights[key] = &copied
	}
	for code, key := range old.Codes {
		registry.Codes[code] = key
	}
	for airline, keys := range old.Catalogue {
		registry.Catalogue[airline] = append([]common.Hash(nil), keys...)
	}
	return registry
}

func (registry *FlightRegistry) Hash() []byte { return hashOf(registry) }

func (registry *FlightRegistry) Register(airline common.Address, code string, timestamp uint64) (common.Hash, []Event, error) {
	if code == "" {
		return common.Hash{}, nil, fmt.Errorf("%w: empty flight code", ErrInvalidState)
	}
	if _, ok := registry.Codes[code]; ok {
		return common.Hash{}, nil, fmt.Errorf("%w: flight %s is already registered", ErrInvalidState, code)
	}
	key := FlightKeyOf(airline, code, timestamp)
	registry.Flights[key] = &Flight{
		Key:        key,
		Code:       code,
		Airline:    airline,
		Timestamp:  timestamp,
		StatusCode: StatusUnknown,
	}
	registry.Codes[code] = key
	registry.Catalogue[airline] = append(registry.Catalogue[airline], key)
	return key, []Event{FlightRegistered{Code: code, Airline: airline, Timestamp: timestamp, Key: key}}, nil
}

func (registry *FlightRegistry) lookup(key common.Hash) (*Flight, error) {
	flight, ok := registry.Flights[key]
	if !ok {
		return nil, fmt.Errorf("%w: flight %s is not registered", ErrInvalidState, key.Hex())
	}
	return flight, nil
}

// resolve sets the final status of a flight. Callers check Resolved first.
func (registry *FlightRegistry) resolve(key common.Hash, code StatusCode) {
	flight := registry.Flights[key]
	flight.StatusCode = code
	flight.Resolved = true
}

func (registry *FlightRegistry) Get(key common.Hash) (Flight, bool) {
	flight, ok := registry.Flights[key]
	if !ok {
		return Flight{}, false
	}
	return *flight, true
}

func (registry *FlightRegistry) ByCode(code string) (Flight, bool) {
	key, ok := registry.Codes[code]
	if !ok {
		return Flight{}, false
	}
	return registry.Get(key)
}

func (registry *FlightRegistry) Status(code string) StatusCode {
	flight, _ := registry.ByCode(code)
	return flight.StatusCode
}

// List returns every flight ordered by code.
func (registry *FlightRegistry) List() []Flight {
	flights := make([]Flight, 0, len(registry.Flights))
	for _, flight := range registry.Flights {
		flights = append(flights, *flight)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].Code < flights[j].Code })
	return flights
}

// OfAirline returns the catalogue of one airline in registration order.
func (registry *FlightRegistry) OfAirline(airline common.Address) []Flight {
	flights := make([]Flight, 0, len(registry.Catalogue[airline]))
	for _, key := range registry.Catalogue[airline] {
		flights = append(flights, *registry.Flights[key])
	}
	return flights
}
