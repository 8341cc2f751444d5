package modules

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EventOracleRequest          = "OracleRequest"
	EventOracleRegistered       = "OracleRegistered"
	EventOracleReport           = "OracleReport"
	EventFlightRegistered       = "FlightRegistered"
	EventFlightStatusResolved   = "FlightStatusResolved"
	EventAirlineRegistered      = "AirlineRegistered"
	EventAirlineCandidate       = "AirlineCandidate"
	EventAirlineVoted           = "AirlineVoted"
	EventAirlineFunded          = "AirlineFunded"
	EventInsurancePurchased     = "InsurancePurchased"
	EventInsuranceCredited      = "InsuranceCredited"
	EventPayoutWithdrawn        = "PayoutWithdrawn"
	EventOperatingStatusChanged = "OperatingStatusChanged"
	EventCallerAuthorized       = "CallerAuthorized"
)

type Attribute struct {
	Key   string
	Value string
}

// Event is a notification emitted once the command that produced it has committed.
type Event interface {
	EventType() string
	Attributes() []Attribute
}

// Publisher receives events in commit order. Implementations must not block.
type Publisher interface {
	Publish(event Event)
}

type PublisherFunc func(event Event)

func (f PublisherFunc) Publish(event Event) { f(event) }

func uintAttr(key string, value uint64) Attribute {
	return Attribute{Key: key, Value: strconv.FormatUint(value, 10)}
}

func addrAttr(key string, address common.Address) Attribute {
	return Attribute{Key: key, Value: address.Hex()}
}

func amountAttr(key string, value *uint256.Int) Attribute {
	return Attribute{Key: key, Value: amount(value).Dec()}
}

// OracleRequest asks the oracles holding Index to report the status of a flight.
type OracleRequest struct {
	Index     uint8
	Airline   common.Address
	Flight    string
	Timestamp uint64
}

func (OracleRequest) EventType() string { return EventOracleRequest }
func (event OracleRequest) Attributes() []Attribute {
	return []Attribute{
		uintAttr("index", uint64(event.Index)),
		addrAttr("airline", event.Airline),
		{Key: "flight", Value: event.Flight},
		uintAttr("timestamp", event.Timestamp),
	}
}

type OracleRegistered struct {
	Oracle  common.Address
	Indexes [IndexesPerOracle]uint8
}

func (OracleRegistered) EventType() string { return EventOracleRegistered }
func (event OracleRegistered) Attributes() []Attribute {
	attributes := []Attribute{addrAttr("oracle", event.Oracle)}
	for _, index := range event.Indexes {
		attributes = append(attributes, uintAttr("index", uint64(index)))
	}
	return attributes
}

// OracleReport is emitted for every response that was counted towards a request.
type OracleReport struct {
	Oracle     common.Address
	Airline    common.Address
	Flight     string
	Timestamp  uint64
	StatusCode StatusCode
}

func (OracleReport) EventType() string { return EventOracleReport }
func (event OracleReport) Attributes() []Attribute {
	return []Attribute{
		addrAttr("oracle", event.Oracle),
		addrAttr("airline", event.Airline),
		{Key: "flight", Value: event.Flight},
		uintAttr("timestamp", event.Timestamp),
		uintAttr("status", uint64(event.StatusCode)),
	}
}

type FlightRegistered struct {
	Code      string
	Airline   common.Address
	Timestamp uint64
	Key       common.Hash
}

func (FlightRegistered) EventType() string { return EventFlightRegistered }
func (event FlightRegistered) Attributes() []Attribute {
	return []Attribute{
		{Key: "code", Value: event.Code},
		addrAttr("airline", event.Airline),
		uintAttr("timestamp", event.Timestamp),
		{Key: "key", Value: event.Key.Hex()},
	}
}

type FlightStatusResolved struct {
	Flight     string
	Airline    common.Address
	Timestamp  uint64
	StatusCode StatusCode
}

func (FlightStatusResolved) EventType() string { return EventFlightStatusResolved }
func (event FlightStatusResolved) Attributes() []Attribute {
	return []Attribute{
		{Key: "flight", Value: event.Flight},
		addrAttr("airline", event.Airline),
		uintAttr("timestamp", event.Timestamp),
		uintAttr("status", uint64(event.StatusCode)),
	}
}

type AirlineRegistered struct {
	Airline common.Address
}

func (AirlineRegistered) EventType() string { return EventAirlineRegistered }
func (event AirlineRegistered) Attributes() []Attribute {
	return []Attribute{addrAttr("account", event.Airline)}
}

type AirlineCandidate struct {
	Airline    common.Address
	ProposedBy common.Address
}

func (AirlineCandidate) EventType() string { return EventAirlineCandidate }
func (event AirlineCandidate) Attributes() []Attribute {
	return []Attribute{addrAttr("account", event.Airline), addrAttr("proposed_by", event.ProposedBy)}
}

type AirlineVoted struct {
	Airline common.Address
	Voter   common.Address
	Votes   int
}

func (AirlineVoted) EventType() string { return EventAirlineVoted }
func (event AirlineVoted) Attributes() []Attribute {
	return []Attribute{
		addrAttr("account", event.Airline),
		addrAttr("voter", event.Voter),
		uintAttr("votes", uint64(event.Votes)),
	}
}

type AirlineFunded struct {
	Airline common.Address
	Amount  *uint256.Int
}

func (AirlineFunded) EventType() string { return EventAirlineFunded }
func (event AirlineFunded) Attributes() []Attribute {
	return []Attribute{addrAttr("account", event.Airline), amountAttr("amount", event.Amount)}
}

type InsurancePurchased struct {
	Passenger common.Address
	Flight    common.Hash
	Premium   *uint256.Int
}

func (InsurancePurchased) EventType() string { return EventInsurancePurchased }
func (event InsurancePurchased) Attributes() []Attribute {
	return []Attribute{
		addrAttr("passenger", event.Passenger),
		{Key: "flight", Value: event.Flight.Hex()},
		amountAttr("premium", event.Premium),
	}
}

type InsuranceCredited struct {
	Passenger common.Address
	Flight    common.Hash
	Amount    *uint256.Int
}

func (InsuranceCredited) EventType() string { return EventInsuranceCredited }
func (event InsuranceCredited) Attributes() []Attribute {
	return []Attribute{
		addrAttr("passenger", event.Passenger),
		{Key: "flight", Value: event.Flight.Hex()},
		amountAttr("amount", event.Amount),
	}
}

type PayoutWithdrawn struct {
	Passenger common.Address
	Amount    *uint256.Int
}

func (PayoutWithdrawn) EventType() string { return EventPayoutWithdrawn }
func (event PayoutWithdrawn) Attributes() []Attribute {
	return []Attribute{addrAttr("passenger", event.Passenger), amountAttr("amount", event.Amount)}
}

type OperatingStatusChanged struct {
	Operational bool
}

func (OperatingStatusChanged) EventType() string { return EventOperatingStatusChanged }
func (event OperatingStatusChanged) Attributes() []Attribute {
	return []Attribute{{Key: "operational", Value: strconv.FormatBool(event.Operational)}}
}

type CallerAuthorized struct {
	Caller     common.Address
	Authorized bool
}

func (CallerAuthorized) EventType() string { return EventCallerAuthorized }
func (event CallerAuthorized) Attributes() []Attribute {
	return []Attribute{addrAttr("caller", event.Caller), {Key: "authorized", Value: strconv.FormatBool(event.Authorized)}}
}
