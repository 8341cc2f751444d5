package messages

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"surety-node/modules"
)

type TransactionType string

const (
	TxSetOperatingStatus   TransactionType = "TxSetOperatingStatus"
	TxAuthorizeCaller      TransactionType = "TxAuthorizeCaller"
	TxDeauthorizeCaller    TransactionType = "TxDeauthorizeCaller"
	TxRegisterAirline      TransactionType = "TxRegisterAirline"
	TxVoteToAirline        TransactionType = "TxVoteToAirline"
	TxFundAirline          TransactionType = "TxFundAirline"
	TxRegisterFlight       TransactionType = "TxRegisterFlight"
	TxRegisterOracle       TransactionType = "TxRegisterOracle"
	TxFetchFlightStatus    TransactionType = "TxFetchFlightStatus"
	TxSubmitOracleResponse TransactionType = "TxSubmitOracleResponse"
	TxBuyInsurance         TransactionType = "TxBuyInsurance"
	TxWithdraw             TransactionType = "TxWithdraw"
)

// Transaction is one contract command. Only the fields the command reads are set:
// Address is the airline, caller or passenger acted upon, Airline/Flight/Timestamp identify a
// flight by its natural key and FlightKey by its hash.
type Transaction struct {
	TxType TransactionType
	Nonce  uint64
	Value  *uint256.Int `json:",omitempty"`

	Operational bool
	Address     common.Address
	Airline     common.Address
	Flight      string `json:",omitempty"`
	Timestamp   uint64 `json:",omitempty"`
	FlightKey   common.Hash
	Index       uint8
	StatusCode  modules.StatusCode
	Premium     *uint256.Int `json:",omitempty"`
}

// SignedTransaction carries the exact bytes that were signed, so verification never depends
// on re-encoding.
type SignedTransaction struct {
	Transaction []byte
	PubKey      []byte
	Signature   []byte
}

type QueryType string

const (
	QueryState            QueryType = "QueryState"
	QueryOperational      QueryType = "QueryOperational"
	QueryCallerAuthorized QueryType = "QueryCallerAuthorized"
	QueryAirline          QueryType = "QueryAirline"
	QueryFlights          QueryType = "QueryFlights"
	QueryAirlineFlights   QueryType = "QueryAirlineFlights"
	QueryFlight           QueryType = "QueryFlight"
	QueryFlightStatus     QueryType = "QueryFlightStatus"
	QueryOracleIndexes    QueryType = "QueryOracleIndexes"
	QueryRequest          QueryType = "QueryRequest"
	QueryBalance          QueryType = "QueryBalance"
	QueryPolicies         QueryType = "QueryPolicies"
	QueryTreasury         QueryType = "QueryTreasury"
	QueryNonce            QueryType = "QueryNonce"
)

type Query struct {
	QrType  QueryType
	Address common.Address
	Flight  string `json:",omitempty"`
	Key     common.Hash
}
