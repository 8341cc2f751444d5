package modules

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	CoinName    = "ETH"
	MinUnit     = "WEI"
	WeiPerEther = 1000000000000000000

	DefaultAutoAdmit    = 4
	DefaultMinResponses = 3
	DefaultIndexSpace   = 10
	IndexesPerOracle    = 3
)

func Ether(ether uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(ether), uint256.NewInt(WeiPerEther))
}

func Wei(wei uint64) *uint256.Int { return uint256.NewInt(wei) }

// amount treats a missing value as zero and never aliases the caller's pointer.
func amount(value *uint256.Int) *uint256.Int {
	if value == nil {
		return new(uint256.Int)
	}
	return value.Clone()
}

// Params holds the economic and quorum constants of the contract. They are fixed at genesis.
type Params struct {
	AirlineFund       *uint256.Int `json:"airline_fund"`
	OracleFee         *uint256.Int `json:"oracle_fee"`
	InsuranceCap      *uint256.Int `json:"insurance_cap"`
	PayoutNumerator   uint64       `json:"payout_numerator"`
	PayoutDenominator uint64       `json:"payout_denominator"`
	AutoAdmit         int          `json:"auto_admit"`
	MinResponses      int          `json:"min_responses"`
	IndexSpace        uint8        `json:"index_space"`
}

func DefaultParams() Params {
	return Params{
		AirlineFund:       Ether(10),
		OracleFee:         Ether(1),
		InsuranceCap:      Ether(1),
		PayoutNumerator:   3,
		PayoutDenominator: 2,
		AutoAdmit:         DefaultAutoAdmit,
		MinResponses:      DefaultMinResponses,
		IndexSpace:        DefaultIndexSpace,
	}
}

func (params Params) Copy() Params {
	params.AirlineFund = amount(params.AirlineFund)
	params.OracleFee = amount(params.OracleFee)
	params.InsuranceCap = amount(params.InsuranceCap)
	return params
}

func (params Params) Validate() error {
	switch {
	case params.AirlineFund == nil || params.OracleFee == nil || params.InsuranceCap == nil:
		return errors.New("params: missing amount")
	case params.InsuranceCap.IsZero():
		return errors.New("params: insurance cap must be positive")
	case params.PayoutDenominator == 0:
		return errors.New("params: payout denominator must be positive")
	case params.AutoAdmit < 1:
		return errors.New("params: auto admit must be at least 1")
	case params.MinResponses < 1:
		return errors.New("params: min responses must be at least 1")
	case int(params.IndexSpace) < IndexesPerOracle:
		return fmt.Errorf("params: index space must hold at least %d indexes", IndexesPerOracle)
	}
	return nil
}

// Payout is the credit granted for a premium when the airline is at fault.
func (params Params) Payout(premium *uint256.Int) (*uint256.Int, error) {
	credit, overflow := new(uint256.Int).MulOverflow(premium, uint256.NewInt(params.PayoutNumerator))
	if overflow {
		return nil, fmt.Errorf("%w: payout overflows", ErrInvalidState)
	}
	return credit.Div(credit, uint256.NewInt(params.PayoutDenominator)), nil
}
