package oracle

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/mempool"
	"github.com/tendermint/tendermint/types"

	"surety-node/messages"
	"surety-node/modules"
)

// DirectSubmitter calls the contract in process, acting through an authorized caller.
type DirectSubmitter struct {
	Surety *modules.Surety
	Caller common.Address
}

func (submitter DirectSubmitter) Submit(ctx context.Context, oracle *Oracle, tx messages.Transaction) error {
	call := modules.Call{Caller: submitter.Caller, Sender: oracle.Address, Value: tx.Value}
	switch tx.TxType {
	case messages.TxRegisterOracle:
		_, err := submitter.Surety.RegisterOracle(call)
		return err
	case messages.TxSubmitOracleResponse:
		return submitter.Surety.SubmitOracleResponse(call, tx.Index, tx.Airline, tx.Flight, tx.Timestamp, tx.StatusCode)
	default:
		return fmt.Errorf("oracle cannot submit %s", tx.TxType)
	}
}

// Mempool is the part of the node mempool the simulator feeds.
type Mempool interface {
	CheckTx(tx types.Tx, callback func(*abci.Response), txInfo mempool.TxInfo) error
}

// MempoolSubmitter signs transactions with the oracle key and hands them to the node mempool.
type MempoolSubmitter struct {
	Mempool Mempool
	// Nonce returns the committed nonce of an address; it is asked once per oracle.
	Nonce func(common.Address) uint64
}

func (submitter MempoolSubmitter) Submit(ctx context.Context, oracle *Oracle, tx messages.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.Nonce = oracle.nextNonce(submitter.Nonce)
	stx, err := messages.Sign(tx, oracle.PrivKey)
	if err != nil {
		return err
	}
	encoded, err := messages.EncodeTx(stx)
	if err != nil {
		return err
	}
	checked := make(chan error, 1)
	err = submitter.Mempool.CheckTx(encoded, func(response *abci.Response) {
		checkTx := response.GetCheckTx()
		if checkTx != nil && checkTx.Code != abci.CodeTypeOK {
			checked <- fmt.Errorf("check tx rejected with code %d: %s", checkTx.Code, checkTx.Log)
			return
		}
		checked <- nil
	}, mempool.TxInfo{})
	if err != nil {
		oracle.resetNonce()
		return err
	}
	select {
	case err := <-checked:
		if err != nil {
			oracle.resetNonce()
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
