package oracle

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/tendermint/tendermint/libs/log"

	"surety-node/crypto"
	"surety-node/events"
	"surety-node/messages"
	"surety-node/modules"
)

// Oracle is one simulated oracle account.
type Oracle struct {
	PrivKey []byte
	Address common.Address

	mu         sync.Mutex
	nonce      uint64
	nonceKnown bool
}

func NewOracle() (*Oracle, error) {
	privKey, pubKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	address, err := crypto.Address(pubKey)
	if err != nil {
		return nil, err
	}
	return &Oracle{PrivKey: privKey, Address: address}, nil
}

// nextNonce returns the nonce of the oracle's next transaction, asking current for the
// first one.
func (oracle *Oracle) nextNonce(current func(common.Address) uint64) uint64 {
	oracle.mu.Lock()
	defer oracle.mu.Unlock()
	if !oracle.nonceKnown {
		if current != nil {
			oracle.nonce = current(oracle.Address)
		}
		oracle.nonceKnown = true
	}
	nonce := oracle.nonce
	oracle.nonce++
	return nonce
}

// resetNonce makes the next transaction ask for the committed nonce again.
func (oracle *Oracle) resetNonce() {
	oracle.mu.Lock()
	defer oracle.mu.Unlock()
	oracle.nonceKnown = false
}

// Strategy decides what an oracle reports for a request.
type Strategy interface {
	Status(oracle common.Address, request modules.OracleRequest) modules.StatusCode
}

// FixedStatuses draws each report from a fixed list, deterministically per oracle and flight.
type FixedStatuses []modules.StatusCode

func (statuses FixedStatuses) Status(oracle common.Address, request modules.OracleRequest) modules.StatusCode {
	if len(statuses) == 0 {
		return modules.StatusLateAirline
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], request.Timestamp)
	hash := ethcrypto.Keccak256(oracle.Bytes(), []byte(request.Flight), ts[:])
	return statuses[binary.BigEndian.Uint64(hash[:8])%uint64(len(statuses))]
}

// Submitter carries an oracle's transaction to the contract.
type Submitter interface {
	Submit(ctx context.Context, oracle *Oracle, tx messages.Transaction) error
}

type Simulator struct {
	oracles   []*Oracle
	fee       *uint256.Int
	bus       *events.Bus
	submitter Submitter
	strategy  Strategy
	logger    log.Logger

	mu      sync.RWMutex
	indexes map[common.Address][modules.IndexesPerOracle]uint8
}

func NewSimulator(count int, fee *uint256.Int, bus *events.Bus, submitter Submitter, strategy Strategy, logger log.Logger) (*Simulator, error) {
	if count <= 0 {
		return nil, errors.New("simulator needs at least one oracle")
	}
	simulator := &Simulator{
		fee:       fee,
		bus:       bus,
		submitter: submitter,
		strategy:  strategy,
		logger:    logger,
		indexes:   make(map[common.Address][modules.IndexesPerOracle]uint8),
	}
	for i := 0; i < count; i++ {
		oracle, err := NewOracle()
		if err != nil {
			return nil, err
		}
		simulator.oracles = append(simulator.oracles, oracle)
	}
	return simulator, nil
}

// Registered returns how many simulated oracles have been assigned indexes.
func (simulator *Simulator) Registered() int {
	simulator.mu.RLock()
	defer simulator.mu.RUnlock()
	return len(simulator.indexes)
}

func (simulator *Simulator) Oracles() []*Oracle { return simulator.oracles }

var oracleEvents = events.QueryForAny(modules.EventOracleRequest, modules.EventOracleRegistered)

// Run registers every oracle and answers oracle requests until ctx is done. A subscription
// cancelled for falling behind is replaced; the events it missed are lost.
func (simulator *Simulator) Run(ctx context.Context) error {
	subscription, err := simulator.bus.Subscribe(ctx, oracleEvents)
	if err != nil {
		return err
	}
	defer func() { _ = subscription.Close(context.Background()) }()

	for _, oracle := range simulator.oracles {
		tx := messages.Transaction{TxType: messages.TxRegisterOracle, Value: simulator.fee}
		if err := simulator.submitter.Submit(ctx, oracle, tx); err != nil {
			return fmt.Errorf("register oracle %s: %w", oracle.Address.Hex(), err)
		}
	}
	simulator.logger.Info("Oracles registering", "count", len(simulator.oracles))

	for {
		event, err := subscription.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, events.ErrOutOfCapacity) {
				return err
			}
			simulator.logger.Error("Oracle events dropped, resubscribing", "err", err)
			if subscription, err = simulator.bus.Subscribe(ctx, oracleEvents); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			continue
		}
		switch event := event.(type) {
		case modules.OracleRegistered:
			simulator.registered(event)
		case modules.OracleRequest:
			simulator.respond(ctx, event)
		}
	}
}

func (simulator *Simulator) registered(event modules.OracleRegistered) {
	for _, oracle := range simulator.oracles {
		if oracle.Address == event.Oracle {
			simulator.mu.Lock()
			simulator.indexes[oracle.Address] = event.Indexes
			simulator.mu.Unlock()
			simulator.logger.Info("Oracle registered", "oracle", oracle.Address.Hex(), "indexes", event.Indexes)
			return
		}
	}
}

// respond submits a report from every simulated oracle holding the request index.
func (simulator *Simulator) respond(ctx context.Context, request modules.OracleRequest) {
	simulator.mu.RLock()
	defer simulator.mu.RUnlock()
	for _, oracle := range simulator.oracles {
		indexes, ok := simulator.indexes[oracle.Address]
		if !ok || !holds(indexes, request.Index) {
			continue
		}
		status := simulator.strategy.Status(oracle.Address, request)
		tx := messages.Transaction{
			TxType:     messages.TxSubmitOracleResponse,
			Index:      request.Index,
			Airline:    request.Airline,
			Flight:     request.Flight,
			Timestamp:  request.Timestamp,
			StatusCode: status,
		}
		if err := simulator.submitter.Submit(ctx, oracle, tx); err != nil {
			simulator.logger.Error("Failed to submit response", "oracle", oracle.Address.Hex(), "flight", request.Flight, "err", err)
			continue
		}
		simulator.logger.Debug("Response submitted", "oracle", oracle.Address.Hex(), "flight", request.Flight, "status", status)
	}
}

func holds(indexes [modules.IndexesPerOracle]uint8, index uint8) bool {
	for _, held := range indexes {
		if held == index {
			return true
		}
	}
	return false
}
