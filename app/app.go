package app

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/kv"
	"github.com/tendermint/tendermint/libs/log"

	"surety-node/messages"
	"surety-node/metrics"
	"surety-node/modules"
)

const (
	AppName    = "surety-node"
	AppVersion = 1
)

// Gateway is the caller every transaction reaches the contract through. Genesis authorizes it;
// the owner can revoke it to freeze all but owner commands.
var Gateway = common.BytesToAddress([]byte("surety/abci-gateway"))

type SuretyApp struct {
	mu        sync.RWMutex
	Height    int64
	Committed *Snapshot       // written at commit
	New       *modules.Surety // written at deliverTx

	nonces    map[common.Address]uint64
	pending   []modules.Event
	store     *Store
	publisher modules.Publisher
	metrics   *metrics.Metrics
	logger    log.Logger
}

var _ abci.Application = (*SuretyApp)(nil)

type Option func(*SuretyApp)

func WithLogger(logger log.Logger) Option {
	return func(app *SuretyApp) { app.logger = logger }
}

// WithPublisher forwards the events of every successful transaction.
func WithPublisher(publisher modules.Publisher) Option {
	return func(app *SuretyApp) { app.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(app *SuretyApp) { app.metrics = m }
}

// NewSuretyApp resumes from the last snapshot in store, if any. A fresh app waits for InitChain.
func NewSuretyApp(store *Store, options ...Option) (*SuretyApp, error) {
	app := &SuretyApp{
		nonces:  make(map[common.Address]uint64),
		store:   store,
		metrics: metrics.New(),
		logger:  log.NewNopLogger(),
	}
	for _, option := range options {
		option(app)
	}
	height, err := store.LastHeight()
	if err != nil {
		return nil, err
	}
	if height > 0 {
		snapshot, err := store.Load(height)
		if err != nil {
			return nil, err
		}
		app.resume(snapshot)
		app.logger.Info("Resumed from snapshot", "height", height)
	}
	return app, nil
}

func (app *SuretyApp) resume(snapshot *Snapshot) {
	app.Height = snapshot.Height
	app.Committed = snapshot
	app.nonces = copyNonces(snapshot.Nonces)
	app.New = modules.NewSurety(snapshot.State,
		modules.WithPublisher(app),
		modules.WithLogger(app.logger.With("module", "surety")))
}

// Publish collects the events of the transaction being delivered.
func (app *SuretyApp) Publish(event modules.Event) {
	app.pending = append(app.pending, event)
}

// View returns the last committed state, nil before InitChain.
func (app *SuretyApp) View() *View {
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.Committed == nil {
		return nil
	}
	return &View{snapshot: app.Committed}
}

// ViewAt returns the state committed at height; 0 is the latest.
func (app *SuretyApp) ViewAt(height int64) (*View, error) {
	app.mu.RLock()
	committed := app.Committed
	app.mu.RUnlock()
	if committed == nil {
		return nil, fmt.Errorf("%w: chain not initialized", ErrNotFound)
	}
	if height == 0 || height == committed.Height {
		return &View{snapshot: committed}, nil
	}
	if height > committed.Height {
		return nil, fmt.Errorf("%w: height %d is in the future", ErrNotFound, height)
	}
	snapshot, err := app.store.Load(height)
	if err != nil {
		return nil, err
	}
	return &View{snapshot: snapshot}, nil
}

func (app *SuretyApp) Info(requestInfo abci.RequestInfo) abci.ResponseInfo {
	app.mu.RLock()
	defer app.mu.RUnlock()
	responseInfo := abci.ResponseInfo{
		Data:            AppName,
		Version:         "v1",
		AppVersion:      AppVersion,
		LastBlockHeight: app.Height,
	}
	if app.Height > 0 {
		responseInfo.LastBlockAppHash = app.Committed.Hash()
	}
	return responseInfo
}

func (app *SuretyApp) SetOption(requestSetOption abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{}
}

// InitChain builds the genesis state from the app_state of the genesis document.
func (app *SuretyApp) InitChain(requestInitChain abci.RequestInitChain) abci.ResponseInitChain {
	if app.New != nil {
		return abci.ResponseInitChain{}
	}
	var genesis modules.GenesisState
	if err := json.Unmarshal(requestInitChain.AppStateBytes, &genesis); err != nil {
		panic(fmt.Sprintf("invalid app_state: %v", err))
	}
	genesis.Authorized = append(genesis.Authorized, Gateway)
	state, err := modules.Genesis(genesis)
	if err != nil {
		panic(err)
	}
	app.mu.Lock()
	app.resume(&Snapshot{State: state, Nonces: make(map[common.Address]uint64)})
	app.mu.Unlock()
	app.logger.Info("Genesis", "owner", genesis.Owner.Hex(), "first_airline", genesis.FirstAirline.Hex())
	return abci.ResponseInitChain{}
}

// BeginBlock reseeds the contract randomness with the block hash so every replica draws the
// same oracle indexes.
func (app *SuretyApp) BeginBlock(requestBeginBlock abci.RequestBeginBlock) abci.ResponseBeginBlock {
	app.New.SetRandomness(modules.NewHashRandomness(requestBeginBlock.Hash))
	return abci.ResponseBeginBlock{}
}

// open decodes a raw transaction and checks its signature.
func (app *SuretyApp) open(raw []byte) (messages.Transaction, common.Address, error) {
	stx, err := messages.DecodeTx(raw)
	if err != nil {
		return messages.Transaction{}, common.Address{}, err
	}
	return stx.Open()
}

// CheckTx admits well-signed transactions whose nonce has not been used yet.
func (app *SuretyApp) CheckTx(requestCheckTx abci.RequestCheckTx) abci.ResponseCheckTx {
	tx, sender, err := app.open(requestCheckTx.Tx)
	if err == nil && app.Committed != nil && tx.Nonce < app.Committed.Nonces[sender] {
		err = fmt.Errorf("%w: %d already used by %s", ErrNonce, tx.Nonce, sender.Hex())
	}
	if err != nil {
		return abci.ResponseCheckTx{Code: codeOf(err), Log: err.Error(), Codespace: Codespace}
	}
	return abci.ResponseCheckTx{Code: CodeOK}
}

func (app *SuretyApp) DeliverTx(requestDeliverTx abci.RequestDeliverTx) abci.ResponseDeliverTx {
	tx, sender, err := app.open(requestDeliverTx.Tx)
	if err == nil && tx.Nonce != app.nonces[sender] {
		err = fmt.Errorf("%w: got %d, want %d", ErrNonce, tx.Nonce, app.nonces[sender])
	}
	if err != nil {
		app.count(tx.TxType, err)
		return abci.ResponseDeliverTx{Code: codeOf(err), Log: err.Error(), Codespace: Codespace}
	}
	// a correctly signed transaction consumes its nonce even if the command fails
	app.nonces[sender]++

	app.pending = nil
	result, err := app.execute(tx, sender)
	app.count(tx.TxType, err)
	if err != nil {
		app.logger.Debug("Transaction failed", "type", tx.TxType, "sender", sender.Hex(), "err", err)
		return abci.ResponseDeliverTx{Code: codeOf(err), Log: err.Error(), Codespace: Codespace}
	}
	var data []byte
	if result != nil {
		data, _ = json.Marshal(result)
	}
	events := app.pending
	app.pending = nil
	for _, event := range events {
		app.metrics.Events.WithLabelValues(event.EventType()).Inc()
		if app.publisher != nil {
			app.publisher.Publish(event)
		}
	}
	return abci.ResponseDeliverTx{Code: CodeOK, Data: data, Events: abciEvents(events)}
}

func (app *SuretyApp) count(txType messages.TransactionType, err error) {
	app.metrics.Transactions.WithLabelValues(string(txType), strconv.FormatUint(uint64(codeOf(err)), 10)).Inc()
}

func (app *SuretyApp) execute(tx messages.Transaction, sender common.Address) (interface{}, error) {
	surety := app.New
	call := modules.Call{Caller: Gateway, Sender: sender, Value: tx.Value}
	switch tx.TxType {
	case messages.TxSetOperatingStatus:
		return nil, surety.SetOperatingStatus(call, tx.Operational)
	case messages.TxAuthorizeCaller:
		return nil, surety.AuthorizeCaller(call, tx.Address)
	case messages.TxDeauthorizeCaller:
		return nil, surety.DeauthorizeCaller(call, tx.Address)
	case messages.TxRegisterAirline:
		return nil, surety.RegisterAirline(call, tx.Address)
	case messages.TxVoteToAirline:
		return nil, surety.VoteToAirline(call, tx.Address)
	case messages.TxFundAirline:
		return nil, surety.FundAirline(call)
	case messages.TxRegisterFlight:
		return surety.RegisterFlight(call, tx.Flight, tx.Timestamp)
	case messages.TxRegisterOracle:
		return surety.RegisterOracle(call)
	case messages.TxFetchFlightStatus:
		return surety.FetchFlightStatus(call, tx.Airline, tx.Flight, tx.Timestamp)
	case messages.TxSubmitOracleResponse:
		return nil, surety.SubmitOracleResponse(call, tx.Index, tx.Airline, tx.Flight, tx.Timestamp, tx.StatusCode)
	case messages.TxBuyInsurance:
		return nil, surety.BuyInsurance(call, tx.FlightKey, tx.Premium)
	case messages.TxWithdraw:
		passenger := tx.Address
		if passenger == (common.Address{}) {
			passenger = sender
		}
		return surety.Withdraw(call, passenger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, tx.TxType)
}

func abciEvents(events []modules.Event) []abci.Event {
	var converted []abci.Event
	for _, event := range events {
		var attributes []kv.Pair
		for _, attribute := range event.Attributes() {
			attributes = append(attributes, kv.Pair{Key: []byte(attribute.Key), Value: []byte(attribute.Value)})
		}
		converted = append(converted, abci.Event{Type: event.EventType(), Attributes: attributes})
	}
	return converted
}

func (app *SuretyApp) EndBlock(requestEndBlock abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}

func (app *SuretyApp) Commit() abci.ResponseCommit {
	snapshot := &Snapshot{
		Height: app.Height + 1,
		State:  app.New.Snapshot(),
		Nonces: copyNonces(app.nonces),
	}
	if err := app.store.Save(snapshot); err != nil {
		panic(fmt.Sprintf("failed to save state at height %d: %v", snapshot.Height, err))
	}
	app.mu.Lock()
	app.Committed = snapshot
	app.Height = snapshot.Height
	app.mu.Unlock()
	app.metrics.Height.Set(float64(snapshot.Height))
	hash := snapshot.Hash()
	app.logger.Debug("Committed", "height", snapshot.Height, "hash", fmt.Sprintf("%X", hash))
	return abci.ResponseCommit{Data: hash}
}

func (app *SuretyApp) Query(requestQuery abci.RequestQuery) abci.ResponseQuery {
	responseQuery := abci.ResponseQuery{Key: requestQuery.Data, Codespace: Codespace}
	query, err := messages.DecodeQuery(requestQuery.Data)
	if err != nil {
		responseQuery.Code, responseQuery.Log = codeOf(err), err.Error()
		return responseQuery
	}
	view, err := app.ViewAt(requestQuery.Height)
	if err != nil {
		responseQuery.Code, responseQuery.Log = codeOf(err), err.Error()
		return responseQuery
	}
	result, err := view.Answer(query)
	if err != nil {
		responseQuery.Code, responseQuery.Log = codeOf(err), err.Error()
		return responseQuery
	}
	responseQuery.Value, err = json.Marshal(result)
	if err != nil {
		responseQuery.Code, responseQuery.Log = CodeInternal, err.Error()
		return responseQuery
	}
	responseQuery.Height = view.Height()
	return responseQuery
}
