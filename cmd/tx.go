package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	rpchttp "github.com/tendermint/tendermint/rpc/client/http"

	"surety-node/crypto"
	"surety-node/messages"
	"surety-node/modules"
)

var txTypes = []messages.TransactionType{
	messages.TxSetOperatingStatus,
	messages.TxAuthorizeCaller,
	messages.TxDeauthorizeCaller,
	messages.TxRegisterAirline,
	messages.TxVoteToAirline,
	messages.TxFundAirline,
	messages.TxRegisterFlight,
	messages.TxRegisterOracle,
	messages.TxFetchFlightStatus,
	messages.TxSubmitOracleResponse,
	messages.TxBuyInsurance,
	messages.TxWithdraw,
}

var txFlags struct {
	key         string
	node        string
	nonce       int64
	print       bool
	value       string
	premium     string
	operational bool
	address     string
	airline     string
	flight      string
	timestamp   uint64
	flightKey   string
	index       uint8
	status      string
}

var TxCmd = &cobra.Command{
	Use:   "tx [type]",
	Short: "Sign a transaction and broadcast it",
	Long:  "Sign a transaction with a key from the home directory. Type is the command name, e.g. RegisterFlight.",
	Args:  cobra.ExactArgs(1),
	RunE:  sendTx,
}

func init() {
	flags := TxCmd.Flags()
	flags.StringVar(&txFlags.key, "key", ownerKey, "Name of the signing key")
	flags.StringVar(&txFlags.node, "node", "tcp://localhost:26657", "RPC address of the node")
	flags.Int64Var(&txFlags.nonce, "nonce", -1, "Nonce of the transaction, queried from the node when negative")
	flags.BoolVar(&txFlags.print, "print", false, "Print the encoded transaction instead of broadcasting it")
	flags.StringVar(&txFlags.value, "value", "", "Value sent with the transaction, in wei or with an ether suffix")
	flags.StringVar(&txFlags.premium, "premium", "", "Insurance premium, in wei or with an ether suffix")
	flags.BoolVar(&txFlags.operational, "operational", true, "Operating status to set")
	flags.StringVar(&txFlags.address, "address", "", "Airline, caller or passenger acted upon")
	flags.StringVar(&txFlags.airline, "airline", "", "Airline of the flight")
	flags.StringVar(&txFlags.flight, "flight", "", "Flight code")
	flags.Uint64Var(&txFlags.timestamp, "timestamp", 0, "Flight departure, unix seconds")
	flags.StringVar(&txFlags.flightKey, "flight-key", "", "Flight key, as returned by RegisterFlight")
	flags.Uint8Var(&txFlags.index, "index", 0, "Oracle request index")
	flags.StringVar(&txFlags.status, "status", "", "Flight status name, e.g. LateAirline")
}

func parseTxType(name string) (messages.TransactionType, error) {
	for _, txType := range txTypes {
		if string(txType) == name || string(txType) == "Tx"+name {
			return txType, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type %q", name)
}

// parseAmount reads wei, or ether when suffixed with "ether".
func parseAmount(text string) (*uint256.Int, error) {
	if text == "" {
		return nil, nil
	}
	if ether := strings.TrimSuffix(text, "ether"); ether != text {
		value, err := uint256.FromDecimal(strings.TrimSpace(ether))
		if err != nil {
			return nil, err
		}
		value, overflow := new(uint256.Int).MulOverflow(value, modules.Ether(1))
		if overflow {
			return nil, fmt.Errorf("amount %s overflows", text)
		}
		return value, nil
	}
	return uint256.FromDecimal(text)
}

func parseAddress(text string) (common.Address, error) {
	if text == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(text) {
		return common.Address{}, fmt.Errorf("invalid address %q", text)
	}
	return common.HexToAddress(text), nil
}

func buildTx(txType messages.TransactionType) (messages.Transaction, error) {
	tx := messages.Transaction{
		TxType:      txType,
		Operational: txFlags.operational,
		Flight:      txFlags.flight,
		Timestamp:   txFlags.timestamp,
		Index:       txFlags.index,
	}
	var err error
	if tx.Value, err = parseAmount(txFlags.value); err != nil {
		return tx, err
	}
	if tx.Premium, err = parseAmount(txFlags.premium); err != nil {
		return tx, err
	}
	if tx.Address, err = parseAddress(txFlags.address); err != nil {
		return tx, err
	}
	if tx.Airline, err = parseAddress(txFlags.airline); err != nil {
		return tx, err
	}
	if txFlags.flightKey != "" {
		tx.FlightKey = common.HexToHash(txFlags.flightKey)
	}
	if txFlags.status != "" {
		if tx.StatusCode, err = modules.ParseStatusCode(txFlags.status); err != nil {
			return tx, err
		}
	}
	return tx, nil
}

func sendTx(cmd *cobra.Command, args []string) error {
	txType, err := parseTxType(args[0])
	if err != nil {
		return err
	}
	tx, err := buildTx(txType)
	if err != nil {
		return err
	}
	privKey, err := crypto.LoadKey(keyFile(txFlags.key))
	if err != nil {
		return err
	}
	sender, err := addressOf(privKey)
	if err != nil {
		return err
	}

	var client *rpchttp.HTTP
	if !txFlags.print || txFlags.nonce < 0 {
		if client, err = rpchttp.New(txFlags.node, "/websocket"); err != nil {
			return err
		}
	}
	if txFlags.nonce >= 0 {
		tx.Nonce = uint64(txFlags.nonce)
	} else if tx.Nonce, err = queryNonce(client, sender); err != nil {
		return err
	}

	stx, err := messages.Sign(tx, privKey)
	if err != nil {
		return err
	}
	encoded, err := messages.EncodeTx(stx)
	if err != nil {
		return err
	}
	if txFlags.print {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return err
	}

	result, err := client.BroadcastTxCommit(encoded)
	if err != nil {
		return err
	}
	if result.CheckTx.IsErr() {
		return fmt.Errorf("check tx failed with code %d: %s", result.CheckTx.Code, result.CheckTx.Log)
	}
	if result.DeliverTx.IsErr() {
		return fmt.Errorf("deliver tx failed with code %d: %s", result.DeliverTx.Code, result.DeliverTx.Log)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "height %d hash %s result %s\n", result.Height, result.Hash, string(result.DeliverTx.Data))
	return err
}

func queryNonce(client *rpchttp.HTTP, sender common.Address) (uint64, error) {
	query, err := messages.EncodeQuery(messages.Query{QrType: messages.QueryNonce, Address: sender})
	if err != nil {
		return 0, err
	}
	result, err := client.ABCIQuery("", query)
	if err != nil {
		return 0, err
	}
	if result.Response.IsErr() {
		return 0, fmt.Errorf("nonce query failed with code %d: %s", result.Response.Code, result.Response.Log)
	}
	var nonce uint64
	return nonce, json.Unmarshal(result.Response.Value, &nonce)
}
