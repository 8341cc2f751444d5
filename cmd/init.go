package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/config"
	tmos "github.com/tendermint/tendermint/libs/os"
	"github.com/tendermint/tendermint/p2p"
	"github.com/tendermint/tendermint/privval"
	"github.com/tendermint/tendermint/types"
	tmtime "github.com/tendermint/tendermint/types/time"

	appconfig "surety-node/config"
	"surety-node/modules"
)

const (
	ownerKey        = "owner"
	firstAirlineKey = "airline"
	validatorPower  = 10
)

var chainID string

var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config files, keys and genesis",
	RunE:  initialize,
}

func init() {
	InitCmd.Flags().StringVar(&chainID, "chain-id", "surety", "Chain id written to the genesis file")
}

func initialize(cmd *cobra.Command, args []string) error {
	configuration := config.DefaultConfig()
	configuration.SetRoot(rootDir)
	config.EnsureRoot(configuration.RootDir)

	configuration.LogLevel = "consensus:error,*:info"
	configuration.RPC.CORSAllowedOrigins = []string{"*"}
	configuration.P2P.AllowDuplicateIP = true
	configuration.Consensus.CreateEmptyBlocksInterval = time.Duration(10) * time.Second
	if err := configuration.ValidateBasic(); err != nil {
		return err
	}
	config.WriteConfigFile(filepath.Join(rootDir, "config", "config.toml"), configuration)

	appConfig := appconfig.DefaultConfig()
	if !tmos.FileExists(appconfig.Path(rootDir)) {
		if err := appConfig.Save(rootDir); err != nil {
			return err
		}
	}
	params, err := appConfig.Params.Params()
	if err != nil {
		return err
	}

	privVal := privval.LoadOrGenFilePV(configuration.PrivValidatorKeyFile(), configuration.PrivValidatorStateFile())
	if _, err := p2p.LoadOrGenNodeKey(configuration.NodeKeyFile()); err != nil {
		return err
	}

	owner, err := loadOrGenKey(keyFile(ownerKey))
	if err != nil {
		return err
	}
	airline, err := loadOrGenKey(keyFile(firstAirlineKey))
	if err != nil {
		return err
	}
	genesis := modules.GenesisState{Params: &params}
	if genesis.Owner, err = addressOf(owner); err != nil {
		return err
	}
	if genesis.FirstAirline, err = addressOf(airline); err != nil {
		return err
	}

	genFile := configuration.GenesisFile()
	if tmos.FileExists(genFile) {
		fmt.Fprintf(cmd.OutOrStdout(), "Found genesis file %s\n", genFile)
		return nil
	}
	appState, err := json.Marshal(genesis)
	if err != nil {
		return err
	}
	pubKey, err := privVal.GetPubKey()
	if err != nil {
		return err
	}
	genDoc := types.GenesisDoc{
		ChainID:         chainID,
		GenesisTime:     tmtime.Now(),
		ConsensusParams: types.DefaultConsensusParams(),
		Validators: []types.GenesisValidator{{
			Address: pubKey.Address(),
			PubKey:  pubKey,
			Power:   validatorPower,
		}},
		AppState: appState,
	}
	if err := genDoc.SaveAs(genFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Owner %s, first airline %s\n", genesis.Owner.Hex(), genesis.FirstAirline.Hex())
	return nil
}
