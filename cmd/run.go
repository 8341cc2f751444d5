package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/config"
	"github.com/tendermint/tendermint/libs/cli/flags"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/node"
	"github.com/tendermint/tendermint/p2p"
	"github.com/tendermint/tendermint/privval"
	"github.com/tendermint/tendermint/proxy"
	dbm "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"

	"surety-node/api"
	"surety-node/app"
	appconfig "surety-node/config"
	"surety-node/events"
	"surety-node/metrics"
	"surety-node/oracle"
)

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run node",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	configuration := config.DefaultConfig()
	viper.SetConfigFile(filepath.Join(rootDir, "config", "config.toml"))
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	if err := viper.Unmarshal(configuration); err != nil {
		return err
	}
	configuration.SetRoot(rootDir)
	if err := configuration.ValidateBasic(); err != nil {
		return err
	}

	appConfig, err := appconfig.Load(rootDir)
	if err != nil {
		return err
	}

	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	logger, err = flags.ParseLogLevel(appConfig.LogLevel, logger, config.DefaultLogLevel())
	if err != nil {
		return err
	}

	db, err := openDB(configuration, appConfig.Store)
	if err != nil {
		return err
	}
	store := app.NewStore(db, appConfig.Store.Retain)
	defer store.Close()

	bus := events.NewBus(events.DefaultBufferCapacity)
	bus.SetLogger(logger.With("module", "bus"))
	if err := bus.Start(); err != nil {
		return err
	}
	defer bus.Stop()

	m := metrics.New()
	suretyApp, err := app.NewSuretyApp(store,
		app.WithLogger(logger.With("module", "app")),
		app.WithPublisher(bus),
		app.WithMetrics(m))
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		configuration.PrivValidatorKeyFile(),
		configuration.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(configuration.NodeKeyFile())
	if err != nil {
		return err
	}

	n, err := node.NewNode(
		configuration,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(suretyApp),
		node.DefaultGenesisDocProviderFunc(configuration),
		node.DefaultDBProvider,
		node.DefaultMetricsProvider(configuration.Instrumentation),
		logger)
	if err != nil {
		return err
	}

	if err := n.Start(); err != nil {
		return err
	}
	defer func() {
		n.Stop()
		n.Wait()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)

	if appConfig.API.Enabled {
		server := api.NewServer(suretyApp, m.Registry, appConfig.API.AllowedOrigins, logger.With("module", "api"))
		group.Go(func() error { return server.ListenAndServe(ctx, appConfig.API.Address) })
	}

	if appConfig.Oracles.Simulate {
		simulator, err := newSimulator(suretyApp, n, bus, appConfig, logger.With("module", "oracle"))
		if err != nil {
			return err
		}
		group.Go(func() error { return simulator.Run(ctx) })
	}

	group.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return group.Wait()
}

// openDB opens the snapshot store with the node's db_backend unless the config asks for memory.
func openDB(configuration *config.Config, storeConfig appconfig.StoreConfig) (dbm.DB, error) {
	if storeConfig.Backend == "memdb" {
		return dbm.NewMemDB(), nil
	}
	return node.DefaultDBProvider(&node.DBContext{ID: "surety", Config: configuration})
}

func newSimulator(suretyApp *app.SuretyApp, n *node.Node, bus *events.Bus, appConfig *appconfig.Config, logger log.Logger) (*oracle.Simulator, error) {
	statuses, err := appConfig.Oracles.StatusCodes()
	if err != nil {
		return nil, err
	}
	params, err := appConfig.Params.Params()
	if err != nil {
		return nil, err
	}
	fee := params.OracleFee
	if view := suretyApp.View(); view != nil {
		fee = view.State().Params.OracleFee
	}
	submitter := oracle.MempoolSubmitter{
		Mempool: n.Mempool(),
		Nonce: func(address common.Address) uint64 {
			if view := suretyApp.View(); view != nil {
				return view.Nonce(address)
			}
			return 0
		},
	}
	return oracle.NewSimulator(appConfig.Oracles.Count, fee, bus, submitter, oracle.FixedStatuses(statuses), logger)
}
