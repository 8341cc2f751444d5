package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/tendermint/tendermint/libs/log"

	"surety-node/app"
	"surety-node/messages"
	"surety-node/modules"
)

const welcome = "An API for use with your Dapp!"

// Source hands out the latest committed state; nil means the chain is not initialized yet.
type Source interface {
	View() *app.View
}

type Server struct {
	source  Source
	handler http.Handler
	logger  log.Logger
}

func NewServer(source Source, gatherer prometheus.Gatherer, allowedOrigins []string, logger log.Logger) *Server {
	server := &Server{source: source, logger: logger}
	router := mux.NewRouter()
	routes := router.PathPrefix("/api").Subrouter()
	routes.HandleFunc("", server.welcome).Methods(http.MethodGet)
	routes.HandleFunc("/operational", server.query(messages.QueryOperational)).Methods(http.MethodGet)
	routes.HandleFunc("/airlines/{address}", server.query(messages.QueryAirline)).Methods(http.MethodGet)
	routes.HandleFunc("/airlines/{address}/flights", server.query(messages.QueryAirlineFlights)).Methods(http.MethodGet)
	routes.HandleFunc("/flights", server.query(messages.QueryFlights)).Methods(http.MethodGet)
	routes.HandleFunc("/flights/{code}", server.query(messages.QueryFlight)).Methods(http.MethodGet)
	routes.HandleFunc("/oracles/{address}/indexes", server.query(messages.QueryOracleIndexes)).Methods(http.MethodGet)
	routes.HandleFunc("/passengers/{address}/balance", server.query(messages.QueryBalance)).Methods(http.MethodGet)
	routes.HandleFunc("/passengers/{address}/policies", server.query(messages.QueryPolicies)).Methods(http.MethodGet)
	routes.HandleFunc("/treasury", server.query(messages.QueryTreasury)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server.handler = cors.New(cors.Options{AllowedOrigins: allowedOrigins}).Handler(router)
	return server
}

func (server *Server) Handler() http.Handler { return server.handler }

// ListenAndServe serves on address until ctx is done.
func (server *Server) ListenAndServe(ctx context.Context, address string) error {
	httpServer := &http.Server{Addr: address, Handler: server.handler, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- httpServer.ListenAndServe() }()
	server.logger.Info("Serving API", "address", address)
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (server *Server) welcome(w http.ResponseWriter, r *http.Request) {
	server.write(w, http.StatusOK, map[string]string{"message": welcome})
}

func (server *Server) query(qrType messages.QueryType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := messages.Query{QrType: qrType, Flight: mux.Vars(r)["code"]}
		if address, ok := mux.Vars(r)["address"]; ok {
			if !common.IsHexAddress(address) {
				server.fail(w, http.StatusBadRequest, "invalid address "+address)
				return
			}
			query.Address = common.HexToAddress(address)
		}
		view := server.source.View()
		if view == nil {
			server.fail(w, http.StatusServiceUnavailable, "chain not initialized")
			return
		}
		result, err := view.Answer(query)
		switch {
		case errors.Is(err, app.ErrNotFound), errors.Is(err, modules.ErrInvalidState):
			server.fail(w, http.StatusNotFound, err.Error())
		case err != nil:
			server.fail(w, http.StatusInternalServerError, err.Error())
		default:
			w.Header().Set("X-Height", strconv.FormatInt(view.Height(), 10))
			server.write(w, http.StatusOK, result)
		}
	}
}

func (server *Server) write(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		server.logger.Error("Failed to write response", "err", err)
	}
}

func (server *Server) fail(w http.ResponseWriter, status int, message string) {
	server.write(w, status, map[string]string{"error": message})
}
