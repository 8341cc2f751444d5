package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"surety-node/modules"
)

const (
	FileName  = "surety.toml"
	EnvPrefix = "SURETY"
)

type ParamsConfig struct {
	AirlineFund       string `mapstructure:"airline_fund"`
	OracleFee         string `mapstructure:"oracle_fee"`
	InsuranceCap      string `mapstructure:"insurance_cap"`
	PayoutNumerator   uint64 `mapstructure:"payout_numerator"`
	PayoutDenominator uint64 `mapstructure:"payout_denominator"`
	AutoAdmit         int    `mapstructure:"auto_admit"`
	MinResponses      int    `mapstructure:"min_responses"`
	IndexSpace        uint8  `mapstructure:"index_space"`
}

type APIConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type OraclesConfig struct {
	Simulate bool     `mapstructure:"simulate"`
	Count    int      `mapstructure:"count"`
	Statuses []string `mapstructure:"statuses"`
}

type StoreConfig struct {
	// Backend is "memdb" or empty for the node's db_backend.
	Backend string `mapstructure:"backend"`
	Retain  int64  `mapstructure:"retain"`
}

// Config is the application configuration kept next to Tendermint's config.toml.
type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Params   ParamsConfig  `mapstructure:"params"`
	API      APIConfig     `mapstructure:"api"`
	Oracles  OraclesConfig `mapstructure:"oracles"`
	Store    StoreConfig   `mapstructure:"store"`
}

func DefaultConfig() *Config {
	params := modules.DefaultParams()
	return &Config{
		LogLevel: "consensus:error,*:info",
		Params: ParamsConfig{
			AirlineFund:       params.AirlineFund.Dec(),
			OracleFee:         params.OracleFee.Dec(),
			InsuranceCap:      params.InsuranceCap.Dec(),
			PayoutNumerator:   params.PayoutNumerator,
			PayoutDenominator: params.PayoutDenominator,
			AutoAdmit:         params.AutoAdmit,
			MinResponses:      params.MinResponses,
			IndexSpace:        params.IndexSpace,
		},
		API: APIConfig{
			Enabled:        true,
			Address:        "localhost:3000",
			AllowedOrigins: []string{"*"},
		},
		Oracles: OraclesConfig{
			Simulate: true,
			Count:    20,
			Statuses: []string{
				modules.StatusUnknown.String(),
				modules.StatusOnTime.String(),
				modules.StatusLateAirline.String(),
				modules.StatusLateWeather.String(),
				modules.StatusLateTechnical.String(),
				modules.StatusLateOther.String(),
			},
		},
		Store: StoreConfig{Retain: 100},
	}
}

func Path(home string) string {
	return filepath.Join(home, "config", FileName)
}

// apply hands every setting to set under its viper key.
func (cfg *Config) apply(set func(key string, value interface{})) {
	set("log_level", cfg.LogLevel)
	set("params.airline_fund", cfg.Params.AirlineFund)
	set("params.oracle_fee", cfg.Params.OracleFee)
	set("params.insurance_cap", cfg.Params.InsuranceCap)
	set("params.payout_numerator", cfg.Params.PayoutNumerator)
	set("params.payout_denominator", cfg.Params.PayoutDenominator)
	set("params.auto_admit", cfg.Params.AutoAdmit)
	set("params.min_responses", cfg.Params.MinResponses)
	set("params.index_space", int(cfg.Params.IndexSpace))
	set("api.enabled", cfg.API.Enabled)
	set("api.address", cfg.API.Address)
	set("api.allowed_origins", cfg.API.AllowedOrigins)
	set("oracles.simulate", cfg.Oracles.Simulate)
	set("oracles.count", cfg.Oracles.Count)
	set("oracles.statuses", cfg.Oracles.Statuses)
	set("store.backend", cfg.Store.Backend)
	set("store.retain", cfg.Store.Retain)
}

// Load reads <home>/config/surety.toml over the defaults. An optional <home>/.env is loaded
// first and SURETY_* environment variables override the file, e.g. SURETY_API_ADDRESS.
func Load(home string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(home, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	v := viper.New()
	DefaultConfig().apply(v.SetDefault)
	v.SetConfigFile(Path(home))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read %s: %w", Path(home), err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Save(home string) error {
	if err := os.MkdirAll(filepath.Dir(Path(home)), 0700); err != nil {
		return err
	}
	v := viper.New()
	cfg.apply(v.Set)
	return v.WriteConfigAs(Path(home))
}

func (cfg *Config) Validate() error {
	if _, err := cfg.Params.Params(); err != nil {
		return err
	}
	if _, err := cfg.Oracles.StatusCodes(); err != nil {
		return err
	}
	if cfg.Oracles.Simulate && cfg.Oracles.Count < 1 {
		return errors.New("oracles: count must be at least 1")
	}
	if cfg.Store.Retain < 0 {
		return errors.New("store: retain must not be negative")
	}
	if cfg.Store.Backend != "" && cfg.Store.Backend != "memdb" {
		return fmt.Errorf("store: unknown backend %q", cfg.Store.Backend)
	}
	return nil
}

func (params ParamsConfig) Params() (modules.Params, error) {
	var amounts [3]*uint256.Int
	for i, text := range []string{params.AirlineFund, params.OracleFee, params.InsuranceCap} {
		value, err := uint256.FromDecimal(text)
		if err != nil {
			return modules.Params{}, fmt.Errorf("params: invalid amount %q: %w", text, err)
		}
		amounts[i] = value
	}
	result := modules.Params{
		AirlineFund:       amounts[0],
		OracleFee:         amounts[1],
		InsuranceCap:      amounts[2],
		PayoutNumerator:   params.PayoutNumerator,
		PayoutDenominator: params.PayoutDenominator,
		AutoAdmit:         params.AutoAdmit,
		MinResponses:      params.MinResponses,
		IndexSpace:        params.IndexSpace,
	}
	return result, result.Validate()
}

func (oracles OraclesConfig) StatusCodes() ([]modules.StatusCode, error) {
	codes := make([]modules.StatusCode, 0, len(oracles.Statuses))
	for _, name := range oracles.Statuses {
		code, err := modules.ParseStatusCode(name)
		if err != nil {
			return nil, fmt.Errorf("oracles: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
