package general

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "FORWARDER"

type General struct {
	Node      NodeConfig      `mapstructure:"node"`
	Dex       DexConfig       `mapstructure:"dex"`
	Forwarder ForwarderConfig `mapstructure:"forwarder"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`

	//database credentials
	Pgsql PgsqlConfig `mapstructure:"pgsql"`
}

type NodeConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ChainID    int64  `mapstructure:"chain_id"`
	PrivateKey string `mapstructure:"private_key"`
}

type DexConfig struct {
	Router  string `mapstructure:"router"`
	Factory string `mapstructure:"factory"`
}

type ForwarderConfig struct {
	AllowancePolicy string        `mapstructure:"allowance_policy"`
	RefundUnused    bool          `mapstructure:"refund_unused"`
	DeadlineSlack   time.Duration `mapstructure:"deadline_slack"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	File string `mapstructure:"file"`
}

type PgsqlConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// QuickSwap on Polygon.
var defaults = map[string]interface{}{
	"node.endpoint":              "http://127.0.0.1:8545",
	"node.chain_id":              137,
	"node.private_key":           "",
	"dex.router":                 "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff",
	"dex.factory":                "0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32",
	"forwarder.allowance_policy": "accumulate",
	"forwarder.refund_unused":    false,
	"forwarder.deadline_slack":   time.Minute,
	"log.level":                  "info",
	"metrics.file":               "",
	"pgsql.host":                 "",
	"pgsql.port":                 "5432",
	"pgsql.user":                 "",
	"pgsql.password":             "",
	"pgsql.dbname":               "",
}

// LoadEnv reads .env style files into the process environment. Missing
// files are skipped.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// NewGeneral resolves configuration from, in increasing priority, defaults,
// the config file, FORWARDER_* environment variables and flags bound to v.
func NewGeneral(v *viper.Viper, configPath string) (*General, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var g General
	if err := v.Unmarshal(&g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &g, nil
}

func (g *General) RouterAddress() (common.Address, error) {
	return parseAddress("dex.router", g.Dex.Router)
}

func (g *General) FactoryAddress() (common.Address, error) {
	return parseAddress("dex.factory", g.Dex.Factory)
}

func (g *General) PrivateKey() (*ecdsa.PrivateKey, error) {
	if g.Node.PrivateKey == "" {
		return nil, errors.New("node.private_key is not set")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(g.Node.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid node.private_key: %w", err)
	}
	return key, nil
}

// PostgresDSN returns an empty string when no database is configured.
func (g *General) PostgresDSN() string {
	if g.Pgsql.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		g.Pgsql.Host, g.Pgsql.Port, g.Pgsql.User, g.Pgsql.Password, g.Pgsql.DBName)
}

func parseAddress(key, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: %q is not an address", key, value)
	}
	return common.HexToAddress(value), nil
}

// SetupLogger installs a terminal handler on the root logger.
func SetupLogger(level string) error {
	lvl, err := log.LvlFromString(level)
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.TerminalFormat(false))))
	return nil
}
