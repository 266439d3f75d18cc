package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/connection"
	"github.com/RestinGreen/polygon-forwarder/pkg/database"
	"github.com/RestinGreen/polygon-forwarder/pkg/forwarder"
	"github.com/RestinGreen/polygon-forwarder/pkg/metrics"
	"github.com/RestinGreen/polygon-forwarder/pkg/onchain"
	"github.com/RestinGreen/polygon-forwarder/pkg/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

const (
	nativeDecimals = 18
	dbTimeout      = 10 * time.Second
)

// app holds everything a forwarding command needs.
type app struct {
	conn      *connection.Connection
	backend   *onchain.Backend
	forwarder *forwarder.Forwarder
	metrics   *metrics.Metrics
	db        *database.Database
	log       log.Logger
}

func newApp(ctx context.Context) (*app, error) {
	router, err := conf.RouterAddress()
	if err != nil {
		return nil, err
	}
	factory, err := conf.FactoryAddress()
	if err != nil {
		return nil, err
	}
	key, err := conf.PrivateKey()
	if err != nil {
		return nil, err
	}
	policy, err := forwarder.ParseAllowancePolicy(conf.Forwarder.AllowancePolicy)
	if err != nil {
		return nil, err
	}

	a := &app{
		metrics: metrics.NewMetrics(),
		log:     log.New("module", "cli"),
	}
	a.conn, err = connection.NewConnection(ctx, conf.Node.Endpoint)
	if err != nil {
		return nil, err
	}
	a.backend = onchain.NewBackend(a.conn.EthClient, key, big.NewInt(conf.Node.ChainID),
		onchain.WithDeadlineSlack(conf.Forwarder.DeadlineSlack))

	opts := []forwarder.Option{
		forwarder.WithAllowancePolicy(policy),
		forwarder.WithRefundUnused(conf.Forwarder.RefundUnused),
		forwarder.WithRecorder(a.metrics),
	}
	if dsn := conf.PostgresDSN(); dsn != "" {
		a.db, err = database.NewDB(ctx, dsn, dbTimeout)
		if err != nil {
			a.conn.Close()
			return nil, err
		}
		if err := a.db.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, forwarder.WithRecorder(a.db))
	}
	a.forwarder = forwarder.New(a.backend, router, factory, opts...)

	a.log.Debug("Forwarder ready", "custody", a.backend.Self(), "router", router, "factory", factory, "allowance", policy)
	return a, nil
}

// Close flushes metrics and releases connections.
func (a *app) Close() {
	if conf.Metrics.File != "" {
		if err := a.metrics.WriteToTextfile(conf.Metrics.File); err != nil {
			a.log.Error("Failed to write metrics", "file", conf.Metrics.File, "err", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	a.conn.Close()
}

func (a *app) decimals(ctx context.Context, token common.Address) (uint8, error) {
	erc20, err := a.backend.Binding().TokenContract(token)
	if err != nil {
		return 0, err
	}
	decimals, err := erc20.Decimals(a.backend.CallOpts(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to read decimals of %s: %w", token.Hex(), err)
	}
	return decimals, nil
}

// symbol falls back to "?" for tokens without a readable symbol.
func (a *app) symbol(ctx context.Context, token common.Address) string {
	erc20, err := a.backend.Binding().TokenContract(token)
	if err != nil {
		return "?"
	}
	symbol, err := erc20.Symbol(a.backend.CallOpts(ctx))
	if err != nil {
		return "?"
	}
	return symbol
}

// tokenAmount parses a human amount of token.
func (a *app) tokenAmount(ctx context.Context, token common.Address, amount string) (*big.Int, uint8, error) {
	decimals, err := a.decimals(ctx, token)
	if err != nil {
		return nil, 0, err
	}
	value, err := units.ParseAmount(amount, decimals)
	if err != nil {
		return nil, 0, fmt.Errorf("amount %q: %w", amount, err)
	}
	return value, decimals, nil
}

func (a *app) weth(ctx context.Context) (common.Address, error) {
	router, err := a.backend.Binding().RouterContract(a.forwarder.Router())
	if err != nil {
		return common.Address{}, err
	}
	return router.WETH(a.backend.CallOpts(ctx))
}

// quote asks the router what path would pay for amountIn and refuses to send
// a swap that is already below minOut.
func (a *app) quote(ctx context.Context, amountIn, minOut *big.Int, path ...common.Address) error {
	router, err := a.backend.Binding().RouterContract(a.forwarder.Router())
	if err != nil {
		return err
	}
	amounts, err := router.GetAmountsOut(a.backend.CallOpts(ctx), amountIn, path)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}
	if err := checkQuote(amounts, minOut); err != nil {
		return err
	}
	a.log.Info("Swap quoted", "in", amountIn, "out", amounts[len(amounts)-1], "min", minOut)
	return nil
}

func checkQuote(amounts []*big.Int, minOut *big.Int) error {
	if len(amounts) == 0 {
		return errors.New("quote: router returned no amounts")
	}
	if out := amounts[len(amounts)-1]; out.Cmp(minOut) < 0 {
		return fmt.Errorf("quote: router pays %s, below minimum %s", out, minOut)
	}
	return nil
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: %q is not an address", name, value)
	}
	return common.HexToAddress(value), nil
}

func parseAddresses(names []string, values []string) ([]common.Address, error) {
	out := make([]common.Address, len(values))
	for i, value := range values {
		address, err := parseAddress(names[i], value)
		if err != nil {
			return nil, err
		}
		out[i] = address
	}
	return out, nil
}
