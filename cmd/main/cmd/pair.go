package cmd

import (
	"context"
	"fmt"

	"github.com/RestinGreen/polygon-forwarder/pkg/binding"
	"github.com/RestinGreen/polygon-forwarder/pkg/chain"
	"github.com/RestinGreen/polygon-forwarder/pkg/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var pairCmd = &cobra.Command{
	Use:   "pair [tokenA] [tokenB]",
	Short: "Show the pair of two tokens and its reserves",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tokens, err := parseAddresses([]string{"tokenA", "tokenB"}, args)
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := checkFactory(ctx, a); err != nil {
			return err
		}
		factory, err := a.backend.Binding().FactoryContract(a.forwarder.Factory())
		if err != nil {
			return err
		}
		pairAddress, err := factory.GetPair(a.backend.CallOpts(ctx), tokens[0], tokens[1])
		if err != nil {
			return err
		}
		if pairAddress == (common.Address{}) {
			return fmt.Errorf("no pair for %s", chain.PairKey(tokens[0], tokens[1]))
		}
		pair, err := a.backend.Binding().PairContract(pairAddress)
		if err != nil {
			return err
		}
		reserves, err := pair.GetReserves(a.backend.CallOpts(ctx))
		if err != nil {
			return err
		}

		token0, token1, _ := chain.SortAddress(tokens[0], tokens[1])
		if err := checkOrdering(ctx, a, pair, token0, token1); err != nil {
			return err
		}
		lp, err := a.backend.Binding().TokenContract(pairAddress)
		if err != nil {
			return err
		}
		supply, err := lp.TotalSupply(a.backend.CallOpts(ctx))
		if err != nil {
			return err
		}
		pairs, err := factory.AllPairsLength(a.backend.CallOpts(ctx))
		if err != nil {
			return err
		}
		decimals0, err := a.decimals(ctx, token0)
		if err != nil {
			return err
		}
		decimals1, err := a.decimals(ctx, token1)
		if err != nil {
			return err
		}
		fmt.Printf("Pair:     %s\n", pairAddress.Hex())
		fmt.Printf("Reserve0: %s %s (%s)\n", units.FormatAmount(reserves.Reserve0, decimals0), a.symbol(ctx, token0), token0.Hex())
		fmt.Printf("Reserve1: %s %s (%s)\n", units.FormatAmount(reserves.Reserve1, decimals1), a.symbol(ctx, token1), token1.Hex())
		fmt.Printf("LP supply: %s\n", supply)
		fmt.Printf("Factory pairs: %s\n", pairs)
		return nil
	},
}

// checkFactory makes sure the configured router trades on the configured factory.
func checkFactory(ctx context.Context, a *app) error {
	router, err := a.backend.Binding().RouterContract(a.forwarder.Router())
	if err != nil {
		return err
	}
	factory, err := router.Factory(a.backend.CallOpts(ctx))
	if err != nil {
		return err
	}
	if factory != a.forwarder.Factory() {
		return fmt.Errorf("router %s uses factory %s, configured %s", a.forwarder.Router().Hex(), factory.Hex(), a.forwarder.Factory().Hex())
	}
	return nil
}

func checkOrdering(ctx context.Context, a *app, pair *binding.UniV2Pair, token0, token1 common.Address) error {
	onchain0, err := pair.Token0(a.backend.CallOpts(ctx))
	if err != nil {
		return err
	}
	onchain1, err := pair.Token1(a.backend.CallOpts(ctx))
	if err != nil {
		return err
	}
	if onchain0 != token0 || onchain1 != token1 {
		return fmt.Errorf("pair %s holds %s/%s, expected %s/%s", pair.Address.Hex(), onchain0.Hex(), onchain1.Hex(), token0.Hex(), token1.Hex())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(pairCmd)
}
