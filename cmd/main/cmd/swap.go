package cmd

import (
	"fmt"

	"github.com/RestinGreen/polygon-forwarder/pkg/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	minAmountOut string
	wethAddress  string
)

var swapCmd = &cobra.Command{
	Use:   "swap [tokenIn] [tokenOut] [amountIn]",
	Short: "Swap an exact amount of one token for another",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addresses, err := parseAddresses([]string{"caller", "tokenIn", "tokenOut"}, []string{callerAddress, args[0], args[1]})
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		amountIn, _, err := a.tokenAmount(ctx, addresses[1], args[2])
		if err != nil {
			return err
		}
		minOut, decimalsOut, err := a.tokenAmount(ctx, addresses[2], minAmountOut)
		if err != nil {
			return err
		}
		if err := a.quote(ctx, amountIn, minOut, addresses[1], addresses[2]); err != nil {
			return err
		}
		out, err := a.forwarder.SwapTokens(ctx, addresses[0], addresses[1], addresses[2], amountIn, minOut)
		if err != nil {
			return err
		}
		fmt.Printf("Received %s of %s\n", units.FormatAmount(out, decimalsOut), addresses[2].Hex())
		return nil
	},
}

var swapETHCmd = &cobra.Command{
	Use:   "swap-eth [token] [amountIn]",
	Short: "Swap an exact amount of token for native currency",
	Long:  `The wrapped native token defaults to the router's WETH.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addresses, err := parseAddresses([]string{"caller", "token"}, []string{callerAddress, args[0]})
		if err != nil {
			return err
		}
		minOut, err := units.ParseAmount(minAmountOut, nativeDecimals)
		if err != nil {
			return fmt.Errorf("min-out %q: %w", minAmountOut, err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var weth common.Address
		if wethAddress != "" {
			weth, err = parseAddress("weth", wethAddress)
		} else {
			weth, err = a.weth(ctx)
		}
		if err != nil {
			return err
		}
		amountIn, _, err := a.tokenAmount(ctx, addresses[1], args[1])
		if err != nil {
			return err
		}
		if err := a.quote(ctx, amountIn, minOut, addresses[1], weth); err != nil {
			return err
		}
		out, err := a.forwarder.SwapTokenWithETH(ctx, addresses[0], weth, addresses[1], amountIn, minOut)
		if err != nil {
			return err
		}
		fmt.Printf("Received %s native\n", units.FormatAmount(out, nativeDecimals))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{swapCmd, swapETHCmd} {
		c.Flags().StringVar(&minAmountOut, "min-out", "0", "minimum amount received")
	}
	swapETHCmd.Flags().StringVar(&wethAddress, "weth", "", "wrapped native token, defaults to the router's")
}
