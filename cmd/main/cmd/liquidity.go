package cmd

import (
	"fmt"

	"github.com/RestinGreen/polygon-forwarder/pkg/units"
	"github.com/spf13/cobra"
)

var callerAddress string

var addLiquidityCmd = &cobra.Command{
	Use:   "add-liquidity [tokenA] [tokenB] [amountA] [amountB]",
	Short: "Add liquidity to a token pair",
	Long: `Takes amountA and amountB from the caller and adds them to the pair. At least
half of each amount must be used by the router. LP tokens go to the caller.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addresses, err := parseAddresses([]string{"caller", "tokenA", "tokenB"}, []string{callerAddress, args[0], args[1]})
		if err != nil {
			return err
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		amountA, _, err := a.tokenAmount(ctx, addresses[1], args[2])
		if err != nil {
			return err
		}
		amountB, _, err := a.tokenAmount(ctx, addresses[2], args[3])
		if err != nil {
			return err
		}
		liquidity, err := a.forwarder.AddLiquidity(ctx, addresses[0], addresses[1], addresses[2], amountA, amountB)
		if err != nil {
			return err
		}
		fmt.Printf("Liquidity minted: %s\n", liquidity)
		return nil
	},
}

var addLiquidityETHCmd = &cobra.Command{
	Use:   "add-liquidity-eth [token] [amount] [value]",
	Short: "Add liquidity to a token/native pair",
	Long: `Takes amount of token from the caller and pairs it with value of native
currency held by the custody account. No minimum amounts are enforced.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addresses, err := parseAddresses([]string{"caller", "token"}, []string{callerAddress, args[0]})
		if err != nil {
			return err
		}
		value, err := units.ParseAmount(args[2], nativeDecimals)
		if err != nil {
			return fmt.Errorf("value %q: %w", args[2], err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		amount, _, err := a.tokenAmount(ctx, addresses[1], args[1])
		if err != nil {
			return err
		}
		liquidity, err := a.forwarder.AddLiquidityETH(ctx, addresses[0], addresses[1], amount, value)
		if err != nil {
			return err
		}
		fmt.Printf("Liquidity minted: %s\n", liquidity)
		return nil
	},
}

var removeLiquidityCmd = &cobra.Command{
	Use:   "remove-liquidity [tokenA] [tokenB] [liquidity]",
	Short: "Burn LP tokens of a pair",
	Long:  `Liquidity is given in LP base units. Both underlying amounts go to the caller.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addresses, err := parseAddresses([]string{"caller", "tokenA", "tokenB"}, []string{callerAddress, args[0], args[1]})
		if err != nil {
			return err
		}
		liquidity, err := units.ParseAmount(args[2], 0)
		if err != nil {
			return fmt.Errorf("liquidity %q: %w", args[2], err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		decimalsA, err := a.decimals(ctx, addresses[1])
		if err != nil {
			return err
		}
		decimalsB, err := a.decimals(ctx, addresses[2])
		if err != nil {
			return err
		}
		amountA, amountB, err := a.forwarder.RemoveLiquidity(ctx, addresses[0], addresses[1], addresses[2], liquidity)
		if err != nil {
			return err
		}
		fmt.Printf("Received %s of %s\n", units.FormatAmount(amountA, decimalsA), addresses[1].Hex())
		fmt.Printf("Received %s of %s\n", units.FormatAmount(amountB, decimalsB), addresses[2].Hex())
		return nil
	},
}

var removeLiquidityETHCmd = &cobra.Command{
	Use:   "remove-liquidity-eth [token] [liquidity]",
	Short: "Burn LP tokens of a token/native pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		addresses, err := parseAddresses([]string{"caller", "token"}, []string{callerAddress, args[0]})
		if err != nil {
			return err
		}
		liquidity, err := units.ParseAmount(args[1], 0)
		if err != nil {
			return fmt.Errorf("liquidity %q: %w", args[1], err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		decimals, err := a.decimals(ctx, addresses[1])
		if err != nil {
			return err
		}
		amountToken, amountETH, err := a.forwarder.RemoveLiquidityETH(ctx, addresses[0], addresses[1], liquidity)
		if err != nil {
			return err
		}
		fmt.Printf("Received %s of %s\n", units.FormatAmount(amountToken, decimals), addresses[1].Hex())
		fmt.Printf("Received %s native\n", units.FormatAmount(amountETH, nativeDecimals))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{addLiquidityCmd, addLiquidityETHCmd, removeLiquidityCmd, removeLiquidityETHCmd, swapCmd, swapETHCmd} {
		c.Flags().StringVar(&callerAddress, "caller", "", "address the operation is forwarded for")
		c.MarkFlagRequired("caller")
		rootCmd.AddCommand(c)
	}
}
