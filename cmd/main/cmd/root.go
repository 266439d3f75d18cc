package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RestinGreen/polygon-forwarder/pkg/general"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string

	v    = viper.New()
	conf *general.General
)

var rootCmd = &cobra.Command{
	Use:   "forwarder",
	Short: "Forward liquidity and swap calls to a Uniswap V2 router",
	Long: `forwarder takes custody of the caller's tokens with the custody key,
approves the router and calls it on the caller's behalf. Results go back to
the caller.

The caller must have approved the custody account for every token moved.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := general.LoadEnv(envFile); err != nil {
			return err
		}
		var err error
		conf, err = general.NewGeneral(v, cfgFile)
		if err != nil {
			return err
		}
		return general.SetupLogger(conf.Log.Level)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.StringVar(&envFile, "env", ".env", "dotenv file loaded before the config")

	flags.String("node", "", "node rpc endpoint")
	flags.Int64("chain-id", 0, "chain id used to sign transactions")
	flags.String("router", "", "uniswap v2 router address")
	flags.String("factory", "", "uniswap v2 factory address")
	flags.String("allowance-policy", "", "router allowance policy: accumulate or exact")
	flags.Bool("refund-unused", false, "return custody the router did not consume")
	flags.Duration("deadline-slack", 0, "added to the latest block time to form the router deadline")
	flags.String("log-level", "", "log level: crit, error, warn, info, debug, trace")
	flags.String("metrics-file", "", "write prometheus metrics to this file after each command")

	for key, flag := range map[string]string{
		"node.endpoint":              "node",
		"node.chain_id":              "chain-id",
		"dex.router":                 "router",
		"dex.factory":                "factory",
		"forwarder.allowance_policy": "allowance-policy",
		"forwarder.refund_unused":    "refund-unused",
		"forwarder.deadline_slack":   "deadline-slack",
		"log.level":                  "log-level",
		"metrics.file":               "metrics-file",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding flag %s: %v\n", flag, err)
		}
	}
}
