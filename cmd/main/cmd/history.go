package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/RestinGreen/polygon-forwarder/pkg/database"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	historyCaller string
	historyLimit  int
)

func openDB(cmd *cobra.Command) (*database.Database, error) {
	dsn := conf.PostgresDSN()
	if dsn == "" {
		return nil, errors.New("pgsql.host is not set")
	}
	return database.NewDB(cmd.Context(), dsn, dbTimeout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List forwarded operations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", historyLimit)
		}
		var caller common.Address
		if historyCaller != "" {
			var err error
			if caller, err = parseAddress("caller", historyCaller); err != nil {
				return err
			}
		}
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		ops, err := db.GetOperations(cmd.Context(), caller, historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tMETHOD\tCALLER\tSTATUS\tINPUTS\tOUTPUTS\tERROR")
		for _, op := range ops {
			var errText string
			if op.Err != nil {
				errText = op.Err.Error()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%v\t%s\n",
				op.StartedAt.Format("2006-01-02 15:04:05"), op.Method, op.Caller.Hex(), op.Status(), op.Inputs, op.Outputs, errText)
		}
		return w.Flush()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the operation journal tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(cmd.Context())
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyCaller, "caller", "", "only operations forwarded for this address")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of operations")
	rootCmd.AddCommand(historyCmd, migrateCmd)
}
