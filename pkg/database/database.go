package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/lib/pq"
)

var ErrInvalidLimit = errors.New("limit must be positive")

// Database journals every forwarded operation in postgres.
type Database struct {
	db  *sql.DB
	log log.Logger
}

// NewDB opens the connection and waits up to timeout for the server to answer.
func NewDB(ctx context.Context, dsn string, timeout time.Duration) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	d := &Database{db: db, log: log.New("module", "database")}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		d.log.Warn("Waiting for pgsql server", "err", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("pgsql server connection timeout: %w", err)
		case <-time.After(2 * time.Second):
		}
	}
	d.log.Info("Connected to postgres database")
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Migrate(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, statement := range []string{
		`CREATE TABLE IF NOT EXISTS operations (
			id          UUID PRIMARY KEY,
			method      TEXT NOT NULL,
			caller      TEXT NOT NULL,
			tokens      TEXT[] NOT NULL,
			inputs      NUMERIC[] NOT NULL,
			outputs     NUMERIC[] NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			started_at  TIMESTAMPTZ NOT NULL,
			duration_us BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS operations_caller_idx ON operations (caller, started_at DESC)`,
	} {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return tx.Commit()
}

// Record implements forwarder.Recorder.
func (d *Database) Record(ctx context.Context, op *types.Operation) error {
	return d.InsertOperation(ctx, op)
}

func (d *Database) InsertOperation(ctx context.Context, op *types.Operation) error {
	var errText string
	if op.Err != nil {
		errText = op.Err.Error()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO operations (id, method, caller, tokens, inputs, outputs, status, error, started_at, duration_us)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		op.ID,
		op.Method,
		op.Caller.Hex(),
		pq.Array(addressesToStrings(op.Tokens)),
		pq.Array(amountsToStrings(op.Inputs)),
		pq.Array(amountsToStrings(op.Outputs)),
		op.Status(),
		errText,
		op.StartedAt,
		op.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation %s: %w", op.ID, err)
	}
	return nil
}

// GetOperations returns the latest operations, newest first. A zero caller
// matches every caller.
func (d *Database) GetOperations(ctx context.Context, caller common.Address, limit int) ([]*types.Operation, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	query := `SELECT id, method, caller, tokens, inputs::TEXT[], outputs::TEXT[], status, error, started_at, duration_us
		FROM operations`
	args := []interface{}{limit}
	if caller != (common.Address{}) {
		query += ` WHERE caller = $2`
		args = append(args, caller.Hex())
	}
	query += ` ORDER BY started_at DESC LIMIT $1`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []*types.Operation
	for rows.Next() {
		var (
			op                      types.Operation
			callerHex, status, text string
			tokens, inputs, outputs pq.StringArray
			durationUs              int64
		)
		if err := rows.Scan(&op.ID, &op.Method, &callerHex, &tokens, &inputs, &outputs, &status, &text, &op.StartedAt, &durationUs); err != nil {
			return nil, err
		}
		op.Caller = common.HexToAddress(callerHex)
		op.Tokens = stringsToAddresses(tokens)
		if op.Inputs, err = stringsToAmounts(inputs); err != nil {
			return nil, err
		}
		if op.Outputs, err = stringsToAmounts(outputs); err != nil {
			return nil, err
		}
		if status == "failed" {
			op.Err = errors.New(text)
		}
		op.Duration = time.Duration(durationUs) * time.Microsecond
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}

func addressesToStrings(addresses []common.Address) []string {
	out := make([]string, len(addresses))
	for i, address := range addresses {
		out[i] = address.Hex()
	}
	return out
}

func stringsToAddresses(values []string) []common.Address {
	out := make([]common.Address, len(values))
	for i, value := range values {
		out[i] = common.HexToAddress(value)
	}
	return out
}

// nil amounts are stored as 0 so the NUMERIC[] column stays NULL free.
func amountsToStrings(amounts []*big.Int) []string {
	out := make([]string, len(amounts))
	for i, amount := range amounts {
		if amount == nil {
			out[i] = "0"
			continue
		}
		out[i] = amount.String()
	}
	return out
}

func stringsToAmounts(values []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, value := range values {
		amount, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount %q", value)
		}
		out[i] = amount
	}
	return out, nil
}
