package database

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountConversion(t *testing.T) {
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	values := amountsToStrings([]*big.Int{big.NewInt(987), nil, huge})
	assert.Equal(t, []string{"987", "0", huge.String()}, values)

	amounts, err := stringsToAmounts(values)
	require.NoError(t, err)
	assert.Zero(t, huge.Cmp(amounts[2]))

	_, err = stringsToAmounts([]string{"1.5"})
	assert.Error(t, err)
}

func TestAddressConversion(t *testing.T) {
	addresses := []common.Address{common.HexToAddress("0xa11c"), common.HexToAddress("0xb0b")}
	assert.Equal(t, addresses, stringsToAddresses(addressesToStrings(addresses)))
}

func TestGetOperationsRejectsNonPositiveLimit(t *testing.T) {
	d := &Database{}
	for _, limit := range []int{0, -1} {
		_, err := d.GetOperations(context.Background(), common.Address{}, limit)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
}

func openTestDB(t *testing.T) *Database {
	t.Helper()
	dsn := os.Getenv("FORWARDER_TEST_DSN")
	if dsn == "" {
		t.Skip("FORWARDER_TEST_DSN not set, skipping postgres test")
	}
	db, err := NewDB(context.Background(), dsn, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestOperationJournal(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seed := uuid.New()
	caller := common.BytesToAddress(seed[:])

	ok := &types.Operation{
		ID:        uuid.New(),
		Method:    "swapTokens",
		Caller:    caller,
		Tokens:    []common.Address{common.HexToAddress("0x01"), common.HexToAddress("0x02")},
		Inputs:    []*big.Int{big.NewInt(1000), big.NewInt(0)},
		Outputs:   []*big.Int{big.NewInt(987)},
		StartedAt: time.Now().Add(-time.Minute).UTC().Truncate(time.Microsecond),
		Duration:  1500 * time.Microsecond,
	}
	failed := &types.Operation{
		ID:        uuid.New(),
		Method:    "removeLiquidity",
		Caller:    caller,
		Tokens:    []common.Address{common.HexToAddress("0x01")},
		Inputs:    []*big.Int{big.NewInt(5)},
		Err:       errors.New("forwarder: pair does not exist"),
		StartedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, db.Record(ctx, ok))
	require.NoError(t, db.Record(ctx, failed))

	ops, err := db.GetOperations(ctx, caller, 10)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, failed.ID, ops[0].ID)
	assert.EqualError(t, ops[0].Err, "forwarder: pair does not exist")
	assert.Empty(t, ops[0].Outputs)

	assert.Equal(t, ok.ID, ops[1].ID)
	assert.Equal(t, ok.Tokens, ops[1].Tokens)
	assert.Equal(t, "987", ops[1].Outputs[0].String())
	assert.Equal(t, ok.Duration, ops[1].Duration)
	assert.NoError(t, ops[1].Err)
}
