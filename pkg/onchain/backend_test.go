package onchain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient answers the read calls a session makes outside of contracts.
type fakeClient struct {
	Client
	header  *types.Header
	balance *big.Int
}

func (c *fakeClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return c.header, nil
}

func (c *fakeClient) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return c.balance, nil
}

func newTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	client := &fakeClient{header: &types.Header{Time: 1_700_000_000}, balance: big.NewInt(500)}
	return NewBackend(client, key, big.NewInt(137), opts...)
}

func TestNowAddsSlack(t *testing.T) {
	b := newTestBackend(t, WithDeadlineSlack(2*time.Minute))
	s, err := b.Begin(context.Background())
	require.NoError(t, err)
	defer s.Commit()

	now, err := s.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_120), now.Uint64())
}

func TestReceiveValueNeedsFundedCustody(t *testing.T) {
	b := newTestBackend(t)
	s, err := b.Begin(context.Background())
	require.NoError(t, err)
	defer s.Commit()

	assert.NoError(t, s.ReceiveValue(context.Background(), receiver, big.NewInt(500)))
	assert.ErrorIs(t, s.ReceiveValue(context.Background(), receiver, big.NewInt(501)), ErrInsufficientValue)
}

func TestRollbackRunsCompensationsInReverse(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	s, err := b.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.Self(), s.Self())

	var order []string
	sess := s.(*session)
	sess.compensate("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	sess.compensate("second", func(context.Context) error {
		order = append(order, "second")
		return errors.New("nonce too low")
	})
	sess.compensate("third", func(context.Context) error {
		order = append(order, "third")
		return nil
	})

	err = s.Rollback(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second: nonce too low")
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.ErrorIs(t, s.Rollback(ctx), ErrSessionClosed)

	// the backend is free again
	s, err = b.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	assert.ErrorIs(t, s.Commit(), ErrSessionClosed)
}

func TestBeginHonoursCancelledContext(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Begin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
