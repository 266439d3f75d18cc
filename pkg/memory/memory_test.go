package memory

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func setup(t *testing.T) (*Memory, common.Address, common.Address) {
	t.Helper()
	m := NewMemory()
	tokenA := m.DeployToken("Token A", "TKA", 18)
	tokenB := m.DeployToken("Token B", "TKB", 6)
	return m, tokenA, tokenB
}

func begin(t *testing.T, m *Memory, self common.Address) dex.Session {
	t.Helper()
	s, err := m.Backend(self).Begin(context.Background())
	require.NoError(t, err)
	return s
}

func deadline(m *Memory) *big.Int {
	return new(big.Int).SetUint64(m.Now())
}

// seed adds amountA/amountB of liquidity from alice and commits.
func seed(t *testing.T, m *Memory, tokenA, tokenB common.Address, amountA, amountB int64) *dex.AddLiquidityResult {
	t.Helper()
	require.NoError(t, m.Mint(tokenA, alice, big.NewInt(amountA)))
	require.NoError(t, m.Mint(tokenB, alice, big.NewInt(amountB)))
	require.NoError(t, m.Approve(tokenA, alice, m.RouterAddress(), big.NewInt(amountA)))
	require.NoError(t, m.Approve(tokenB, alice, m.RouterAddress(), big.NewInt(amountB)))

	s := begin(t, m, alice)
	result, err := s.Router(m.RouterAddress()).AddLiquidity(context.Background(), dex.AddLiquidityParams{
		TokenA:         tokenA,
		TokenB:         tokenB,
		AmountADesired: big.NewInt(amountA),
		AmountBDesired: big.NewInt(amountB),
		To:             alice,
		Deadline:       deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	return result
}

func TestGetAmountOut(t *testing.T) {
	out, err := GetAmountOut(big.NewInt(1000), big.NewInt(100_000), big.NewInt(100_000))
	require.NoError(t, err)
	assert.Equal(t, int64(987), out.Int64())

	_, err = GetAmountOut(big.NewInt(0), big.NewInt(1), big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientInputAmount)

	_, err = GetAmountOut(big.NewInt(1), big.NewInt(0), big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestQuote(t *testing.T) {
	out, err := Quote(big.NewInt(50), big.NewInt(100), big.NewInt(400))
	require.NoError(t, err)
	assert.Equal(t, int64(200), out.Int64())
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	m, token, _ := setup(t)
	require.NoError(t, m.Mint(token, alice, big.NewInt(100)))
	require.NoError(t, m.Approve(token, alice, bob, big.NewInt(50)))

	s := begin(t, m, bob)
	defer s.Commit()
	erc20 := s.Token(token)

	err := erc20.TransferFrom(context.Background(), alice, bob, big.NewInt(60))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, erc20.TransferFrom(context.Background(), alice, bob, big.NewInt(50)))
	assert.Equal(t, int64(50), m.BalanceOf(token, bob).Int64())
	assert.Equal(t, int64(50), m.BalanceOf(token, alice).Int64())
	assert.Zero(t, m.Allowance(token, alice, bob).Sign())
}

func TestInfiniteAllowanceIsNotSpent(t *testing.T) {
	m, token, _ := setup(t)
	require.NoError(t, m.Mint(token, alice, big.NewInt(100)))
	require.NoError(t, m.Approve(token, alice, bob, math.MaxBig256))

	s := begin(t, m, bob)
	require.NoError(t, s.Token(token).TransferFrom(context.Background(), alice, bob, big.NewInt(100)))
	require.NoError(t, s.Commit())

	assert.Zero(t, math.MaxBig256.Cmp(m.Allowance(token, alice, bob)))
}

func TestTransferFailsWithoutBalance(t *testing.T) {
	m, token, _ := setup(t)

	s := begin(t, m, alice)
	defer s.Commit()

	err := s.Token(token).Transfer(context.Background(), bob, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = s.Token(common.HexToAddress("0xdead")).Transfer(context.Background(), bob, big.NewInt(1))
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestFirstMintLocksMinimumLiquidity(t *testing.T) {
	m, tokenA, tokenB := setup(t)
	result := seed(t, m, tokenA, tokenB, 10_000, 40_000)

	assert.Equal(t, int64(19_000), result.Liquidity.Int64())
	assert.Equal(t, int64(10_000), result.AmountA.Int64())
	assert.Equal(t, int64(40_000), result.AmountB.Int64())

	pair, ok := m.Pair(tokenA, tokenB)
	require.True(t, ok)
	reserveA, reserveB := pair.Reserves(tokenA)
	assert.Equal(t, int64(10_000), reserveA.Int64())
	assert.Equal(t, int64(40_000), reserveB.Int64())

	assert.Equal(t, int64(19_000), m.BalanceOf(pair.PairAddress, alice).Int64())
	assert.Equal(t, MinimumLiquidity.Int64(), m.BalanceOf(pair.PairAddress, common.Address{}).Int64())
	assert.Equal(t, int64(20_000), m.TotalSupply(pair.PairAddress).Int64())
}

func TestAddLiquidityQuotesAgainstReserves(t *testing.T) {
	m, tokenA, tokenB := setup(t)
	seed(t, m, tokenA, tokenB, 10_000, 40_000)

	require.NoError(t, m.Mint(tokenA, bob, big.NewInt(1_000)))
	require.NoError(t, m.Mint(tokenB, bob, big.NewInt(8_000)))
	require.NoError(t, m.Approve(tokenA, bob, m.RouterAddress(), big.NewInt(1_000)))
	require.NoError(t, m.Approve(tokenB, bob, m.RouterAddress(), big.NewInt(8_000)))

	s := begin(t, m, bob)
	result, err := s.Router(m.RouterAddress()).AddLiquidity(context.Background(), dex.AddLiquidityParams{
		TokenA:         tokenA,
		TokenB:         tokenB,
		AmountADesired: big.NewInt(1_000),
		AmountBDesired: big.NewInt(8_000),
		AmountAMin:     big.NewInt(500),
		AmountBMin:     big.NewInt(4_000),
		To:             bob,
		Deadline:       deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	assert.Equal(t, int64(1_000), result.AmountA.Int64())
	assert.Equal(t, int64(4_000), result.AmountB.Int64())
	assert.Equal(t, int64(2_000), result.Liquidity.Int64())
	assert.Equal(t, int64(4_000), m.BalanceOf(tokenB, bob).Int64())
	assert.Equal(t, int64(4_000), m.Allowance(tokenB, bob, m.RouterAddress()).Int64())
}

func TestRemoveLiquidity(t *testing.T) {
	m, tokenA, tokenB := setup(t)
	seed(t, m, tokenA, tokenB, 10_000, 40_000)
	pair, _ := m.Pair(tokenA, tokenB)

	s := begin(t, m, alice)
	require.NoError(t, s.Token(pair.PairAddress).Approve(context.Background(), m.RouterAddress(), big.NewInt(19_000)))
	result, err := s.Router(m.RouterAddress()).RemoveLiquidity(context.Background(), dex.RemoveLiquidityParams{
		TokenA:     tokenB,
		TokenB:     tokenA,
		Liquidity:  big.NewInt(19_000),
		AmountAMin: big.NewInt(1),
		AmountBMin: big.NewInt(1),
		To:         alice,
		Deadline:   deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	assert.Equal(t, int64(38_000), result.AmountA.Int64())
	assert.Equal(t, int64(9_500), result.AmountB.Int64())
	assert.Equal(t, int64(9_500), m.BalanceOf(tokenA, alice).Int64())
	assert.Equal(t, int64(38_000), m.BalanceOf(tokenB, alice).Int64())
	assert.Equal(t, MinimumLiquidity.Int64(), m.TotalSupply(pair.PairAddress).Int64())
}

func TestRemoveLiquidityWithoutPair(t *testing.T) {
	m, tokenA, tokenB := setup(t)

	s := begin(t, m, alice)
	defer s.Rollback(context.Background())

	_, err := s.Router(m.RouterAddress()).RemoveLiquidity(context.Background(), dex.RemoveLiquidityParams{
		TokenA:    tokenA,
		TokenB:    tokenB,
		Liquidity: big.NewInt(1),
		To:        alice,
		Deadline:  deadline(m),
	})
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestSwapExactTokensForTokens(t *testing.T) {
	m, tokenA, tokenB := setup(t)
	seed(t, m, tokenA, tokenB, 100_000, 100_000)

	require.NoError(t, m.Mint(tokenA, bob, big.NewInt(1_000)))
	require.NoError(t, m.Approve(tokenA, bob, m.RouterAddress(), big.NewInt(1_000)))

	s := begin(t, m, bob)
	amounts, err := s.Router(m.RouterAddress()).SwapExactTokensForTokens(context.Background(), dex.SwapParams{
		AmountIn:     big.NewInt(1_000),
		AmountOutMin: big.NewInt(987),
		Path:         []common.Address{tokenA, tokenB},
		To:           bob,
		Deadline:     deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	require.Len(t, amounts, 2)
	assert.Equal(t, int64(987), amounts[1].Int64())
	assert.Equal(t, int64(987), m.BalanceOf(tokenB, bob).Int64())
	assert.Zero(t, m.BalanceOf(tokenA, bob).Sign())

	pair, _ := m.Pair(tokenA, tokenB)
	reserveA, reserveB := pair.Reserves(tokenA)
	assert.Equal(t, int64(101_000), reserveA.Int64())
	assert.Equal(t, int64(99_013), reserveB.Int64())
}

func TestSwapRejections(t *testing.T) {
	m, tokenA, tokenB := setup(t)
	seed(t, m, tokenA, tokenB, 100_000, 100_000)
	require.NoError(t, m.Mint(tokenA, bob, big.NewInt(1_000)))
	require.NoError(t, m.Approve(tokenA, bob, m.RouterAddress(), big.NewInt(1_000)))

	tests := []struct {
		name   string
		params dex.SwapParams
		err    error
	}{
		{
			name: "output below minimum",
			params: dex.SwapParams{
				AmountIn: big.NewInt(1_000), AmountOutMin: big.NewInt(988),
				Path: []common.Address{tokenA, tokenB}, To: bob, Deadline: deadline(m),
			},
			err: ErrInsufficientOutputAmount,
		},
		{
			name: "expired",
			params: dex.SwapParams{
				AmountIn: big.NewInt(1_000), AmountOutMin: big.NewInt(0),
				Path: []common.Address{tokenA, tokenB}, To: bob, Deadline: new(big.Int).Sub(deadline(m), common.Big1),
			},
			err: ErrExpired,
		},
		{
			name: "short path",
			params: dex.SwapParams{
				AmountIn: big.NewInt(1_000), AmountOutMin: big.NewInt(0),
				Path: []common.Address{tokenA}, To: bob, Deadline: deadline(m),
			},
			err: ErrInvalidPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := begin(t, m, bob)
			_, err := s.Router(m.RouterAddress()).SwapExactTokensForTokens(context.Background(), tt.params)
			assert.ErrorIs(t, err, tt.err)
			require.NoError(t, s.Rollback(context.Background()))
			assert.Equal(t, int64(1_000), m.BalanceOf(tokenA, bob).Int64())
		})
	}
}

func TestETHLiquidityAndSwap(t *testing.T) {
	m, token, _ := setup(t)
	weth := m.WETHAddress()
	router := m.RouterAddress()

	require.NoError(t, m.Mint(token, alice, big.NewInt(20_000)))
	require.NoError(t, m.Approve(token, alice, router, big.NewInt(20_000)))
	m.SetNativeBalance(alice, big.NewInt(6_000))

	s := begin(t, m, alice)
	added, err := s.Router(router).AddLiquidityETH(context.Background(), big.NewInt(5_000), dex.AddLiquidityETHParams{
		Token:              token,
		AmountTokenDesired: big.NewInt(20_000),
		To:                 alice,
		Deadline:           deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	assert.Equal(t, int64(9_000), added.Liquidity.Int64())
	assert.Equal(t, int64(1_000), m.NativeBalance(alice).Int64())
	pair, ok := m.Pair(token, weth)
	require.True(t, ok)
	assert.Equal(t, int64(5_000), m.BalanceOf(weth, pair.PairAddress).Int64())

	s = begin(t, m, alice)
	require.NoError(t, s.Token(pair.PairAddress).Approve(context.Background(), router, big.NewInt(9_000)))
	removed, err := s.Router(router).RemoveLiquidityETH(context.Background(), dex.RemoveLiquidityETHParams{
		Token:          token,
		Liquidity:      big.NewInt(9_000),
		AmountTokenMin: big.NewInt(1),
		AmountETHMin:   big.NewInt(1),
		To:             alice,
		Deadline:       deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())

	assert.Equal(t, int64(18_000), removed.AmountA.Int64())
	assert.Equal(t, int64(4_500), removed.AmountB.Int64())
	assert.Equal(t, int64(5_500), m.NativeBalance(alice).Int64())
	assert.Equal(t, int64(500), m.NativeBalance(weth).Int64())

	require.NoError(t, m.Mint(token, bob, big.NewInt(100)))
	require.NoError(t, m.Approve(token, bob, router, big.NewInt(100)))
	s = begin(t, m, bob)
	amounts, err := s.Router(router).SwapExactTokensForETH(context.Background(), dex.SwapParams{
		AmountIn:     big.NewInt(100),
		AmountOutMin: big.NewInt(1),
		Path:         []common.Address{token, weth},
		To:           bob,
		Deadline:     deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Commit())
	assert.Zero(t, amounts[1].Cmp(m.NativeBalance(bob)))
}

func TestRollbackRevertsSession(t *testing.T) {
	m, tokenA, tokenB := setup(t)
	require.NoError(t, m.Mint(tokenA, alice, big.NewInt(10_000)))
	require.NoError(t, m.Mint(tokenB, alice, big.NewInt(10_000)))
	require.NoError(t, m.Approve(tokenA, alice, m.RouterAddress(), big.NewInt(10_000)))
	require.NoError(t, m.Approve(tokenB, alice, m.RouterAddress(), big.NewInt(10_000)))

	s := begin(t, m, alice)
	_, err := s.Router(m.RouterAddress()).AddLiquidity(context.Background(), dex.AddLiquidityParams{
		TokenA:         tokenA,
		TokenB:         tokenB,
		AmountADesired: big.NewInt(10_000),
		AmountBDesired: big.NewInt(10_000),
		To:             alice,
		Deadline:       deadline(m),
	})
	require.NoError(t, err)
	require.NoError(t, s.Token(tokenA).Approve(context.Background(), bob, big.NewInt(7)))
	require.NoError(t, s.Rollback(context.Background()))

	_, exists := m.Pair(tokenA, tokenB)
	assert.False(t, exists)
	assert.Equal(t, int64(10_000), m.BalanceOf(tokenA, alice).Int64())
	assert.Equal(t, int64(10_000), m.BalanceOf(tokenB, alice).Int64())
	assert.Equal(t, int64(10_000), m.Allowance(tokenA, alice, m.RouterAddress()).Int64())
	assert.Zero(t, m.Allowance(tokenA, alice, bob).Sign())

	s = begin(t, m, alice)
	f := s.Factory(m.FactoryAddress())
	pair, err := f.GetPair(context.Background(), tokenA, tokenB)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, pair)
	require.NoError(t, s.Commit())
}

func TestSessionClosesOnce(t *testing.T) {
	m, _, _ := setup(t)

	s := begin(t, m, alice)
	require.NoError(t, s.Commit())
	assert.ErrorIs(t, s.Commit(), ErrSessionClosed)
	assert.ErrorIs(t, s.Rollback(context.Background()), ErrSessionClosed)

	s = begin(t, m, alice)
	require.NoError(t, s.Rollback(context.Background()))
}

func TestUnknownRouter(t *testing.T) {
	m, _, _ := setup(t)

	s := begin(t, m, alice)
	defer s.Commit()

	_, err := s.Router(bob).WETH(context.Background())
	assert.ErrorIs(t, err, ErrNoCode)
	weth, err := s.Router(m.RouterAddress()).WETH(context.Background())
	require.NoError(t, err)
	assert.Equal(t, m.WETHAddress(), weth)
}

func TestHelpersWaitForOpenSession(t *testing.T) {
	m, tokenA, _ := setup(t)
	require.NoError(t, m.Mint(tokenA, alice, big.NewInt(100)))

	s := begin(t, m, alice)
	require.NoError(t, s.Token(tokenA).Transfer(context.Background(), bob, big.NewInt(40)))

	minted := make(chan error, 1)
	go func() {
		minted <- m.Mint(tokenA, bob, big.NewInt(5))
	}()
	select {
	case <-minted:
		t.Fatal("mint ran inside an open session")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.Rollback(context.Background()))
	require.NoError(t, <-minted)
	assert.Equal(t, int64(100), m.BalanceOf(tokenA, alice).Int64())
	assert.Equal(t, int64(5), m.BalanceOf(tokenA, bob).Int64())
}

func TestFailedHelperLeavesNoChange(t *testing.T) {
	m, tokenA, _ := setup(t)
	assert.ErrorIs(t, m.Mint(bob, alice, big.NewInt(5)), ErrNoCode)
	assert.Error(t, m.Mint(tokenA, alice, big.NewInt(-5)))
	assert.Zero(t, m.BalanceOf(tokenA, alice).Sign())
	assert.Zero(t, m.TotalSupply(tokenA).Sign())
}
