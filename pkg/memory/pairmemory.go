package memory

import (
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/chain"
	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// MinimumLiquidity is locked to the zero address by the first mint of a pair.
var MinimumLiquidity = big.NewInt(1000)

type PairMemory struct {
	//key is pair address -> t0+t1
	PairMap map[common.Address]string

	//key is t0+t1 -> pair data
	Pairs map[string]*types.Pair
}

// Pair returns a copy of the tokenA/tokenB pair state.
func (m *Memory) Pair(tokenA, tokenB common.Address) (types.Pair, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, exists := m.pairByTokens(tokenA, tokenB)
	if !exists {
		return types.Pair{}, false
	}
	cp := *pair
	cp.Reserve0 = new(big.Int).Set(pair.Reserve0)
	cp.Reserve1 = new(big.Int).Set(pair.Reserve1)
	return cp, true
}

func (m *Memory) pairByTokens(tokenA, tokenB common.Address) (*types.Pair, bool) {
	pair, exists := m.pairs.Pairs[chain.PairKey(tokenA, tokenB)]
	return pair, exists
}

func (m *Memory) setReserves(pair *types.Pair, balance0, balance1 *big.Int) {
	prev0, prev1, prevUpdated := pair.Reserve0, pair.Reserve1, pair.LastUpdated
	m.record(func() {
		pair.Reserve0 = prev0
		pair.Reserve1 = prev1
		pair.LastUpdated = prevUpdated
	})
	pair.Reserve0 = new(big.Int).Set(balance0)
	pair.Reserve1 = new(big.Int).Set(balance1)
	pair.LastUpdated = m.now
}

func (m *Memory) pairBalances(pair *types.Pair) (*big.Int, *big.Int) {
	return m.balanceOf(pair.Token0Address, pair.PairAddress), m.balanceOf(pair.Token1Address, pair.PairAddress)
}

// mintLiquidity mints LP tokens for whatever the pair received above its reserves.
func (m *Memory) mintLiquidity(pair *types.Pair, to common.Address) (*big.Int, error) {
	balance0, balance1 := m.pairBalances(pair)
	amount0 := new(big.Int).Sub(balance0, pair.Reserve0)
	amount1 := new(big.Int).Sub(balance1, pair.Reserve1)
	supply := m.totalSupply(pair.PairAddress)

	var liquidity *big.Int
	if supply.Sign() == 0 {
		liquidity = new(big.Int).Sqrt(new(big.Int).Mul(amount0, amount1))
		liquidity.Sub(liquidity, MinimumLiquidity)
		if liquidity.Sign() <= 0 {
			return nil, ErrInsufficientLiquidityMinted
		}
		if err := m.mint(pair.PairAddress, common.Address{}, MinimumLiquidity); err != nil {
			return nil, err
		}
	} else {
		liquidity0 := new(big.Int).Div(new(big.Int).Mul(amount0, supply), pair.Reserve0)
		liquidity1 := new(big.Int).Div(new(big.Int).Mul(amount1, supply), pair.Reserve1)
		liquidity = liquidity0
		if liquidity1.Cmp(liquidity0) < 0 {
			liquidity = liquidity1
		}
	}
	if liquidity.Sign() <= 0 {
		return nil, ErrInsufficientLiquidityMinted
	}
	if err := m.mint(pair.PairAddress, to, liquidity); err != nil {
		return nil, err
	}
	m.setReserves(pair, balance0, balance1)
	return liquidity, nil
}

// burnLiquidity burns the LP tokens held by the pair itself and pays out the
// proportional share of both reserves.
func (m *Memory) burnLiquidity(pair *types.Pair, to common.Address) (*big.Int, *big.Int, error) {
	balance0, balance1 := m.pairBalances(pair)
	liquidity := m.balanceOf(pair.PairAddress, pair.PairAddress)
	supply := m.totalSupply(pair.PairAddress)
	if supply.Sign() == 0 {
		return nil, nil, ErrInsufficientLiquidityBurned
	}

	amount0 := new(big.Int).Div(new(big.Int).Mul(liquidity, balance0), supply)
	amount1 := new(big.Int).Div(new(big.Int).Mul(liquidity, balance1), supply)
	if amount0.Sign() <= 0 || amount1.Sign() <= 0 {
		return nil, nil, ErrInsufficientLiquidityBurned
	}
	if err := m.burn(pair.PairAddress, pair.PairAddress, liquidity); err != nil {
		return nil, nil, err
	}
	if err := m.transfer(pair.Token0Address, pair.PairAddress, to, amount0); err != nil {
		return nil, nil, err
	}
	if err := m.transfer(pair.Token1Address, pair.PairAddress, to, amount1); err != nil {
		return nil, nil, err
	}
	balance0, balance1 = m.pairBalances(pair)
	m.setReserves(pair, balance0, balance1)
	return amount0, amount1, nil
}

func (m *Memory) swapPair(pair *types.Pair, amount0Out, amount1Out *big.Int, to common.Address) error {
	if amount0Out.Sign() <= 0 && amount1Out.Sign() <= 0 {
		return ErrInsufficientOutputAmount
	}
	reserve0, reserve1 := pair.Reserve0, pair.Reserve1
	if amount0Out.Cmp(reserve0) >= 0 || amount1Out.Cmp(reserve1) >= 0 {
		return ErrInsufficientLiquidity
	}
	if to == pair.Token0Address || to == pair.Token1Address {
		return ErrInvalidTo
	}
	if amount0Out.Sign() > 0 {
		if err := m.transfer(pair.Token0Address, pair.PairAddress, to, amount0Out); err != nil {
			return err
		}
	}
	if amount1Out.Sign() > 0 {
		if err := m.transfer(pair.Token1Address, pair.PairAddress, to, amount1Out); err != nil {
			return err
		}
	}

	balance0, balance1 := m.pairBalances(pair)
	amount0In := amountIn(balance0, reserve0, amount0Out)
	amount1In := amountIn(balance1, reserve1, amount1Out)
	if amount0In.Sign() <= 0 && amount1In.Sign() <= 0 {
		return ErrInsufficientInputAmount
	}

	thousand := big.NewInt(1000)
	adjusted0 := new(big.Int).Sub(new(big.Int).Mul(balance0, thousand), new(big.Int).Mul(amount0In, big.NewInt(3)))
	adjusted1 := new(big.Int).Sub(new(big.Int).Mul(balance1, thousand), new(big.Int).Mul(amount1In, big.NewInt(3)))
	k := new(big.Int).Mul(new(big.Int).Mul(reserve0, reserve1), big.NewInt(1_000_000))
	if new(big.Int).Mul(adjusted0, adjusted1).Cmp(k) < 0 {
		return ErrK
	}
	m.setReserves(pair, balance0, balance1)
	return nil
}

func amountIn(balance, reserve, amountOut *big.Int) *big.Int {
	remaining := new(big.Int).Sub(reserve, amountOut)
	if balance.Cmp(remaining) > 0 {
		return new(big.Int).Sub(balance, remaining)
	}
	return new(big.Int)
}
