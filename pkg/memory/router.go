package memory

import (
	"fmt"
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/chain"
	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// The router methods below run with mu held and sender as msg.sender.

func (m *Memory) ensure(deadline *big.Int) error {
	if deadline == nil || deadline.Cmp(new(big.Int).SetUint64(m.now)) < 0 {
		return ErrExpired
	}
	return nil
}

func (m *Memory) quoteLiquidity(tokenA, tokenB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int) (*big.Int, *big.Int, *types.Pair, error) {
	pair, exists := m.pairByTokens(tokenA, tokenB)
	if !exists {
		var err error
		if pair, err = m.createPair(tokenA, tokenB); err != nil {
			return nil, nil, nil, err
		}
	}

	reserveA, reserveB := pair.Reserves(tokenA)
	if reserveA.Sign() == 0 && reserveB.Sign() == 0 {
		return amountADesired, amountBDesired, pair, nil
	}
	amountBOptimal, err := Quote(amountADesired, reserveA, reserveB)
	if err != nil {
		return nil, nil, nil, err
	}
	if amountBOptimal.Cmp(amountBDesired) <= 0 {
		if amountBOptimal.Cmp(amountBMin) < 0 {
			return nil, nil, nil, ErrInsufficientBAmount
		}
		return amountADesired, amountBOptimal, pair, nil
	}
	amountAOptimal, err := Quote(amountBDesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, nil, err
	}
	if amountAOptimal.Cmp(amountADesired) > 0 {
		return nil, nil, nil, ErrExcessiveAmount
	}
	if amountAOptimal.Cmp(amountAMin) < 0 {
		return nil, nil, nil, ErrInsufficientAAmount
	}
	return amountAOptimal, amountBDesired, pair, nil
}

func (m *Memory) addLiquidity(sender common.Address, p dex.AddLiquidityParams) (*dex.AddLiquidityResult, error) {
	if err := m.ensure(p.Deadline); err != nil {
		return nil, err
	}
	amountA, amountB, pair, err := m.quoteLiquidity(p.TokenA, p.TokenB, p.AmountADesired, p.AmountBDesired, p.AmountAMin, p.AmountBMin)
	if err != nil {
		return nil, err
	}
	if err := m.transferFrom(p.TokenA, m.dex.Router, sender, pair.PairAddress, amountA); err != nil {
		return nil, err
	}
	if err := m.transferFrom(p.TokenB, m.dex.Router, sender, pair.PairAddress, amountB); err != nil {
		return nil, err
	}
	liquidity, err := m.mintLiquidity(pair, p.To)
	if err != nil {
		return nil, err
	}
	return &dex.AddLiquidityResult{AmountA: amountA, AmountB: amountB, Liquidity: liquidity}, nil
}

func (m *Memory) addLiquidityETH(sender common.Address, value *big.Int, p dex.AddLiquidityETHParams) (*dex.AddLiquidityResult, error) {
	if err := m.ensure(p.Deadline); err != nil {
		return nil, err
	}
	router, weth := m.dex.Router, m.dex.WETH
	if err := m.nativeTransfer(sender, router, value); err != nil {
		return nil, err
	}
	amountToken, amountETH, pair, err := m.quoteLiquidity(p.Token, weth, p.AmountTokenDesired, value, p.AmountTokenMin, p.AmountETHMin)
	if err != nil {
		return nil, err
	}
	if err := m.transferFrom(p.Token, router, sender, pair.PairAddress, amountToken); err != nil {
		return nil, err
	}
	if err := m.deposit(router, amountETH); err != nil {
		return nil, err
	}
	if err := m.transfer(weth, router, pair.PairAddress, amountETH); err != nil {
		return nil, err
	}
	liquidity, err := m.mintLiquidity(pair, p.To)
	if err != nil {
		return nil, err
	}
	if value.Cmp(amountETH) > 0 {
		if err := m.nativeTransfer(router, sender, new(big.Int).Sub(value, amountETH)); err != nil {
			return nil, err
		}
	}
	return &dex.AddLiquidityResult{AmountA: amountToken, AmountB: amountETH, Liquidity: liquidity}, nil
}

func (m *Memory) removeLiquidity(sender common.Address, p dex.RemoveLiquidityParams) (*dex.RemoveLiquidityResult, error) {
	if err := m.ensure(p.Deadline); err != nil {
		return nil, err
	}
	pair, exists := m.pairByTokens(p.TokenA, p.TokenB)
	if !exists {
		return nil, ErrPairNotFound
	}
	if err := m.transferFrom(pair.PairAddress, m.dex.Router, sender, pair.PairAddress, p.Liquidity); err != nil {
		return nil, err
	}
	amount0, amount1, err := m.burnLiquidity(pair, p.To)
	if err != nil {
		return nil, err
	}
	amountA, amountB := amount0, amount1
	if p.TokenA != pair.Token0Address {
		amountA, amountB = amount1, amount0
	}
	if amountA.Cmp(p.AmountAMin) < 0 {
		return nil, ErrInsufficientAAmount
	}
	if amountB.Cmp(p.AmountBMin) < 0 {
		return nil, ErrInsufficientBAmount
	}
	return &dex.RemoveLiquidityResult{AmountA: amountA, AmountB: amountB}, nil
}

func (m *Memory) removeLiquidityETH(sender common.Address, p dex.RemoveLiquidityETHParams) (*dex.RemoveLiquidityResult, error) {
	router := m.dex.Router
	result, err := m.removeLiquidity(sender, dex.RemoveLiquidityParams{
		TokenA:     p.Token,
		TokenB:     m.dex.WETH,
		Liquidity:  p.Liquidity,
		AmountAMin: p.AmountTokenMin,
		AmountBMin: p.AmountETHMin,
		To:         router,
		Deadline:   p.Deadline,
	})
	if err != nil {
		return nil, err
	}
	if err := m.transfer(p.Token, router, p.To, result.AmountA); err != nil {
		return nil, err
	}
	if err := m.withdraw(router, result.AmountB); err != nil {
		return nil, err
	}
	if err := m.nativeTransfer(router, p.To, result.AmountB); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Memory) getAmountsOut(amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	amounts := make([]*big.Int, len(path))
	amounts[0] = amountIn
	for i := 0; i < len(path)-1; i++ {
		pair, exists := m.pairByTokens(path[i], path[i+1])
		if !exists {
			return nil, fmt.Errorf("%w: %s/%s", ErrPairNotFound, path[i].Hex(), path[i+1].Hex())
		}
		reserveIn, reserveOut := pair.Reserves(path[i])
		amountOut, err := GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = amountOut
	}
	return amounts, nil
}

// swap walks the path, sending each hop's output straight into the next pair.
func (m *Memory) swap(amounts []*big.Int, path []common.Address, to common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		input, output := path[i], path[i+1]
		pair, _ := m.pairByTokens(input, output)
		token0, _, _ := chain.SortAddress(input, output)

		amount0Out, amount1Out := new(big.Int), amounts[i+1]
		if input != token0 {
			amount0Out, amount1Out = amounts[i+1], new(big.Int)
		}
		recipient := to
		if i < len(path)-2 {
			next, _ := m.pairByTokens(output, path[i+2])
			recipient = next.PairAddress
		}
		if err := m.swapPair(pair, amount0Out, amount1Out, recipient); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) swapExactTokensForTokens(sender common.Address, p dex.SwapParams) ([]*big.Int, error) {
	if err := m.ensure(p.Deadline); err != nil {
		return nil, err
	}
	amounts, err := m.getAmountsOut(p.AmountIn, p.Path)
	if err != nil {
		return nil, err
	}
	if amounts[len(amounts)-1].Cmp(p.AmountOutMin) < 0 {
		return nil, ErrInsufficientOutputAmount
	}
	first, _ := m.pairByTokens(p.Path[0], p.Path[1])
	if err := m.transferFrom(p.Path[0], m.dex.Router, sender, first.PairAddress, amounts[0]); err != nil {
		return nil, err
	}
	if err := m.swap(amounts, p.Path, p.To); err != nil {
		return nil, err
	}
	return amounts, nil
}

func (m *Memory) swapExactTokensForETH(sender common.Address, p dex.SwapParams) ([]*big.Int, error) {
	if err := m.ensure(p.Deadline); err != nil {
		return nil, err
	}
	if len(p.Path) < 2 || p.Path[len(p.Path)-1] != m.dex.WETH {
		return nil, ErrInvalidPath
	}
	amounts, err := m.getAmountsOut(p.AmountIn, p.Path)
	if err != nil {
		return nil, err
	}
	amountOut := amounts[len(amounts)-1]
	if amountOut.Cmp(p.AmountOutMin) < 0 {
		return nil, ErrInsufficientOutputAmount
	}
	router := m.dex.Router
	first, _ := m.pairByTokens(p.Path[0], p.Path[1])
	if err := m.transferFrom(p.Path[0], router, sender, first.PairAddress, amounts[0]); err != nil {
		return nil, err
	}
	if err := m.swap(amounts, p.Path, router); err != nil {
		return nil, err
	}
	if err := m.withdraw(router, amountOut); err != nil {
		return nil, err
	}
	if err := m.nativeTransfer(router, p.To, amountOut); err != nil {
		return nil, err
	}
	return amounts, nil
}
