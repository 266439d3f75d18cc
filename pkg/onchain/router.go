package onchain

import (
	"context"
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/binding"
	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type router struct {
	session *session
	address common.Address
	weth    common.Address
}

func (r *router) contract() (*binding.UniV2Router, error) {
	return r.session.backend.binding.RouterContract(r.address)
}

func (r *router) WETH(ctx context.Context) (common.Address, error) {
	if r.weth != (common.Address{}) {
		return r.weth, nil
	}
	contract, err := r.contract()
	if err != nil {
		return common.Address{}, err
	}
	weth, err := contract.WETH(r.session.callOpts(ctx))
	if err != nil {
		return common.Address{}, err
	}
	r.weth = weth
	return weth, nil
}

func (r *router) AddLiquidity(ctx context.Context, p dex.AddLiquidityParams) (*dex.AddLiquidityResult, error) {
	contract, err := r.contract()
	if err != nil {
		return nil, err
	}
	receipt, err := r.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return contract.AddLiquidity(opts, p.TokenA, p.TokenB, p.AmountADesired, p.AmountBDesired, p.AmountAMin, p.AmountBMin, p.To, p.Deadline)
	})
	if err != nil {
		return nil, err
	}
	r.logReserves(receipt.Logs)
	return decodeAddLiquidity(r.session.backend.binding, receipt.Logs, p.TokenA, p.TokenB, p.To)
}

func (r *router) AddLiquidityETH(ctx context.Context, value *big.Int, p dex.AddLiquidityETHParams) (*dex.AddLiquidityResult, error) {
	contract, err := r.contract()
	if err != nil {
		return nil, err
	}
	weth, err := r.WETH(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := r.session.backend.send(ctx, value, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return contract.AddLiquidityETH(opts, p.Token, p.AmountTokenDesired, p.AmountTokenMin, p.AmountETHMin, p.To, p.Deadline)
	})
	if err != nil {
		return nil, err
	}
	r.logReserves(receipt.Logs)
	return decodeAddLiquidity(r.session.backend.binding, receipt.Logs, p.Token, weth, p.To)
}

func (r *router) RemoveLiquidity(ctx context.Context, p dex.RemoveLiquidityParams) (*dex.RemoveLiquidityResult, error) {
	contract, err := r.contract()
	if err != nil {
		return nil, err
	}
	receipt, err := r.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return contract.RemoveLiquidity(opts, p.TokenA, p.TokenB, p.Liquidity, p.AmountAMin, p.AmountBMin, p.To, p.Deadline)
	})
	if err != nil {
		return nil, err
	}
	r.logReserves(receipt.Logs)
	return decodeRemoveLiquidity(r.session.backend.binding, receipt.Logs, p.TokenA, p.TokenB)
}

func (r *router) RemoveLiquidityETH(ctx context.Context, p dex.RemoveLiquidityETHParams) (*dex.RemoveLiquidityResult, error) {
	contract, err := r.contract()
	if err != nil {
		return nil, err
	}
	weth, err := r.WETH(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := r.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return contract.RemoveLiquidityETH(opts, p.Token, p.Liquidity, p.AmountTokenMin, p.AmountETHMin, p.To, p.Deadline)
	})
	if err != nil {
		return nil, err
	}
	r.logReserves(receipt.Logs)
	return decodeRemoveLiquidity(r.session.backend.binding, receipt.Logs, p.Token, weth)
}

func (r *router) SwapExactTokensForTokens(ctx context.Context, p dex.SwapParams) ([]*big.Int, error) {
	contract, err := r.contract()
	if err != nil {
		return nil, err
	}
	receipt, err := r.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return contract.SwapExactTokensForTokens(opts, p.AmountIn, p.AmountOutMin, p.Path, p.To, p.Deadline)
	})
	if err != nil {
		return nil, err
	}
	r.logReserves(receipt.Logs)
	return decodeSwapAmounts(r.session.backend.binding, receipt.Logs, p.AmountIn, len(p.Path))
}

func (r *router) SwapExactTokensForETH(ctx context.Context, p dex.SwapParams) ([]*big.Int, error) {
	contract, err := r.contract()
	if err != nil {
		return nil, err
	}
	receipt, err := r.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return contract.SwapExactTokensForETH(opts, p.AmountIn, p.AmountOutMin, p.Path, p.To, p.Deadline)
	})
	if err != nil {
		return nil, err
	}
	r.logReserves(receipt.Logs)
	return decodeSwapAmounts(r.session.backend.binding, receipt.Logs, p.AmountIn, len(p.Path))
}

// logReserves reports the reserves each touched pair settled at.
func (r *router) logReserves(logs []*types.Log) {
	reserves, err := syncedReserves(r.session.backend.binding, logs)
	if err != nil {
		r.session.backend.log.Warn("Failed to decode Sync events", "err", err)
		return
	}
	for pair, sync := range reserves {
		r.session.backend.log.Debug("Pair synced", "pair", pair, "reserve0", sync.Reserve0, "reserve1", sync.Reserve1)
	}
}
