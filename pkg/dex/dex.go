// Package dex defines the capabilities the forwarder drives: a UniswapV2 style
// router and factory, ERC-20 tokens, and the session that scopes one forwarded
// call into a single all-or-nothing unit of work.
package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ERC20 is a token bound to the acting account of a session.
type ERC20 interface {
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) error
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// Factory resolves trading pairs. GetPair returns the zero address when the
// pair was never created.
type Factory interface {
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

// Router executes liquidity and swap operations on behalf of the acting account.
type Router interface {
	WETH(ctx context.Context) (common.Address, error)
	AddLiquidity(ctx context.Context, p AddLiquidityParams) (*AddLiquidityResult, error)
	AddLiquidityETH(ctx context.Context, value *big.Int, p AddLiquidityETHParams) (*AddLiquidityResult, error)
	RemoveLiquidity(ctx context.Context, p RemoveLiquidityParams) (*RemoveLiquidityResult, error)
	RemoveLiquidityETH(ctx context.Context, p RemoveLiquidityETHParams) (*RemoveLiquidityResult, error)
	SwapExactTokensForTokens(ctx context.Context, p SwapParams) ([]*big.Int, error)
	SwapExactTokensForETH(ctx context.Context, p SwapParams) ([]*big.Int, error)
}

// Session is one unit of work. Every capability handed out by a session acts
// as Self. Either Commit or Rollback must be called exactly once.
type Session interface {
	Self() common.Address
	// Now is the block time the session executes at.
	Now(ctx context.Context) (*big.Int, error)
	// ReceiveValue moves native currency attached to a call from the caller into Self.
	ReceiveValue(ctx context.Context, from common.Address, value *big.Int) error

	Token(address common.Address) ERC20
	Router(address common.Address) Router
	Factory(address common.Address) Factory

	Commit() error
	Rollback(ctx context.Context) error
}

type Backend interface {
	Begin(ctx context.Context) (Session, error)
}
