// Package forwarder moves a caller's tokens into custody, approves the router
// and forwards liquidity and swap calls to it. Each operation runs in one
// backend session and either commits as a whole or leaves no trace.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
)

const (
	MethodAddLiquidity       = "addLiquidity"
	MethodAddLiquidityETH    = "addLiquidityETH"
	MethodRemoveLiquidity    = "removeLiquidity"
	MethodRemoveLiquidityETH = "removeLiquidityETH"
	MethodSwapTokens         = "swapTokens"
	MethodSwapTokenWithETH   = "swapTokenWithETH"
)

// DefaultCleanupTimeout bounds rollback and recording after a failed call.
const DefaultCleanupTimeout = 5 * time.Minute

type Forwarder struct {
	backend dex.Backend
	router  common.Address
	factory common.Address

	allowance    AllowancePolicy
	refundUnused bool
	recorders    []Recorder

	cleanupTimeout time.Duration
	log            log.Logger
}

func New(backend dex.Backend, router, factory common.Address, opts ...Option) *Forwarder {
	f := &Forwarder{
		backend:        backend,
		router:         router,
		factory:        factory,
		allowance:      AllowanceAccumulate,
		cleanupTimeout: DefaultCleanupTimeout,
		log:            log.New("module", "forwarder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Forwarder) Router() common.Address {
	return f.router
}

func (f *Forwarder) Factory() common.Address {
	return f.factory
}

// AddLiquidity deposits amountA of tokenA and amountB of tokenB from caller
// and returns the liquidity minted to caller.
func (f *Forwarder) AddLiquidity(ctx context.Context, caller, tokenA, tokenB common.Address, amountA, amountB *big.Int) (*big.Int, error) {
	op := &types.Operation{
		Method: MethodAddLiquidity,
		Caller: caller,
		Tokens: []common.Address{tokenA, tokenB},
		Inputs: []*big.Int{amountA, amountB},
	}
	var liquidity *big.Int
	err := f.execute(ctx, op, func(s dex.Session) error {
		if err := validAmounts(amountA, amountB); err != nil {
			return err
		}
		if err := f.custody(ctx, s, caller, tokenA, amountA); err != nil {
			return err
		}
		if err := f.custody(ctx, s, caller, tokenB, amountB); err != nil {
			return err
		}
		if err := f.approveRouter(ctx, s, tokenA, amountA); err != nil {
			return err
		}
		if err := f.approveRouter(ctx, s, tokenB, amountB); err != nil {
			return err
		}
		now, err := s.Now(ctx)
		if err != nil {
			return fmt.Errorf("block time: %w", err)
		}

		result, err := s.Router(f.router).AddLiquidity(ctx, dex.AddLiquidityParams{
			TokenA:         tokenA,
			TokenB:         tokenB,
			AmountADesired: amountA,
			AmountBDesired: amountB,
			AmountAMin:     AddLiquidityMin(amountA),
			AmountBMin:     AddLiquidityMin(amountB),
			To:             caller,
			Deadline:       now,
		})
		if err != nil {
			return callError(MethodAddLiquidity, f.router, err)
		}
		if f.refundUnused {
			if err := f.refund(ctx, s, caller, tokenA, amountA, result.AmountA); err != nil {
				return err
			}
			if err := f.refund(ctx, s, caller, tokenB, amountB, result.AmountB); err != nil {
				return err
			}
		}

		liquidity = result.Liquidity
		op.Outputs = []*big.Int{result.AmountA, result.AmountB, result.Liquidity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return liquidity, nil
}

// AddLiquidityETH deposits amountIn of token together with value of native
// currency. Any pool ratio is accepted.
func (f *Forwarder) AddLiquidityETH(ctx context.Context, caller, token common.Address, amountIn, value *big.Int) (*big.Int, error) {
	op := &types.Operation{
		Method: MethodAddLiquidityETH,
		Caller: caller,
		Tokens: []common.Address{token},
		Inputs: []*big.Int{amountIn, value},
	}
	var liquidity *big.Int
	err := f.execute(ctx, op, func(s dex.Session) error {
		if err := validAmounts(amountIn, value); err != nil {
			return err
		}
		if err := s.ReceiveValue(ctx, caller, value); err != nil {
			return callError("receiveValue", caller, err)
		}
		if err := f.custody(ctx, s, caller, token, amountIn); err != nil {
			return err
		}
		if err := f.approveRouter(ctx, s, token, amountIn); err != nil {
			return err
		}
		now, err := s.Now(ctx)
		if err != nil {
			return fmt.Errorf("block time: %w", err)
		}

		result, err := s.Router(f.router).AddLiquidityETH(ctx, value, dex.AddLiquidityETHParams{
			Token:              token,
			AmountTokenDesired: amountIn,
			AmountTokenMin:     AddLiquidityETHMin(),
			AmountETHMin:       AddLiquidityETHMin(),
			To:                 caller,
			Deadline:           now,
		})
		if err != nil {
			return callError(MethodAddLiquidityETH, f.router, err)
		}
		if f.refundUnused {
			if err := f.refund(ctx, s, caller, token, amountIn, result.AmountA); err != nil {
				return err
			}
		}

		liquidity = result.Liquidity
		op.Outputs = []*big.Int{result.AmountA, result.AmountB, result.Liquidity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return liquidity, nil
}

// RemoveLiquidity burns liquidity of the tokenA/tokenB pair held by caller
// and pays both tokens back to caller.
func (f *Forwarder) RemoveLiquidity(ctx context.Context, caller, tokenA, tokenB common.Address, liquidity *big.Int) (*big.Int, *big.Int, error) {
	op := &types.Operation{
		Method: MethodRemoveLiquidity,
		Caller: caller,
		Tokens: []common.Address{tokenA, tokenB},
		Inputs: []*big.Int{liquidity},
	}
	var amountA, amountB *big.Int
	err := f.execute(ctx, op, func(s dex.Session) error {
		if err := validAmounts(liquidity); err != nil {
			return err
		}
		pair, err := f.pairFor(ctx, s, tokenA, tokenB)
		if err != nil {
			return err
		}
		if err := f.custody(ctx, s, caller, pair, liquidity); err != nil {
			return err
		}
		if err := f.approveRouter(ctx, s, pair, liquidity); err != nil {
			return err
		}
		now, err := s.Now(ctx)
		if err != nil {
			return fmt.Errorf("block time: %w", err)
		}

		result, err := s.Router(f.router).RemoveLiquidity(ctx, dex.RemoveLiquidityParams{
			TokenA:     tokenA,
			TokenB:     tokenB,
			Liquidity:  liquidity,
			AmountAMin: RemoveLiquidityMin(),
			AmountBMin: RemoveLiquidityMin(),
			To:         caller,
			Deadline:   now,
		})
		if err != nil {
			return callError(MethodRemoveLiquidity, f.router, err)
		}

		amountA, amountB = result.AmountA, result.AmountB
		op.Outputs = []*big.Int{amountA, amountB}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return amountA, amountB, nil
}

// RemoveLiquidityETH burns liquidity of the token/WETH pair and pays caller
// in token and native currency.
func (f *Forwarder) RemoveLiquidityETH(ctx context.Context, caller, token common.Address, liquidity *big.Int) (*big.Int, *big.Int, error) {
	op := &types.Operation{
		Method: MethodRemoveLiquidityETH,
		Caller: caller,
		Tokens: []common.Address{token},
		Inputs: []*big.Int{liquidity},
	}
	var amountToken, amountETH *big.Int
	err := f.execute(ctx, op, func(s dex.Session) error {
		if err := validAmounts(liquidity); err != nil {
			return err
		}
		router := s.Router(f.router)
		weth, err := router.WETH(ctx)
		if err != nil {
			return callError("WETH", f.router, err)
		}
		op.Tokens = append(op.Tokens, weth)

		pair, err := f.pairFor(ctx, s, token, weth)
		if err != nil {
			return err
		}
		if err := f.custody(ctx, s, caller, pair, liquidity); err != nil {
			return err
		}
		if err := f.approveRouter(ctx, s, pair, liquidity); err != nil {
			return err
		}
		now, err := s.Now(ctx)
		if err != nil {
			return fmt.Errorf("block time: %w", err)
		}

		result, err := router.RemoveLiquidityETH(ctx, dex.RemoveLiquidityETHParams{
			Token:          token,
			Liquidity:      liquidity,
			AmountTokenMin: RemoveLiquidityMin(),
			AmountETHMin:   RemoveLiquidityMin(),
			To:             caller,
			Deadline:       now,
		})
		if err != nil {
			return callError(MethodRemoveLiquidityETH, f.router, err)
		}

		amountToken, amountETH = result.AmountA, result.AmountB
		op.Outputs = []*big.Int{amountToken, amountETH}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return amountToken, amountETH, nil
}

// SwapTokens sells exactly amountIn of tokenIn for at least minAmountOut of
// tokenOut, paid to caller.
func (f *Forwarder) SwapTokens(ctx context.Context, caller, tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int) (*big.Int, error) {
	return f.swap(ctx, MethodSwapTokens, caller, []common.Address{tokenIn, tokenOut}, amountIn, minAmountOut)
}

// SwapTokenWithETH sells exactly amountIn of token for native currency
// through the token/weth pair.
func (f *Forwarder) SwapTokenWithETH(ctx context.Context, caller, weth, token common.Address, amountIn, minAmountOut *big.Int) (*big.Int, error) {
	return f.swap(ctx, MethodSwapTokenWithETH, caller, []common.Address{token, weth}, amountIn, minAmountOut)
}

func (f *Forwarder) swap(ctx context.Context, method string, caller common.Address, path []common.Address, amountIn, minAmountOut *big.Int) (*big.Int, error) {
	op := &types.Operation{
		Method: method,
		Caller: caller,
		Tokens: path,
		Inputs: []*big.Int{amountIn, minAmountOut},
	}
	var amountOut *big.Int
	err := f.execute(ctx, op, func(s dex.Session) error {
		if err := validAmounts(amountIn, minAmountOut); err != nil {
			return err
		}
		if err := f.custody(ctx, s, caller, path[0], amountIn); err != nil {
			return err
		}
		if err := f.approveRouter(ctx, s, path[0], amountIn); err != nil {
			return err
		}
		now, err := s.Now(ctx)
		if err != nil {
			return fmt.Errorf("block time: %w", err)
		}

		params := dex.SwapParams{
			AmountIn:     amountIn,
			AmountOutMin: minAmountOut,
			Path:         path,
			To:           caller,
			Deadline:     now,
		}
		var amounts []*big.Int
		if method == MethodSwapTokenWithETH {
			amounts, err = s.Router(f.router).SwapExactTokensForETH(ctx, params)
		} else {
			amounts, err = s.Router(f.router).SwapExactTokensForTokens(ctx, params)
		}
		if err != nil {
			return callError(method, f.router, err)
		}
		if len(amounts) != len(path) {
			return callError(method, f.router, fmt.Errorf("router returned %d amounts for a %d token path", len(amounts), len(path)))
		}

		amountOut = amounts[len(amounts)-1]
		op.Outputs = []*big.Int{amountOut}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amountOut, nil
}

// execute runs fn in a fresh session, commits on success and rolls back on
// any error. The operation is recorded either way.
func (f *Forwarder) execute(ctx context.Context, op *types.Operation, fn func(s dex.Session) error) (err error) {
	op.ID = uuid.New()
	op.StartedAt = time.Now()
	defer func() {
		op.Duration = time.Since(op.StartedAt)
		op.Err = err
		recordCtx, cancel := f.cleanupContext(ctx)
		defer cancel()
		f.record(recordCtx, op)
	}()

	s, err := f.backend.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op.Method, err)
	}
	if err := fn(s); err != nil {
		rollbackCtx, cancel := f.cleanupContext(ctx)
		defer cancel()
		if rollbackErr := s.Rollback(rollbackCtx); rollbackErr != nil {
			return errors.Join(err, fmt.Errorf("rollback %s: %w", op.Method, rollbackErr))
		}
		return err
	}
	if err := s.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op.Method, err)
	}
	return nil
}

// cleanupContext outlives a cancelled ctx so rollback and recording still
// reach the backend, bounded by the cleanup timeout.
func (f *Forwarder) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), f.cleanupTimeout)
}

func (f *Forwarder) record(ctx context.Context, op *types.Operation) {
	if op.Failed() {
		f.log.Warn("Operation reverted", "id", op.ID, "method", op.Method, "caller", op.Caller, "err", op.Err)
	} else {
		f.log.Info("Operation forwarded", "id", op.ID, "method", op.Method, "caller", op.Caller, "outputs", op.Outputs, "elapsed", op.Duration)
	}
	for _, recorder := range f.recorders {
		if err := recorder.Record(ctx, op); err != nil {
			f.log.Error("Failed to record operation", "id", op.ID, "err", err)
		}
	}
}

func (f *Forwarder) pairFor(ctx context.Context, s dex.Session, tokenA, tokenB common.Address) (common.Address, error) {
	pair, err := s.Factory(f.factory).GetPair(ctx, tokenA, tokenB)
	if err != nil {
		return common.Address{}, callError("getPair", f.factory, err)
	}
	if pair == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s/%s", ErrPairNotFound, tokenA.Hex(), tokenB.Hex())
	}
	return pair, nil
}

func (f *Forwarder) custody(ctx context.Context, s dex.Session, caller, token common.Address, amount *big.Int) error {
	return callError("transferFrom", token, s.Token(token).TransferFrom(ctx, caller, s.Self(), amount))
}

func (f *Forwarder) approveRouter(ctx context.Context, s dex.Session, token common.Address, amount *big.Int) error {
	erc20 := s.Token(token)
	residual := new(big.Int)
	if f.allowance == AllowanceAccumulate {
		var err error
		if residual, err = erc20.Allowance(ctx, s.Self(), f.router); err != nil {
			return callError("allowance", token, err)
		}
	}
	return callError("approve", token, erc20.Approve(ctx, f.router, f.allowance.next(residual, amount)))
}

func (f *Forwarder) refund(ctx context.Context, s dex.Session, caller, token common.Address, taken, used *big.Int) error {
	unused := new(big.Int).Sub(taken, used)
	if unused.Sign() <= 0 {
		return nil
	}
	return callError("transfer", token, s.Token(token).Transfer(ctx, caller, unused))
}

func validAmounts(amounts ...*big.Int) error {
	for _, amount := range amounts {
		if amount == nil || amount.Sign() < 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}
