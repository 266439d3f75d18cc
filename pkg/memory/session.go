package memory

import (
	"context"
	"fmt"
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/ethereum/go-ethereum/common"
)

// Backend opens sessions that act as a fixed account, the way a deployed
// contract is msg.sender for every call it makes.
type Backend struct {
	memory *Memory
	self   common.Address
}

func (m *Memory) Backend(self common.Address) *Backend {
	return &Backend{memory: m, self: self}
}

// Begin blocks until no other session is open.
func (b *Backend) Begin(ctx context.Context) (dex.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.memory.exec.Lock()
	b.memory.mu.Lock()
	b.memory.journal = nil
	b.memory.mu.Unlock()

	return &session{memory: b.memory, self: b.self}, nil
}

type session struct {
	memory *Memory
	self   common.Address
	closed bool
}

func (s *session) Self() common.Address {
	return s.self
}

func (s *session) Now(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(s.memory.Now()), nil
}

func (s *session) ReceiveValue(ctx context.Context, from common.Address, value *big.Int) error {
	s.memory.mu.Lock()
	defer s.memory.mu.Unlock()
	return s.memory.nativeTransfer(from, s.self, amountOrZero(value))
}

func (s *session) Token(address common.Address) dex.ERC20 {
	return &tokenHandle{memory: s.memory, address: address, actor: s.self}
}

func (s *session) Router(address common.Address) dex.Router {
	return &routerHandle{memory: s.memory, address: address, sender: s.self}
}

func (s *session) Factory(address common.Address) dex.Factory {
	return &factoryHandle{memory: s.memory, address: address}
}

func (s *session) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.memory.mu.Lock()
	s.memory.journal = nil
	s.memory.mu.Unlock()
	s.memory.exec.Unlock()
	return nil
}

func (s *session) Rollback(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.memory.mu.Lock()
	reverted := len(s.memory.journal)
	s.memory.revert()
	s.memory.mu.Unlock()
	s.memory.exec.Unlock()

	s.memory.log.Debug("Session reverted", "account", s.self, "changes", reverted)
	return nil
}

func amountOrZero(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return amount
}

type tokenHandle struct {
	memory  *Memory
	address common.Address
	actor   common.Address
}

func (t *tokenHandle) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	t.memory.mu.Lock()
	defer t.memory.mu.Unlock()
	if err := t.memory.requireToken(t.address); err != nil {
		return nil, err
	}
	return new(big.Int).Set(t.memory.balanceOf(t.address, owner)), nil
}

func (t *tokenHandle) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	t.memory.mu.Lock()
	defer t.memory.mu.Unlock()
	if err := t.memory.requireToken(t.address); err != nil {
		return nil, err
	}
	return new(big.Int).Set(t.memory.allowance(t.address, owner, spender)), nil
}

func (t *tokenHandle) Approve(ctx context.Context, spender common.Address, amount *big.Int) error {
	t.memory.mu.Lock()
	defer t.memory.mu.Unlock()
	return t.memory.approve(t.address, t.actor, spender, amountOrZero(amount))
}

func (t *tokenHandle) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	t.memory.mu.Lock()
	defer t.memory.mu.Unlock()
	return t.memory.transfer(t.address, t.actor, to, amountOrZero(amount))
}

func (t *tokenHandle) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	t.memory.mu.Lock()
	defer t.memory.mu.Unlock()
	return t.memory.transferFrom(t.address, t.actor, from, to, amountOrZero(amount))
}

type factoryHandle struct {
	memory  *Memory
	address common.Address
}

func (f *factoryHandle) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	f.memory.mu.Lock()
	defer f.memory.mu.Unlock()
	if f.address != f.memory.dex.Factory {
		return common.Address{}, fmt.Errorf("%w: factory %s", ErrNoCode, f.address.Hex())
	}
	return f.memory.getPair(tokenA, tokenB), nil
}

type routerHandle struct {
	memory  *Memory
	address common.Address
	sender  common.Address
}

// lock takes the state lock and checks the handle points at the deployed router.
func (r *routerHandle) lock() error {
	r.memory.mu.Lock()
	if r.address != r.memory.dex.Router {
		r.memory.mu.Unlock()
		return fmt.Errorf("%w: router %s", ErrNoCode, r.address.Hex())
	}
	return nil
}

func (r *routerHandle) WETH(ctx context.Context) (common.Address, error) {
	if err := r.lock(); err != nil {
		return common.Address{}, err
	}
	defer r.memory.mu.Unlock()
	return r.memory.dex.WETH, nil
}

func (r *routerHandle) AddLiquidity(ctx context.Context, p dex.AddLiquidityParams) (*dex.AddLiquidityResult, error) {
	if err := r.lock(); err != nil {
		return nil, err
	}
	defer r.memory.mu.Unlock()
	p.AmountADesired, p.AmountBDesired = amountOrZero(p.AmountADesired), amountOrZero(p.AmountBDesired)
	p.AmountAMin, p.AmountBMin = amountOrZero(p.AmountAMin), amountOrZero(p.AmountBMin)
	return r.memory.addLiquidity(r.sender, p)
}

func (r *routerHandle) AddLiquidityETH(ctx context.Context, value *big.Int, p dex.AddLiquidityETHParams) (*dex.AddLiquidityResult, error) {
	if err := r.lock(); err != nil {
		return nil, err
	}
	defer r.memory.mu.Unlock()
	p.AmountTokenDesired = amountOrZero(p.AmountTokenDesired)
	p.AmountTokenMin, p.AmountETHMin = amountOrZero(p.AmountTokenMin), amountOrZero(p.AmountETHMin)
	return r.memory.addLiquidityETH(r.sender, amountOrZero(value), p)
}

func (r *routerHandle) RemoveLiquidity(ctx context.Context, p dex.RemoveLiquidityParams) (*dex.RemoveLiquidityResult, error) {
	if err := r.lock(); err != nil {
		return nil, err
	}
	defer r.memory.mu.Unlock()
	p.Liquidity = amountOrZero(p.Liquidity)
	p.AmountAMin, p.AmountBMin = amountOrZero(p.AmountAMin), amountOrZero(p.AmountBMin)
	return r.memory.removeLiquidity(r.sender, p)
}

func (r *routerHandle) RemoveLiquidityETH(ctx context.Context, p dex.RemoveLiquidityETHParams) (*dex.RemoveLiquidityResult, error) {
	if err := r.lock(); err != nil {
		return nil, err
	}
	defer r.memory.mu.Unlock()
	p.Liquidity = amountOrZero(p.Liquidity)
	p.AmountTokenMin, p.AmountETHMin = amountOrZero(p.AmountTokenMin), amountOrZero(p.AmountETHMin)
	return r.memory.removeLiquidityETH(r.sender, p)
}

func (r *routerHandle) SwapExactTokensForTokens(ctx context.Context, p dex.SwapParams) ([]*big.Int, error) {
	if err := r.lock(); err != nil {
		return nil, err
	}
	defer r.memory.mu.Unlock()
	p.AmountIn, p.AmountOutMin = amountOrZero(p.AmountIn), amountOrZero(p.AmountOutMin)
	return r.memory.swapExactTokensForTokens(r.sender, p)
}

func (r *routerHandle) SwapExactTokensForETH(ctx context.Context, p dex.SwapParams) ([]*big.Int, error) {
	if err := r.lock(); err != nil {
		return nil, err
	}
	defer r.memory.mu.Unlock()
	p.AmountIn, p.AmountOutMin = amountOrZero(p.AmountIn), amountOrZero(p.AmountOutMin)
	return r.memory.swapExactTokensForETH(r.sender, p)
}
