package memory

import (
	"fmt"
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

type TokenMemory struct {
	Tokens map[common.Address]*types.Token

	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[allowanceKey]*big.Int
	supply     map[common.Address]*big.Int
}

// DeployToken registers a new ERC-20 and returns its address.
func (m *Memory) DeployToken(name, symbol string, decimals uint8) common.Address {
	m.mu.Lock()
	defer m.mu.Unlock()

	address := m.nextAddress()
	m.addToken(address, name, symbol, decimals)
	return address
}

func (m *Memory) addToken(address common.Address, name, symbol string, decimals uint8) {
	m.tokens.Tokens[address] = &types.Token{
		Address:  address,
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
	}
	m.tokens.balances[address] = map[common.Address]*big.Int{}
	m.tokens.allowances[address] = map[allowanceKey]*big.Int{}
	m.tokens.supply[address] = new(big.Int)
}

func (m *Memory) Token(address common.Address) (types.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, exists := m.tokens.Tokens[address]
	if !exists {
		return types.Token{}, false
	}
	return *token, true
}

// Mint credits amount of token to the account.
func (m *Memory) Mint(token, to common.Address, amount *big.Int) error {
	return m.direct(func() error {
		return m.mint(token, to, amount)
	})
}

// Approve sets the allowance as if owner had called approve itself.
func (m *Memory) Approve(token, owner, spender common.Address, amount *big.Int) error {
	return m.direct(func() error {
		return m.approve(token, owner, spender, amount)
	})
}

func (m *Memory) BalanceOf(token, holder common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.balanceOf(token, holder))
}

func (m *Memory) Allowance(token, owner, spender common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.allowance(token, owner, spender))
}

func (m *Memory) TotalSupply(token common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.totalSupply(token))
}

func (m *Memory) requireToken(token common.Address) error {
	if _, exists := m.tokens.Tokens[token]; !exists {
		return fmt.Errorf("%w: token %s", ErrNoCode, token.Hex())
	}
	return nil
}

func (m *Memory) balanceOf(token, holder common.Address) *big.Int {
	if balance, ok := m.tokens.balances[token][holder]; ok {
		return balance
	}
	return new(big.Int)
}

func (m *Memory) allowance(token, owner, spender common.Address) *big.Int {
	if allowance, ok := m.tokens.allowances[token][allowanceKey{owner, spender}]; ok {
		return allowance
	}
	return new(big.Int)
}

func (m *Memory) totalSupply(token common.Address) *big.Int {
	if supply, ok := m.tokens.supply[token]; ok {
		return supply
	}
	return new(big.Int)
}

func (m *Memory) transfer(token, from, to common.Address, amount *big.Int) error {
	if err := m.requireToken(token); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	balance := m.balanceOf(token, from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, from.Hex(), balance, token.Hex(), amount)
	}
	holders := m.tokens.balances[token]
	setJournaled(m, holders, from, new(big.Int).Sub(balance, amount))
	setJournaled(m, holders, to, new(big.Int).Add(m.balanceOf(token, to), amount))
	return nil
}

// transferFrom spends the allowance owner gave spender. A max uint256
// allowance is never decreased.
func (m *Memory) transferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	if err := m.requireToken(token); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	allowance := m.allowance(token, from, spender)
	if allowance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allows %s to spend %s of %s, needs %s", ErrInsufficientAllowance, from.Hex(), spender.Hex(), allowance, token.Hex(), amount)
	}
	if err := m.transfer(token, from, to, amount); err != nil {
		return err
	}
	if allowance.Cmp(math.MaxBig256) != 0 {
		setJournaled(m, m.tokens.allowances[token], allowanceKey{from, spender}, new(big.Int).Sub(allowance, amount))
	}
	return nil
}

func (m *Memory) approve(token, owner, spender common.Address, amount *big.Int) error {
	if err := m.requireToken(token); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	setJournaled(m, m.tokens.allowances[token], allowanceKey{owner, spender}, amount)
	return nil
}

func (m *Memory) mint(token, to common.Address, amount *big.Int) error {
	if err := m.requireToken(token); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	setJournaled(m, m.tokens.supply, token, new(big.Int).Add(m.totalSupply(token), amount))
	setJournaled(m, m.tokens.balances[token], to, new(big.Int).Add(m.balanceOf(token, to), amount))
	return nil
}

func (m *Memory) burn(token, from common.Address, amount *big.Int) error {
	balance := m.balanceOf(token, from)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: burn %s from %s", ErrInsufficientBalance, amount, from.Hex())
	}
	setJournaled(m, m.tokens.balances[token], from, new(big.Int).Sub(balance, amount))
	setJournaled(m, m.tokens.supply, token, new(big.Int).Sub(m.totalSupply(token), amount))
	return nil
}

// deposit wraps native currency held by account into WETH.
func (m *Memory) deposit(account common.Address, amount *big.Int) error {
	if err := m.nativeTransfer(account, m.dex.WETH, amount); err != nil {
		return err
	}
	return m.mint(m.dex.WETH, account, amount)
}

func (m *Memory) withdraw(account common.Address, amount *big.Int) error {
	if err := m.burn(m.dex.WETH, account, amount); err != nil {
		return err
	}
	return m.nativeTransfer(m.dex.WETH, account, amount)
}
