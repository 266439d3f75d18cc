// Package memory is an in-process stand-in for an EVM chain carrying a
// UniswapV2 deployment: an ERC-20 ledger, native balances, WETH, the factory,
// pairs and Router02. Every state change is journaled so a session can be
// reverted as a whole, the way a failed call is on chain.
package memory

import (
	"math/big"
	"sync"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

var deployer = common.HexToAddress("0x00000000000000000000000000000000000d3910")

// genesisTime is the block time a fresh Memory starts at.
const genesisTime = 1_700_000_000

type Memory struct {
	// exec serializes sessions, mu guards the state below.
	exec sync.Mutex
	mu   sync.Mutex

	dex    types.Dex
	pairs  *PairMemory
	tokens *TokenMemory
	native map[common.Address]*big.Int
	now    uint64
	nonce  uint64

	journal []func()
	log     log.Logger
}

func NewMemory() *Memory {

	m := &Memory{
		pairs: &PairMemory{
			PairMap: map[common.Address]string{},
			Pairs:   map[string]*types.Pair{},
		},
		tokens: &TokenMemory{
			Tokens:     map[common.Address]*types.Token{},
			balances:   map[common.Address]map[common.Address]*big.Int{},
			allowances: map[common.Address]map[allowanceKey]*big.Int{},
			supply:     map[common.Address]*big.Int{},
		},
		native: map[common.Address]*big.Int{},
		now:    genesisTime,
		log:    log.New("module", "memory"),
	}
	m.dex.Factory = m.nextAddress()
	m.dex.Router = m.nextAddress()
	m.dex.WETH = m.nextAddress()
	m.addToken(m.dex.WETH, "Wrapped Ether", "WETH", 18)

	return m
}

func (m *Memory) nextAddress() common.Address {
	address := crypto.CreateAddress(deployer, m.nonce)
	m.nonce++
	return address
}

func (m *Memory) record(undo func()) {
	m.journal = append(m.journal, undo)
}

// direct applies fn outside of any session. It waits for an open session to
// finish so the change never lands in that session's journal.
func (m *Memory) direct(fn func() error) error {
	m.exec.Lock()
	defer m.exec.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := fn(); err != nil {
		m.revert()
		return err
	}
	m.journal = nil
	return nil
}

func (m *Memory) revert() {
	for i := len(m.journal) - 1; i >= 0; i-- {
		m.journal[i]()
	}
	m.journal = nil
}

// setJournaled stores a copy of value under key and journals the previous entry.
func setJournaled[K comparable](m *Memory, store map[K]*big.Int, key K, value *big.Int) {
	prev, existed := store[key]
	m.record(func() {
		if existed {
			store[key] = prev
		} else {
			delete(store, key)
		}
	})
	store[key] = new(big.Int).Set(value)
}

func (m *Memory) Dex() types.Dex {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dex
}

func (m *Memory) RouterAddress() common.Address {
	return m.Dex().Router
}

func (m *Memory) FactoryAddress() common.Address {
	return m.Dex().Factory
}

func (m *Memory) WETHAddress() common.Address {
	return m.Dex().WETH
}

// Now returns the current block time.
func (m *Memory) Now() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Memory) AdvanceTime(d time.Duration) {
	m.mu.Lock()
	m.now += uint64(d / time.Second)
	m.mu.Unlock()
}

func (m *Memory) NativeBalance(account common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.nativeBalance(account))
}

func (m *Memory) SetNativeBalance(account common.Address, amount *big.Int) {
	m.direct(func() error {
		setJournaled(m, m.native, account, amount)
		return nil
	})
}

func (m *Memory) nativeBalance(account common.Address) *big.Int {
	if balance, ok := m.native[account]; ok {
		return balance
	}
	return new(big.Int)
}

func (m *Memory) nativeTransfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	balance := m.nativeBalance(from)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	setJournaled(m, m.native, from, new(big.Int).Sub(balance, amount))
	setJournaled(m, m.native, to, new(big.Int).Add(m.nativeBalance(to), amount))
	return nil
}
