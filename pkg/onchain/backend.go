// Package onchain runs forwarder sessions against a live chain. Calls are
// sent as transactions signed by the custody key and waited on one at a
// time. A failed session is undone by compensation: custody is paid back and
// router approvals are restored. Whatever the router already executed stays.
package onchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/RestinGreen/polygon-forwarder/pkg/binding"
	"github.com/RestinGreen/polygon-forwarder/pkg/chain"
	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrReverted          = errors.New("transaction reverted")
	ErrInsufficientValue = errors.New("custody account does not hold the attached value")
	ErrSessionClosed     = errors.New("session already closed")
	ErrUnexpectedLogs    = errors.New("receipt logs do not match the call")
)

// Client is the node API the backend needs. *ethclient.Client implements it.
type Client interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type Backend struct {
	client  Client
	binding *binding.Binding
	key     *ecdsa.PrivateKey
	self    common.Address
	chainID *big.Int

	deadlineSlack time.Duration

	// one session at a time keeps nonces and compensations ordered
	exec sync.Mutex
	log  log.Logger
}

type Option func(*Backend)

// WithDeadlineSlack pushes the router deadline past the latest block time to
// leave room for the transaction to be mined.
func WithDeadlineSlack(slack time.Duration) Option {
	return func(b *Backend) {
		b.deadlineSlack = slack
	}
}

func WithLogger(logger log.Logger) Option {
	return func(b *Backend) {
		b.log = logger
	}
}

func NewBackend(client Client, key *ecdsa.PrivateKey, chainID *big.Int, opts ...Option) *Backend {
	b := &Backend{
		client:        client,
		binding:       binding.NewBinding(client),
		key:           key,
		self:          crypto.PubkeyToAddress(key.PublicKey),
		chainID:       chainID,
		deadlineSlack: time.Minute,
		log:           log.New("module", "onchain"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Self is the custody account, the address callers approve.
func (b *Backend) Self() common.Address {
	return b.self
}

func (b *Backend) Binding() *binding.Binding {
	return b.binding
}

// CallOpts reads state as the custody account.
func (b *Backend) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: b.self}
}

func (b *Backend) Begin(ctx context.Context) (dex.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.exec.Lock()
	return &session{backend: b}, nil
}

func (b *Backend) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(b.key, b.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// send submits a transaction built by transact and waits for its receipt.
// The method is named from the transaction's selector.
func (b *Backend) send(ctx context.Context, value *big.Int, transact func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Receipt, error) {
	opts, err := b.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	opts.Value = value

	tx, err := transact(opts)
	if err != nil {
		return nil, err
	}
	method := chain.MethodName(tx.Data())
	b.log.Debug("Transaction sent", "method", method, "hash", tx.Hash())

	receipt, err := bind.WaitMined(ctx, b.client, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s %s: %w", method, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s %s", ErrReverted, method, tx.Hash().Hex())
	}
	b.log.Debug("Transaction mined", "method", method, "hash", tx.Hash(), "block", receipt.BlockNumber, "gas", receipt.GasUsed)
	return receipt, nil
}
