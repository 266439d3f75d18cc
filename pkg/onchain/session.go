package onchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/dex"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type compensation struct {
	description string
	undo        func(ctx context.Context) error
}

type session struct {
	backend *Backend
	undo    []compensation
	closed  bool
}

func (s *session) Self() common.Address {
	return s.backend.self
}

// Now is the latest block time plus the configured slack.
func (s *session) Now(ctx context.Context) (*big.Int, error) {
	header, err := s.backend.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	slack := uint64(s.backend.deadlineSlack.Seconds())
	return new(big.Int).SetUint64(header.Time + slack), nil
}

// ReceiveValue cannot pull native currency from another account, so the
// caller is expected to have funded the custody account beforehand.
func (s *session) ReceiveValue(ctx context.Context, from common.Address, value *big.Int) error {
	balance, err := s.backend.client.BalanceAt(ctx, s.backend.self, nil)
	if err != nil {
		return err
	}
	if balance.Cmp(value) < 0 {
		return fmt.Errorf("%w: holds %s, %s attached by %s", ErrInsufficientValue, balance, value, from.Hex())
	}
	return nil
}

func (s *session) Token(address common.Address) dex.ERC20 {
	return &token{session: s, address: address}
}

func (s *session) Router(address common.Address) dex.Router {
	return &router{session: s, address: address}
}

func (s *session) Factory(address common.Address) dex.Factory {
	return &factory{session: s, address: address}
}

func (s *session) compensate(description string, undo func(ctx context.Context) error) {
	s.undo = append(s.undo, compensation{description: description, undo: undo})
}

func (s *session) Commit() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	s.undo = nil
	s.backend.exec.Unlock()
	return nil
}

// Rollback runs the compensations in reverse order. All of them are attempted
// even when one fails.
func (s *session) Rollback(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	defer s.backend.exec.Unlock()

	var errs []error
	for i := len(s.undo) - 1; i >= 0; i-- {
		c := s.undo[i]
		if err := c.undo(ctx); err != nil {
			s.backend.log.Error("Compensation failed", "action", c.description, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.description, err))
			continue
		}
		s.backend.log.Info("Compensated", "action", c.description)
	}
	s.undo = nil
	return errors.Join(errs...)
}

func (s *session) callOpts(ctx context.Context) *bind.CallOpts {
	return s.backend.CallOpts(ctx)
}
