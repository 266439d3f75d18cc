package onchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/RestinGreen/polygon-forwarder/pkg/binding"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type token struct {
	session *session
	address common.Address
}

func (t *token) contract() (*binding.ERC20, error) {
	return t.session.backend.binding.TokenContract(t.address)
}

func (t *token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	erc20, err := t.contract()
	if err != nil {
		return nil, err
	}
	return erc20.BalanceOf(t.session.callOpts(ctx), owner)
}

func (t *token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	erc20, err := t.contract()
	if err != nil {
		return nil, err
	}
	return erc20.Allowance(t.session.callOpts(ctx), owner, spender)
}

// Approve restores the previous allowance on rollback.
func (t *token) Approve(ctx context.Context, spender common.Address, amount *big.Int) error {
	erc20, err := t.contract()
	if err != nil {
		return err
	}
	previous, err := erc20.Allowance(t.session.callOpts(ctx), t.session.Self(), spender)
	if err != nil {
		return err
	}
	if _, err := t.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return erc20.Approve(opts, spender, amount)
	}); err != nil {
		return err
	}

	t.session.compensate(fmt.Sprintf("approve %s for %s on %s", previous, spender.Hex(), t.address.Hex()), func(ctx context.Context) error {
		_, err := t.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return erc20.Approve(opts, spender, previous)
		})
		return err
	})
	return nil
}

func (t *token) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	erc20, err := t.contract()
	if err != nil {
		return err
	}
	_, err = t.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return erc20.Transfer(opts, to, amount)
	})
	return err
}

// TransferFrom into custody is paid back to from on rollback.
func (t *token) TransferFrom(ctx context.Context, from, to common.Address, amount *big.Int) error {
	erc20, err := t.contract()
	if err != nil {
		return err
	}
	if _, err := t.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return erc20.TransferFrom(opts, from, to, amount)
	}); err != nil {
		return err
	}

	if to == t.session.Self() {
		t.session.compensate(fmt.Sprintf("return %s of %s to %s", amount, t.address.Hex(), from.Hex()), func(ctx context.Context) error {
			_, err := t.session.backend.send(ctx, nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
				return erc20.Transfer(opts, from, amount)
			})
			return err
		})
	}
	return nil
}
