package onchain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type factory struct {
	session *session
	address common.Address
}

func (f *factory) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	contract, err := f.session.backend.binding.FactoryContract(f.address)
	if err != nil {
		return common.Address{}, err
	}
	return contract.GetPair(f.session.callOpts(ctx), tokenA, tokenB)
}
