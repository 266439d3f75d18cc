package binding

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type UniV2Factory struct {
	Address  common.Address
	contract *bind.BoundContract
}

func NewUniV2Factory(address common.Address, backend bind.ContractBackend) (*UniV2Factory, error) {
	parsed, err := UniV2FactoryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &UniV2Factory{
		Address:  address,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}, nil
}

func (f *UniV2Factory) GetPair(opts *bind.CallOpts, tokenA, tokenB common.Address) (common.Address, error) {
	var out []interface{}
	if err := f.contract.Call(opts, &out, "getPair", tokenA, tokenB); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (f *UniV2Factory) AllPairsLength(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := f.contract.Call(opts, &out, "allPairsLength"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
