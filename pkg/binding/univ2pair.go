package binding

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type UniV2Pair struct {
	Address  common.Address
	contract *bind.BoundContract
}

type UniV2PairMint struct {
	Sender  common.Address
	Amount0 *big.Int
	Amount1 *big.Int
	Raw     types.Log
}

type UniV2PairBurn struct {
	Sender  common.Address
	Amount0 *big.Int
	Amount1 *big.Int
	To      common.Address
	Raw     types.Log
}

type UniV2PairSwap struct {
	Sender     common.Address
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int
	To         common.Address
	Raw        types.Log
}

type UniV2PairSync struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
	Raw      types.Log
}

type Reserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

func NewUniV2Pair(address common.Address, backend bind.ContractBackend) (*UniV2Pair, error) {
	parsed, err := UniV2PairMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &UniV2Pair{
		Address:  address,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}, nil
}

func (p *UniV2Pair) Token0(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "token0"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (p *UniV2Pair) Token1(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "token1"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (p *UniV2Pair) GetReserves(opts *bind.CallOpts) (Reserves, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "getReserves"); err != nil {
		return Reserves{}, err
	}
	return Reserves{
		Reserve0:           *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Reserve1:           *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		BlockTimestampLast: *abi.ConvertType(out[2], new(uint32)).(*uint32),
	}, nil
}

func (p *UniV2Pair) ParseMint(log types.Log) (*UniV2PairMint, error) {
	event := new(UniV2PairMint)
	if err := p.contract.UnpackLog(event, "Mint", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

func (p *UniV2Pair) ParseBurn(log types.Log) (*UniV2PairBurn, error) {
	event := new(UniV2PairBurn)
	if err := p.contract.UnpackLog(event, "Burn", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

func (p *UniV2Pair) ParseSwap(log types.Log) (*UniV2PairSwap, error) {
	event := new(UniV2PairSwap)
	if err := p.contract.UnpackLog(event, "Swap", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

func (p *UniV2Pair) ParseSync(log types.Log) (*UniV2PairSync, error) {
	event := new(UniV2PairSync)
	if err := p.contract.UnpackLog(event, "Sync", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
