package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pair mirrors the state of a UniswapV2 pair contract. Token0 sorts below Token1.
type Pair struct {
	PairAddress   common.Address
	Token0Address common.Address
	Token1Address common.Address
	Reserve0      *big.Int
	Reserve1      *big.Int
	LastUpdated   uint64
}

// Reserves returns the reserves ordered as (tokenA, tokenB).
func (p *Pair) Reserves(tokenA common.Address) (*big.Int, *big.Int) {
	if tokenA == p.Token0Address {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}
