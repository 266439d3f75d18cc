package types

import "github.com/ethereum/go-ethereum/common"

// Dex is one UniswapV2 deployment.
type Dex struct {
	Factory common.Address
	Router  common.Address
	WETH    common.Address
}
